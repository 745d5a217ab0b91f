package serializer

import (
	"reflect"
	"strings"

	"github.com/dangerclosesec/studygroups/internal/model"
)

// ParseScopes extracts the scope portion from the tag. Example: "scope:admin,member" -> ["admin", "member"]
func ParseScopes(tag string) []string {
	prefix := "scope:"
	idx := strings.Index(tag, prefix)
	if idx == -1 {
		if tag == "always" {
			return []string{"always"}
		}
		return nil
	}

	scopes := strings.TrimPrefix(tag[idx:], prefix)
	scopes = strings.TrimSpace(scopes)
	return strings.Split(scopes, ",")
}

// CanViewField examines a `szlr` tag and decides whether a caller holding role may see the field.
// Untagged fields are visible. The member scope admits admins too.
func CanViewField(szlrTag string, role model.Role) bool {
	if szlrTag == "" {
		return true
	}

	for _, scope := range ParseScopes(szlrTag) {
		switch strings.TrimSpace(scope) {
		case "always":
			return true
		case "admin":
			if role == model.RoleAdmin {
				return true
			}
		case "member":
			if role == model.RoleAdmin || role == model.RoleMember {
				return true
			}
		}
	}

	return false
}

// Scrub zeroes every field of the struct pointed to by v that role may not view
func Scrub(v any, role model.Role) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		if !CanViewField(field.Tag.Get("szlr"), role) {
			rv.Field(i).Set(reflect.Zero(field.Type))
		}
	}
}
