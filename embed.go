// Package studygroups holds the assets compiled into every binary of the service.
package studygroups

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/dangerclosesec/studygroups/internal/model"
)

// EmailFS contains the email templates, one directory per template with an
// html.tmpl and a plaintext.tmpl.
//
//go:embed templates/emails
var EmailFS embed.FS

// SeedFS contains the course catalogue loaded by `groupsctl seed` and by the
// in-memory store at startup.
//
//go:embed seed/courses.json
var SeedFS embed.FS

// SeedCourses decodes the embedded course catalogue.
func SeedCourses() ([]*model.Course, error) {
	data, err := SeedFS.ReadFile("seed/courses.json")
	if err != nil {
		return nil, fmt.Errorf("reading seed courses: %w", err)
	}

	var courses []*model.Course
	if err := json.Unmarshal(data, &courses); err != nil {
		return nil, fmt.Errorf("decoding seed courses: %w", err)
	}
	return courses, nil
}
