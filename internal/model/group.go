// internal/model/group.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type Privacy string

const (
	PrivacyPublic         Privacy = "public"
	PrivacyPrivatePasskey Privacy = "private_passkey"
	PrivacyPrivateRequest Privacy = "private_request"
)

// Valid reports whether p is one of the known privacy modes.
func (p Privacy) Valid() bool {
	switch p {
	case PrivacyPublic, PrivacyPrivatePasskey, PrivacyPrivateRequest:
		return true
	}
	return false
}

// IsPrivate reports whether the group hides its details from non-members.
func (p Privacy) IsPrivate() bool {
	return p == PrivacyPrivatePasskey || p == PrivacyPrivateRequest
}

type Group struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name        string    `gorm:"type:text;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CourseID    string    `gorm:"type:text;not null;index" json:"course_id"`
	CreatedByID uuid.UUID `gorm:"type:uuid;not null" json:"created_by_id"`
	Privacy     Privacy   `gorm:"type:text;not null;default:'public'" json:"privacy"`
	Passkey     *string   `gorm:"type:text" json:"-"`
	MemberLimit int       `gorm:"not null" json:"member_limit"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Group) TableName() string {
	return "study_groups"
}

// HasPasskey reports whether joins are gated by a shared secret. A private_passkey
// group without a stored passkey falls back to request-gated joins.
func (g *Group) HasPasskey() bool {
	return g.Privacy == PrivacyPrivatePasskey && g.Passkey != nil && *g.Passkey != ""
}

// RequiresApproval reports whether joins queue a request for an admin.
func (g *Group) RequiresApproval() bool {
	switch g.Privacy {
	case PrivacyPrivateRequest:
		return true
	case PrivacyPrivatePasskey:
		return !g.HasPasskey()
	}
	return false
}
