// internal/model/membership.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"

	// RoleNonMember is reported for callers without a membership. It is never stored.
	RoleNonMember Role = "non-member"
)

// Valid reports whether r can be stored on a membership.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

type Membership struct {
	GroupID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"group_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"user_id"`
	Role      Role      `gorm:"type:text;not null;default:'member'" json:"role"`
	JoinedAt  time.Time `gorm:"not null" json:"joined_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Membership) TableName() string {
	return "group_memberships"
}

func (m *Membership) IsAdmin() bool {
	return m.Role == RoleAdmin
}
