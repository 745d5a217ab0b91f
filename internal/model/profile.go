// internal/model/profile.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Profile holds the optional self-description shown next to a user in group views.
type Profile struct {
	UserID      uuid.UUID `gorm:"type:uuid;primary_key" json:"user_id"`
	AboutMe     string    `gorm:"type:varchar(2000)" json:"about_me"`
	GithubURL   string    `gorm:"type:text" json:"github_url"`
	LinkedinURL string    `gorm:"type:text" json:"linkedin_url"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}
