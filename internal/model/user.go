// internal/model/user.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type UserStatus string

const (
	StatusActive    UserStatus = "active"
	StatusSuspended UserStatus = "suspended"
)

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Email        string     `gorm:"type:citext;uniqueIndex;not null" json:"email"`
	Name         string     `gorm:"type:text;not null" json:"name"`
	PasswordHash string     `gorm:"type:text;not null" json:"-"`
	Status       UserStatus `gorm:"type:text;not null;default:'active'" json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
