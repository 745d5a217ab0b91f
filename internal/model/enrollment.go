package model

import (
	"time"

	"github.com/google/uuid"
)

// Enrollment records that a user takes a course.
type Enrollment struct {
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	CourseID   string    `gorm:"type:text;primaryKey" json:"course_id"`
	EnrolledAt time.Time `gorm:"not null" json:"enrolled_at"`
}

func (Enrollment) TableName() string {
	return "course_enrollments"
}
