// internal/model/course.go
package model

type Course struct {
	ID          string `gorm:"type:text;primary_key" json:"id"`
	Name        string `gorm:"type:text;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

func (Course) TableName() string {
	return "courses"
}
