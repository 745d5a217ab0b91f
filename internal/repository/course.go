// internal/repository/course.go
package repository

import (
	"context"
	"errors"

	"github.com/dangerclosesec/studygroups/internal/domain"
	"github.com/dangerclosesec/studygroups/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CourseRepositoryIface interface {
	FindByID(ctx context.Context, id string) (*model.Course, error)
	FindAll(ctx context.Context) ([]*model.Course, error)
	Upsert(ctx context.Context, courses []*model.Course) error
}

type CourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) FindByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	if err := r.db.WithContext(ctx).First(&course, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, storeErr("finding course", err)
	}
	return &course, nil
}

// FindAll returns all courses ordered by id
func (r *CourseRepository) FindAll(ctx context.Context) ([]*model.Course, error) {
	var courses []*model.Course
	if err := r.db.WithContext(ctx).Order("id").Find(&courses).Error; err != nil {
		return nil, storeErr("finding courses", err)
	}
	return courses, nil
}

// Upsert inserts courses, overwriting name and description of existing ids
func (r *CourseRepository) Upsert(ctx context.Context, courses []*model.Course) error {
	if len(courses) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description"}),
	}).Create(&courses).Error
	if err != nil {
		return storeErr("upserting courses", err)
	}
	return nil
}
