package repository

import (
	"context"

	"github.com/dangerclosesec/studygroups/internal/domain"
	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentRepositoryIface interface {
	Enroll(ctx context.Context, enrollment *model.Enrollment) error
	Unenroll(ctx context.Context, userID uuid.UUID, courseID string) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Enrollment, error)
}

var _ EnrollmentRepositoryIface = (*EnrollmentRepository)(nil)

type EnrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Enroll is idempotent: enrolling twice keeps the first enrollment.
func (r *EnrollmentRepository) Enroll(ctx context.Context, enrollment *model.Enrollment) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(enrollment).Error
	if err != nil {
		return storeErr("enrolling in course", err)
	}
	return nil
}

func (r *EnrollmentRepository) Unenroll(ctx context.Context, userID uuid.UUID, courseID string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&model.Enrollment{})
	if result.Error != nil {
		return storeErr("unenrolling from course", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotEnrolled
	}
	return nil
}

// ListByUser returns the user's enrollments ordered by course id
func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Enrollment, error) {
	var enrollments []*model.Enrollment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("course_id").
		Find(&enrollments).Error
	if err != nil {
		return nil, storeErr("listing enrollments", err)
	}
	return enrollments, nil
}
