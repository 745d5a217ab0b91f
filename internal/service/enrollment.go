package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dangerclosesec/studygroups/internal/domain"
	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/dangerclosesec/studygroups/internal/repository"
	"github.com/google/uuid"
)

// EnrollmentService tracks which courses a user takes. Courses are checked
// against the Directory before an enrollment is stored.
type EnrollmentService struct {
	dir  Directory
	repo repository.EnrollmentRepositoryIface
	now  func() time.Time
}

func NewEnrollmentService(dir Directory, repo repository.EnrollmentRepositoryIface) *EnrollmentService {
	return &EnrollmentService{
		dir:  dir,
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Enroll adds courseID to the user's courses. Enrolling twice is a no-op.
func (s *EnrollmentService) Enroll(ctx context.Context, userID uuid.UUID, courseID string) (*model.Enrollment, error) {
	if _, err := s.dir.FindUser(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("finding user: %w", err)
	}
	if _, err := s.dir.FindCourse(ctx, courseID); err != nil {
		return nil, err
	}

	enrollment := &model.Enrollment{UserID: userID, CourseID: courseID, EnrolledAt: s.now()}
	if err := s.repo.Enroll(ctx, enrollment); err != nil {
		return nil, err
	}
	return enrollment, nil
}

func (s *EnrollmentService) Unenroll(ctx context.Context, userID uuid.UUID, courseID string) error {
	return s.repo.Unenroll(ctx, userID, courseID)
}

func (s *EnrollmentService) ListEnrollments(ctx context.Context, userID uuid.UUID) ([]*model.Enrollment, error) {
	return s.repo.ListByUser(ctx, userID)
}
