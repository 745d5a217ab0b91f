package service

import (
	"context"

	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/dangerclosesec/studygroups/internal/repository"
	"github.com/google/uuid"
)

// Directory is the read-only course and user lookup the membership engine depends on
type Directory interface {
	FindCourse(ctx context.Context, id string) (*model.Course, error)
	FindUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}

var _ Directory = (*RepositoryDirectory)(nil)

// RepositoryDirectory serves Directory lookups from the course and user repositories
type RepositoryDirectory struct {
	courses repository.CourseRepositoryIface
	users   repository.UserRepositoryIface
}

func NewRepositoryDirectory(courses repository.CourseRepositoryIface, users repository.UserRepositoryIface) *RepositoryDirectory {
	return &RepositoryDirectory{courses: courses, users: users}
}

func (d *RepositoryDirectory) FindCourse(ctx context.Context, id string) (*model.Course, error) {
	return d.courses.FindByID(ctx, id)
}

func (d *RepositoryDirectory) FindUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return d.users.FindByID(ctx, id)
}
