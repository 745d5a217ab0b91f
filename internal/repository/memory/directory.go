package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dangerclosesec/studygroups/internal/domain"
	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/dangerclosesec/studygroups/internal/repository"
	"github.com/google/uuid"
)

var (
	_ repository.CourseRepositoryIface     = (*Courses)(nil)
	_ repository.UserRepositoryIface       = (*Users)(nil)
	_ repository.ProfileRepositoryIface    = (*Profiles)(nil)
	_ repository.EnrollmentRepositoryIface = (*Enrollments)(nil)
)

// Courses is an in-memory course catalogue.
type Courses struct {
	mu      sync.RWMutex
	courses map[string]model.Course
}

func NewCourses() *Courses {
	return &Courses{courses: map[string]model.Course{}}
}

func (c *Courses) FindByID(_ context.Context, id string) (*model.Course, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	course, ok := c.courses[id]
	if !ok {
		return nil, domain.ErrCourseNotFound
	}
	return &course, nil
}

func (c *Courses) FindAll(_ context.Context) ([]*model.Course, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	courses := make([]*model.Course, 0, len(c.courses))
	for _, course := range c.courses {
		course := course
		courses = append(courses, &course)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	return courses, nil
}

func (c *Courses) Upsert(_ context.Context, courses []*model.Course) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, course := range courses {
		c.courses[course.ID] = *course
	}
	return nil
}

// Users is an in-memory user table keyed by id with a case-insensitive email index.
type Users struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]model.User
	byEmail map[string]uuid.UUID
}

func NewUsers() *Users {
	return &Users{
		users:   map[uuid.UUID]model.User{},
		byEmail: map[string]uuid.UUID{},
	}
}

func (u *Users) Create(_ context.Context, user *model.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	key := strings.ToLower(user.Email)
	if _, exists := u.byEmail[key]; exists {
		return domain.ErrEmailAlreadyExists
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	u.users[user.ID] = *user
	u.byEmail[key] = user.ID
	return nil
}

func (u *Users) FindByEmail(_ context.Context, email string) (*model.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	id, ok := u.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user := u.users[id]
	return &user, nil
}

func (u *Users) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	user, ok := u.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (u *Users) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*model.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	users := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := u.users[id]; ok {
			users = append(users, &user)
		}
	}
	return users, nil
}

func (u *Users) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now().UTC()
	u.users[id] = user
	return nil
}

// Profiles is an in-memory profile table.
type Profiles struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]model.Profile
}

func NewProfiles() *Profiles {
	return &Profiles{profiles: map[uuid.UUID]model.Profile{}}
}

func (p *Profiles) FindByUserIDs(_ context.Context, ids []uuid.UUID) ([]*model.Profile, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	profiles := make([]*model.Profile, 0, len(ids))
	for _, id := range ids {
		if profile, ok := p.profiles[id]; ok {
			profiles = append(profiles, &profile)
		}
	}
	return profiles, nil
}

func (p *Profiles) Upsert(_ context.Context, profile *model.Profile) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profiles[profile.UserID] = *profile
	return nil
}

// Enrollments is an in-memory course enrollment table.
type Enrollments struct {
	mu          sync.RWMutex
	enrollments map[uuid.UUID]map[string]model.Enrollment
}

func NewEnrollments() *Enrollments {
	return &Enrollments{enrollments: map[uuid.UUID]map[string]model.Enrollment{}}
}

func (e *Enrollments) Enroll(_ context.Context, enrollment *model.Enrollment) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	courses, ok := e.enrollments[enrollment.UserID]
	if !ok {
		courses = map[string]model.Enrollment{}
		e.enrollments[enrollment.UserID] = courses
	}
	if existing, ok := courses[enrollment.CourseID]; ok {
		*enrollment = existing
		return nil
	}
	courses[enrollment.CourseID] = *enrollment
	return nil
}

func (e *Enrollments) Unenroll(_ context.Context, userID uuid.UUID, courseID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.enrollments[userID][courseID]; !ok {
		return domain.ErrNotEnrolled
	}
	delete(e.enrollments[userID], courseID)
	return nil
}

func (e *Enrollments) ListByUser(_ context.Context, userID uuid.UUID) ([]*model.Enrollment, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	enrollments := make([]*model.Enrollment, 0, len(e.enrollments[userID]))
	for _, enrollment := range e.enrollments[userID] {
		enrollment := enrollment
		enrollments = append(enrollments, &enrollment)
	}
	sort.Slice(enrollments, func(i, j int) bool { return enrollments[i].CourseID < enrollments[j].CourseID })
	return enrollments, nil
}
