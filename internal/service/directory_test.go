package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dangerclosesec/studygroups/internal/domain"
	"github.com/dangerclosesec/studygroups/internal/mocks"
	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/dangerclosesec/studygroups/internal/repository/memory"
	"github.com/dangerclosesec/studygroups/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestCreateGroupDirectoryLookups(t *testing.T) {
	ctx := context.Background()
	creator := &model.User{ID: uuid.New(), Email: "c@example.com", Name: "C"}
	input := service.CreateGroupInput{Name: "Graphs", CourseID: "CS201", Privacy: model.PrivacyPublic, MemberLimit: 3}

	newService := func(t *testing.T) (*service.MembershipService, *mocks.MockCourseRepositoryIface, *mocks.MockUserRepositoryIface, *memory.Store) {
		ctrl := gomock.NewController(t)
		courses := mocks.NewMockCourseRepositoryIface(ctrl)
		users := mocks.NewMockUserRepositoryIface(ctrl)
		store := memory.NewStore()
		svc := service.NewMembershipService(store, service.NewRepositoryDirectory(courses, users), nil, nil)
		return svc, courses, users, store
	}

	t.Run("unknown course", func(t *testing.T) {
		svc, courses, users, store := newService(t)
		users.EXPECT().FindByID(gomock.Any(), creator.ID).Return(creator, nil)
		courses.EXPECT().FindByID(gomock.Any(), "CS201").Return(nil, domain.ErrCourseNotFound)

		_, err := svc.CreateGroup(ctx, input, creator.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidReference)

		groups, err := store.ListGroups(ctx)
		require.NoError(t, err)
		assert.Empty(t, groups)
	})

	t.Run("unknown creator", func(t *testing.T) {
		svc, _, users, _ := newService(t)
		users.EXPECT().FindByID(gomock.Any(), creator.ID).Return(nil, domain.ErrUserNotFound)

		_, err := svc.CreateGroup(ctx, input, creator.ID)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("directory outage is not a bad reference", func(t *testing.T) {
		svc, courses, users, _ := newService(t)
		outage := errors.New("connection reset")
		users.EXPECT().FindByID(gomock.Any(), creator.ID).Return(creator, nil)
		courses.EXPECT().FindByID(gomock.Any(), "CS201").Return(nil, outage)

		_, err := svc.CreateGroup(ctx, input, creator.ID)
		assert.ErrorIs(t, err, outage)
		assert.NotErrorIs(t, err, domain.ErrInvalidReference)
		assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
	})

	t.Run("success", func(t *testing.T) {
		svc, courses, users, _ := newService(t)
		users.EXPECT().FindByID(gomock.Any(), creator.ID).Return(creator, nil)
		courses.EXPECT().FindByID(gomock.Any(), "CS201").Return(&model.Course{ID: "CS201", Name: "Data Structures"}, nil)

		summary, err := svc.CreateGroup(ctx, input, creator.ID)
		require.NoError(t, err)
		assert.Equal(t, creator.ID, summary.Group.CreatedByID)
		assert.Equal(t, model.RoleAdmin, summary.CallerRole)
		assert.Equal(t, int64(1), summary.MemberCount)
	})
}
