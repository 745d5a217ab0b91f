package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dangerclosesec/studygroups/internal/audit"
	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/dangerclosesec/studygroups/internal/repository"
	"github.com/dangerclosesec/studygroups/internal/service"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventRepoStub struct {
	created []*model.GroupEvent
	query   repository.EventQuery
	err     error
}

func (r *eventRepoStub) Create(_ context.Context, event *model.GroupEvent) error {
	if r.err != nil {
		return r.err
	}
	r.created = append(r.created, event)
	return nil
}

func (r *eventRepoStub) Query(_ context.Context, params repository.EventQuery) ([]model.GroupEvent, int64, error) {
	r.query = params
	return nil, 0, r.err
}

func TestGroupEventService(t *testing.T) {
	t.Run("stamps request metadata", func(t *testing.T) {
		repo := &eventRepoStub{}
		svc := service.NewGroupEventService(repo)

		ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
		ctx = audit.WithClientIP(ctx, "10.0.0.1")

		event := &model.GroupEvent{GroupID: uuid.New(), ActorID: uuid.New(), Action: model.ActionMemberJoined}
		require.NoError(t, svc.LogTransition(ctx, event))

		require.Len(t, repo.created, 1)
		assert.Equal(t, "req-1", repo.created[0].RequestID)
		assert.Equal(t, "10.0.0.1", repo.created[0].ClientIP)
		assert.False(t, repo.created[0].CreatedAt.IsZero())
	})

	t.Run("propagates store errors", func(t *testing.T) {
		boom := errors.New("boom")
		svc := service.NewGroupEventService(&eventRepoStub{err: boom})
		err := svc.LogTransition(context.Background(), &model.GroupEvent{})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("clamps paging", func(t *testing.T) {
		repo := &eventRepoStub{}
		svc := service.NewGroupEventService(repo)

		_, _, err := svc.ListEvents(context.Background(), repository.EventQuery{Limit: 10000, Offset: -3})
		require.NoError(t, err)
		assert.Equal(t, 100, repo.query.Limit)
		assert.Equal(t, 0, repo.query.Offset)
	})
}
