package service

import (
	"context"
	"time"

	"github.com/dangerclosesec/studygroups/internal/audit"
	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/dangerclosesec/studygroups/internal/repository"
)

var _ audit.Logger = (*GroupEventService)(nil)

// GroupEventService persists the group audit trail
type GroupEventService struct {
	repo repository.GroupEventRepositoryIface
}

func NewGroupEventService(repo repository.GroupEventRepositoryIface) *GroupEventService {
	return &GroupEventService{repo: repo}
}

// LogTransition implements audit.Logger.LogTransition
func (s *GroupEventService) LogTransition(ctx context.Context, event *model.GroupEvent) error {
	audit.Stamp(ctx, event)
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	return s.repo.Create(ctx, event)
}

// ListEvents returns matching events newest first together with the total match count
func (s *GroupEventService) ListEvents(ctx context.Context, params repository.EventQuery) ([]model.GroupEvent, int64, error) {
	if params.Limit <= 0 || params.Limit > 500 {
		params.Limit = 100
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	return s.repo.Query(ctx, params)
}
