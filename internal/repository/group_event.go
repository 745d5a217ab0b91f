package repository

import (
	"context"
	"time"

	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GroupEventRepositoryIface interface {
	Create(ctx context.Context, event *model.GroupEvent) error
	Query(ctx context.Context, params EventQuery) ([]model.GroupEvent, int64, error)
}

var _ GroupEventRepositoryIface = (*GroupEventRepository)(nil)

// GroupEventRepository handles database operations for group events
type GroupEventRepository struct {
	db *gorm.DB
}

// NewGroupEventRepository creates a new GroupEventRepository
func NewGroupEventRepository(db *gorm.DB) *GroupEventRepository {
	return &GroupEventRepository{
		db: db,
	}
}

// Create inserts a new event
func (r *GroupEventRepository) Create(ctx context.Context, event *model.GroupEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return storeErr("failed to create group event", err)
	}

	return nil
}

// EventQuery holds parameters for querying group events
type EventQuery struct {
	GroupID   uuid.UUID
	ActorID   uuid.UUID
	Action    string
	StartTime time.Time
	EndTime   time.Time
	Limit     int
	Offset    int
}

// Query retrieves events matching the provided parameters, newest first
func (r *GroupEventRepository) Query(ctx context.Context, params EventQuery) ([]model.GroupEvent, int64, error) {
	var events []model.GroupEvent
	var count int64

	query := r.db.WithContext(ctx).Model(&model.GroupEvent{})

	if params.GroupID != uuid.Nil {
		query = query.Where("group_id = ?", params.GroupID)
	}
	if params.ActorID != uuid.Nil {
		query = query.Where("actor_id = ?", params.ActorID)
	}
	if params.Action != "" {
		query = query.Where("action = ?", params.Action)
	}
	if !params.StartTime.IsZero() {
		query = query.Where("created_at >= ?", params.StartTime)
	}
	if !params.EndTime.IsZero() {
		query = query.Where("created_at <= ?", params.EndTime)
	}

	if err := query.Count(&count).Error; err != nil {
		return nil, 0, storeErr("failed to count group events", err)
	}

	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	} else {
		query = query.Limit(100) // Default limit
	}

	if params.Offset > 0 {
		query = query.Offset(params.Offset)
	}

	if err := query.Order("created_at DESC").Find(&events).Error; err != nil {
		return nil, 0, storeErr("failed to query group events", err)
	}

	return events, count, nil
}
