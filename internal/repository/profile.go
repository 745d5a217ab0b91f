package repository

import (
	"context"

	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepositoryIface interface {
	FindByUserIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Profile, error)
	Upsert(ctx context.Context, profile *model.Profile) error
}

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) FindByUserIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Profile, error) {
	var profiles []*model.Profile
	if len(ids) == 0 {
		return profiles, nil
	}
	if err := r.db.WithContext(ctx).Where("user_id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, storeErr("finding profiles", err)
	}
	return profiles, nil
}

// Upsert creates the profile or replaces every field of an existing one
func (r *ProfileRepository) Upsert(ctx context.Context, profile *model.Profile) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"about_me", "github_url", "linkedin_url", "updated_at"}),
	}).Create(profile).Error
	if err != nil {
		return storeErr("upserting profile", err)
	}
	return nil
}
