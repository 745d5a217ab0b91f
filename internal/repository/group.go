// internal/repository/group.go
package repository

import (
	"context"
	"errors"

	"github.com/dangerclosesec/studygroups/internal/domain"
	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GroupRepositoryIface is the storage contract of the membership engine: groups,
// memberships and join requests. Implementations must make Transaction all-or-nothing
// and LockGroup exclusive per group for the lifetime of the enclosing transaction.
type GroupRepositoryIface interface {
	Transaction(ctx context.Context, fn func(tx GroupRepositoryIface) error) error
	LockGroup(ctx context.Context, id uuid.UUID) (*model.Group, error)

	FindGroup(ctx context.Context, id uuid.UUID) (*model.Group, error)
	ListGroups(ctx context.Context) ([]*model.Group, error)
	CreateGroup(ctx context.Context, group *model.Group) error
	UpdateGroup(ctx context.Context, group *model.Group) error
	DeleteGroup(ctx context.Context, id uuid.UUID) error

	FindMembership(ctx context.Context, groupID, userID uuid.UUID) (*model.Membership, error)
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]*model.Membership, error)
	ListMembershipsByUser(ctx context.Context, userID uuid.UUID) ([]*model.Membership, error)
	CountMembers(ctx context.Context, groupID uuid.UUID) (int64, error)
	CreateMembership(ctx context.Context, m *model.Membership) error
	UpdateMembershipRole(ctx context.Context, groupID, userID uuid.UUID, role model.Role) error
	DeleteMembership(ctx context.Context, groupID, userID uuid.UUID) error

	FindJoinRequest(ctx context.Context, id uuid.UUID) (*model.JoinRequest, error)
	ListPendingRequests(ctx context.Context, groupID uuid.UUID) ([]*model.JoinRequest, error)
	HasPendingRequest(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	CreateJoinRequest(ctx context.Context, req *model.JoinRequest) error
	DeleteJoinRequest(ctx context.Context, id uuid.UUID) error
	DeleteJoinRequestsFor(ctx context.Context, groupID, userID uuid.UUID) error
}

var _ GroupRepositoryIface = (*GroupRepository)(nil)

// GroupRepository is the postgres implementation of GroupRepositoryIface.
type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Transaction runs fn inside a database transaction. Any error rolls back every write.
func (r *GroupRepository) Transaction(ctx context.Context, fn func(tx GroupRepositoryIface) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GroupRepository{db: tx})
	})
}

// LockGroup loads the group row with SELECT ... FOR UPDATE.
func (r *GroupRepository) LockGroup(ctx context.Context, id uuid.UUID) (*model.Group, error) {
	var group model.Group
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&group, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, storeErr("locking group", err)
	}
	return &group, nil
}

func (r *GroupRepository) FindGroup(ctx context.Context, id uuid.UUID) (*model.Group, error) {
	var group model.Group
	if err := r.db.WithContext(ctx).First(&group, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, storeErr("finding group", err)
	}
	return &group, nil
}

// ListGroups returns all groups, newest first
func (r *GroupRepository) ListGroups(ctx context.Context) ([]*model.Group, error) {
	var groups []*model.Group
	if err := r.db.WithContext(ctx).Order("created_at DESC, id").Find(&groups).Error; err != nil {
		return nil, storeErr("listing groups", err)
	}
	return groups, nil
}

func (r *GroupRepository) CreateGroup(ctx context.Context, group *model.Group) error {
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(group).Error; err != nil {
		return storeErr("creating group", err)
	}
	return nil
}

func (r *GroupRepository) UpdateGroup(ctx context.Context, group *model.Group) error {
	if err := r.db.WithContext(ctx).Save(group).Error; err != nil {
		return storeErr("updating group", err)
	}
	return nil
}

// DeleteGroup removes the group together with its memberships and join requests.
func (r *GroupRepository) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&model.JoinRequest{}).Error; err != nil {
			return storeErr("deleting join requests", err)
		}
		if err := tx.Where("group_id = ?", id).Delete(&model.Membership{}).Error; err != nil {
			return storeErr("deleting memberships", err)
		}
		if err := tx.Delete(&model.Group{}, "id = ?", id).Error; err != nil {
			return storeErr("deleting group", err)
		}
		return nil
	})
}

func (r *GroupRepository) FindMembership(ctx context.Context, groupID, userID uuid.UUID) (*model.Membership, error) {
	var m model.Membership
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotMember
		}
		return nil, storeErr("finding membership", err)
	}
	return &m, nil
}

// ListMembers returns the group's memberships in succession order: join time, then user id.
func (r *GroupRepository) ListMembers(ctx context.Context, groupID uuid.UUID) ([]*model.Membership, error) {
	var members []*model.Membership
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("joined_at ASC, user_id ASC").
		Find(&members).Error
	if err != nil {
		return nil, storeErr("listing members", err)
	}
	return members, nil
}

func (r *GroupRepository) ListMembershipsByUser(ctx context.Context, userID uuid.UUID) ([]*model.Membership, error) {
	var members []*model.Membership
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("joined_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, storeErr("listing user memberships", err)
	}
	return members, nil
}

func (r *GroupRepository) CountMembers(ctx context.Context, groupID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Membership{}).
		Where("group_id = ?", groupID).
		Count(&count).Error
	if err != nil {
		return 0, storeErr("counting members", err)
	}
	return count, nil
}

func (r *GroupRepository) CreateMembership(ctx context.Context, m *model.Membership) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyMember
		}
		return storeErr("creating membership", err)
	}
	return nil
}

func (r *GroupRepository) UpdateMembershipRole(ctx context.Context, groupID, userID uuid.UUID, role model.Role) error {
	result := r.db.WithContext(ctx).
		Model(&model.Membership{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Update("role", role)
	if result.Error != nil {
		return storeErr("updating membership role", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotMember
	}
	return nil
}

func (r *GroupRepository) DeleteMembership(ctx context.Context, groupID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&model.Membership{})
	if result.Error != nil {
		return storeErr("deleting membership", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotMember
	}
	return nil
}

func (r *GroupRepository) FindJoinRequest(ctx context.Context, id uuid.UUID) (*model.JoinRequest, error) {
	var req model.JoinRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, storeErr("finding join request", err)
	}
	return &req, nil
}

func (r *GroupRepository) ListPendingRequests(ctx context.Context, groupID uuid.UUID) ([]*model.JoinRequest, error) {
	var reqs []*model.JoinRequest
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND status = ?", groupID, model.JoinRequestPending).
		Order("created_at ASC").
		Find(&reqs).Error
	if err != nil {
		return nil, storeErr("listing join requests", err)
	}
	return reqs, nil
}

func (r *GroupRepository) HasPendingRequest(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.JoinRequest{}).
		Where("group_id = ? AND user_id = ? AND status = ?", groupID, userID, model.JoinRequestPending).
		Count(&count).Error
	if err != nil {
		return false, storeErr("checking pending request", err)
	}
	return count > 0, nil
}

func (r *GroupRepository) CreateJoinRequest(ctx context.Context, req *model.JoinRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateRequest
		}
		return storeErr("creating join request", err)
	}
	return nil
}

func (r *GroupRepository) DeleteJoinRequest(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&model.JoinRequest{}, "id = ?", id).Error; err != nil {
		return storeErr("deleting join request", err)
	}
	return nil
}

func (r *GroupRepository) DeleteJoinRequestsFor(ctx context.Context, groupID, userID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&model.JoinRequest{}).Error
	if err != nil {
		return storeErr("deleting join requests", err)
	}
	return nil
}
