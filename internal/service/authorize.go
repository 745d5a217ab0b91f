package service

import (
	"context"
	"errors"

	"github.com/dangerclosesec/studygroups/internal/domain"
	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/dangerclosesec/studygroups/internal/repository"
	"github.com/google/uuid"
)

// requireMember returns the caller's membership, or ErrNotAuthorized when there is none.
func requireMember(ctx context.Context, tx repository.GroupRepositoryIface, groupID, callerID uuid.UUID) (*model.Membership, error) {
	m, err := tx.FindMembership(ctx, groupID, callerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotMember) {
			return nil, domain.ErrNotAuthorized
		}
		return nil, err
	}
	return m, nil
}

// requireAdmin returns the caller's membership, or ErrNotAuthorized unless it is an admin one.
func requireAdmin(ctx context.Context, tx repository.GroupRepositoryIface, groupID, callerID uuid.UUID) (*model.Membership, error) {
	m, err := requireMember(ctx, tx, groupID, callerID)
	if err != nil {
		return nil, err
	}
	if !m.IsAdmin() {
		return nil, domain.ErrNotAuthorized
	}
	return m, nil
}

// callerRole reports the caller's role in the group, RoleNonMember when absent.
func callerRole(ctx context.Context, tx repository.GroupRepositoryIface, groupID, callerID uuid.UUID) (model.Role, error) {
	m, err := tx.FindMembership(ctx, groupID, callerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotMember) {
			return model.RoleNonMember, nil
		}
		return "", err
	}
	return m.Role, nil
}
