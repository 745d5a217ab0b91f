package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dangerclosesec/studygroups/internal/domain"
	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/google/uuid"
)

// GetMembers lists the group's memberships in join order. Only members may read them.
func (s *MembershipService) GetMembers(ctx context.Context, groupID, callerID uuid.UUID) ([]*model.Membership, error) {
	if _, err := s.store.FindGroup(ctx, groupID); err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.store, groupID, callerID); err != nil {
		return nil, err
	}
	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return successionOrder(members), nil
}

// GetJoinRequests lists the group's pending requests, oldest first. Only admins may read them.
func (s *MembershipService) GetJoinRequests(ctx context.Context, groupID, callerID uuid.UUID) ([]*model.JoinRequest, error) {
	if _, err := s.store.FindGroup(ctx, groupID); err != nil {
		return nil, err
	}
	if _, err := requireAdmin(ctx, s.store, groupID, callerID); err != nil {
		return nil, err
	}
	return s.store.ListPendingRequests(ctx, groupID)
}

// GetGroupDetails returns the group summary for callerID. Private groups are
// visible to members only.
func (s *MembershipService) GetGroupDetails(ctx context.Context, groupID, callerID uuid.UUID) (*GroupSummary, error) {
	group, err := s.store.FindGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	role, err := callerRole(ctx, s.store, groupID, callerID)
	if err != nil {
		return nil, err
	}
	if group.Privacy.IsPrivate() && role == model.RoleNonMember {
		return nil, domain.ErrNotAuthorized
	}
	return s.summarize(ctx, group, role)
}

// ListMyGroups returns every group userID belongs to, in join order.
func (s *MembershipService) ListMyGroups(ctx context.Context, userID uuid.UUID) ([]*GroupSummary, error) {
	memberships, err := s.store.ListMembershipsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}

	summaries := make([]*GroupSummary, 0, len(memberships))
	for _, m := range successionOrder(memberships) {
		group, err := s.store.FindGroup(ctx, m.GroupID)
		if err != nil {
			// Deleted after the membership list was read.
			if errors.Is(err, domain.ErrGroupNotFound) {
				continue
			}
			return nil, err
		}
		summary, err := s.summarize(ctx, group, m.Role)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// ListGroups returns the whole catalogue, newest first, with the caller's role in each.
func (s *MembershipService) ListGroups(ctx context.Context, callerID uuid.UUID) ([]*GroupSummary, error) {
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	memberships, err := s.store.ListMembershipsByUser(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}
	roles := make(map[uuid.UUID]model.Role, len(memberships))
	for _, m := range memberships {
		roles[m.GroupID] = m.Role
	}

	summaries := make([]*GroupSummary, 0, len(groups))
	for _, group := range groups {
		role, ok := roles[group.ID]
		if !ok {
			role = model.RoleNonMember
		}
		summary, err := s.summarize(ctx, group, role)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *MembershipService) summarize(ctx context.Context, group *model.Group, role model.Role) (*GroupSummary, error) {
	count, err := s.store.CountMembers(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	return &GroupSummary{
		Group:       group,
		MemberCount: count,
		CallerRole:  role,
		HasPasskey:  group.HasPasskey(),
	}, nil
}
