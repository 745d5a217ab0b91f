package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/dangerclosesec/studygroups/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type ViolationKind string

const (
	ViolationNoMembers      ViolationKind = "no_members"
	ViolationNoAdmin        ViolationKind = "no_admin"
	ViolationOverCapacity   ViolationKind = "over_capacity"
	ViolationCreatorMissing ViolationKind = "creator_not_member"
	ViolationMemberRequest  ViolationKind = "member_has_pending_request"
)

// Violation is one broken membership invariant found by CheckInvariants
type Violation struct {
	GroupID uuid.UUID
	Kind    ViolationKind
	Detail  string
}

// CheckInvariants reads every group and reports the ones whose committed state breaks
// a membership invariant. Groups are checked concurrently, at most parallelism at a time.
func CheckInvariants(ctx context.Context, store repository.GroupRepositoryIface, parallelism int) ([]Violation, error) {
	groups, err := store.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	if parallelism <= 0 {
		parallelism = 8
	}

	var (
		mu         sync.Mutex
		violations []Violation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for _, group := range groups {
		g.Go(func() error {
			found, err := checkGroup(gctx, store, group)
			if err != nil {
				return fmt.Errorf("checking group %s: %w", group.ID, err)
			}
			if len(found) > 0 {
				mu.Lock()
				violations = append(violations, found...)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].GroupID != violations[j].GroupID {
			return violations[i].GroupID.String() < violations[j].GroupID.String()
		}
		return violations[i].Kind < violations[j].Kind
	})
	return violations, nil
}

func checkGroup(ctx context.Context, store repository.GroupRepositoryIface, group *model.Group) ([]Violation, error) {
	members, err := store.ListMembers(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []Violation{{GroupID: group.ID, Kind: ViolationNoMembers, Detail: "group has no memberships"}}, nil
	}

	var found []Violation
	admins := 0
	creatorPresent := false
	memberSet := make(map[uuid.UUID]bool, len(members))
	for _, m := range members {
		memberSet[m.UserID] = true
		if m.IsAdmin() {
			admins++
		}
		if m.UserID == group.CreatedByID {
			creatorPresent = true
		}
	}
	if admins == 0 {
		found = append(found, Violation{GroupID: group.ID, Kind: ViolationNoAdmin, Detail: fmt.Sprintf("%d members, no admin", len(members))})
	}
	if len(members) > group.MemberLimit {
		found = append(found, Violation{GroupID: group.ID, Kind: ViolationOverCapacity, Detail: fmt.Sprintf("%d members, limit %d", len(members), group.MemberLimit)})
	}
	if !creatorPresent {
		found = append(found, Violation{GroupID: group.ID, Kind: ViolationCreatorMissing, Detail: fmt.Sprintf("creator %s is not a member", group.CreatedByID)})
	}

	requests, err := store.ListPendingRequests(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	for _, req := range requests {
		if memberSet[req.UserID] {
			found = append(found, Violation{GroupID: group.ID, Kind: ViolationMemberRequest, Detail: fmt.Sprintf("user %s is a member with request %s", req.UserID, req.ID)})
		}
	}
	return found, nil
}
