package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dangerclosesec/studygroups/internal/audit"
	"github.com/dangerclosesec/studygroups/internal/domain"
	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/dangerclosesec/studygroups/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// MembershipService owns every state transition of groups, memberships and join
// requests. Each mutating operation runs in one store transaction that starts by
// locking the group row, so operations on the same group are serialized.
type MembershipService struct {
	store    repository.GroupRepositoryIface
	dir      Directory
	audit    audit.Logger
	log      *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

type MembershipOption func(*MembershipService)

// WithClock overrides the time source used for join and creation timestamps.
func WithClock(now func() time.Time) MembershipOption {
	return func(s *MembershipService) {
		s.now = now
	}
}

func NewMembershipService(
	store repository.GroupRepositoryIface,
	dir Directory,
	auditLogger audit.Logger,
	log *slog.Logger,
	opts ...MembershipOption,
) *MembershipService {
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	if log == nil {
		log = slog.Default()
	}
	s := &MembershipService{
		store:    store,
		dir:      dir,
		audit:    auditLogger,
		log:      log,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateGroupInput struct {
	Name        string        `json:"name" validate:"required,max=200"`
	Description string        `json:"description" validate:"max=2000"`
	CourseID    string        `json:"course_id" validate:"required"`
	Privacy     model.Privacy `json:"privacy" validate:"required,oneof=public private_passkey private_request"`
	Passkey     string        `json:"passkey" validate:"max=200"`
	MemberLimit int           `json:"member_limit" validate:"required,min=1,max=10000"`
}

type UpdateGroupInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// GroupSummary is a group as seen by one caller
type GroupSummary struct {
	Group       *model.Group
	MemberCount int64
	CallerRole  model.Role
	HasPasskey  bool
}

type JoinOutcome string

const (
	JoinOutcomeJoined        JoinOutcome = "joined"
	JoinOutcomeRequestQueued JoinOutcome = "request_queued"
)

type JoinResult struct {
	Outcome    JoinOutcome
	Membership *model.Membership
	Request    *model.JoinRequest
}

type LeaveOutcome string

const (
	LeaveOutcomeLeft                 LeaveOutcome = "left"
	LeaveOutcomeGroupDeleted         LeaveOutcome = "group_deleted"
	LeaveOutcomeOwnershipTransferred LeaveOutcome = "ownership_transferred"
)

type LeaveResult struct {
	Outcome LeaveOutcome
	// SuccessorID is set when ownership was transferred.
	SuccessorID uuid.UUID
}

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionDeny    Decision = "deny"
)

func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionDeny
}

// CreateGroup creates the group and makes creatorID its admin in one transaction.
func (s *MembershipService) CreateGroup(ctx context.Context, input CreateGroupInput, creatorID uuid.UUID) (*GroupSummary, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Privacy == "" {
		input.Privacy = model.PrivacyPublic
	}
	if err := s.validateStruct(input); err != nil {
		return nil, err
	}

	if _, err := s.dir.FindUser(ctx, creatorID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("finding creator: %w", err)
	}
	if _, err := s.dir.FindCourse(ctx, input.CourseID); err != nil {
		if errors.Is(err, domain.ErrCourseNotFound) {
			return nil, domain.ErrInvalidReference
		}
		return nil, fmt.Errorf("finding course: %w", err)
	}

	now := s.now()
	group := &model.Group{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		CourseID:    input.CourseID,
		CreatedByID: creatorID,
		Privacy:     input.Privacy,
		MemberLimit: input.MemberLimit,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.Privacy == model.PrivacyPrivatePasskey && input.Passkey != "" {
		passkey := input.Passkey
		group.Passkey = &passkey
	}
	admin := &model.Membership{
		GroupID:   group.ID,
		UserID:    creatorID,
		Role:      model.RoleAdmin,
		JoinedAt:  now,
		UpdatedAt: now,
	}

	err := s.store.Transaction(ctx, func(tx repository.GroupRepositoryIface) error {
		if err := tx.CreateGroup(ctx, group); err != nil {
			return err
		}
		return tx.CreateMembership(ctx, admin)
	})
	if err != nil {
		return nil, fmt.Errorf("creating group: %w", err)
	}

	s.record(ctx, s.event(group.ID, model.ActionGroupCreated, creatorID, nil, model.JSONMap{
		"course_id":    group.CourseID,
		"privacy":      string(group.Privacy),
		"member_limit": group.MemberLimit,
	}))

	return &GroupSummary{
		Group:       group,
		MemberCount: 1,
		CallerRole:  model.RoleAdmin,
		HasPasskey:  group.HasPasskey(),
	}, nil
}

// Join adds userID to the group directly, or queues a join request when the group
// requires approval.
func (s *MembershipService) Join(ctx context.Context, groupID, userID uuid.UUID, passkey string) (*JoinResult, error) {
	var (
		result *JoinResult
		event  *model.GroupEvent
	)
	err := s.inGroup(ctx, groupID, func(tx repository.GroupRepositoryIface, group *model.Group) error {
		if _, err := tx.FindMembership(ctx, groupID, userID); err == nil {
			return domain.ErrAlreadyMember
		} else if !errors.Is(err, domain.ErrNotMember) {
			return err
		}

		if err := checkCapacity(ctx, tx, group); err != nil {
			return err
		}

		now := s.now()
		if group.RequiresApproval() {
			pending, err := tx.HasPendingRequest(ctx, groupID, userID)
			if err != nil {
				return err
			}
			if pending {
				return domain.ErrDuplicateRequest
			}
			req := &model.JoinRequest{
				ID:        uuid.New(),
				GroupID:   groupID,
				UserID:    userID,
				Status:    model.JoinRequestPending,
				CreatedAt: now,
			}
			if err := tx.CreateJoinRequest(ctx, req); err != nil {
				return err
			}
			result = &JoinResult{Outcome: JoinOutcomeRequestQueued, Request: req}
			event = s.event(groupID, model.ActionJoinRequested, userID, nil, model.JSONMap{"request_id": req.ID.String()})
			return nil
		}

		if group.HasPasskey() && subtle.ConstantTimeCompare([]byte(passkey), []byte(*group.Passkey)) != 1 {
			return domain.ErrInvalidPasskey
		}

		m := &model.Membership{
			GroupID:   groupID,
			UserID:    userID,
			Role:      model.RoleMember,
			JoinedAt:  now,
			UpdatedAt: now,
		}
		if err := tx.CreateMembership(ctx, m); err != nil {
			return err
		}
		result = &JoinResult{Outcome: JoinOutcomeJoined, Membership: m}
		event = s.event(groupID, model.ActionMemberJoined, userID, nil, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, event)
	return result, nil
}

// HandleJoinRequest approves or denies a pending request. The request is deleted
// either way. An approval that finds the group full still deletes the request,
// commits, and reports ErrGroupFull.
func (s *MembershipService) HandleJoinRequest(ctx context.Context, groupID, requestID uuid.UUID, decision Decision, callerID uuid.UUID) (*model.Membership, error) {
	if !decision.Valid() {
		return nil, domain.ErrInvalidDecision
	}

	var (
		member  *model.Membership
		event   *model.GroupEvent
		dropped error
	)
	err := s.inGroup(ctx, groupID, func(tx repository.GroupRepositoryIface, group *model.Group) error {
		if _, err := requireAdmin(ctx, tx, groupID, callerID); err != nil {
			return err
		}

		req, err := tx.FindJoinRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if req.GroupID != groupID {
			return domain.ErrRequestMismatch
		}
		if err := tx.DeleteJoinRequest(ctx, req.ID); err != nil {
			return err
		}
		subject := req.UserID

		if decision == DecisionDeny {
			event = s.event(groupID, model.ActionRequestDenied, callerID, &subject, nil)
			return nil
		}

		if _, err := tx.FindMembership(ctx, groupID, req.UserID); err == nil {
			dropped = domain.ErrAlreadyMember
		} else if !errors.Is(err, domain.ErrNotMember) {
			return err
		} else if err := checkCapacity(ctx, tx, group); err != nil {
			if !errors.Is(err, domain.ErrGroupFull) {
				return err
			}
			dropped = err
		}
		if dropped != nil {
			event = s.event(groupID, model.ActionRequestDropped, callerID, &subject, model.JSONMap{"reason": domain.KindOf(dropped)})
			return nil
		}

		now := s.now()
		member = &model.Membership{
			GroupID:   groupID,
			UserID:    req.UserID,
			Role:      model.RoleMember,
			JoinedAt:  now,
			UpdatedAt: now,
		}
		if err := tx.CreateMembership(ctx, member); err != nil {
			return err
		}
		event = s.event(groupID, model.ActionRequestApproved, callerID, &subject, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, event)
	if dropped != nil {
		return nil, dropped
	}
	return member, nil
}

// Leave removes userID from the group. When the creator leaves, the group is deleted if
// nobody remains; otherwise a successor is promoted and becomes the group's creator.
// Other admins leave like members while an admin remains.
func (s *MembershipService) Leave(ctx context.Context, groupID, userID uuid.UUID) (*LeaveResult, error) {
	var (
		result *LeaveResult
		events []*model.GroupEvent
	)
	err := s.inGroup(ctx, groupID, func(tx repository.GroupRepositoryIface, group *model.Group) error {
		m, err := tx.FindMembership(ctx, groupID, userID)
		if err != nil {
			return err
		}
		if err := tx.DeleteMembership(ctx, groupID, userID); err != nil {
			return err
		}
		if err := tx.DeleteJoinRequestsFor(ctx, groupID, userID); err != nil {
			return err
		}
		events = append(events, s.event(groupID, model.ActionMemberLeft, userID, nil, model.JSONMap{"role": string(m.Role)}))

		if !m.IsAdmin() {
			result = &LeaveResult{Outcome: LeaveOutcomeLeft}
			return nil
		}

		remaining, err := tx.ListMembers(ctx, groupID)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			if err := tx.DeleteGroup(ctx, groupID); err != nil {
				return err
			}
			result = &LeaveResult{Outcome: LeaveOutcomeGroupDeleted}
			events = append(events, s.event(groupID, model.ActionGroupDeleted, userID, nil, nil))
			return nil
		}

		if userID != group.CreatedByID && hasAdmin(remaining) {
			result = &LeaveResult{Outcome: LeaveOutcomeLeft}
			return nil
		}

		successor := chooseSuccessor(remaining)
		if !successor.IsAdmin() {
			if err := tx.UpdateMembershipRole(ctx, groupID, successor.UserID, model.RoleAdmin); err != nil {
				return err
			}
		}
		previous := group.CreatedByID
		group.CreatedByID = successor.UserID
		group.UpdatedAt = s.now()
		if err := tx.UpdateGroup(ctx, group); err != nil {
			return err
		}

		result = &LeaveResult{Outcome: LeaveOutcomeOwnershipTransferred, SuccessorID: successor.UserID}
		subject := successor.UserID
		events = append(events, s.event(groupID, model.ActionOwnershipTransferred, userID, &subject, model.JSONMap{
			"previous_creator": previous.String(),
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Outcome != LeaveOutcomeLeft {
		s.log.InfoContext(ctx, "admin left group",
			"groupID", groupID,
			"userID", userID,
			"outcome", result.Outcome,
			"successorID", result.SuccessorID,
		)
	}
	s.record(ctx, events...)
	return result, nil
}

// RemoveMember lets an admin remove another member. The group creator is protected.
func (s *MembershipService) RemoveMember(ctx context.Context, groupID, memberID, callerID uuid.UUID) error {
	var event *model.GroupEvent
	err := s.inGroup(ctx, groupID, func(tx repository.GroupRepositoryIface, group *model.Group) error {
		if _, err := requireAdmin(ctx, tx, groupID, callerID); err != nil {
			return err
		}
		if memberID == callerID {
			return domain.ErrUseLeaveInstead
		}
		target, err := tx.FindMembership(ctx, groupID, memberID)
		if err != nil {
			return err
		}
		if memberID == group.CreatedByID {
			return domain.ErrProtectedCreator
		}
		if err := tx.DeleteMembership(ctx, groupID, memberID); err != nil {
			return err
		}
		if err := tx.DeleteJoinRequestsFor(ctx, groupID, memberID); err != nil {
			return err
		}
		event = s.event(groupID, model.ActionMemberRemoved, callerID, &memberID, model.JSONMap{"role": string(target.Role)})
		return nil
	})
	if err != nil {
		return err
	}

	s.record(ctx, event)
	return nil
}

// ChangeMemberRole lets an admin promote or demote another member. Callers cannot
// change their own role and nobody can change the creator's.
func (s *MembershipService) ChangeMemberRole(ctx context.Context, groupID, memberID uuid.UUID, role model.Role, callerID uuid.UUID) (*model.Membership, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	var (
		target *model.Membership
		event  *model.GroupEvent
	)
	err := s.inGroup(ctx, groupID, func(tx repository.GroupRepositoryIface, group *model.Group) error {
		if _, err := requireAdmin(ctx, tx, groupID, callerID); err != nil {
			return err
		}
		if memberID == callerID {
			return domain.ErrUseLeaveOrPromote
		}
		if memberID == group.CreatedByID {
			return domain.ErrProtectedCreator
		}
		var err error
		target, err = tx.FindMembership(ctx, groupID, memberID)
		if err != nil {
			return err
		}
		if target.Role == role {
			return nil
		}
		if err := tx.UpdateMembershipRole(ctx, groupID, memberID, role); err != nil {
			return err
		}
		event = s.event(groupID, model.ActionRoleChanged, callerID, &memberID, model.JSONMap{
			"from": string(target.Role),
			"to":   string(role),
		})
		target.Role = role
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, event)
	return target, nil
}

// UpdateGroup lets an admin change the group's name and description.
func (s *MembershipService) UpdateGroup(ctx context.Context, groupID uuid.UUID, input UpdateGroupInput, callerID uuid.UUID) (*GroupSummary, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := s.validateStruct(input); err != nil {
		return nil, err
	}

	var (
		summary *GroupSummary
		event   *model.GroupEvent
	)
	err := s.inGroup(ctx, groupID, func(tx repository.GroupRepositoryIface, group *model.Group) error {
		if _, err := requireAdmin(ctx, tx, groupID, callerID); err != nil {
			return err
		}
		group.Name = input.Name
		group.Description = input.Description
		group.UpdatedAt = s.now()
		if err := tx.UpdateGroup(ctx, group); err != nil {
			return err
		}
		count, err := tx.CountMembers(ctx, groupID)
		if err != nil {
			return err
		}
		summary = &GroupSummary{
			Group:       group,
			MemberCount: count,
			CallerRole:  model.RoleAdmin,
			HasPasskey:  group.HasPasskey(),
		}
		event = s.event(groupID, model.ActionGroupUpdated, callerID, nil, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, event)
	return summary, nil
}

// inGroup runs fn in a transaction holding the lock on groupID.
func (s *MembershipService) inGroup(ctx context.Context, groupID uuid.UUID, fn func(tx repository.GroupRepositoryIface, group *model.Group) error) error {
	return s.store.Transaction(ctx, func(tx repository.GroupRepositoryIface) error {
		group, err := tx.LockGroup(ctx, groupID)
		if err != nil {
			return err
		}
		return fn(tx, group)
	})
}

// checkCapacity fails with ErrGroupFull once the group holds MemberLimit members.
// Callers must hold the group lock.
func checkCapacity(ctx context.Context, tx repository.GroupRepositoryIface, group *model.Group) error {
	count, err := tx.CountMembers(ctx, group.ID)
	if err != nil {
		return err
	}
	if count >= int64(group.MemberLimit) {
		return domain.ErrGroupFull
	}
	return nil
}

func (s *MembershipService) event(groupID uuid.UUID, action string, actorID uuid.UUID, subjectID *uuid.UUID, details model.JSONMap) *model.GroupEvent {
	return &model.GroupEvent{
		ID:        uuid.New(),
		GroupID:   groupID,
		Action:    action,
		ActorID:   actorID,
		SubjectID: subjectID,
		Details:   details,
		CreatedAt: s.now(),
	}
}

// record hands committed transitions to the audit log. The transition already
// happened, so audit failures are logged and not returned.
func (s *MembershipService) record(ctx context.Context, events ...*model.GroupEvent) {
	for _, e := range events {
		if e == nil {
			continue
		}
		s.log.DebugContext(ctx, "group transition", "action", e.Action, "groupID", e.GroupID, "actorID", e.ActorID)
		if err := s.audit.LogTransition(ctx, e); err != nil {
			s.log.WarnContext(ctx, "failed to record group event", "action", e.Action, "groupID", e.GroupID, "error", err)
		}
	}
}

// validateStruct maps validator failures onto domain errors.
func (s *MembershipService) validateStruct(input interface{}) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			switch fe.Field() {
			case "Privacy":
				return domain.ErrInvalidPrivacy
			case "MemberLimit":
				return domain.ErrInvalidMemberLimit
			}
		}
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, verrs[0].Error())
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
}
