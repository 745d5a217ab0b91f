// Package memory provides in-memory implementations of the repository contracts
// used for tests and ephemeral environments.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dangerclosesec/studygroups/internal/domain"
	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/dangerclosesec/studygroups/internal/repository"
	"github.com/google/uuid"
)

var _ repository.GroupRepositoryIface = (*Store)(nil)

type state struct {
	groups   map[uuid.UUID]model.Group
	members  map[uuid.UUID]map[uuid.UUID]model.Membership
	requests map[uuid.UUID]model.JoinRequest
}

func newState() state {
	return state{
		groups:   map[uuid.UUID]model.Group{},
		members:  map[uuid.UUID]map[uuid.UUID]model.Membership{},
		requests: map[uuid.UUID]model.JoinRequest{},
	}
}

func (s state) clone() state {
	c := newState()
	for k, v := range s.groups {
		c.groups[k] = cloneGroup(v)
	}
	for gid, byUser := range s.members {
		m := make(map[uuid.UUID]model.Membership, len(byUser))
		for uid, v := range byUser {
			m[uid] = v
		}
		c.members[gid] = m
	}
	for k, v := range s.requests {
		c.requests[k] = v
	}
	return c
}

func cloneGroup(g model.Group) model.Group {
	if g.Passkey != nil {
		key := *g.Passkey
		g.Passkey = &key
	}
	return g
}

// Store is a transactional in-memory group store. Transactions serialize on a single
// mutex, which makes every transaction exclusive across all groups, and roll back by
// restoring a snapshot taken when the transaction began.
type Store struct {
	mu     sync.RWMutex
	state  state
	closed bool
}

func NewStore() *Store {
	return &Store{state: newState()}
}

// Close makes every later call fail as unavailable.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Store) checkOpen(ctx context.Context) error {
	if s.closed {
		return fmt.Errorf("memory store closed: %w", domain.ErrUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("memory store: %w: %w", domain.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Transaction(ctx context.Context, fn func(tx repository.GroupRepositoryIface) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(ctx); err != nil {
		return err
	}

	snapshot := s.state.clone()
	if err := fn(&txn{st: &s.state}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// read runs fn against the current state under the read lock.
func (s *Store) read(ctx context.Context, fn func(t *txn) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	return fn(&txn{st: &s.state})
}

// write runs fn as its own transaction.
func (s *Store) write(ctx context.Context, fn func(t *txn) error) error {
	return s.Transaction(ctx, func(tx repository.GroupRepositoryIface) error {
		return fn(tx.(*txn))
	})
}

func (s *Store) LockGroup(ctx context.Context, id uuid.UUID) (*model.Group, error) {
	return s.FindGroup(ctx, id)
}

func (s *Store) FindGroup(ctx context.Context, id uuid.UUID) (g *model.Group, err error) {
	err = s.read(ctx, func(t *txn) error {
		g, err = t.FindGroup(ctx, id)
		return err
	})
	return g, err
}

func (s *Store) ListGroups(ctx context.Context) (groups []*model.Group, err error) {
	err = s.read(ctx, func(t *txn) error {
		groups, err = t.ListGroups(ctx)
		return err
	})
	return groups, err
}

func (s *Store) CreateGroup(ctx context.Context, group *model.Group) error {
	return s.write(ctx, func(t *txn) error { return t.CreateGroup(ctx, group) })
}

func (s *Store) UpdateGroup(ctx context.Context, group *model.Group) error {
	return s.write(ctx, func(t *txn) error { return t.UpdateGroup(ctx, group) })
}

func (s *Store) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	return s.write(ctx, func(t *txn) error { return t.DeleteGroup(ctx, id) })
}

func (s *Store) FindMembership(ctx context.Context, groupID, userID uuid.UUID) (m *model.Membership, err error) {
	err = s.read(ctx, func(t *txn) error {
		m, err = t.FindMembership(ctx, groupID, userID)
		return err
	})
	return m, err
}

func (s *Store) ListMembers(ctx context.Context, groupID uuid.UUID) (members []*model.Membership, err error) {
	err = s.read(ctx, func(t *txn) error {
		members, err = t.ListMembers(ctx, groupID)
		return err
	})
	return members, err
}

func (s *Store) ListMembershipsByUser(ctx context.Context, userID uuid.UUID) (members []*model.Membership, err error) {
	err = s.read(ctx, func(t *txn) error {
		members, err = t.ListMembershipsByUser(ctx, userID)
		return err
	})
	return members, err
}

func (s *Store) CountMembers(ctx context.Context, groupID uuid.UUID) (n int64, err error) {
	err = s.read(ctx, func(t *txn) error {
		n, err = t.CountMembers(ctx, groupID)
		return err
	})
	return n, err
}

func (s *Store) CreateMembership(ctx context.Context, m *model.Membership) error {
	return s.write(ctx, func(t *txn) error { return t.CreateMembership(ctx, m) })
}

func (s *Store) UpdateMembershipRole(ctx context.Context, groupID, userID uuid.UUID, role model.Role) error {
	return s.write(ctx, func(t *txn) error { return t.UpdateMembershipRole(ctx, groupID, userID, role) })
}

func (s *Store) DeleteMembership(ctx context.Context, groupID, userID uuid.UUID) error {
	return s.write(ctx, func(t *txn) error { return t.DeleteMembership(ctx, groupID, userID) })
}

func (s *Store) FindJoinRequest(ctx context.Context, id uuid.UUID) (req *model.JoinRequest, err error) {
	err = s.read(ctx, func(t *txn) error {
		req, err = t.FindJoinRequest(ctx, id)
		return err
	})
	return req, err
}

func (s *Store) ListPendingRequests(ctx context.Context, groupID uuid.UUID) (reqs []*model.JoinRequest, err error) {
	err = s.read(ctx, func(t *txn) error {
		reqs, err = t.ListPendingRequests(ctx, groupID)
		return err
	})
	return reqs, err
}

func (s *Store) HasPendingRequest(ctx context.Context, groupID, userID uuid.UUID) (ok bool, err error) {
	err = s.read(ctx, func(t *txn) error {
		ok, err = t.HasPendingRequest(ctx, groupID, userID)
		return err
	})
	return ok, err
}

func (s *Store) CreateJoinRequest(ctx context.Context, req *model.JoinRequest) error {
	return s.write(ctx, func(t *txn) error { return t.CreateJoinRequest(ctx, req) })
}

func (s *Store) DeleteJoinRequest(ctx context.Context, id uuid.UUID) error {
	return s.write(ctx, func(t *txn) error { return t.DeleteJoinRequest(ctx, id) })
}

func (s *Store) DeleteJoinRequestsFor(ctx context.Context, groupID, userID uuid.UUID) error {
	return s.write(ctx, func(t *txn) error { return t.DeleteJoinRequestsFor(ctx, groupID, userID) })
}

// txn operates on the state while the caller holds the store lock.
type txn struct {
	st *state
}

func (t *txn) Transaction(_ context.Context, fn func(tx repository.GroupRepositoryIface) error) error {
	return fn(t)
}

func (t *txn) LockGroup(ctx context.Context, id uuid.UUID) (*model.Group, error) {
	return t.FindGroup(ctx, id)
}

func (t *txn) FindGroup(_ context.Context, id uuid.UUID) (*model.Group, error) {
	g, ok := t.st.groups[id]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	g = cloneGroup(g)
	return &g, nil
}

func (t *txn) ListGroups(_ context.Context) ([]*model.Group, error) {
	groups := make([]*model.Group, 0, len(t.st.groups))
	for _, g := range t.st.groups {
		g = cloneGroup(g)
		groups = append(groups, &g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if !groups[i].CreatedAt.Equal(groups[j].CreatedAt) {
			return groups[i].CreatedAt.After(groups[j].CreatedAt)
		}
		return bytes.Compare(groups[i].ID[:], groups[j].ID[:]) < 0
	})
	return groups, nil
}

func (t *txn) CreateGroup(_ context.Context, group *model.Group) error {
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	if _, exists := t.st.groups[group.ID]; exists {
		return fmt.Errorf("creating group: duplicate id %s", group.ID)
	}
	t.st.groups[group.ID] = cloneGroup(*group)
	return nil
}

func (t *txn) UpdateGroup(_ context.Context, group *model.Group) error {
	if _, exists := t.st.groups[group.ID]; !exists {
		return domain.ErrGroupNotFound
	}
	t.st.groups[group.ID] = cloneGroup(*group)
	return nil
}

func (t *txn) DeleteGroup(_ context.Context, id uuid.UUID) error {
	for rid, req := range t.st.requests {
		if req.GroupID == id {
			delete(t.st.requests, rid)
		}
	}
	delete(t.st.members, id)
	delete(t.st.groups, id)
	return nil
}

func (t *txn) FindMembership(_ context.Context, groupID, userID uuid.UUID) (*model.Membership, error) {
	m, ok := t.st.members[groupID][userID]
	if !ok {
		return nil, domain.ErrNotMember
	}
	return &m, nil
}

func (t *txn) ListMembers(_ context.Context, groupID uuid.UUID) ([]*model.Membership, error) {
	byUser := t.st.members[groupID]
	members := make([]*model.Membership, 0, len(byUser))
	for _, m := range byUser {
		m := m
		members = append(members, &m)
	}
	sortMemberships(members)
	return members, nil
}

func (t *txn) ListMembershipsByUser(_ context.Context, userID uuid.UUID) ([]*model.Membership, error) {
	var members []*model.Membership
	for _, byUser := range t.st.members {
		if m, ok := byUser[userID]; ok {
			members = append(members, &m)
		}
	}
	sortMemberships(members)
	return members, nil
}

func (t *txn) CountMembers(_ context.Context, groupID uuid.UUID) (int64, error) {
	return int64(len(t.st.members[groupID])), nil
}

func (t *txn) CreateMembership(_ context.Context, m *model.Membership) error {
	byUser, ok := t.st.members[m.GroupID]
	if !ok {
		byUser = map[uuid.UUID]model.Membership{}
		t.st.members[m.GroupID] = byUser
	}
	if _, exists := byUser[m.UserID]; exists {
		return domain.ErrAlreadyMember
	}
	byUser[m.UserID] = *m
	return nil
}

func (t *txn) UpdateMembershipRole(_ context.Context, groupID, userID uuid.UUID, role model.Role) error {
	m, ok := t.st.members[groupID][userID]
	if !ok {
		return domain.ErrNotMember
	}
	m.Role = role
	t.st.members[groupID][userID] = m
	return nil
}

func (t *txn) DeleteMembership(_ context.Context, groupID, userID uuid.UUID) error {
	if _, ok := t.st.members[groupID][userID]; !ok {
		return domain.ErrNotMember
	}
	delete(t.st.members[groupID], userID)
	if len(t.st.members[groupID]) == 0 {
		delete(t.st.members, groupID)
	}
	return nil
}

func (t *txn) FindJoinRequest(_ context.Context, id uuid.UUID) (*model.JoinRequest, error) {
	req, ok := t.st.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	return &req, nil
}

func (t *txn) ListPendingRequests(_ context.Context, groupID uuid.UUID) ([]*model.JoinRequest, error) {
	var reqs []*model.JoinRequest
	for _, req := range t.st.requests {
		if req.GroupID == groupID && req.Status == model.JoinRequestPending {
			req := req
			reqs = append(reqs, &req)
		}
	}
	sort.Slice(reqs, func(i, j int) bool {
		if !reqs[i].CreatedAt.Equal(reqs[j].CreatedAt) {
			return reqs[i].CreatedAt.Before(reqs[j].CreatedAt)
		}
		return bytes.Compare(reqs[i].ID[:], reqs[j].ID[:]) < 0
	})
	return reqs, nil
}

func (t *txn) HasPendingRequest(_ context.Context, groupID, userID uuid.UUID) (bool, error) {
	for _, req := range t.st.requests {
		if req.GroupID == groupID && req.UserID == userID && req.Status == model.JoinRequestPending {
			return true, nil
		}
	}
	return false, nil
}

func (t *txn) CreateJoinRequest(ctx context.Context, req *model.JoinRequest) error {
	if req.Status == model.JoinRequestPending {
		pending, err := t.HasPendingRequest(ctx, req.GroupID, req.UserID)
		if err != nil {
			return err
		}
		if pending {
			return domain.ErrDuplicateRequest
		}
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	t.st.requests[req.ID] = *req
	return nil
}

func (t *txn) DeleteJoinRequest(_ context.Context, id uuid.UUID) error {
	delete(t.st.requests, id)
	return nil
}

func (t *txn) DeleteJoinRequestsFor(_ context.Context, groupID, userID uuid.UUID) error {
	for rid, req := range t.st.requests {
		if req.GroupID == groupID && req.UserID == userID {
			delete(t.st.requests, rid)
		}
	}
	return nil
}

// sortMemberships orders by join time, then user id, matching the postgres store.
func sortMemberships(members []*model.Membership) {
	sort.Slice(members, func(i, j int) bool {
		if !members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].JoinedAt.Before(members[j].JoinedAt)
		}
		return bytes.Compare(members[i].UserID[:], members[j].UserID[:]) < 0
	})
}
