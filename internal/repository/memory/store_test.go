package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dangerclosesec/studygroups/internal/domain"
	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/dangerclosesec/studygroups/internal/repository"
	"github.com/dangerclosesec/studygroups/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedGroup(t *testing.T, s *memory.Store) *model.Group {
	t.Helper()
	g := &model.Group{Name: "algorithms", CourseID: "CS101", Privacy: model.PrivacyPublic, MemberLimit: 5}
	require.NoError(t, s.CreateGroup(context.Background(), g))
	return g
}

func TestStore_TransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	g := seedGroup(t, s)
	userID := uuid.New()

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx repository.GroupRepositoryIface) error {
		require.NoError(t, tx.CreateMembership(ctx, &model.Membership{GroupID: g.ID, UserID: userID, Role: model.RoleMember}))
		require.NoError(t, tx.DeleteGroup(ctx, g.ID))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.FindGroup(ctx, g.ID)
	assert.NoError(t, err)
	_, err = s.FindMembership(ctx, g.ID, userID)
	assert.ErrorIs(t, err, domain.ErrNotMember)
}

func TestStore_ListMembersOrder(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	g := seedGroup(t, s)

	joined := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	c := uuid.MustParse("00000000-0000-0000-0000-00000000000c")

	require.NoError(t, s.CreateMembership(ctx, &model.Membership{GroupID: g.ID, UserID: c, Role: model.RoleMember, JoinedAt: joined}))
	require.NoError(t, s.CreateMembership(ctx, &model.Membership{GroupID: g.ID, UserID: b, Role: model.RoleMember, JoinedAt: joined}))
	require.NoError(t, s.CreateMembership(ctx, &model.Membership{GroupID: g.ID, UserID: a, Role: model.RoleMember, JoinedAt: joined.Add(time.Second)}))

	members, err := s.ListMembers(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, b, members[0].UserID)
	assert.Equal(t, c, members[1].UserID)
	assert.Equal(t, a, members[2].UserID)
}

func TestStore_UniqueConstraints(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	g := seedGroup(t, s)
	userID := uuid.New()

	m := &model.Membership{GroupID: g.ID, UserID: userID, Role: model.RoleMember}
	require.NoError(t, s.CreateMembership(ctx, m))
	assert.ErrorIs(t, s.CreateMembership(ctx, m), domain.ErrAlreadyMember)

	require.NoError(t, s.CreateJoinRequest(ctx, &model.JoinRequest{GroupID: g.ID, UserID: userID, Status: model.JoinRequestPending}))
	err := s.CreateJoinRequest(ctx, &model.JoinRequest{GroupID: g.ID, UserID: userID, Status: model.JoinRequestPending})
	assert.ErrorIs(t, err, domain.ErrDuplicateRequest)
}

func TestStore_DeleteGroupCascades(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	g := seedGroup(t, s)
	userID := uuid.New()

	require.NoError(t, s.CreateMembership(ctx, &model.Membership{GroupID: g.ID, UserID: uuid.New(), Role: model.RoleAdmin}))
	req := &model.JoinRequest{GroupID: g.ID, UserID: userID, Status: model.JoinRequestPending}
	require.NoError(t, s.CreateJoinRequest(ctx, req))

	require.NoError(t, s.DeleteGroup(ctx, g.ID))

	_, err := s.FindJoinRequest(ctx, req.ID)
	assert.ErrorIs(t, err, domain.ErrRequestNotFound)
	n, err := s.CountMembers(ctx, g.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	key := "abc123"
	g := &model.Group{Name: "secret", CourseID: "CS101", Privacy: model.PrivacyPrivatePasskey, Passkey: &key, MemberLimit: 2}
	require.NoError(t, s.CreateGroup(ctx, g))

	found, err := s.FindGroup(ctx, g.ID)
	require.NoError(t, err)
	*found.Passkey = "changed"
	found.Name = "changed"

	again, err := s.FindGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret", again.Name)
	assert.Equal(t, "abc123", *again.Passkey)
}

func TestStore_Closed(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	g := seedGroup(t, s)
	s.Close()

	_, err := s.FindGroup(ctx, g.ID)
	assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
	assert.ErrorIs(t, err, domain.ErrUnavailable)

	err = s.Transaction(ctx, func(repository.GroupRepositoryIface) error { return nil })
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}
