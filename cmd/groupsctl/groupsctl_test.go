package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/dangerclosesec/studygroups/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCheck(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	var out bytes.Buffer
	require.NoError(t, runCheck(ctx, store, &out, 2))
	assert.Contains(t, out.String(), "All groups consistent")

	orphan := &model.Group{Name: "orphan", CourseID: "CS101", CreatedByID: uuid.New(), Privacy: model.PrivacyPublic, MemberLimit: 3}
	require.NoError(t, store.CreateGroup(ctx, orphan))

	out.Reset()
	err := runCheck(ctx, store, &out, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 invariant violations")
	assert.Contains(t, out.String(), orphan.ID.String())
	assert.Contains(t, out.String(), "no_members")
}

func TestSeedCourses(t *testing.T) {
	ctx := context.Background()
	courses := memory.NewCourses()

	seed, err := loadCourses("")
	require.NoError(t, err)
	n, err := seedCourses(ctx, courses, seed)
	require.NoError(t, err)
	assert.Equal(t, len(seed), n)

	found, err := courses.FindByID(ctx, "CS101")
	require.NoError(t, err)
	assert.NotEmpty(t, found.Name)

	_, err = seedCourses(ctx, courses, []*model.Course{{ID: "X"}})
	assert.Error(t, err)

	_, err = loadCourses("does-not-exist.json")
	assert.Error(t, err)
}

func TestBuildEventQuery(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	groupID := uuid.New()

	auditFlags.group = groupID.String()
	auditFlags.actor = ""
	auditFlags.action = model.ActionMemberJoined
	auditFlags.since = time.Hour
	auditFlags.limit = 10
	t.Cleanup(func() { auditFlags.group, auditFlags.action, auditFlags.since = "", "", 0 })

	query, err := buildEventQuery(now)
	require.NoError(t, err)
	assert.Equal(t, groupID, query.GroupID)
	assert.Equal(t, uuid.Nil, query.ActorID)
	assert.Equal(t, model.ActionMemberJoined, query.Action)
	assert.Equal(t, now.Add(-time.Hour), query.StartTime)
	assert.Equal(t, 10, query.Limit)

	auditFlags.actor = "nope"
	_, err = buildEventQuery(now)
	assert.Error(t, err)
	auditFlags.actor = ""
}

func TestPrintEvents(t *testing.T) {
	subject := uuid.New()
	events := []model.GroupEvent{
		{GroupID: uuid.New(), Action: model.ActionMemberRemoved, ActorID: uuid.New(), SubjectID: &subject, RequestID: "req-9", CreatedAt: time.Now()},
		{GroupID: uuid.New(), Action: model.ActionMemberJoined, ActorID: uuid.New(), CreatedAt: time.Now()},
	}

	var out bytes.Buffer
	require.NoError(t, printEvents(&out, events, 7))
	assert.Contains(t, out.String(), "member_removed")
	assert.Contains(t, out.String(), subject.String())
	assert.Contains(t, out.String(), "req-9")
	assert.Contains(t, out.String(), "2 of 7 events")
}
