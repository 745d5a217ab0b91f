package audit_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/dangerclosesec/studygroups/internal/audit"
	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStamp(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	ctx = audit.WithClientIP(ctx, "10.0.0.1")

	event := &model.GroupEvent{Action: model.ActionMemberJoined}
	audit.Stamp(ctx, event)
	assert.Equal(t, "req-1", event.RequestID)
	assert.Equal(t, "10.0.0.1", event.ClientIP)

	preset := &model.GroupEvent{RequestID: "keep", ClientIP: "keep"}
	audit.Stamp(ctx, preset)
	assert.Equal(t, "keep", preset.RequestID)
	assert.Equal(t, "keep", preset.ClientIP)
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := audit.NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	subject := uuid.New()
	event := &model.GroupEvent{
		GroupID:   uuid.New(),
		Action:    model.ActionMemberRemoved,
		ActorID:   uuid.New(),
		SubjectID: &subject,
		Details:   model.JSONMap{"reason": "removed by admin"},
	}
	require.NoError(t, logger.LogTransition(audit.WithClientIP(context.Background(), "127.0.0.1"), event))

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "group event", record["msg"])
	assert.Equal(t, model.ActionMemberRemoved, record["action"])
	assert.Equal(t, subject.String(), record["subjectID"])
	assert.Equal(t, "127.0.0.1", record["clientIP"])
}

func TestNoOpLogger(t *testing.T) {
	var l audit.Logger = &audit.NoOpLogger{}
	assert.NoError(t, l.LogTransition(context.Background(), &model.GroupEvent{}))
}
