package mailer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/dangerclosesec/studygroups/internal/config"
	"github.com/dangerclosesec/studygroups/internal/email"
	"github.com/dangerclosesec/studygroups/internal/email/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendSignupOTP(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{}
	cfg.Email.From = "no-reply@example.com"
	s, err := email.NewEmailService(cfg, email.ProviderLog, slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	require.NoError(t, err)

	require.NoError(t, mailer.SendSignupOTP(context.Background(), s, "ada@example.com", "042917", 5*time.Minute))

	var record struct {
		To       string `json:"to"`
		Template string `json:"template"`
		Body     string `json:"body"`
	}
	dec := json.NewDecoder(&buf)
	for dec.More() && record.Body == "" {
		require.NoError(t, dec.Decode(&record))
	}
	assert.Equal(t, "ada@example.com", record.To)
	assert.Equal(t, "signup_otp", record.Template)
	assert.Contains(t, record.Body, "042917")
	assert.Contains(t, record.Body, "5m0s")
}

func TestSendPasswordResetOTP(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{}
	cfg.Email.From = "no-reply@example.com"
	s, err := email.NewEmailService(cfg, email.ProviderLog, slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	require.NoError(t, err)

	require.NoError(t, mailer.SendPasswordResetOTP(context.Background(), s, "ada@example.com", "", "731004", 5*time.Minute))

	var record struct {
		Template string `json:"template"`
		Body     string `json:"body"`
	}
	dec := json.NewDecoder(&buf)
	for dec.More() && record.Body == "" {
		require.NoError(t, dec.Decode(&record))
	}
	assert.Equal(t, "password_reset_otp", record.Template)
	assert.Contains(t, record.Body, "Hi there,")
	assert.Contains(t, record.Body, "731004")
}
