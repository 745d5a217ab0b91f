package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"testing"

	"github.com/dangerclosesec/studygroups/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLogService(t *testing.T, level slog.Level) (*Service, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg := &config.Config{}
	cfg.Email.From = "no-reply@example.com"
	cfg.Email.FromName = "Study Groups"
	s, err := NewEmailService(cfg, ProviderLog, slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level})))
	require.NoError(t, err)
	return s, &buf
}

func TestRenderSignupOTP(t *testing.T) {
	s, _ := newLogService(t, slog.LevelInfo)

	html, text, err := s.renderTemplate("signup_otp", map[string]string{"Code": "123456", "ExpiresIn": "5m0s"})
	require.NoError(t, err)
	assert.Contains(t, html, "123456")
	assert.Contains(t, text, "123456")
	assert.Contains(t, text, "5m0s")

	_, _, err = s.renderTemplate("missing", nil)
	assert.Error(t, err)
}

func TestLogProviderSend(t *testing.T) {
	send := func(s *Service) {
		err := s.SendEmail(context.Background(), EmailData{
			To:           "student@example.com",
			Subject:      "code",
			TemplateName: "signup_otp",
			TemplateData: map[string]string{"Code": "654321", "ExpiresIn": "5m0s"},
		})
		require.NoError(t, err)
	}

	t.Run("info omits the body", func(t *testing.T) {
		s, buf := newLogService(t, slog.LevelInfo)
		send(s)
		assert.Contains(t, buf.String(), "student@example.com")
		assert.NotContains(t, buf.String(), "654321")
		assert.NotContains(t, buf.String(), `"body"`)
	})

	t.Run("debug includes the body", func(t *testing.T) {
		s, buf := newLogService(t, slog.LevelDebug)
		send(s)
		assert.Contains(t, buf.String(), "654321")
	})
}

func TestNewEmailServiceRejectsMisconfiguration(t *testing.T) {
	_, err := NewEmailService(&config.Config{}, ProviderSendgrid, nil)
	assert.Error(t, err)

	_, err = NewEmailService(&config.Config{}, Provider("pigeon"), nil)
	assert.Error(t, err)
}

func TestBuildMIMEMessage(t *testing.T) {
	msg := string(buildMIMEMessage(EmailData{
		To:       "a@example.com",
		From:     "b@example.com",
		FromName: "B",
		Subject:  "hello",
	}, "<p>hi</p>", "hi"))

	assert.True(t, strings.HasPrefix(msg, "From: B <b@example.com>\r\n"))
	assert.Contains(t, msg, "Subject: hello\r\n")
	assert.Contains(t, msg, base64.StdEncoding.EncodeToString([]byte("<p>hi</p>")))
	assert.Contains(t, msg, base64.StdEncoding.EncodeToString([]byte("hi")))
}
