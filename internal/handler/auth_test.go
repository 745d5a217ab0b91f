package handler_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/dangerclosesec/studygroups/internal/auth"
	"github.com/dangerclosesec/studygroups/internal/config"
	"github.com/dangerclosesec/studygroups/internal/email"
	"github.com/dangerclosesec/studygroups/internal/handler"
	"github.com/dangerclosesec/studygroups/internal/middleware"
	"github.com/dangerclosesec/studygroups/internal/repository/memory"
	"github.com/dangerclosesec/studygroups/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthAPI(t *testing.T) {
	cfg := &config.Config{}
	cfg.OTP.TTL = 5 * time.Minute

	var mail bytes.Buffer
	emailService, err := email.NewEmailService(cfg, email.ProviderLog, slog.New(slog.NewJSONHandler(&mail, &slog.HandlerOptions{Level: slog.LevelDebug})))
	require.NoError(t, err)

	cache := service.NewCacheService(service.CacheConfig{TTL: cfg.OTP.TTL, CleanupFreq: time.Minute})
	t.Cleanup(cache.Close)

	tokens := auth.NewTokenManager("test_secret", time.Hour)
	users := service.NewUserService(memory.NewUsers(), memory.NewProfiles(), auth.NewPasswordHasher(), tokens, emailService, cache, cfg)
	h := handler.NewAuthHandler(users)

	r := chi.NewRouter()
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup/otp", h.RequestOTPHandler)
		r.Post("/signup", h.SignupHandler)
		r.Post("/login", h.LoginHandler)
		r.Post("/password/reset/otp", h.RequestPasswordResetHandler)
		r.Post("/password/reset", h.ResetPasswordHandler)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(tokens))
			r.Get("/me", h.MeHandler)
			r.Put("/profile", h.UpdateProfileHandler)
			r.Post("/password/verify", h.VerifyPasswordHandler)
			r.Put("/password", h.ChangePasswordHandler)
		})
	})
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	call := func(method, path, token string, body interface{}) (int, map[string]interface{}) {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		req, err := http.NewRequest(method, server.URL+path, bytes.NewReader(data))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		var out map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return resp.StatusCode, out
	}

	status, _ := call(http.MethodPost, "/api/auth/signup/otp", "", map[string]string{"email": "ada@example.com"})
	require.Equal(t, http.StatusAccepted, status)

	mailedCode := func() string {
		var code string
		dec := json.NewDecoder(bytes.NewReader(mail.Bytes()))
		for dec.More() {
			var logged struct {
				Body string `json:"body"`
			}
			require.NoError(t, dec.Decode(&logged))
			if logged.Body != "" {
				code = regexp.MustCompile(`\b\d{6}\b`).FindString(logged.Body)
			}
		}
		require.NotEmpty(t, code)
		return code
	}
	code := mailedCode()

	status, body := call(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":            "ada@example.com",
		"name":             "Ada",
		"password":         "correct_password",
		"confirm_password": "correct_password",
		"code":             code,
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.NotEmpty(t, body["token"])
	assert.Nil(t, body["user"].(map[string]interface{})["password_hash"])

	status, body = call(http.MethodPost, "/api/auth/signup/otp", "", map[string]string{"email": "ada@example.com"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", body["error_code"])

	status, body = call(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthenticated", body["error_code"])

	status, body = call(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": "correct_password"})
	require.Equal(t, http.StatusOK, status)
	token := body["token"].(string)

	status, body = call(http.MethodPut, "/api/auth/profile", token, map[string]string{"about_me": "Organizer"})
	require.Equal(t, http.StatusOK, status, body)

	status, body = call(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Organizer", body["profile"].(map[string]interface{})["about_me"])

	status, _ = call(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = call(http.MethodPost, "/api/auth/password/verify", token, map[string]string{"password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_input", body["error_code"])

	status, body = call(http.MethodPut, "/api/auth/password", token, map[string]string{
		"current_password": "correct_password",
		"new_password":     "changed_password",
		"confirm_password": "changed_password",
	})
	require.Equal(t, http.StatusOK, status, body)

	status, _ = call(http.MethodPost, "/api/auth/password/reset/otp", "", map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusAccepted, status)

	mail.Reset()
	status, _ = call(http.MethodPost, "/api/auth/password/reset/otp", "", map[string]string{"email": "ada@example.com"})
	require.Equal(t, http.StatusAccepted, status)
	status, body = call(http.MethodPost, "/api/auth/password/reset", "", map[string]string{
		"email":            "ada@example.com",
		"code":             mailedCode(),
		"new_password":     "reset_password",
		"confirm_password": "reset_password",
	})
	require.Equal(t, http.StatusOK, status, body)

	status, _ = call(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": "changed_password"})
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = call(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": "reset_password"})
	assert.Equal(t, http.StatusOK, status)
}
