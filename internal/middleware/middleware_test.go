package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dangerclosesec/studygroups/internal/audit"
	"github.com/dangerclosesec/studygroups/internal/auth"
	"github.com/dangerclosesec/studygroups/internal/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenManager("test_secret", time.Hour)
	userID := uuid.New()

	var seen uuid.UUID
	h := middleware.AuthMiddleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.UserIDFromContext(r.Context())
		require.True(t, ok)
		seen = id
		w.WriteHeader(http.StatusNoContent)
	}))

	valid, err := tokens.Generate(userID, "a@example.com")
	require.NoError(t, err)
	expired, err := auth.NewTokenManager("test_secret", -time.Minute).Generate(userID, "a@example.com")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + valid, http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	assert.Equal(t, userID, seen)
}

func TestClientIP(t *testing.T) {
	var ip string
	h := middleware.ClientIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip = audit.ClientIP(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "192.0.2.7", ip)
}

func TestRateLimiter(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, 2)
	h := limiter.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("198.51.100.1:1"))
	assert.Equal(t, http.StatusOK, do("198.51.100.1:2"))
	assert.Equal(t, http.StatusTooManyRequests, do("198.51.100.1:3"))

	// Budgets are per client
	assert.Equal(t, http.StatusOK, do("198.51.100.2:1"))
}
