package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dangerclosesec/studygroups/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithDomainError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"not found", domain.ErrGroupNotFound, http.StatusNotFound, "not_found", "group not found"},
		{"forbidden", domain.ErrNotAuthorized, http.StatusForbidden, "not_authorized", "not authorized for this group"},
		{"unauthenticated", domain.ErrInvalidCredentials, http.StatusUnauthorized, "unauthenticated", "invalid credentials"},
		{"full", domain.ErrGroupFull, http.StatusConflict, "group_full", "group is full"},
		{"passkey", domain.ErrInvalidPasskey, http.StatusBadRequest, "invalid_passkey", "invalid passkey for this group"},
		{"wrapped input", fmt.Errorf("%w: name is required", domain.ErrInvalidInput), http.StatusBadRequest, "invalid_input", "invalid input: name is required"},
		{"store down", fmt.Errorf("locking group: %w", domain.ErrUnavailable), http.StatusServiceUnavailable, "unavailable", "Service temporarily unavailable"},
		{"unclassified", errors.New("dial tcp: refused"), http.StatusServiceUnavailable, "unavailable", "Service temporarily unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			respondWithDomainError(rec, req, "test", tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			require.NotNil(t, body.Code)
			assert.Equal(t, tt.code, *body.Code)
			assert.Equal(t, tt.message, body.Error)
		})
	}
}
