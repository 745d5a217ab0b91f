package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dangerclosesec/studygroups/internal/domain"
	"github.com/dangerclosesec/studygroups/internal/middleware"
	chmw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct { // TypeGen: ErrorResponse
	BaseResponse
	Error   string    `json:"error"`
	Details *[]string `json:"details,omitempty"`
	Code    *string   `json:"error_code,omitempty"`
	Link    *string   `json:"error_link,omitempty"`
}

type BaseResponse struct { // TypeGen: DefaultResponse
	Ok bool `json:"ok"`
}

// statusFor maps an error kind to its HTTP status
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindNotAuthorized:
		return http.StatusForbidden
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindInvalidInput, domain.KindInvalidReference, domain.KindInvalidPasskey:
		return http.StatusBadRequest
	case domain.KindAlreadyMember,
		domain.KindDuplicateRequest,
		domain.KindGroupFull,
		domain.KindProtectedCreator,
		domain.KindUseLeaveInstead,
		domain.KindUseLeaveOrPromoteInstead,
		domain.KindRequestMismatch,
		domain.KindNotMember,
		domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}

// respondWithDomainError classifies err and writes the matching status with a stable error code
func respondWithDomainError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	kind := domain.KindOf(err)
	code := string(kind)
	status := statusFor(kind)

	message := "Service temporarily unavailable"
	var derr *domain.Error
	switch {
	case kind == domain.KindInvalidInput:
		message = err.Error()
	case kind != domain.KindUnavailable && errors.As(err, &derr):
		message = derr.Error()
	}

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), msg, "error", err, "requestID", chmw.GetReqID(r.Context()))
	} else {
		slog.DebugContext(r.Context(), msg, "error", err, "kind", kind, "requestID", chmw.GetReqID(r.Context()))
	}

	respondWithJSON(w, status, ErrorResponse{Error: message, Code: &code})
}

// respondWithError sends an error response with a message
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	// Sets content type header
	w.Header().Set("Content-Type", "application/json")

	// Sets the HTTP status code
	w.WriteHeader(code)

	// Encodes the response
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// decodeJSON reads a bounded JSON body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

// callerID returns the authenticated user or writes a 401
func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return userID, ok
}

// pathUUID parses a uuid URL parameter or writes a 400
func pathUUID(w http.ResponseWriter, raw, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
