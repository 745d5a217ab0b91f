// internal/domain/errors.go
package domain

import "errors"

// Kind classifies an error so transports can map it to a stable outcome.
type Kind string

const (
	KindNotFound                 Kind = "not_found"
	KindNotAuthorized            Kind = "not_authorized"
	KindUnauthenticated          Kind = "unauthenticated"
	KindAlreadyMember            Kind = "already_member"
	KindDuplicateRequest         Kind = "duplicate_request"
	KindGroupFull                Kind = "group_full"
	KindInvalidPasskey           Kind = "invalid_passkey"
	KindInvalidReference         Kind = "invalid_reference"
	KindProtectedCreator         Kind = "protected_creator"
	KindUseLeaveInstead          Kind = "use_leave_instead"
	KindUseLeaveOrPromoteInstead Kind = "use_leave_or_promote_instead"
	KindRequestMismatch          Kind = "request_mismatch"
	KindNotMember                Kind = "not_member"
	KindInvalidInput             Kind = "invalid_input"
	KindConflict                 Kind = "conflict"
	KindUnavailable              Kind = "unavailable"
)

// Error is a classified domain error. Sentinels are compared by identity with errors.Is.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

var (
	// General errors
	ErrNotFound     = newError(KindNotFound, "not found")
	ErrInvalidInput = newError(KindInvalidInput, "invalid input")
	ErrUnavailable  = newError(KindUnavailable, "store unavailable")

	// Cache-related errors
	ErrInvalidOTP = newError(KindInvalidInput, "invalid or expired one-time code")

	// User-related errors
	ErrUserNotFound       = newError(KindNotFound, "user not found")
	ErrEmailAlreadyExists = newError(KindConflict, "email already exists")
	ErrInvalidCredentials = newError(KindUnauthenticated, "invalid credentials")
	ErrWrongPassword      = newError(KindInvalidInput, "current password does not match")
	ErrUnauthorized       = newError(KindUnauthenticated, "unauthorized")

	// Course-related errors
	ErrCourseNotFound = newError(KindNotFound, "course not found")
	ErrNotEnrolled    = newError(KindNotFound, "not enrolled in this course")

	// Group-related errors
	ErrGroupNotFound         = newError(KindNotFound, "group not found")
	ErrRequestNotFound       = newError(KindNotFound, "join request not found")
	ErrNotAuthorized         = newError(KindNotAuthorized, "not authorized for this group")
	ErrAlreadyMember         = newError(KindAlreadyMember, "already a member of this group")
	ErrDuplicateRequest      = newError(KindDuplicateRequest, "a join request is already pending")
	ErrGroupFull             = newError(KindGroupFull, "group is full")
	ErrInvalidPasskey        = newError(KindInvalidPasskey, "invalid passkey for this group")
	ErrInvalidReference      = newError(KindInvalidReference, "associated course does not exist")
	ErrProtectedCreator      = newError(KindProtectedCreator, "the group creator cannot be removed or demoted")
	ErrUseLeaveInstead       = newError(KindUseLeaveInstead, "cannot remove yourself, leave the group instead")
	ErrUseLeaveOrPromote     = newError(KindUseLeaveOrPromoteInstead, "cannot change your own role")
	ErrRequestMismatch       = newError(KindRequestMismatch, "join request does not belong to this group")
	ErrNotMember             = newError(KindNotMember, "not a member of this group")
	ErrInvalidDecision       = newError(KindInvalidInput, "decision must be approve or deny")
	ErrInvalidRole           = newError(KindInvalidInput, "role must be admin or member")
	ErrInvalidPrivacy        = newError(KindInvalidInput, "privacy must be public, private_passkey or private_request")
	ErrInvalidMemberLimit    = newError(KindInvalidInput, "member limit must be between 1 and 10000")
)

// KindOf returns the kind of the first classified error in err's chain.
// Unclassified errors are infrastructure failures and report KindUnavailable.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnavailable
}
