package service

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the services. Specific errors wrap one of these so callers
// can branch with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
)

var (
	ErrPostNotFound       = fmt.Errorf("post %w", ErrNotFound)
	ErrCommentNotFound    = fmt.Errorf("comment %w", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrInactiveUser       = fmt.Errorf("account is inactive: %w", ErrUnauthorized)
	ErrNotOwner           = fmt.Errorf("only the author or an admin may do this: %w", ErrUnauthorized)
	ErrAdminOnly          = fmt.Errorf("admin role required: %w", ErrUnauthorized)
	ErrInvalidCredentials = fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
	ErrRejectionReason    = fmt.Errorf("rejection reason must be 10-500 characters: %w", ErrValidation)
	ErrEmailTaken         = fmt.Errorf("email already registered: %w", ErrConflict)
	ErrSelfModeration     = fmt.Errorf("admins cannot change their own account: %w", ErrInvalidState)
)

// TransitionError reports a lifecycle event that is not allowed from the current status.
type TransitionError struct {
	Event  PostEvent
	Status string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a %s post", e.Event, e.Status)
}

// Unwrap lets errors.Is match ErrInvalidState.
func (e *TransitionError) Unwrap() error {
	return ErrInvalidState
}
