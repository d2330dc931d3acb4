package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrChecklistNotFound    = errors.New("checklist not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrSubmissionNotFound   = errors.New("submission not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrFileNotFound         = errors.New("file not found")

	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("access forbidden")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidUploadToken = errors.New("invalid or expired upload token")

	// ErrRequestInProgress is returned when a keyed request arrives while an
	// earlier request with the same key is still running.
	ErrRequestInProgress = errors.New("a request with this idempotency key is still in progress")
)

// notFound lists every lookup miss so callers can branch on the category
// without enumerating entities.
var notFound = []error{
	ErrUserNotFound,
	ErrConversationNotFound,
	ErrOrganizationNotFound,
	ErrChecklistNotFound,
	ErrTaskNotFound,
	ErrSubmissionNotFound,
	ErrNotificationNotFound,
	ErrFileNotFound,
}

// IsNotFound reports whether err wraps any of the entity-not-found errors.
func IsNotFound(err error) bool {
	for _, target := range notFound {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ConflictError reports a uniqueness violation on a single field.
type ConflictError struct {
	Field string
	Value string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q is already taken", e.Field, e.Value)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// InvalidInputError names the offending field.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// Invalid builds an InvalidInputError for field.
func Invalid(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}
