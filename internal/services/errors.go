package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across services
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("conflict")
	ErrValidationFailed = errors.New("validation failed")

	ErrUserNotFound     = errors.New("user not found")
	ErrTestNotFound     = errors.New("test not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrQuestionNotFound = errors.New("question not found")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrAttemptFinalized   = errors.New("attempt is already finalized")
	ErrSessionNotActive   = errors.New("session is not active")
	ErrDuplicateAnswer    = errors.New("answer already recorded for question")
)

// PermissionError carries the caller identity that was rejected.
type PermissionError struct {
	UserID  uint
	Action  string
	Message string
}

func (e *PermissionError) Error() string {
	return e.Message
}

func (e *PermissionError) Unwrap() error {
	return ErrForbidden
}

// NewPermissionError builds a permission error for a denied action.
func NewPermissionError(userID uint, action, message string) *PermissionError {
	return &PermissionError{
		UserID:  userID,
		Action:  action,
		Message: message,
	}
}

// ValidationError describes one failed field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors aggregates field failures into a single error.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError wraps a single field failure.
func NewValidationError(field, message string) ValidationErrors {
	return ValidationErrors{{Field: field, Message: message}}
}
