package domain

import (
	"errors"
	"fmt"
)

// Error codes shared by the service layer and the HTTP surface.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeMatchFinalized = "MATCH_FINALIZED"
	CodePermission     = "PERMISSION_DENIED"
	CodeExternalSource = "EXTERNAL_SOURCE_ERROR"
	CodeConflict       = "CONFLICT"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeSyncInProgress = "SYNC_IN_PROGRESS"
	CodeRateLimited    = "RATE_LIMITED"
	CodeInternal       = "INTERNAL_ERROR"
)

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// IsCode reports whether err wraps an AppError carrying the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Standard domain error constructors.

func ErrValidation(msg string) *AppError {
	return &AppError{Code: CodeValidation, Message: msg, Status: 400}
}

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

func ErrMatchFinalized(matchID string) *AppError {
	return &AppError{Code: CodeMatchFinalized, Message: fmt.Sprintf("match %s already has a final score", matchID), Status: 409}
}

func ErrPermission(msg string) *AppError {
	return &AppError{Code: CodePermission, Message: msg, Status: 403}
}

func ErrExternalSource(msg string, cause error) *AppError {
	return &AppError{Code: CodeExternalSource, Message: msg, Status: 502, Cause: cause}
}

func ErrConflict(msg string) *AppError {
	return &AppError{Code: CodeConflict, Message: msg, Status: 409}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: msg, Status: 401}
}

func ErrSyncInProgress() *AppError {
	return &AppError{Code: CodeSyncInProgress, Message: "a fixture sync is already running", Status: 409}
}

func ErrRateLimited(msg string) *AppError {
	return &AppError{Code: CodeRateLimited, Message: msg, Status: 429}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: CodeInternal, Message: msg, Status: 500, Cause: cause}
}
