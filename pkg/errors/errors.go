package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrMissingFields      = New("MISSING_FIELDS", http.StatusBadRequest, "Missing required fields")
	ErrInvalidEmail       = New("INVALID_EMAIL", http.StatusBadRequest, "Invalid email format")
	ErrInvalidStudentID   = New("INVALID_STUDENT_ID", http.StatusBadRequest, "Student ID must be 6-12 alphanumeric characters")
	ErrWeakPassword       = New("WEAK_PASSWORD", http.StatusBadRequest, "Password must be at least 8 characters with uppercase, lowercase, number, and special character")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "Invalid email or password")
	ErrMissingToken       = New("MISSING_TOKEN", http.StatusUnauthorized, "Access token required")
	ErrInvalidToken       = New("INVALID_TOKEN", http.StatusUnauthorized, "Invalid or expired token")
	ErrTokenExpired       = New("TOKEN_EXPIRED", http.StatusUnauthorized, "Invalid or expired token")
	ErrMissingRefresh     = New("MISSING_REFRESH_TOKEN", http.StatusUnauthorized, "Refresh token not provided")
	ErrAuthRequired       = New("AUTH_REQUIRED", http.StatusUnauthorized, "Authentication required")
	ErrUserNotFound       = New("USER_NOT_FOUND", http.StatusUnauthorized, "User not found")
	ErrForbidden          = New("INSUFFICIENT_PERMISSIONS", http.StatusForbidden, "Insufficient permissions")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrUserExists         = New("USER_EXISTS", http.StatusConflict, "User with this email already exists")
	ErrStudentIDExists    = New("STUDENT_ID_EXISTS", http.StatusConflict, "Student ID already exists")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrRateLimited        = New("RATE_LIMITED", http.StatusTooManyRequests, "Too many login attempts. Please try again later.")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
