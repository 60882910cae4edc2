package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds. Every AppError wraps exactly one of them so callers can
// branch with errors.Is without caring about the message.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrClient       = errors.New("client error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrGeneration   = errors.New("generation failure")
	ErrInternal     = errors.New("internal error")
)

// AppError is a typed failure carrying the HTTP status it maps to.
type AppError struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	Status         int    `json:"-"`
	AdditionalInfo any    `json:"additionalInfo,omitempty"`
	Err            error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithInfo attaches details rendered as additionalInfo in the error envelope.
func (e *AppError) WithInfo(info any) *AppError {
	e.AdditionalInfo = info
	return e
}

// Validation creates a 400 error for malformed or missing input.
func Validation(message string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: message, Status: http.StatusBadRequest, Err: ErrValidation}
}

// NotFound creates a 404 error.
func NotFound(message string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: message, Status: http.StatusNotFound, Err: ErrNotFound}
}

// Client creates a 400 error for requests that are well formed but invalid in the current state.
func Client(message string) *AppError {
	return &AppError{Code: "CLIENT_ERROR", Message: message, Status: http.StatusBadRequest, Err: ErrClient}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: message, Status: http.StatusUnauthorized, Err: ErrUnauthorized}
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return &AppError{Code: "FORBIDDEN", Message: message, Status: http.StatusForbidden, Err: ErrForbidden}
}

// Conflict creates a 409 error.
func Conflict(message string) *AppError {
	return &AppError{Code: "CONFLICT", Message: message, Status: http.StatusConflict, Err: ErrConflict}
}

// Generation creates a 500 error for signing or code-generation failures.
func Generation(message string, cause error) *AppError {
	err := ErrGeneration
	if cause != nil {
		err = fmt.Errorf("%w: %v", ErrGeneration, cause)
	}
	return &AppError{Code: "GENERATION_FAILURE", Message: message, Status: http.StatusInternalServerError, Err: err}
}

// Internal creates a 500 error wrapping an unexpected failure.
func Internal(message string, cause error) *AppError {
	err := ErrInternal
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrInternal, cause)
	}
	return &AppError{Code: "INTERNAL_ERROR", Message: message, Status: http.StatusInternalServerError, Err: err}
}

// StatusOf returns the HTTP status for err, 500 for anything that is not an AppError.
func StatusOf(err error) int {
	var ae *AppError
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// As extracts the AppError from err's chain.
func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
