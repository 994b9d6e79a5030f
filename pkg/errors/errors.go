package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrIndexNotFound = errors.New("index not found")
	ErrCorruptIndex  = errors.New("corrupt index")
	ErrInvalidQuery  = errors.New("invalid query")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInternal      = errors.New("internal error")
	ErrTimeout       = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// InvalidQuery builds an ErrInvalidQuery error for a malformed query.
func InvalidQuery(format string, args ...any) *AppError {
	return Newf(ErrInvalidQuery, http.StatusBadRequest, format, args...)
}

// CorruptIndex builds an ErrCorruptIndex error.
func CorruptIndex(format string, args ...any) *AppError {
	return Newf(ErrCorruptIndex, http.StatusInternalServerError, format, args...)
}

// IndexNotFound builds an ErrIndexNotFound error.
func IndexNotFound(format string, args ...any) *AppError {
	return Newf(ErrIndexNotFound, http.StatusServiceUnavailable, format, args...)
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidQuery), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrIndexNotFound), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Is and As re-export the standard helpers so callers need a single import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }
