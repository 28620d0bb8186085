package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrCorruption      = errors.New("index file corrupt")
	ErrIO              = errors.New("i/o failure")
	ErrUnavailable     = errors.New("service unavailable")
	ErrInternal        = errors.New("internal error")
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

// Invalid, Corrupt, Internal and Unavailable build AppErrors of the
// matching kind.
func Invalid(format string, args ...any) *AppError {
	return Newf(ErrInvalidArgument, http.StatusBadRequest, format, args...)
}

func Corrupt(format string, args ...any) *AppError {
	return Newf(ErrCorruption, http.StatusInternalServerError, format, args...)
}

func Internal(format string, args ...any) *AppError {
	return Newf(ErrInternal, http.StatusInternalServerError, format, args...)
}

func Unavailable(format string, args ...any) *AppError {
	return Newf(ErrUnavailable, http.StatusServiceUnavailable, format, args...)
}

// IOFailure wraps cause so that both errors.Is(err, ErrIO) and
// errors.Is(err, cause) hold.
func IOFailure(op string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, cause)
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
