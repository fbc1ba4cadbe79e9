package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the error classes the cart service distinguishes.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrTransformFailed    = errors.New("transform failed")
	ErrInternal           = errors.New("internal error")
)

// AppError is a structured application error carrying a stable machine code
// and an HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
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

// NotFound creates a 404 error for a missing resource.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error for malformed caller input. Never retried.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// CatalogUnavailable creates a 503 error for a catalog lookup that could not
// be completed. Distinct from "product not found", which is a normal outcome.
// Callers may retry.
func CatalogUnavailable(err error) *AppError {
	return &AppError{
		Code:    "CATALOG_UNAVAILABLE",
		Message: "product catalog is temporarily unavailable",
		Status:  http.StatusServiceUnavailable,
		Err:     fmt.Errorf("%w: %w", ErrCatalogUnavailable, err),
	}
}

// TransformFailed creates a 500 error for an unexpected failure while
// assembling a response view. The underlying cause is kept for logs but never
// surfaced to callers.
func TransformFailed(err error) *AppError {
	return &AppError{
		Code:    "TRANSFORM_FAILED",
		Message: "failed to process product data",
		Status:  http.StatusInternalServerError,
		Err:     fmt.Errorf("%w: %w", ErrTransformFailed, err),
	}
}

// Internal creates a generic 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrCatalogUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
