package services

import (
	"context"
	"errors"
	"net/http"

	"studynotes-dashboard/internal/api"
	"studynotes-dashboard/internal/poller"
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }

// UpstreamError is any other failure talking to the note backend. Message
// is safe to show; Err keeps the detail for the log.
type UpstreamError struct {
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// translate maps backend client errors onto service errors.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, poller.ErrTimeout) {
		return err
	}

	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return &UpstreamError{Message: "Could not reach the notes service", Err: err}
	}

	switch apiErr.StatusCode {
	case http.StatusUnauthorized:
		return &UnauthorizedError{Message: "Your session has expired, please sign in again"}
	case http.StatusForbidden:
		return &ForbiddenError{Message: apiErr.Message}
	case http.StatusNotFound:
		return &NotFoundError{Message: apiErr.Message}
	case http.StatusConflict:
		return &ConflictError{Message: apiErr.Message}
	case http.StatusTooManyRequests:
		return &RateLimitError{Message: "Too many requests, please slow down"}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &ValidationError{Fields: map[string]string{"request": apiErr.Message}}
	default:
		return &UpstreamError{Message: "The notes service failed to handle the request", Err: apiErr}
	}
}
