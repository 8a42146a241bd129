package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrInvalidClientID  = errors.New("invalid client id")
	ErrConfiguration    = errors.New("configuration error")
	ErrDatabaseError    = errors.New("database error")
	ErrStoreTimeout     = errors.New("store timeout")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrClientMismatch   = fmt.Errorf("%w: client mismatch", ErrForbidden)
)

// UpstreamError is a failed call to the payment processor. Status is the HTTP
// status the caller should see: 4xx when the processor rejected caller input,
// 502 otherwise.
type UpstreamError struct {
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func NewUpstreamError(status int, err error) *UpstreamError {
	if status == 0 {
		status = http.StatusBadGateway
	}
	return &UpstreamError{Status: status, Err: err}
}

// StoreError classifies a raw driver error. Deadline hits become ErrStoreTimeout
// so callers can answer with a retryable status.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, ErrStoreTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrDatabaseError, err)
}

// IsRetryable reports whether the sender of the request should try again later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreTimeout) || errors.Is(err, context.DeadlineExceeded)
}
