package directory

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRecordNotFound is returned by FetchOne when the directory has no
// employee with the requested external id.
var ErrRecordNotFound = errors.New("directory record not found")

// UnavailableError marks a transient directory failure: network errors,
// timeouts, 5xx responses. The orchestrator fails the run and expects the
// caller to retry with a later run.
type UnavailableError struct {
	Cause error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("directory unavailable: %v", e.Cause)
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// AuthError marks a permanent credential failure. Retrying without operator
// intervention will not help.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("directory authentication failed (status %d): %s", e.StatusCode, e.Message)
}

// Client pulls employee records from the external HR directory. Both the
// production HTTP implementation and the development mock satisfy it; the
// orchestrator never branches on which one it holds.
type Client interface {
	// FetchAll returns every employee record, optionally filtered by
	// lifecycle status.
	FetchAll(ctx context.Context, statusFilter *Status) ([]ExternalRecord, error)

	// FetchSince returns records changed at or after the given instant.
	FetchSince(ctx context.Context, since time.Time) ([]ExternalRecord, error)

	// FetchOne returns the record for one external id, or ErrRecordNotFound.
	FetchOne(ctx context.Context, externalID string) (*ExternalRecord, error)

	// TestConnection verifies reachability and credentials without pulling
	// any employee data.
	TestConnection(ctx context.Context) error
}
