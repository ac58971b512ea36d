package portal

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrJJimenez/applycli/internal/models"
)

// Searcher yields candidate postings for one query/location pair. Results may
// overlap across queries; the orchestrator dedups by identifier.
type Searcher interface {
	Search(ctx context.Context, query string, location string) ([]models.Posting, error)
}

// Observer produces the classification snapshot for one posting.
type Observer interface {
	Observe(ctx context.Context, id models.JobIdentifier) (models.Observation, error)
}

// Submitter performs the collaborator-side quick apply. A nil return means
// the application was submitted; failures are *ExecutionError values.
type Submitter interface {
	Submit(ctx context.Context, id models.JobIdentifier, profile models.Profile) error
}

// ErrSessionExpired marks any collaborator error caused by the portal no
// longer honoring the authenticated session. It is fatal to the current run
// wherever it surfaces.
var ErrSessionExpired = errors.New("session expired")

// ObserverErrorKind distinguishes why an observation was unavailable.
type ObserverErrorKind string

const (
	ObserverNotFound ObserverErrorKind = "not-found"
	ObserverTimeout  ObserverErrorKind = "timeout"
)

// ObserverError means the posting could not be observed this run. The job is
// not marked failed; it simply stays unprocessed and is retried next run.
type ObserverError struct {
	ID   models.JobIdentifier
	Kind ObserverErrorKind
	Err  error
}

func (e *ObserverError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("observe %s: %s: %v", e.ID, e.Kind, e.Err)
	}
	return fmt.Sprintf("observe %s: %s", e.ID, e.Kind)
}

func (e *ObserverError) Unwrap() error {
	return e.Err
}

// FailureKind classifies a failed submission attempt.
type FailureKind string

const (
	FailureTimeout        FailureKind = "Timeout"
	FailureFormRejected   FailureKind = "FormRejected"
	FailureSessionExpired FailureKind = "SessionExpired"
	FailureUnknown        FailureKind = "Unknown"
)

// Retryable reports whether the kind is retried within the same run.
func (k FailureKind) Retryable() bool {
	return k == FailureTimeout
}

// ExecutionError is a failed submission attempt. SessionExpired is fatal to
// the whole run and propagated by the orchestrator.
type ExecutionError struct {
	ID   models.JobIdentifier
	Kind FailureKind
	Err  error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("submit %s: %s: %v", e.ID, e.Kind, e.Err)
	}
	return fmt.Sprintf("submit %s: %s", e.ID, e.Kind)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from err, defaulting to Unknown.
func KindOf(err error) FailureKind {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Kind
	}
	return FailureUnknown
}
