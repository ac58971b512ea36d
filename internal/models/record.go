package models

import "time"

// Status is the persisted outcome of processing one posting.
type Status string

const (
	StatusApplied     Status = "applied"
	StatusShortlisted Status = "shortlisted"
	StatusSkipped     Status = "skipped"
	StatusFailed      Status = "failed"
)

// Terminal reports whether the status must never be overwritten. Applied and
// skipped postings are never revisited; failed ones are retried on a later
// run, shortlisted ones are left to a human.
func (s Status) Terminal() bool {
	return s == StatusApplied || s == StatusSkipped
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusApplied, StatusShortlisted, StatusSkipped, StatusFailed:
		return true
	}
	return false
}

// JobRecord is the durable bookkeeping entry for one posting, one per
// JobIdentifier.
type JobRecord struct {
	ID            JobIdentifier `json:"id"`
	Status        Status        `json:"status"`
	Reason        string        `json:"reason,omitempty"`
	FirstSeenAt   time.Time     `json:"first_seen_at"`
	LastUpdatedAt time.Time     `json:"last_updated_at"`
	AttemptCount  int           `json:"attempt_count"`
}
