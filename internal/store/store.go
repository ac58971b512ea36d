package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrJJimenez/applycli/internal/models"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Lookup when no record exists for the identifier.
var ErrNotFound = errors.New("job record not found")

// TerminalStateViolationError reports an attempt to change a record whose
// status is terminal. It signals a programming or data-integrity error and is
// never expected during correct operation.
type TerminalStateViolationError struct {
	ID       models.JobIdentifier
	Existing models.Status
	Proposed models.Status
}

func (e *TerminalStateViolationError) Error() string {
	return fmt.Sprintf("terminal state violation: %s is %s, refusing transition to %s", e.ID, e.Existing, e.Proposed)
}

const schema = `CREATE TABLE IF NOT EXISTS job_records (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	first_seen_at DATETIME NOT NULL,
	last_updated_at DATETIME NOT NULL,
	attempt_count INTEGER NOT NULL DEFAULT 0
);`

// Store owns the JobRecord lifecycle. All status transitions go through
// Upsert, which enforces the terminal-state invariant.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the sqlite-backed store at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// One connection keeps per-identifier upserts atomic without relying on
	// sqlite's own locking behaviour under concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA synchronous = FULL;"); err != nil {
		return fmt.Errorf("set synchronous mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Lookup returns the record for id, or ErrNotFound.
func (s *Store) Lookup(ctx context.Context, id models.JobIdentifier) (models.JobRecord, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, status, reason, first_seen_at, last_updated_at, attempt_count
		 FROM job_records WHERE id = ?`,
		string(id),
	)
	return scanRecord(row)
}

// Upsert creates the record on first sight or transitions an existing one,
// adding attempts (the number of collaborator attempts behind this outcome,
// at least 1) to attempt_count and stamping last_updated_at. A terminal
// record rejects any different proposed status with
// TerminalStateViolationError; proposing the same status is an idempotent
// no-op. The write is committed before Upsert returns.
func (s *Store) Upsert(ctx context.Context, id models.JobIdentifier, status models.Status, reason string, attempts int) (models.JobRecord, error) {
	if strings.TrimSpace(string(id)) == "" {
		return models.JobRecord{}, fmt.Errorf("job identifier is required")
	}
	if !status.Valid() {
		return models.JobRecord{}, fmt.Errorf("invalid status %q", status)
	}
	if attempts < 1 {
		attempts = 1
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.JobRecord{}, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := scanRecord(tx.QueryRowContext(
		ctx,
		`SELECT id, status, reason, first_seen_at, last_updated_at, attempt_count
		 FROM job_records WHERE id = ?`,
		string(id),
	))
	now := s.now().UTC()

	switch {
	case errors.Is(err, ErrNotFound):
		record := models.JobRecord{
			ID:            id,
			Status:        status,
			Reason:        reason,
			FirstSeenAt:   now,
			LastUpdatedAt: now,
			AttemptCount:  attempts,
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO job_records (id, status, reason, first_seen_at, last_updated_at, attempt_count)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			string(record.ID), string(record.Status), record.Reason,
			record.FirstSeenAt, record.LastUpdatedAt, record.AttemptCount,
		); err != nil {
			return models.JobRecord{}, fmt.Errorf("insert record: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return models.JobRecord{}, fmt.Errorf("commit upsert: %w", err)
		}
		return record, nil

	case err != nil:
		return models.JobRecord{}, err

	case existing.Status.Terminal():
		if existing.Status == status {
			return existing, nil
		}
		return models.JobRecord{}, &TerminalStateViolationError{
			ID:       id,
			Existing: existing.Status,
			Proposed: status,
		}

	default:
		record := existing
		record.Status = status
		record.Reason = reason
		record.LastUpdatedAt = now
		record.AttemptCount += attempts
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE job_records
			 SET status = ?, reason = ?, last_updated_at = ?, attempt_count = ?
			 WHERE id = ?`,
			string(record.Status), record.Reason, record.LastUpdatedAt,
			record.AttemptCount, string(record.ID),
		); err != nil {
			return models.JobRecord{}, fmt.Errorf("update record: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return models.JobRecord{}, fmt.Errorf("commit upsert: %w", err)
		}
		return record, nil
	}
}

// All returns every record ordered by first sight. The slice is a snapshot of
// the persisted set at call time.
func (s *Store) All(ctx context.Context) ([]models.JobRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, status, reason, first_seen_at, last_updated_at, attempt_count
		 FROM job_records ORDER BY first_seen_at ASC, id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.JobRecord, 0)
	for rows.Next() {
		var record models.JobRecord
		var id, status string
		if err := rows.Scan(&id, &status, &record.Reason, &record.FirstSeenAt, &record.LastUpdatedAt, &record.AttemptCount); err != nil {
			return nil, err
		}
		record.ID = models.JobIdentifier(id)
		record.Status = models.Status(status)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.JobRecord, error) {
	var record models.JobRecord
	var id, status string
	err := row.Scan(&id, &status, &record.Reason, &record.FirstSeenAt, &record.LastUpdatedAt, &record.AttemptCount)
	if errors.Is(err, sql.ErrNoRows) {
		return models.JobRecord{}, ErrNotFound
	}
	if err != nil {
		return models.JobRecord{}, err
	}
	record.ID = models.JobIdentifier(id)
	record.Status = models.Status(status)
	return record, nil
}
