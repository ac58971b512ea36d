package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/MrJJimenez/applycli/internal/models"
	"github.com/MrJJimenez/applycli/internal/runner"
)

const (
	AppliedFileName     = "applied.csv"
	ShortlistedFileName = "shortlisted.csv"
	FailedFileName      = "failed.csv"
	SummaryFileName     = "summary.json"
)

// WriteRun flushes every artifact of one run into its own timestamped
// directory under baseDir and returns that directory. Empty sections still
// produce a header-only file so no run terminates without artifacts.
func WriteRun(baseDir string, result runner.Result) (string, error) {
	if strings.TrimSpace(baseDir) == "" {
		return "", fmt.Errorf("output directory is required")
	}

	runDir := filepath.Join(baseDir, "run-"+result.Summary.StartedAt.UTC().Format("20060102-150405"))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("create run directory: %w", err)
	}

	if err := writeFile(filepath.Join(runDir, AppliedFileName), func(w io.Writer) error {
		return WriteApplied(w, result.Applied)
	}); err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(runDir, ShortlistedFileName), func(w io.Writer) error {
		return WriteShortlisted(w, result.Shortlisted)
	}); err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(runDir, FailedFileName), func(w io.Writer) error {
		return WriteFailed(w, result.Failed)
	}); err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(runDir, SummaryFileName), func(w io.Writer) error {
		return WriteSummary(w, result.Summary)
	}); err != nil {
		return "", err
	}

	return runDir, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return file.Close()
}

// WriteApplied writes the applied-jobs list: id, applied_at.
func WriteApplied(w io.Writer, entries []runner.AppliedEntry) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "applied_at"}); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := writer.Write([]string{string(entry.ID), entry.AppliedAt.UTC().Format(time.RFC3339)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteShortlisted writes the shortlisted-jobs list: id, reason,
// shortlisted_at.
func WriteShortlisted(w io.Writer, entries []runner.ShortlistEntry) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "reason", "shortlisted_at"}); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := writer.Write([]string{string(entry.ID), entry.Reason, entry.ShortlistedAt.UTC().Format(time.RFC3339)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFailed writes the failed-jobs list: id, reason, attempt_count.
func WriteFailed(w io.Writer, entries []runner.FailedEntry) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "reason", "attempt_count"}); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := writer.Write([]string{string(entry.ID), entry.Reason, strconv.Itoa(entry.Attempts)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSummary writes the run summary as indented JSON.
func WriteSummary(w io.Writer, summary models.RunSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

// RecordFormat selects how store records are rendered.
type RecordFormat string

const (
	FormatTable RecordFormat = "table"
	FormatCSV   RecordFormat = "csv"
	FormatJSON  RecordFormat = "json"
)

// WriteRecords renders store records in the requested format. CSV column
// order matches the persisted state-file schema.
func WriteRecords(w io.Writer, records []models.JobRecord, format RecordFormat) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case FormatCSV:
		return writeRecordsCSV(w, records)
	default:
		return writeRecordsTable(w, records)
	}
}

func writeRecordsCSV(w io.Writer, records []models.JobRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(recordHeader()); err != nil {
		return err
	}
	for _, record := range records {
		if err := writer.Write(recordRow(record)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeRecordsTable(w io.Writer, records []models.JobRecord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(recordHeader(), "\t"))
	for _, record := range records {
		fmt.Fprintln(tw, strings.Join(recordRow(record), "\t"))
	}
	return tw.Flush()
}

func recordHeader() []string {
	return []string{"id", "status", "reason", "first_seen_at", "last_updated_at", "attempt_count"}
}

func recordRow(record models.JobRecord) []string {
	return []string{
		string(record.ID),
		string(record.Status),
		record.Reason,
		record.FirstSeenAt.UTC().Format(time.RFC3339),
		record.LastUpdatedAt.UTC().Format(time.RFC3339),
		strconv.Itoa(record.AttemptCount),
	}
}
