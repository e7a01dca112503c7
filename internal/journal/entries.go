package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the terminal state of a job.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Entry is one recorded request.
type Entry struct {
	ID             string    `json:"id"`
	VideoURL       string    `json:"video_url"`
	CaptionURL     string    `json:"caption_url"`
	Status         Status    `json:"status"`
	ErrorKind      string    `json:"error_kind,omitempty"`
	Message        string    `json:"message,omitempty"`
	OutputPath     string    `json:"output_path,omitempty"`
	OutputFilename string    `json:"output_filename,omitempty"`
	ObjectKey      string    `json:"object_key,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// Duration reports how long the job ran.
func (e Entry) Duration() time.Duration {
	if e.FinishedAt.Before(e.StartedAt) {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}

// Stats summarizes the journal.
type Stats struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

const entryColumns = `id, video_url, caption_url, status, error_kind, message,
    output_path, output_filename, object_key, started_at, finished_at`

// Record stores entry, replacing any earlier entry with the same ID.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if strings.TrimSpace(entry.ID) == "" {
		return errors.New("journal entry id is required")
	}
	switch entry.Status {
	case StatusSucceeded, StatusFailed:
	default:
		return fmt.Errorf("journal entry status %q is invalid", entry.Status)
	}
	ctx = ensureContext(ctx)
	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO jobs (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.ID,
			entry.VideoURL,
			entry.CaptionURL,
			string(entry.Status),
			nullableString(entry.ErrorKind),
			nullableString(entry.Message),
			nullableString(entry.OutputPath),
			nullableString(entry.OutputFilename),
			nullableString(entry.ObjectKey),
			formatTime(entry.StartedAt),
			formatTime(entry.FinishedAt),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("record job %s: %w", entry.ID, err)
	}
	return nil
}

// Get returns the entry with id, or nil when none exists.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM jobs WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return entry, nil
}

// List returns the most recently finished entries first. A non-positive
// limit returns every entry.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + entryColumns + ` FROM jobs ORDER BY finished_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return entries, nil
}

// Stats counts entries by status.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, fmt.Errorf("scan job stats: %w", err)
		}
		stats.Total += count
		switch Status(status) {
		case StatusSucceeded:
			stats.Succeeded = count
		case StatusFailed:
			stats.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate job stats: %w", err)
	}
	return stats, nil
}

// Prune deletes entries that finished before cutoff and reports how many
// were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE finished_at < ?`, formatTime(cutoff))
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	return removed, nil
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		entry                                 Entry
		status                                string
		errorKind, message                    sql.NullString
		outputPath, outputFilename, objectKey sql.NullString
		startedRaw, finishedRaw               string
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.VideoURL,
		&entry.CaptionURL,
		&status,
		&errorKind,
		&message,
		&outputPath,
		&outputFilename,
		&objectKey,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	entry.Status = Status(status)
	entry.ErrorKind = errorKind.String
	entry.Message = message.String
	entry.OutputPath = outputPath.String
	entry.OutputFilename = outputFilename.String
	entry.ObjectKey = objectKey.String
	entry.StartedAt, _ = time.Parse(time.RFC3339Nano, startedRaw)
	entry.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedRaw)
	return &entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// formatTime uses a fixed-width layout so lexical order in SQLite matches
// chronological order.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}
