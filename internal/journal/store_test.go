package journal_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"subburn/internal/journal"
)

func openStore(t *testing.T) *journal.Store {
	t.Helper()
	store, err := journal.Open(filepath.Join(t.TempDir(), "db", "journal.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndGet(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entry := journal.Entry{
		ID:             "req-1",
		VideoURL:       "https://media.example/clip.mp4",
		CaptionURL:     "https://media.example/clip.srt",
		Status:         journal.StatusSucceeded,
		OutputPath:     "/srv/output/clip_captioned.mp4",
		OutputFilename: "clip_captioned.mp4",
		StartedAt:      started,
		FinishedAt:     started.Add(42 * time.Second),
	}
	if err := store.Record(ctx, entry); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := store.Get(ctx, "req-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected entry")
	}
	if got.OutputFilename != "clip_captioned.mp4" || got.Status != journal.StatusSucceeded {
		t.Fatalf("unexpected entry: %#v", got)
	}
	if got.ErrorKind != "" {
		t.Fatalf("expected empty error kind, got %q", got.ErrorKind)
	}
	if !got.StartedAt.Equal(started) {
		t.Fatalf("started_at = %v, want %v", got.StartedAt, started)
	}
	if got.Duration() != 42*time.Second {
		t.Fatalf("duration = %v", got.Duration())
	}

	missing, err := store.Get(ctx, "nope")
	if err != nil {
		t.Fatalf("Get missing failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing entry, got %#v", missing)
	}
}

func TestRecordValidatesEntry(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	if err := store.Record(ctx, journal.Entry{Status: journal.StatusFailed}); err == nil {
		t.Fatal("expected error for missing id")
	}
	if err := store.Record(ctx, journal.Entry{ID: "x", Status: "running"}); err == nil {
		t.Fatal("expected error for invalid status")
	}
}

func TestListOrdersNewestFirstAndStats(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, status := range []journal.Status{journal.StatusSucceeded, journal.StatusFailed, journal.StatusSucceeded} {
		finished := base.Add(time.Duration(i) * time.Hour)
		entry := journal.Entry{
			ID:         "req-" + string(rune('a'+i)),
			VideoURL:   "https://media.example/v.mp4",
			CaptionURL: "https://media.example/c.srt",
			Status:     status,
			StartedAt:  finished.Add(-time.Minute),
			FinishedAt: finished,
		}
		if status == journal.StatusFailed {
			entry.ErrorKind = "FetchError"
			entry.Message = "caption not found"
		}
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("Record %s failed: %v", entry.ID, err)
		}
	}

	entries, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != "req-c" || entries[1].ID != "req-b" {
		t.Fatalf("unexpected order: %s, %s", entries[0].ID, entries[1].ID)
	}
	if entries[1].ErrorKind != "FetchError" {
		t.Fatalf("expected FetchError, got %q", entries[1].ErrorKind)
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List all failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 3 || stats.Succeeded != 2 || stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	removed, err := store.Prune(ctx, base.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 pruned entries, got %d", removed)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := journal.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("update version: %v", err)
	}
	_ = db.Close()

	if _, err := journal.Open(path); !errors.Is(err, journal.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
