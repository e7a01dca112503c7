package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subburn/internal/config"
	"subburn/internal/fonts"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFonts(t *testing.T) {
	if result := CheckFonts("Fonts", fonts.Static{"Arial", "Roboto"}); !result.Passed || !strings.Contains(result.Detail, "2 fonts") {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result := CheckFonts("Fonts", fonts.Unavailable{}); result.Passed {
		t.Fatal("expected failure for unavailable inventory")
	}
	if result := CheckFonts("Fonts", fonts.Static{}); result.Passed {
		t.Fatal("expected failure for empty inventory")
	}
	if result := CheckFonts("Fonts", nil); result.Passed {
		t.Fatal("expected failure for nil inventory")
	}
}

type bucketStub struct {
	exists bool
	err    error
}

func (b bucketStub) BucketExists(context.Context, string) (bool, error) {
	return b.exists, b.err
}

func TestCheckBucket(t *testing.T) {
	ctx := context.Background()
	if result := CheckBucket(ctx, bucketStub{exists: true}, "videos"); !result.Passed {
		t.Fatalf("expected pass, got %+v", result)
	}
	if result := CheckBucket(ctx, bucketStub{}, "videos"); result.Passed {
		t.Fatal("expected failure for missing bucket")
	}
	if result := CheckBucket(ctx, bucketStub{err: errors.New("connection refused")}, "videos"); result.Passed {
		t.Fatal("expected failure for unreachable store")
	}
	if result := CheckBucket(ctx, nil, "videos"); result.Passed {
		t.Fatal("expected failure for nil checker")
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.FontsDir = filepath.Join(base, "fonts")
	cfg.Journal.Path = filepath.Join(base, "journal.db")
	return &cfg
}

func TestRunAll(t *testing.T) {
	cfg := testConfig(t)
	if err := os.MkdirAll(cfg.Paths.WorkDir, 0o755); err != nil {
		t.Fatal(err)
	}
	results := RunAll(cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	failed := Failed(results)
	if len(failed) != 2 {
		t.Fatalf("expected output dir and fonts to fail, got %+v", failed)
	}
	if failed[0].Name != "Output directory" || failed[1].Name != "Fonts" {
		t.Fatalf("unexpected failures: %+v", failed)
	}
	if RunAll(nil) != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestCheckJournalFromConfig(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	if result := CheckJournalFromConfig(ctx, cfg); !result.Passed || result.Detail != "Disabled" {
		t.Fatalf("expected disabled pass, got %+v", result)
	}
	cfg.Journal.Enabled = true
	result := CheckJournalFromConfig(ctx, cfg)
	if !result.Passed || !strings.Contains(result.Detail, "0 jobs") {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCheckPublishFromConfigDisabled(t *testing.T) {
	cfg := testConfig(t)
	if result := CheckPublishFromConfig(context.Background(), cfg); !result.Passed || result.Detail != "Disabled" {
		t.Fatalf("expected disabled pass, got %+v", result)
	}
	cfg.Publish.Enabled = true
	if result := CheckPublishFromConfig(context.Background(), cfg); result.Passed {
		t.Fatal("expected failure for incomplete publish config")
	}
}
