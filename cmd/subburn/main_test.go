package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"subburn/internal/config"
	"subburn/internal/journal"
	"subburn/internal/style"
	"subburn/internal/testsupport"
)

const sampleSRT = "1\n00:00:01,000 --> 00:00:02,500\nHello\nthere\n\n2\n00:00:03,000 --> 00:00:04,000\nBye\n"

// setupCLIConfig writes a config file for cfg and returns its path. The API
// bind points at a port nothing listens on.
func setupCLIConfig(t *testing.T, opts ...testsupport.ConfigOption) (*config.Config, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Paths.APIBind = "127.0.0.1:1"
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	testsupport.WriteText(t, path, string(data))
	return cfg, path
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

func TestConfigInitShowAndValidate(t *testing.T) {
	_, path := setupCLIConfig(t, testsupport.WithAPIToken("s3cr3t-token"))

	out, _, err := runCLI(t, "-c", path, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	out, _, err = runCLI(t, "-c", path, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, redacted)
	if strings.Contains(out, "s3cr3t-token") {
		t.Fatal("config show leaked the API token")
	}

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}

	out, _, err = runCLI(t, "config", "init", "--stdout")
	if err != nil {
		t.Fatalf("config init --stdout: %v", err)
	}
	written, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if out != string(written) {
		t.Fatal("expected --stdout to print the same sample that init writes")
	}
	requireContains(t, out, "[notifications]")
}

func TestConvertRejectsNonPositiveSize(t *testing.T) {
	cfg, path := setupCLIConfig(t)
	input := filepath.Join(testsupport.BaseDir(cfg), "in.srt")
	testsupport.WriteText(t, input, sampleSRT)

	_, _, err := runCLI(t, "-c", path, "convert", input, "--size", "0")
	if err == nil || !strings.Contains(err.Error(), "font_size must be positive") {
		t.Fatalf("expected font_size error, got %v", err)
	}
}

func TestConvertWritesASS(t *testing.T) {
	cfg, path := setupCLIConfig(t)
	input := filepath.Join(testsupport.BaseDir(cfg), "in.srt")
	testsupport.WriteText(t, input, sampleSRT)
	output := filepath.Join(testsupport.BaseDir(cfg), "out.ass")

	_, stderr, err := runCLI(t, "-c", path, "convert", input, "-o", output, "--position", "top")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	requireContains(t, stderr, "Wrote 2 events")

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	text := string(data)
	if got := strings.Count(text, "Dialogue:"); got != 2 {
		t.Fatalf("expected 2 dialogue lines, got %d:\n%s", got, text)
	}
	requireContains(t, text, `Hello\Nthere`)
}

func TestConvertRejectsMalformedSRT(t *testing.T) {
	cfg, path := setupCLIConfig(t)
	input := filepath.Join(testsupport.BaseDir(cfg), "bad.srt")
	testsupport.WriteText(t, input, "1\nnot a timestamp\nHello\n")

	if _, _, err := runCLI(t, "-c", path, "convert", input); err == nil {
		t.Fatal("expected malformed captions to fail")
	}
}

func TestStyleJSON(t *testing.T) {
	_, path := setupCLIConfig(t)

	out, _, err := runCLI(t, "-c", path, "style", "--json", "--size", "30", "--aspect-ratio", "9:16")
	if err != nil {
		t.Fatalf("style: %v", err)
	}
	var resolved style.Resolved
	if err := json.Unmarshal([]byte(out), &resolved); err != nil {
		t.Fatalf("decode style: %v\n%s", err, out)
	}
	if resolved.FontSize != 30 {
		t.Fatalf("expected font size 30, got %d", resolved.FontSize)
	}
	if resolved.BorderStyle != style.BorderOpaqueBox {
		t.Fatalf("expected opaque box for portrait, got %d", resolved.BorderStyle)
	}
}

func TestFontsListsInventory(t *testing.T) {
	cfg, path := setupCLIConfig(t)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.FontsDir, "Roboto.ttf"), 1)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.FontsDir, "sub", "Inter.OTF"), 1)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.FontsDir, "readme.txt"), 1)

	out, _, err := runCLI(t, "-c", path, "fonts", "--json")
	if err != nil {
		t.Fatalf("fonts: %v", err)
	}
	var names []string
	if err := json.Unmarshal([]byte(out), &names); err != nil {
		t.Fatalf("decode fonts: %v", err)
	}
	if len(names) != 2 || names[0] != "Inter" || names[1] != "Roboto" {
		t.Fatalf("unexpected fonts: %v", names)
	}

	out, _, err = runCLI(t, "-c", path, "fonts")
	if err != nil {
		t.Fatalf("fonts table: %v", err)
	}
	requireContains(t, out, "Roboto")
	requireContains(t, out, "2 fonts in")
}

func TestStatusWithoutService(t *testing.T) {
	_, path := setupCLIConfig(t)

	out, _, err := runCLI(t, "-c", path, "status", "--json")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var report statusReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if report.Service != nil || report.ServiceError == "" {
		t.Fatalf("expected unreachable service, got %+v", report)
	}
	if len(report.Checks) == 0 || len(report.Dependencies) == 0 {
		t.Fatalf("expected local checks, got %+v", report)
	}

	out, _, err = runCLI(t, "-c", path, "status")
	if err != nil {
		t.Fatalf("status text: %v", err)
	}
	requireContains(t, out, "== Service ==")
	requireContains(t, out, "[WARN] not running")
}

func TestHistoryReadsJournal(t *testing.T) {
	cfg, path := setupCLIConfig(t, testsupport.WithJournal())
	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	now := time.Now().UTC()
	for _, entry := range []journal.Entry{
		{ID: "old", Status: journal.StatusFailed, ErrorKind: "FetchError", StartedAt: now.Add(-72 * time.Hour), FinishedAt: now.Add(-72 * time.Hour)},
		{ID: "new", Status: journal.StatusSucceeded, OutputFilename: "clip_captioned.mp4", StartedAt: now.Add(-time.Minute), FinishedAt: now},
	} {
		if err := store.Record(context.Background(), entry); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	store.Close()

	out, _, err := runCLI(t, "-c", path, "history", "--json")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var entries []journal.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != "new" {
		t.Fatalf("unexpected history: %+v", entries)
	}

	out, _, err = runCLI(t, "-c", path, "history")
	if err != nil {
		t.Fatalf("history table: %v", err)
	}
	requireContains(t, out, "clip_captioned.mp4")
	requireContains(t, out, "FetchError")

	out, _, err = runCLI(t, "-c", path, "history", "prune", "--older-than", "24h")
	if err != nil {
		t.Fatalf("history prune: %v", err)
	}
	requireContains(t, out, "Removed 1 jobs")

	if _, _, err := runCLI(t, "-c", path, "history", "show", "old"); err == nil {
		t.Fatal("expected pruned job to be missing")
	}
}

func TestHistoryRequiresJournal(t *testing.T) {
	_, path := setupCLIConfig(t)
	_, _, err := runCLI(t, "-c", path, "history")
	if err == nil || !strings.Contains(err.Error(), "journal is disabled") {
		t.Fatalf("expected disabled journal error, got %v", err)
	}
}

func TestLoadEnvFile(t *testing.T) {
	if err := loadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}

	t.Setenv("SUBBURN_TEST_ENV_VALUE", "")
	os.Unsetenv("SUBBURN_TEST_ENV_VALUE")
	path := filepath.Join(t.TempDir(), ".env")
	testsupport.WriteText(t, path, "SUBBURN_TEST_ENV_VALUE=loaded\n")
	if err := loadEnvFile(path); err != nil {
		t.Fatalf("loadEnvFile: %v", err)
	}
	if got := os.Getenv("SUBBURN_TEST_ENV_VALUE"); got != "loaded" {
		t.Fatalf("expected env value loaded, got %q", got)
	}
}

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("Work directory", statusOK, "ready", false)
	requireContains(t, line, "Work directory:")
	requireContains(t, line, "[OK] ready")
	if strings.Contains(line, "\x1b[") {
		t.Fatal("expected no colour codes when colorize is false")
	}
	colored := renderStatusLine("Daemon", statusError, "", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected red line, got %q", colored)
	}
}

func TestRenderTablePadsRows(t *testing.T) {
	out := renderTable([]column{{header: "A"}, {header: "B", right: true}}, [][]string{{"x"}})
	requireContains(t, out, "A")
	requireContains(t, out, "x")
	if renderTable(nil, nil) != "" {
		t.Fatal("expected empty table without columns")
	}
}

func TestTestNotifySendsToTopic(t *testing.T) {
	var titles []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		titles = append(titles, r.Header.Get("Title"))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	testsupport.WriteText(t, path, string(data))

	out, _, err := runCLI(t, "-c", path, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent")
	if len(titles) != 1 || titles[0] != "subburn - Test" {
		t.Fatalf("unexpected ntfy requests: %v", titles)
	}
}

func TestBurnLocal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/media/clip.mp4", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("video-bytes"))
	})
	mux.HandleFunc("/media/clip.srt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleSRT))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	// The stub copies the subtitle track into the output named by its last argument.
	cfg, path := setupCLIConfig(t, testsupport.WithEncoderScript(`for last; do :; done; cat captions.ass > "$last"`))

	out, _, err := runCLI(t, "-c", path, "burn", server.URL+"/media/clip.mp4", server.URL+"/media/clip.srt", "--id", "cli-1", "--json")
	if err != nil {
		t.Fatalf("burn: %v", err)
	}
	var resp struct {
		OutputPath     string `json:"output_path"`
		OutputFilename string `json:"output_filename"`
		RequestID      string `json:"request_id"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode burn output: %v\n%s", err, out)
	}
	if resp.OutputFilename != "clip_captioned.mp4" || resp.RequestID != "cli-1" {
		t.Fatalf("unexpected burn result: %+v", resp)
	}
	if filepath.Dir(resp.OutputPath) != cfg.Paths.OutputDir {
		t.Fatalf("output %s not in %s", resp.OutputPath, cfg.Paths.OutputDir)
	}
	data, err := os.ReadFile(resp.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	requireContains(t, string(data), `Hello\Nthere`)
}

func TestBurnLocalReportsFetchError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	_, path := setupCLIConfig(t, testsupport.WithEncoderScript("exit 0"))

	_, _, err := runCLI(t, "-c", path, "burn", server.URL+"/missing.mp4", server.URL+"/missing.srt")
	if err == nil || !strings.Contains(err.Error(), "FetchError") {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestLogsFiltersByRequest(t *testing.T) {
	cfg, path := setupCLIConfig(t)
	logPath := filepath.Join(cfg.Paths.LogDir, "subburn-20261014.log")
	testsupport.WriteText(t, logPath, strings.Join([]string{
		`{"msg":"pipeline started","request_id":"a1"}`,
		`{"msg":"pipeline started","request_id":"b2"}`,
		`{"msg":"pipeline completed","request_id":"a1"}`,
	}, "\n")+"\n")

	out, _, err := runCLI(t, "-c", path, "logs", "--request", "a1")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Count(out, "\n") != 2 || strings.Contains(out, "b2") {
		t.Fatalf("unexpected filtered logs:\n%s", out)
	}
}
