package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"subburn/internal/api"
	"subburn/internal/journal"
	"subburn/internal/metrics"
	"subburn/internal/pipeline"
	"subburn/internal/services"
	"subburn/internal/testsupport"
)

type runnerStub struct {
	mu       sync.Mutex
	requests []pipeline.Request
	result   pipeline.Result
	err      error
}

func (r *runnerStub) Run(_ context.Context, req pipeline.Request) (pipeline.Result, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
	result := r.result
	if result.RequestID == "" {
		result.RequestID = req.ID
	}
	return result, r.err
}

type jobStoreStub struct {
	entries []journal.Entry
}

func (s *jobStoreStub) List(_ context.Context, limit int) ([]journal.Entry, error) {
	if limit > 0 && limit < len(s.entries) {
		return s.entries[:limit], nil
	}
	return s.entries, nil
}

func (s *jobStoreStub) Get(_ context.Context, id string) (*journal.Entry, error) {
	for i := range s.entries {
		if s.entries[i].ID == id {
			entry := s.entries[i]
			return &entry, nil
		}
	}
	return nil, nil
}

func (s *jobStoreStub) Stats(context.Context) (journal.Stats, error) {
	return journal.Stats{Total: len(s.entries), Succeeded: len(s.entries)}, nil
}

func newTestServer(t *testing.T, runner Runner, jobs JobStore, token string) http.Handler {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithAPIToken(token))
	d, err := New(cfg, runner, jobs, metrics.New(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return newAPIServer(cfg.Paths.APIBind, token, d, nil).server.Handler
}

func doRequest(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

const captionBody = `{"video_url":"https://example.com/clip.mp4","srt_url":"https://example.com/clip.srt","options":{"font_size":"28"}}`

func TestHandleCaptionSuccess(t *testing.T) {
	runner := &runnerStub{result: pipeline.Result{OutputPath: "/out/clip_captioned.mp4", OutputFilename: "clip_captioned.mp4"}}
	h := newTestServer(t, runner, nil, "")

	req := httptest.NewRequest(http.MethodPost, "/caption", strings.NewReader(captionBody))
	req.Header.Set("X-Request-ID", "abc123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp api.CaptionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.OutputPath != "/out/clip_captioned.mp4" || resp.OutputFilename != "clip_captioned.mp4" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.RequestID != "abc123" {
		t.Fatalf("expected request id passthrough, got %q", resp.RequestID)
	}
	if len(runner.requests) != 1 {
		t.Fatalf("expected one run, got %d", len(runner.requests))
	}
	got := runner.requests[0]
	if got.CaptionURL != "https://example.com/clip.srt" || got.Options.FontSize == nil || *got.Options.FontSize != 28 {
		t.Fatalf("unexpected pipeline request: %+v", got)
	}
}

func TestHandleCaptionMapsErrorKinds(t *testing.T) {
	tests := []struct {
		kind services.ErrorKind
		want int
	}{
		{services.KindValidation, http.StatusBadRequest},
		{services.KindFetch, http.StatusBadGateway},
		{services.KindTranscode, http.StatusUnprocessableEntity},
		{services.KindEncode, http.StatusInternalServerError},
		{services.KindUnexpected, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(string(tc.kind), func(t *testing.T) {
			runner := &runnerStub{
				result: pipeline.Result{ErrorKind: tc.kind, Message: "boom"},
				err:    errors.New("boom"),
			}
			w := doRequest(t, newTestServer(t, runner, nil, ""), http.MethodPost, "/caption", captionBody, "")
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
			var resp api.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.ErrorKind != tc.kind || resp.Error != "boom" {
				t.Fatalf("unexpected error body: %+v", resp)
			}
		})
	}
}

func TestHandleCaptionRejectsBadBodies(t *testing.T) {
	for name, body := range map[string]string{
		"empty":     "",
		"malformed": "{not json",
		"trailing":  `{"video_url":"x"} {}`,
	} {
		t.Run(name, func(t *testing.T) {
			runner := &runnerStub{}
			w := doRequest(t, newTestServer(t, runner, nil, ""), http.MethodPost, "/caption", body, "")
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			var resp api.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.ErrorKind != services.KindValidation {
				t.Fatalf("expected ValidationError, got %q", resp.ErrorKind)
			}
			if len(runner.requests) != 0 {
				t.Fatal("runner should not be invoked")
			}
		})
	}
}

func TestAuthRequiredExceptHealth(t *testing.T) {
	h := newTestServer(t, &runnerStub{}, nil, "secret")

	if w := doRequest(t, h, http.MethodGet, "/health", "", ""); w.Code != http.StatusOK {
		t.Fatalf("health should be open, got %d", w.Code)
	}
	w := doRequest(t, h, http.MethodPost, "/caption", captionBody, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Fatal("expected WWW-Authenticate header")
	}
	if w := doRequest(t, h, http.MethodGet, "/api/status", "", "wrong"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}
	if w := doRequest(t, h, http.MethodGet, "/api/status", "", "secret"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
	if w := doRequest(t, h, http.MethodGet, "/metrics", "", "secret"); w.Code != http.StatusOK {
		t.Fatalf("expected metrics with token, got %d", w.Code)
	}
}

func TestCaptionRequiresPost(t *testing.T) {
	w := doRequest(t, newTestServer(t, &runnerStub{}, nil, ""), http.MethodGet, "/caption", "", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestJobsEndpoints(t *testing.T) {
	now := time.Now().UTC()
	store := &jobStoreStub{entries: []journal.Entry{
		{ID: "b", Status: journal.StatusSucceeded, StartedAt: now, FinishedAt: now},
		{ID: "a", Status: journal.StatusFailed, ErrorKind: "FetchError", StartedAt: now, FinishedAt: now},
	}}
	h := newTestServer(t, &runnerStub{}, store, "")

	w := doRequest(t, h, http.MethodGet, "/api/jobs?limit=1", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var list api.JobListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Jobs) != 1 || list.Jobs[0].ID != "b" {
		t.Fatalf("unexpected jobs: %+v", list.Jobs)
	}

	if w := doRequest(t, h, http.MethodGet, "/api/jobs?limit=zero", "", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", w.Code)
	}

	w = doRequest(t, h, http.MethodGet, "/api/jobs/a", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var job api.JobResponse
	if err := json.Unmarshal(w.Body.Bytes(), &job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if job.Job.ErrorKind != "FetchError" {
		t.Fatalf("unexpected job: %+v", job.Job)
	}

	if w := doRequest(t, h, http.MethodGet, "/api/jobs/missing", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestJobsEndpointsWithoutJournal(t *testing.T) {
	h := newTestServer(t, &runnerStub{}, nil, "")
	if w := doRequest(t, h, http.MethodGet, "/api/jobs", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

type blockingRunner struct {
	release chan struct{}
	active  atomic.Int32
	peak    atomic.Int32
}

func (r *blockingRunner) Run(_ context.Context, req pipeline.Request) (pipeline.Result, error) {
	n := r.active.Add(1)
	for {
		peak := r.peak.Load()
		if n <= peak || r.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	<-r.release
	r.active.Add(-1)
	return pipeline.Result{RequestID: req.ID, OutputPath: "/out/x.mp4", OutputFilename: "x.mp4"}, nil
}

func TestRunBoundsConcurrency(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxConcurrentJobs(2))
	runner := &blockingRunner{release: make(chan struct{})}
	d, err := New(cfg, runner, nil, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = d.run(context.Background(), pipeline.Request{})
		}()
	}

	deadline := time.Now().Add(2 * time.Second)
	for runner.active.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := d.Status(context.Background()).InFlight; got != 2 {
		t.Fatalf("expected 2 in flight, got %d", got)
	}
	close(runner.release)
	wg.Wait()

	if peak := runner.peak.Load(); peak != 2 {
		t.Fatalf("expected peak concurrency 2, got %d", peak)
	}
}

func TestRunAbandonsWaitOnCancel(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxConcurrentJobs(1))
	runner := &blockingRunner{release: make(chan struct{})}
	d, err := New(cfg, runner, nil, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	go func() { _, _ = d.run(context.Background(), pipeline.Request{}) }()
	for runner.active.Load() < 1 {
		time.Sleep(5 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := d.run(ctx, pipeline.Request{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	close(runner.release)
}
