package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"subburn/internal/services"
)

func TestDecodeCaptionRequest(t *testing.T) {
	body := `{"video_url":" https://media.example/v.mp4 ","caption_url":"https://media.example/c.srt","options":{"position":"top","ratio":"9:16","font_size":"28"}}`
	req, err := DecodeCaptionRequest(strings.NewReader(body))
	if err != nil {
		t.Fatalf("DecodeCaptionRequest: %v", err)
	}
	if req.CaptionLocation() != "https://media.example/c.srt" {
		t.Fatalf("CaptionLocation = %q", req.CaptionLocation())
	}
	pr := req.PipelineRequest("abc")
	if pr.ID != "abc" || pr.VideoURL != "https://media.example/v.mp4" {
		t.Fatalf("unexpected pipeline request: %+v", pr)
	}
	if pr.Options.Position == nil || *pr.Options.Position != "top" {
		t.Fatal("expected position option")
	}
	if pr.Options.AspectRatio == nil || *pr.Options.AspectRatio != "9:16" {
		t.Fatal("expected ratio alias to populate aspect_ratio")
	}
	if pr.Options.FontSize == nil || *pr.Options.FontSize != 28 {
		t.Fatal("expected numeric string font size")
	}
}

func TestDecodeCaptionRequestPrefersSRTURL(t *testing.T) {
	req, err := DecodeCaptionRequest(strings.NewReader(`{"video_url":"v","srt_url":"a","caption_url":"b"}`))
	if err != nil {
		t.Fatalf("DecodeCaptionRequest: %v", err)
	}
	if req.CaptionLocation() != "a" {
		t.Fatalf("CaptionLocation = %q", req.CaptionLocation())
	}
}

func TestDecodeCaptionRequestErrors(t *testing.T) {
	if _, err := DecodeCaptionRequest(strings.NewReader("  ")); !errors.Is(err, ErrEmptyBody) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}
	for _, body := range []string{"{", `{"video_url": 5}`, `{"video_url":"a"} {}`, `{"options":{"font_size":1.5}}`} {
		if _, err := DecodeCaptionRequest(strings.NewReader(body)); err == nil {
			t.Errorf("expected error for %q", body)
		}
	}
}

func TestStatusForKind(t *testing.T) {
	cases := map[services.ErrorKind]int{
		services.KindValidation: http.StatusBadRequest,
		services.KindFetch:      http.StatusBadGateway,
		services.KindTranscode:  http.StatusUnprocessableEntity,
		services.KindEncode:     http.StatusInternalServerError,
		services.KindUnexpected: http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := StatusForKind(kind); got != want {
			t.Errorf("StatusForKind(%s) = %d, want %d", kind, got, want)
		}
	}
}

func TestClientCaptionAndErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/caption", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		var req CaptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.SRTURL == "" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(ErrorResponse{ErrorKind: services.KindValidation, Error: "srt_url is required", RequestID: "r1"})
			return
		}
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = "r2"
		}
		_ = json.NewEncoder(w).Encode(CaptionResponse{OutputPath: "/out/v_captioned.mp4", OutputFilename: "v_captioned.mp4", RequestID: id})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(strings.TrimPrefix(srv.URL, "http://"), "secret")
	resp, err := client.Caption(context.Background(), CaptionRequest{VideoURL: "v", SRTURL: "s"})
	if err != nil {
		t.Fatalf("Caption: %v", err)
	}
	if resp.OutputFilename != "v_captioned.mp4" || resp.RequestID != "r2" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	tagged, err := client.WithRequestID("job-7").Caption(context.Background(), CaptionRequest{VideoURL: "v", SRTURL: "s"})
	if err != nil {
		t.Fatalf("Caption with id: %v", err)
	}
	if tagged.RequestID != "job-7" {
		t.Fatalf("expected X-Request-ID passthrough, got %q", tagged.RequestID)
	}

	_, err = client.Caption(context.Background(), CaptionRequest{VideoURL: "v"})
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remote.StatusCode != http.StatusBadRequest || remote.Kind != services.KindValidation || remote.RequestID != "r1" {
		t.Fatalf("unexpected remote error: %+v", remote)
	}
	if IsUnreachable(err) {
		t.Fatal("API errors are not unreachable errors")
	}

	anon := NewClient(srv.URL, "")
	if _, err := anon.Caption(context.Background(), CaptionRequest{VideoURL: "v", SRTURL: "s"}); !errors.As(err, &remote) || remote.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	err := NewClient(addr, "").Health(context.Background())
	if err == nil {
		t.Fatal("expected error for closed server")
	}
	if !IsUnreachable(err) {
		t.Fatalf("expected unreachable error, got %v", err)
	}
}
