package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"subburn/internal/pipeline"
	"subburn/internal/style"
)

// ErrEmptyBody is returned when a request carries no JSON payload.
var ErrEmptyBody = errors.New("request body is empty")

// CaptionRequest is the body of POST /caption.
type CaptionRequest struct {
	VideoURL   string        `json:"video_url"`
	SRTURL     string        `json:"srt_url,omitempty"`
	CaptionURL string        `json:"caption_url,omitempty"`
	Options    style.Options `json:"options"`
}

// CaptionLocation returns srt_url, falling back to caption_url.
func (r CaptionRequest) CaptionLocation() string {
	if value := strings.TrimSpace(r.SRTURL); value != "" {
		return value
	}
	return strings.TrimSpace(r.CaptionURL)
}

// PipelineRequest converts the payload into a pipeline request.
func (r CaptionRequest) PipelineRequest(id string) pipeline.Request {
	return pipeline.Request{
		ID:         id,
		VideoURL:   strings.TrimSpace(r.VideoURL),
		CaptionURL: r.CaptionLocation(),
		Options:    r.Options,
	}
}

// DecodeCaptionRequest reads a CaptionRequest from body. Unknown keys are
// ignored; trailing data after the JSON object is rejected.
func DecodeCaptionRequest(body io.Reader) (CaptionRequest, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return CaptionRequest{}, fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return CaptionRequest{}, ErrEmptyBody
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	var req CaptionRequest
	if err := dec.Decode(&req); err != nil {
		return CaptionRequest{}, fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return CaptionRequest{}, errors.New("invalid JSON body: unexpected data after object")
	}
	return req, nil
}
