package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation = errors.New("validation error")
	ErrFetch      = errors.New("fetch error")
	ErrTranscode  = errors.New("transcode error")
	ErrEncode     = errors.New("encode error")
)

// ErrorKind is the stable tag reported to callers alongside a failure message.
type ErrorKind string

const (
	KindValidation ErrorKind = "ValidationError"
	KindFetch      ErrorKind = "FetchError"
	KindTranscode  ErrorKind = "TranscodeError"
	KindEncode     ErrorKind = "EncodeError"
	KindUnexpected ErrorKind = "UnexpectedError"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later kind classification. The marker should be one
// of the exported sentinel errors above; a nil marker leaves the error
// unclassified so it reports as UnexpectedError.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	switch {
	case marker != nil && err != nil:
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	case marker != nil:
		return fmt.Errorf("%w: %s", marker, detail)
	case err != nil:
		return fmt.Errorf("%s: %w", detail, err)
	default:
		return errors.New(detail)
	}
}

// KindOf maps a stage error to the error kind reported to callers.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrFetch):
		return KindFetch
	case errors.Is(err, ErrTranscode):
		return KindTranscode
	case errors.Is(err, ErrEncode):
		return KindEncode
	default:
		return KindUnexpected
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
