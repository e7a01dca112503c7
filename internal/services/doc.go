// Package services defines shared utilities consumed by the caption pipeline
// stages and the external collaborators they call.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs and stage names so every log line
//     emitted while serving a request can be correlated.
//   - Structured error markers plus the Wrap helper that translate stage
//     failures into the stable error kinds reported to callers
//     (ValidationError, FetchError, TranscodeError, EncodeError,
//     UnexpectedError).
//
// Use these helpers when wiring new stage logic so error classification and
// observability stay uniform across the pipeline.
package services
