// Package pipeline orchestrates a single caption burn-in request.
//
// A run moves through fetch_video, fetch_captions, transcode and encode in
// strict order inside a request-scoped workspace. The first failing stage
// aborts the run with a classified error (see services.KindOf) and the
// workspace is released on every exit path. Successful outputs are moved to
// the configured output directory before the workspace is removed, then
// optionally published and journaled.
package pipeline
