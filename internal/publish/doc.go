// Package publish uploads finished captioned videos to S3-compatible object
// storage.
//
// Objects are keyed <prefix>/<request-id>/<filename>. Publishing is optional;
// the pipeline treats an upload failure as a warning and keeps the local
// output as the authoritative result.
package publish
