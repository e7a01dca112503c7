// Package fetch downloads remote assets into a request workspace.
//
// Responses are streamed straight to disk, never buffered in memory. A 404 or
// 410 surfaces as ErrNotFound, other non-success statuses as *StatusError, and
// transport failures keep their underlying error. Partial downloads are
// removed before an error is returned.
package fetch
