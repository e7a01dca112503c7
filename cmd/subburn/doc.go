// Package main hosts the subburn CLI entrypoint and command graph.
//
// The Cobra command tree runs the caption burn-in HTTP service (serve),
// executes one-off burns locally or against a running service (burn), and
// exposes the conversion and style pipeline pieces on their own (convert,
// style, fonts) alongside service inspection (status, history) and
// configuration scaffolding.
//
// Keep this package lean: functionality lives in internal packages and is
// surfaced here through flags and rendering only.
package main
