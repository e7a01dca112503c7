// Package staging manages request-scoped workspaces under the configured
// work directory.
//
// Every caption request acquires its own directory, and the pipeline releases
// it on every exit path. Release is idempotent and observable, so tests can
// assert cleanup without relying on object lifetime. CleanStale sweeps
// directories left behind by a crashed process at service start.
package staging
