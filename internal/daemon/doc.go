// Package daemon runs the long-lived subburn HTTP service.
//
// It wires configuration, the pipeline runner, the optional job journal and
// metrics into a single lifecycle with flock-based locking on the work
// directory so two services never share workspaces. Startup sweeps stale
// workspaces left by a crashed process and runs preflight checks; shutdown
// drains the HTTP server before releasing the lock.
//
// Concurrency is bounded by service.max_concurrent_jobs: each POST /caption
// holds one slot for the duration of its pipeline run, and waiting requests
// block until a slot frees or the client goes away.
package daemon
