// Package metrics exposes pipeline counters and timings in Prometheus format.
//
// Each Metrics value owns its registry, so tests and multiple daemons in one
// process never collide on collector registration.
package metrics
