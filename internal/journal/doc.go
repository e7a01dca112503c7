// Package journal persists the outcome of each caption burn-in request in a
// local SQLite database.
//
// Only request metadata is stored: source URLs, result paths, error kinds and
// timings. Media never touches the journal. The schema is embedded and
// versioned; a database created by a different schema version is rejected
// rather than migrated.
package journal
