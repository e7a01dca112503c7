// Package logs reads the daily JSON log files written by the service.
//
// It backs `subburn logs`: locating the newest file, returning the trailing
// lines and polling for appended records, optionally narrowed to a single
// request id.
package logs
