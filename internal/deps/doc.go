// Package deps reports whether the external binaries subburn shells out to
// are installed and usable.
package deps
