// Package style resolves caller-supplied caption options into a concrete ASS
// style definition.
//
// Resolution never fails. Unknown fonts, or an unreadable font inventory,
// fall back to the default font and record a Diagnostic that is also logged as
// a warning. Colors, sizes and outline widths pass through unvalidated so the
// caller's representation reaches the renderer as-is.
package style
