// Package textutil provides filename sanitization shared by asset download
// naming and output naming.
//
// Sanitized names contain only ASCII letters, digits, '.', '-' and '_', and
// sanitizing an already-sanitized name returns it unchanged.
package textutil
