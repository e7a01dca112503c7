// Package fonts enumerates the font names available to the caption renderer.
//
// The inventory is an injected capability: Dir scans a font directory on
// disk, while Static serves a fixed set for tests and offline tooling. A
// missing directory is reported as ErrUnavailable so style resolution can fall
// back to the default font without failing the request.
package fonts
