package textutil

import (
	"net/url"
	"path"
	"strings"
)

// SanitizeFileName reduces a candidate name to a safe single path segment.
// URL percent-encoding is decoded, directory components (either slash style)
// are stripped, and every character outside [A-Za-z0-9._-] becomes '_'.
// Names that reduce to "." or ".." return "" so callers can apply a fallback.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	name = baseName(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if isSafeRune(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	out := b.String()
	if out == "." || out == ".." {
		return ""
	}
	return out
}

// SplitExt splits a sanitized file name into stem and extension. A leading dot
// (hidden file) is treated as part of the stem.
func SplitExt(name string) (string, string) {
	ext := path.Ext(name)
	if ext == name {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}

func baseName(name string) string {
	if idx := strings.LastIndexAny(name, `/\`); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

func isSafeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '-', r == '_':
		return true
	default:
		return false
	}
}
