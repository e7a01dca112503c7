package subtitles

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decode converts raw caption bytes to a string with LF line endings.
//
// A UTF-8 or UTF-16 byte order mark selects the encoding. Input without a BOM
// is read as UTF-8 when valid and as Windows-1252 otherwise, which covers the
// legacy encodings most SubRip files in the wild use.
func Decode(raw []byte) (string, error) {
	var decoded []byte
	switch {
	case hasUTF16BOM(raw):
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
		if err != nil {
			return "", fmt.Errorf("decode utf-16 captions: %w", err)
		}
		decoded = out
	case utf8.Valid(raw):
		decoded = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	default:
		out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), raw)
		if err != nil {
			return "", fmt.Errorf("decode windows-1252 captions: %w", err)
		}
		decoded = out
	}
	return normalizeNewlines(string(decoded)), nil
}

func hasUTF16BOM(raw []byte) bool {
	return bytes.HasPrefix(raw, []byte{0xff, 0xfe}) || bytes.HasPrefix(raw, []byte{0xfe, 0xff})
}

func normalizeNewlines(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
