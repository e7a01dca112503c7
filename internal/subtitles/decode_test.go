package subtitles

import (
	"testing"

	"golang.org/x/text/encoding/unicode"
)

func TestDecode(t *testing.T) {
	want := "1\n00:00:01,000 --> 00:00:02,000\nHéllo\n"

	utf16le, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(want)
	if err != nil {
		t.Fatalf("encode utf-16: %v", err)
	}
	utf16be, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().String(want)
	if err != nil {
		t.Fatalf("encode utf-16: %v", err)
	}

	tests := []struct {
		name string
		raw  []byte
	}{
		{name: "plain utf-8", raw: []byte(want)},
		{name: "utf-8 bom", raw: append([]byte("\xef\xbb\xbf"), want...)},
		{name: "crlf", raw: []byte("1\r\n00:00:01,000 --> 00:00:02,000\r\nHéllo\r\n")},
		{name: "utf-16 le bom", raw: []byte(utf16le)},
		{name: "utf-16 be bom", raw: []byte(utf16be)},
		{name: "windows-1252", raw: []byte("1\n00:00:01,000 --> 00:00:02,000\nH\xe9llo\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.raw)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got != want {
				t.Fatalf("Decode = %q, want %q", got, want)
			}
		})
	}
}
