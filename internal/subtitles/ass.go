package subtitles

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"subburn/internal/style"
)

// LineBreak is the ASS hard line break marker.
const LineBreak = `\N`

const eventFormat = "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text"

// Event is one Dialogue line of the presentation track.
type Event struct {
	Start time.Duration
	End   time.Duration
	Style string
	Text  string
}

// Track is a complete ASS document with a single style.
type Track struct {
	Title      string
	ScriptType string
	Style      style.Resolved
	Events     []Event
}

// FormatTime renders d as HH:MM:SS.mmm, truncating sub-millisecond precision.
// Hours are padded to two digits and are not wrapped.
func FormatTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := int64(d / time.Millisecond)
	hours := ms / 3_600_000
	minutes := (ms / 60_000) % 60
	seconds := (ms / 1000) % 60
	millis := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}

// Render returns the ASS document text.
func (t Track) Render() string {
	var b strings.Builder
	b.Grow(256 + len(t.Events)*64)

	title := t.Title
	if title == "" {
		title = DefaultTitle
	}
	scriptType := t.ScriptType
	if scriptType == "" {
		scriptType = DefaultScriptType
	}

	b.WriteString("[Script Info]\n")
	b.WriteString("Title: " + title + "\n")
	b.WriteString("ScriptType: " + scriptType + "\n")
	b.WriteString("\n")
	b.WriteString("[V4+ Styles]\n")
	b.WriteString(style.StyleFormat + "\n")
	b.WriteString(t.Style.StyleLine() + "\n")
	b.WriteString("\n")
	b.WriteString("[Events]\n")
	b.WriteString(eventFormat + "\n")
	for _, ev := range t.Events {
		styleName := ev.Style
		if styleName == "" {
			styleName = style.DefaultStyleName
		}
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,%s,,0,0,0,,%s\n", FormatTime(ev.Start), FormatTime(ev.End), styleName, ev.Text)
	}
	return b.String()
}

// WriteTo writes the rendered document to w.
func (t Track) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, t.Render())
	return int64(n), err
}

// WriteFile writes the rendered document to path as UTF-8.
func (t Track) WriteFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create ass: %w", err)
	}
	if _, err := t.WriteTo(file); err != nil {
		_ = file.Close()
		return fmt.Errorf("write ass: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close ass: %w", err)
	}
	return nil
}
