package subtitles

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"subburn/internal/fonts"
	"subburn/internal/style"
)

const twoCueTrack = `1
00:00:01,000 --> 00:00:02,500
Hello there

2
00:01:02,250 --> 00:01:04,000
General
Kenobi
`

func defaultStyle() style.Resolved {
	return style.Resolve(style.Options{}, fonts.Static{"Arial"}, nil)
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00.000"},
		{time.Minute + 2*time.Second + 250*time.Millisecond, "00:01:02.250"},
		{time.Second + 234900*time.Microsecond, "00:00:01.234"},
		{999999 * time.Microsecond, "00:00:00.999"},
		{26*time.Hour + 3*time.Minute + 4*time.Second + 5*time.Millisecond, "26:03:04.005"},
		{123 * time.Hour, "123:00:00.000"},
		{-time.Second, "00:00:00.000"},
	}
	for _, tt := range tests {
		if got := FormatTime(tt.in); got != tt.want {
			t.Fatalf("FormatTime(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTranscodeKeepsAdjacentCuesApart(t *testing.T) {
	raw := "1\n00:00:01,000 --> 00:00:02,000\nA\n2\n00:00:03,000 --> 00:00:04,000\nB\n"
	track, err := Transcode(raw, style.Resolved{})
	if err != nil {
		t.Fatalf("Transcode: %v", err)
	}
	if len(track.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(track.Events))
	}
	if track.Events[0].Text != "A" || track.Events[1].Text != "B" {
		t.Fatalf("unexpected event text: %q, %q", track.Events[0].Text, track.Events[1].Text)
	}
}

func TestTranscodePreservesOrderAndCount(t *testing.T) {
	var b strings.Builder
	const n = 50
	for i := 1; i <= n; i++ {
		start := time.Duration(i) * time.Second
		b.WriteString(strings.Join([]string{
			strconv.Itoa(i),
			srtTime(start) + " --> " + srtTime(start+500*time.Millisecond),
			"cue " + strconv.Itoa(i),
			"",
		}, "\n"))
		b.WriteString("\n")
	}

	track, err := Transcode(b.String(), defaultStyle())
	if err != nil {
		t.Fatalf("Transcode: %v", err)
	}
	if len(track.Events) != n {
		t.Fatalf("expected %d events, got %d", n, len(track.Events))
	}
	for i, ev := range track.Events {
		if ev.Text != "cue "+strconv.Itoa(i+1) {
			t.Fatalf("event %d out of order: %q", i, ev.Text)
		}
		if ev.Style != style.DefaultStyleName {
			t.Fatalf("event %d references style %q", i, ev.Style)
		}
	}
}

func TestTranscodeMultilineUsesBreakMarker(t *testing.T) {
	track, err := Transcode(strings.ReplaceAll(twoCueTrack, "\n", "\r\n"), defaultStyle())
	if err != nil {
		t.Fatalf("Transcode: %v", err)
	}
	got := track.Events[1].Text
	if got != `General\NKenobi` {
		t.Fatalf("multi-line text = %q", got)
	}
	for _, ev := range track.Events {
		if strings.ContainsAny(ev.Text, "\r\n") {
			t.Fatalf("raw line break survived in %q", ev.Text)
		}
	}
}

func TestTrackRender(t *testing.T) {
	track, err := Transcode(twoCueTrack, defaultStyle())
	if err != nil {
		t.Fatalf("Transcode: %v", err)
	}
	want := "[Script Info]\n" +
		"Title: Subtitles\n" +
		"ScriptType: v4.00+\n" +
		"\n" +
		"[V4+ Styles]\n" +
		"Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n" +
		"Style: Default,Arial,20,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,0.5,0,2,0,0,10,0\n" +
		"\n" +
		"[Events]\n" +
		"Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n" +
		"Dialogue: 0,00:00:01.000,00:00:02.500,Default,,0,0,0,,Hello there\n" +
		"Dialogue: 0,00:01:02.250,00:01:04.000,Default,,0,0,0,,General\\NKenobi\n"
	if got := track.Render(); got != want {
		t.Fatalf("Render mismatch:\n%s\nwant:\n%s", got, want)
	}

	var buf bytes.Buffer
	n, err := track.WriteTo(&buf)
	if err != nil || n != int64(len(want)) || buf.String() != want {
		t.Fatalf("WriteTo wrote %d bytes (err %v)", n, err)
	}

	path := filepath.Join(t.TempDir(), "captions.ass")
	if err := track.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != want {
		t.Fatalf("file contents mismatch (err %v)", err)
	}
}

func TestTranscodeBytesRejectsMalformed(t *testing.T) {
	raw := []byte("1\n00:00:01,000 --> 00:00:02,000\nA\n\n2\nnot a range\nB\n")
	if _, err := TranscodeBytes(raw, defaultStyle()); err == nil {
		t.Fatal("expected parse error")
	}
}

func srtTime(d time.Duration) string {
	return strings.Replace(FormatTime(d), ".", ",", 1)
}
