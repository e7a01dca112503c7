package subtitles

import (
	"strings"

	"subburn/internal/style"
)

// Script Info defaults written into every track.
const (
	DefaultTitle      = "Subtitles"
	DefaultScriptType = "v4.00+"
)

// Transcode parses raw SubRip text and pairs each cue with the resolved style.
// Cue order and count are preserved exactly. Raw may use CRLF line endings.
func Transcode(raw string, resolved style.Resolved) (Track, error) {
	cues, err := Parse(normalizeNewlines(raw))
	if err != nil {
		return Track{}, err
	}
	if resolved.Name == "" {
		resolved.Name = style.DefaultStyleName
	}

	events := make([]Event, len(cues))
	for i, cue := range cues {
		events[i] = Event{
			Start: cue.Start,
			End:   cue.End,
			Style: resolved.Name,
			Text:  strings.ReplaceAll(cue.Text, "\n", LineBreak),
		}
	}
	return Track{
		Title:      DefaultTitle,
		ScriptType: DefaultScriptType,
		Style:      resolved,
		Events:     events,
	}, nil
}

// TranscodeBytes decodes raw caption bytes before transcoding them.
func TranscodeBytes(raw []byte, resolved style.Resolved) (Track, error) {
	text, err := Decode(raw)
	if err != nil {
		return Track{}, err
	}
	return Transcode(text, resolved)
}
