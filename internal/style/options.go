package style

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Position values recognized by the resolver.
const (
	PositionTop    = "top"
	PositionCenter = "center"
	PositionBottom = "bottom"
)

// AspectPortrait is the aspect ratio that switches captions to an opaque box.
const AspectPortrait = "9:16"

// Color is a packed ASS colour kept in the caller's textual representation.
type Color string

// UnmarshalJSON accepts either a JSON string or a JSON number. Numbers keep
// their literal text.
func (c *Color) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Color(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("color must be a string or number: %w", err)
	}
	*c = Color(n.String())
	return nil
}

func (c Color) String() string { return string(c) }

// Options is the request-level style configuration. Nil fields take defaults.
type Options struct {
	FontFamily   *string  `json:"font_family,omitempty"`
	FontSize     *int     `json:"font_size,omitempty"`
	TextColor    *Color   `json:"text_color,omitempty"`
	OutlineColor *Color   `json:"outline_color,omitempty"`
	OutlineWidth *float64 `json:"outline_width,omitempty"`
	Position     *string  `json:"position,omitempty"`
	AspectRatio  *string  `json:"aspect_ratio,omitempty"`
}

// Validate rejects sizes the renderer cannot use: font_size must be positive
// and outline_width must not be negative. Colours are not checked.
func (o Options) Validate() error {
	if o.FontSize != nil && *o.FontSize <= 0 {
		return fmt.Errorf("font_size must be positive, got %d", *o.FontSize)
	}
	if o.OutlineWidth != nil && *o.OutlineWidth < 0 {
		return fmt.Errorf("outline_width must not be negative, got %v", *o.OutlineWidth)
	}
	return nil
}

type rawOptions struct {
	FontFamily   *string         `json:"font_family"`
	FontSize     json.RawMessage `json:"font_size"`
	TextColor    *Color          `json:"text_color"`
	OutlineColor *Color          `json:"outline_color"`
	OutlineWidth json.RawMessage `json:"outline_width"`
	Outline      json.RawMessage `json:"outline"`
	Position     *string         `json:"position"`
	AspectRatio  *string         `json:"aspect_ratio"`
	Ratio        *string         `json:"ratio"`
}

// UnmarshalJSON decodes options, accepting the short aliases "outline" and
// "ratio" and numeric fields given either as numbers or numeric strings. The
// canonical key wins when both spellings are present. Unknown keys are ignored.
func (o *Options) UnmarshalJSON(data []byte) error {
	var raw rawOptions
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := Options{
		FontFamily:   raw.FontFamily,
		TextColor:    raw.TextColor,
		OutlineColor: raw.OutlineColor,
		Position:     raw.Position,
		AspectRatio:  raw.AspectRatio,
	}
	if out.AspectRatio == nil {
		out.AspectRatio = raw.Ratio
	}

	if size, ok, err := parseNumber(raw.FontSize); err != nil {
		return fmt.Errorf("font_size: %w", err)
	} else if ok {
		if size != float64(int(size)) {
			return fmt.Errorf("font_size: %v is not an integer", size)
		}
		v := int(size)
		out.FontSize = &v
	}

	width := raw.OutlineWidth
	if isNull(width) {
		width = raw.Outline
	}
	if w, ok, err := parseNumber(width); err != nil {
		return fmt.Errorf("outline_width: %w", err)
	} else if ok {
		out.OutlineWidth = &w
	}

	*o = out
	return nil
}

func isNull(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func parseNumber(data json.RawMessage) (float64, bool, error) {
	if isNull(data) {
		return 0, false, nil
	}
	trimmed := bytes.TrimSpace(data)
	text := string(trimmed)
	if trimmed[0] == '"' {
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return 0, false, err
		}
		text = strings.TrimSpace(text)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%q is not a number", text)
	}
	return v, true, nil
}

// String returns a pointer to s, for building Options literals.
func String(s string) *string { return &s }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// ColorValue returns a pointer to a Color.
func ColorValue(s string) *Color {
	c := Color(s)
	return &c
}
