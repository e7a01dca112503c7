package subtitles

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cue is one timed entry of a SubRip track. Text lines are newline-separated.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// ParseError reports a malformed SubRip track. Block is the 1-based position
// of the offending cue block and Line the 1-based input line, both zero when
// the failure is not tied to a block.
type ParseError struct {
	Block  int
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Block == 0 {
		return "parse srt: " + e.Reason
	}
	return fmt.Sprintf("parse srt: cue %d (line %d): %s", e.Block, e.Line, e.Reason)
}

const timingArrow = "-->"

// maxHours keeps parsed timestamps within time.Duration range.
const maxHours = 2562046

// Parse splits an LF-normalized SubRip document into cues. Blocks are
// separated by blank lines and consist of an index line, a timing line and
// zero or more text lines. An index line directly followed by a timing line
// also starts a new block, so a missing separator never folds the next cue
// into the previous one's text. A cue whose end does not follow its start is
// rejected, as is a document with no cues at all.
func Parse(content string) ([]Cue, error) {
	lines := strings.Split(content, "\n")
	var cues []Cue
	block := 0

	for i := 0; i < len(lines); {
		if strings.TrimSpace(lines[i]) == "" {
			i++
			continue
		}
		startLine := i
		for i++; i < len(lines) && strings.TrimSpace(lines[i]) != ""; i++ {
			if i > startLine+1 && startsCue(lines, i) {
				break
			}
		}
		block++
		cue, err := parseBlock(lines[startLine:i], block, startLine+1)
		if err != nil {
			return nil, err
		}
		cues = append(cues, cue)
	}

	if len(cues) == 0 {
		return nil, &ParseError{Reason: "no cues found"}
	}
	return cues, nil
}

func parseBlock(lines []string, block, firstLine int) (Cue, error) {
	fail := func(offset int, format string, args ...any) (Cue, error) {
		return Cue{}, &ParseError{Block: block, Line: firstLine + offset, Reason: fmt.Sprintf(format, args...)}
	}

	index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return fail(0, "invalid cue index %q", strings.TrimSpace(lines[0]))
	}
	if len(lines) < 2 {
		return fail(0, "missing timing line")
	}

	startText, endText, ok := splitTiming(lines[1])
	if !ok {
		return fail(1, "invalid timing line %q", strings.TrimSpace(lines[1]))
	}
	start, err := ParseTimestamp(startText)
	if err != nil {
		return fail(1, "start: %v", err)
	}
	end, err := ParseTimestamp(endText)
	if err != nil {
		return fail(1, "end: %v", err)
	}
	if end <= start {
		return fail(1, "end %s does not follow start %s", endText, startText)
	}

	text := make([]string, 0, len(lines)-2)
	for _, line := range lines[2:] {
		text = append(text, strings.TrimRight(line, " \t"))
	}
	return Cue{Index: index, Start: start, End: end, Text: strings.Join(text, "\n")}, nil
}

// startsCue reports whether lines[i] is a cue index followed by a timing line.
func startsCue(lines []string, i int) bool {
	if i+1 >= len(lines) || !allDigits(strings.TrimSpace(lines[i])) {
		return false
	}
	_, _, ok := splitTiming(lines[i+1])
	return ok
}

// splitTiming separates "start --> end [X1:.. Y1:..]" into its two
// timestamps, discarding any trailing position coordinates.
func splitTiming(line string) (string, string, bool) {
	left, right, found := strings.Cut(line, timingArrow)
	if !found || strings.Contains(right, timingArrow) {
		return "", "", false
	}
	start := strings.TrimSpace(left)
	fields := strings.Fields(right)
	if start == "" || len(fields) == 0 {
		return "", "", false
	}
	return start, fields[0], true
}

// ParseTimestamp parses HH:MM:SS,fff (a '.' separator is also accepted). Hours
// may have any number of digits and the fraction any precision; digits past
// nanoseconds are ignored.
func ParseTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	clock, frac, found := strings.Cut(value, ",")
	if !found {
		clock, frac, found = strings.Cut(value, ".")
	}
	if !found || frac == "" {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}

	hours, err := parseDigits(parts[0], maxHours)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	minutes, err := parseDigits(parts[1], 59)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	seconds, err := parseDigits(parts[2], 59)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	nanos, err := parseFraction(frac)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(nanos), nil
}

// parseDigits accepts only ASCII digits; max of zero means unbounded.
func parseDigits(s string, max int64) (int64, error) {
	if !allDigits(s) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if max > 0 && n > max {
		return 0, fmt.Errorf("%d out of range", n)
	}
	return n, nil
}

// parseFraction reads a decimal fraction of a second as nanoseconds.
func parseFraction(s string) (int64, error) {
	if !allDigits(s) {
		return 0, fmt.Errorf("invalid fraction %q", s)
	}
	if len(s) > 9 {
		s = s[:9]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	for i := len(s); i < 9; i++ {
		n *= 10
	}
	return n, nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
