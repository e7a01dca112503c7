package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const statusLabelWidth = 20

var statusLabels = map[statusKind]struct{ text, color string }{
	statusInfo:  {"INFO", ansiBlue},
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"ERROR", ansiRed},
}

// statusWriter prints aligned status lines, coloured when attached to a TTY.
type statusWriter struct {
	out      io.Writer
	colorize bool
}

func newStatusWriter(out io.Writer) *statusWriter {
	return &statusWriter{out: out, colorize: shouldColorize(out)}
}

func (w *statusWriter) section(title string) {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	if w.colorize {
		line = ansiBlue + line + ansiReset
	}
	fmt.Fprintln(w.out, line)
}

func (w *statusWriter) line(label string, kind statusKind, message string) {
	fmt.Fprintln(w.out, renderStatusLine(label, kind, message, w.colorize))
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	meta := statusLabels[kind]
	status := "[" + meta.text + "]"
	if message != "" {
		status += " " + message
	}
	base := fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", status)
	if colorize && meta.color != "" {
		return meta.color + base + ansiReset
	}
	return base
}

func passKind(passed bool, failure statusKind) statusKind {
	if passed {
		return statusOK
	}
	return failure
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
