// Package logger provides snaphtml.Logger implementations for the CLI.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"

	snaphtml "github.com/alnah/go-snaphtml"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

// Level is a minimum severity.
type Level int

// Levels in increasing severity.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel parses "debug", "info", "warn" or "error".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Console logs to the terminal. Debug and Info go to out, Warn and Error to
// errOut. Messages are translated through go-l10n before formatting.
type Console struct {
	level     Level
	component string
	color     bool
	out       io.Writer
	errOut    io.Writer
}

var _ snaphtml.Logger = (*Console)(nil)

// NewConsole creates a console logger on stdout and stderr.
// Color output is automatically enabled when stderr is a terminal.
func NewConsole(level Level) *Console {
	fd := os.Stderr.Fd()
	return New(level, os.Stdout, os.Stderr, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

// New creates a console logger on the given writers.
func New(level Level, out, errOut io.Writer, color bool) *Console {
	return &Console{level: level, color: color, out: out, errOut: errOut}
}

func (l *Console) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args...) }
func (l *Console) Info(msg string, args ...any)  { l.log(LevelInfo, msg, args...) }
func (l *Console) Warn(msg string, args ...any)  { l.log(LevelWarn, msg, args...) }
func (l *Console) Error(msg string, args ...any) { l.log(LevelError, msg, args...) }

// WithComponent returns a logger that prefixes lines with [component].
// Nested components are joined with a dot.
func (l *Console) WithComponent(component string) snaphtml.Logger {
	c := *l
	if l.component != "" {
		c.component = l.component + "." + component
	} else {
		c.component = component
	}
	return &c
}

func (l *Console) log(level Level, msg string, args ...any) {
	if level < l.level {
		return
	}

	output := l10n.F(msg, args...)
	if l.component != "" {
		if l.color {
			output = fmt.Sprintf("%s[%s]%s %s", colorCyan, l.component, colorReset, output)
		} else {
			output = fmt.Sprintf("[%s] %s", l.component, output)
		}
	}

	if l.color {
		switch level {
		case LevelDebug:
			output = colorGray + output + colorReset
		case LevelWarn:
			output = colorYellow + output + colorReset
		case LevelError:
			output = colorRed + output + colorReset
		}
	}

	w := l.out
	if level >= LevelWarn {
		w = l.errOut
	}
	_, _ = fmt.Fprintln(w, output)
}
