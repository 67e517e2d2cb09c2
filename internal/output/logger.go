package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Logger writes icon-prefixed console lines. It is safe for concurrent use.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	noColor bool
	scheme  *ColorScheme
}

// NewLogger creates a logger writing to out. Colors are disabled when
// noColor is set or out is not a terminal.
func NewLogger(out io.Writer, noColor bool) *Logger {
	noColor = ShouldDisableColor(noColor, out)

	scheme := DefaultColorScheme()
	if noColor {
		scheme = NoColorScheme()
	}

	return &Logger{
		out:     out,
		noColor: noColor,
		scheme:  scheme,
	}
}

// DefaultLogger logs to stderr.
func DefaultLogger() *Logger {
	return NewLogger(os.Stderr, false)
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewLogger(io.Discard, true)
}

// NoColor reports whether colors are disabled for this logger.
func (l *Logger) NoColor() bool {
	return l.noColor
}

// Scheme returns the color scheme in use.
func (l *Logger) Scheme() *ColorScheme {
	return l.scheme
}

// Infof logs an informational line.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.line(InfoIcon(l.noColor), format, args...)
}

// Successf logs a success line.
func (l *Logger) Successf(format string, args ...interface{}) {
	l.line(SuccessIcon(l.noColor), format, args...)
}

// Warnf logs a warning line.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.line(WarningIcon(l.noColor), format, args...)
}

// Errorf logs an error line.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.line(ErrorIcon(l.noColor), format, args...)
}

func (l *Logger) line(icon, format string, args ...interface{}) {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "%s %s\n", icon, msg)
}
