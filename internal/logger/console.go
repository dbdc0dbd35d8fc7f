// Package logger provides the leveled console logger used across storylint.
// All output is prefixed with [HH:MM:SS] timestamps. Implementations are
// thread-safe; color is enabled only when writing to a TTY.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Log level constants for filtering.
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// Console logs to a writer with timestamps and level filtering.
// If the writer is nil, messages are silently discarded.
type Console struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
	now         func() time.Time
}

// NewConsole creates a Console that writes to the provided io.Writer.
// logLevel determines the minimum level output; valid levels are trace,
// debug, info, warn and error (case-insensitive). Empty or invalid levels
// default to "info".
func NewConsole(writer io.Writer, logLevel string) *Console {
	return &Console{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
		now:         time.Now,
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}
	if w == os.Stdout || w == os.Stderr {
		// color.NoColor already accounts for NO_COLOR and non-TTY output.
		return !color.NoColor
	}
	return false
}

// normalizeLogLevel lowercases and validates a level name, defaulting to
// "info" for anything unrecognized.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (c *Console) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(c.logLevel)
}

func (c *Console) logf(level, format string, args ...any) {
	if c.writer == nil || !c.shouldLog(level) {
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	ts := c.now().Format("15:04:05")
	label := strings.ToUpper(level)
	if c.colorOutput {
		switch level {
		case "warn":
			label = color.YellowString(label)
		case "error":
			label = color.RedString(label)
		case "debug", "trace":
			label = color.CyanString(label)
		}
	}
	fmt.Fprintf(c.writer, "[%s] %s %s\n", ts, label, fmt.Sprintf(format, args...))
}

func (c *Console) Tracef(format string, args ...any) { c.logf("trace", format, args...) }
func (c *Console) Debugf(format string, args ...any) { c.logf("debug", format, args...) }
func (c *Console) Infof(format string, args ...any)  { c.logf("info", format, args...) }
func (c *Console) Warnf(format string, args ...any)  { c.logf("warn", format, args...) }
func (c *Console) Errorf(format string, args ...any) { c.logf("error", format, args...) }
