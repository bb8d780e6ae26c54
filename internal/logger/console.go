// Package logger provides the application's logging: a colorized, level-
// filtered console logger for interactive use and a file logger writing
// per-run logs under the data directory. Both are safe for concurrent use;
// the autosave scheduler logs from its own goroutine.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Log level ordering for filtering.
const (
	levelTrace = iota
	levelDebug
	levelInfo
	levelWarn
	levelError
)

func levelToInt(level string) int {
	switch strings.ToLower(level) {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// normalizeLevel lowercases a level name, defaulting unknown values to info.
func normalizeLevel(level string) string {
	switch l := strings.ToLower(level); l {
	case "trace", "debug", "info", "warn", "error":
		return l
	default:
		return "info"
	}
}

// ConsoleLogger writes timestamped, level-filtered messages to a writer.
// Warnings and errors are colorized when the writer is a terminal.
type ConsoleLogger struct {
	mu       sync.Mutex
	writer   io.Writer
	logLevel string
	useColor bool
}

// NewConsoleLogger creates a console logger. A nil writer discards all
// output. Unknown levels default to info.
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:   writer,
		logLevel: normalizeLevel(logLevel),
		useColor: writerIsTerminal(writer),
	}
}

// writerIsTerminal reports whether the writer is an interactive terminal.
func writerIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (cl *ConsoleLogger) shouldLog(level string) bool {
	return levelToInt(level) >= levelToInt(cl.logLevel)
}

func (cl *ConsoleLogger) write(level, message string) {
	if cl.writer == nil || !cl.shouldLog(level) {
		return
	}

	tag := strings.ToUpper(level)
	if cl.useColor {
		switch level {
		case "warn":
			tag = color.New(color.FgYellow).Sprint(tag)
		case "error":
			tag = color.New(color.FgRed).Sprint(tag)
		}
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", time.Now().Format("15:04:05"), tag, message)
}

// LogTrace logs at trace level, the most verbose.
func (cl *ConsoleLogger) LogTrace(message string) { cl.write("trace", message) }

// LogDebug logs at debug level.
func (cl *ConsoleLogger) LogDebug(message string) { cl.write("debug", message) }

// LogInfo logs at info level.
func (cl *ConsoleLogger) LogInfo(message string) { cl.write("info", message) }

// LogWarn logs at warn level.
func (cl *ConsoleLogger) LogWarn(message string) { cl.write("warn", message) }

// LogError logs at error level.
func (cl *ConsoleLogger) LogError(message string) { cl.write("error", message) }
