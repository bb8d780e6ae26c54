package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileLogger writes timestamped run logs under <dataDir>/logs, one file per
// application run, and maintains a latest.log symlink to the current run.
type FileLogger struct {
	mu       sync.Mutex
	logDir   string
	runLog   *os.File
	logLevel string
}

// NewFileLogger creates a FileLogger rooted at logDir with the given minimum
// level.
func NewFileLogger(logDir, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", time.Now().Format("20060102-150405")))
	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("create run log: %w", err)
	}

	symlink := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlink); err == nil {
		if err := os.Remove(symlink); err != nil {
			file.Close()
			return nil, fmt.Errorf("remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlink); err != nil {
		file.Close()
		return nil, fmt.Errorf("create symlink: %w", err)
	}

	return &FileLogger{
		logDir:   logDir,
		runLog:   file,
		logLevel: normalizeLevel(logLevel),
	}, nil
}

// Close flushes and closes the run log.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.runLog == nil {
		return nil
	}
	err := fl.runLog.Close()
	fl.runLog = nil
	return err
}

func (fl *FileLogger) write(level, message string) {
	if levelToInt(level) < levelToInt(fl.logLevel) {
		return
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.runLog == nil {
		return
	}
	fmt.Fprintf(fl.runLog, "[%s] [%s] %s\n",
		time.Now().Format("15:04:05"), level, message)
}

// LogTrace logs at trace level, the most verbose.
func (fl *FileLogger) LogTrace(message string) { fl.write("trace", message) }

// LogDebug logs at debug level.
func (fl *FileLogger) LogDebug(message string) { fl.write("debug", message) }

// LogInfo logs at info level.
func (fl *FileLogger) LogInfo(message string) { fl.write("info", message) }

// LogWarn logs at warn level.
func (fl *FileLogger) LogWarn(message string) { fl.write("warn", message) }

// LogError logs at error level.
func (fl *FileLogger) LogError(message string) { fl.write("error", message) }
