package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "warn")

	cl.LogDebug("hidden")
	cl.LogInfo("hidden too")
	cl.LogWarn("shown")
	cl.LogError("also shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "[WARN]")
	assert.Contains(t, out, "[ERROR]")
}

func TestConsoleLoggerDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "bogus-level")

	cl.LogDebug("debug message")
	cl.LogInfo("info message")

	assert.NotContains(t, buf.String(), "debug message")
	assert.Contains(t, buf.String(), "info message")
}

func TestConsoleLoggerNilWriterDoesNotPanic(t *testing.T) {
	cl := NewConsoleLogger(nil, "info")
	cl.LogInfo("discarded")
}

func TestConsoleLoggerNoColorForPlainWriter(t *testing.T) {
	var buf bytes.Buffer
	cl := NewConsoleLogger(&buf, "info")
	cl.LogWarn("plain")

	assert.NotContains(t, buf.String(), "\x1b[", "non-TTY output must carry no ANSI codes")
}

func TestFileLoggerWritesRunLogAndSymlink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	fl, err := NewFileLogger(dir, "debug")
	require.NoError(t, err)

	fl.LogDebug("first entry")
	fl.LogTrace("filtered out")
	require.NoError(t, fl.Close())

	data, err := os.ReadFile(filepath.Join(dir, "latest.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "first entry")
	assert.NotContains(t, string(data), "filtered out")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var runLogs int
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "run-") {
			runLogs++
		}
	}
	assert.Equal(t, 1, runLogs)
}

func TestFileLoggerWriteAfterCloseIsNoop(t *testing.T) {
	fl, err := NewFileLogger(filepath.Join(t.TempDir(), "logs"), "info")
	require.NoError(t, err)
	require.NoError(t, fl.Close())

	fl.LogInfo("after close")
	require.NoError(t, fl.Close())
}
