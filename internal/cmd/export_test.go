package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortID(t *testing.T) {
	assert.Equal(t, "a1b2c3d4", shortID("a1b2c3d4-e5f6-7890-abcd-ef1234567890"))

	// Restored records may carry short hand-assigned ids.
	assert.Equal(t, "s1", shortID("s1"))
	assert.Equal(t, "", shortID(""))
	assert.Equal(t, "12345678", shortID("12345678"))
}

func TestExportPathPrefersExplicitOut(t *testing.T) {
	assert.Equal(t, "/tmp/report.html", exportPath("/tmp/report.html", "/data/exports", "default.html"))
	assert.Equal(t, filepath.Join("/data/exports", "default.html"), exportPath("", "/data/exports", "default.html"))
}
