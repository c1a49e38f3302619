package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reset() {
	SetVerbose(false)
	SetOutput(os.Stderr)
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())
}

func TestDebug_WhenVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Debug("test message %s", "arg")
	assert.Equal(t, "[DEBUG] test message arg\n", buf.String())
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	Debug("test message")
	Info("info message")
	Section("section")
	assert.Zero(t, buf.Len())
}

func TestSection(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Section("Ingest")
	assert.Equal(t, "\n=== Ingest ===\n", buf.String())
}

func TestWarn_AlwaysPrinted(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	Warn("retrying in %s", "60s")
	assert.Equal(t, "[WARN] retrying in 60s\n", buf.String())
}

func TestJobLog_Printf(t *testing.T) {
	var file, console bytes.Buffer
	l := NewJobLog(&file, &console)
	l.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 8000, time.UTC) }

	l.Printf("Added: %s", "a.md")

	assert.Equal(t, "2025-03-04T05:06:07.000008 Added: a.md\n", file.String())
	assert.Equal(t, "Added: a.md\n", console.String())
}

func TestOpenJobLog_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "job_log.txt")

	for _, msg := range []string{"first", "second"} {
		l, err := OpenJobLog(path, nil)
		require.NoError(t, err)
		l.Printf("%s", msg)
		require.NoError(t, l.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], " first"))
	assert.True(t, strings.HasSuffix(lines[1], " second"))
}
