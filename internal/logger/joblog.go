package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TimestampLayout is the timestamp written in front of every job log line.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// JobLog is the operational log of ingestion runs: one timestamped line per
// event, appended to a file and echoed to the console.
type JobLog struct {
	mu      sync.Mutex
	file    io.WriteCloser
	console io.Writer
	now     func() time.Time
}

// OpenJobLog opens path for appending, creating it and its directory when
// missing. A nil console disables echoing.
func OpenJobLog(path string, console io.Writer) (*JobLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create job log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open job log: %w", err)
	}
	return &JobLog{file: f, console: console, now: time.Now}, nil
}

// NewJobLog writes to w without a backing file.
func NewJobLog(w io.Writer, console io.Writer) *JobLog {
	return &JobLog{file: nopCloser{w}, console: console, now: time.Now}
}

// Printf records one event.
func (l *JobLog) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.console != nil {
		fmt.Fprintln(l.console, msg)
	}
	fmt.Fprintf(l.file, "%s %s\n", l.now().Format(TimestampLayout), msg)
}

// Close closes the backing file.
func (l *JobLog) Close() error {
	return l.file.Close()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
