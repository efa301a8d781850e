// Package auditlog appends one CSV row per backup attempt.
package auditlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Row status values. The log distinguishes only success from failure; the
// finer attempt status lives in the message column.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// DefaultPath is where attempts are recorded unless overridden.
const DefaultPath = "./logs/backup_log.csv"

var header = []string{"timestamp", "source", "backup_path", "status", "attempts", "message"}

// Entry is one attempt record.
type Entry struct {
	Timestamp  time.Time
	Source     string
	BackupPath string // empty when archive creation failed
	Status     string
	Attempt    int
	Message    string
}

// Logger appends entries to a CSV file, emitting the header row before
// the first record of a fresh file. The file is never truncated.
type Logger struct {
	path string
}

// New creates a Logger writing to path, or to DefaultPath if empty.
func New(path string) *Logger {
	if path == "" {
		path = DefaultPath
	}
	return &Logger{path: path}
}

// Path returns the log file location.
func (l *Logger) Path() string {
	return l.path
}

// Record appends a single entry, creating the log file and its parent
// directory on first use.
func (l *Logger) Record(e Entry) error {
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
	}

	fresh := true
	if fi, err := os.Stat(l.path); err == nil && fi.Size() > 0 {
		fresh = false
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening log %s: %w", l.path, err)
	}

	backupPath := e.BackupPath
	if backupPath == "" {
		backupPath = "n/a"
	}
	row := []string{
		e.Timestamp.UTC().Format(time.RFC3339),
		e.Source,
		backupPath,
		e.Status,
		strconv.Itoa(e.Attempt),
		e.Message,
	}

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(header); err != nil {
			f.Close()
			return fmt.Errorf("writing log header: %w", err)
		}
	}
	if err := w.Write(row); err != nil {
		f.Close()
		return fmt.Errorf("writing log row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flushing log: %w", err)
	}
	return f.Close()
}
