// Package renamelog writes the human-readable rename log of a clean run.
// Each successful rename becomes one line:
//
//	[2024-05-01T09:30:00+02:00] Renamed file /sync/a?.txt to /sync/a.txt
//
// The log is append-only: several runs on the same day share one file.
package renamelog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// filePrefix and the date layout name the per-day log file.
const (
	filePrefix = "clean-filenames_"
	dateLayout = "20060102"
)

// FileName returns the log file name for the day of now.
func FileName(now time.Time) string {
	return filePrefix + now.Format(dateLayout) + ".log"
}

// DefaultDir returns ~/logs.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	return filepath.Join(home, "logs"), nil
}

// Writer appends rename lines to a log file.
//
// Writer is safe for concurrent use.
type Writer struct {
	file   *os.File
	out    *errWriter
	logger zerolog.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// Option customizes a Writer.
type Option func(*Writer)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) {
		w.now = now
	}
}

// Open creates a writer at the given path. The parent directory must
// already exist. The file is created if it does not exist, or appended to
// if it does.
func Open(path string, opts ...Option) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open rename log: %w", err)
	}

	out := &errWriter{w: f}
	w := &Writer{
		file:   f,
		out:    out,
		logger: zerolog.New(lineWriter(out)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// errWriter keeps the first write error. zerolog hands write errors to its
// global ErrorHandler instead of returning them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	n, err := e.w.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil && e.err == nil {
		e.err = err
	}
	return n, err
}

// lineWriter renders events as "[<timestamp>] <message>" with no level,
// no color and no trailing fields.
func lineWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    true,
		PartsOrder: []string{zerolog.TimestampFieldName, zerolog.MessageFieldName},
		FormatTimestamp: func(i any) string {
			return fmt.Sprintf("[%s]", i)
		},
		FormatMessage: func(i any) string {
			return fmt.Sprintf("%s", i)
		},
	}
}

// Path returns the log file path.
func (w *Writer) Path() string {
	return w.file.Name()
}

// LogRename records that oldPath was renamed to newPath. kind is "file" or
// "folder".
func (w *Writer) LogRename(kind, oldPath, newPath string) error {
	return w.write(fmt.Sprintf("Renamed %s %s to %s", kind, oldPath, newPath))
}

// LogError records the error that aborted a run.
func (w *Writer) LogError(err error) error {
	return w.write(fmt.Sprintf("Exception occurred: %v", err))
}

func (w *Writer) write(msg string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.out.err = nil
	w.logger.Log().
		Str(zerolog.TimestampFieldName, w.now().Format(time.RFC3339)).
		Msg(msg)
	if w.out.err != nil {
		return fmt.Errorf("write rename log: %w", w.out.err)
	}

	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync rename log: %w", err)
	}

	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Close()
}
