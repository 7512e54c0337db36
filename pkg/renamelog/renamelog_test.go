package renamelog

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2026, 2, 8, 14, 30, 0, 0, time.UTC)
}

func readLines(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestWriter_LogRename_LineFormat(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "clean.log")
	w, err := Open(path, WithClock(fixedClock))
	require.NoError(t, err)

	require.NoError(t, w.LogRename("file", "/sync/my:file?.txt", "/sync/myfile_1.txt"))
	require.NoError(t, w.LogRename("folder", "/sync/Forms?", "/sync/Forms"))
	require.NoError(t, w.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.Equal(t, "[2026-02-08T14:30:00Z] Renamed file /sync/my:file?.txt to /sync/myfile_1.txt", lines[0])
	assert.Equal(t, "[2026-02-08T14:30:00Z] Renamed folder /sync/Forms? to /sync/Forms", lines[1])
}

func TestWriter_LogError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "clean.log")
	w, err := Open(path, WithClock(fixedClock))
	require.NoError(t, err)

	require.NoError(t, w.LogError(os.ErrPermission))
	require.NoError(t, w.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.Equal(t, "[2026-02-08T14:30:00Z] Exception occurred: permission denied", lines[0])
}

func TestWriter_AppendsAcrossOpens(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "clean.log")

	for i := range 2 {
		w, err := Open(path, WithClock(fixedClock))
		require.NoError(t, err)
		require.NoError(t, w.LogRename("file", "a", "b"+string(rune('0'+i))))
		require.NoError(t, w.Close())
	}

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "to b0"))
	assert.True(t, strings.HasSuffix(lines[1], "to b1"))
}

func TestWriter_Path(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "clean.log")
	w, err := Open(path)
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, path, w.Path())
}

type failingWriter struct {
	n   func(p []byte) int
	err error
}

func (f failingWriter) Write(p []byte) (int, error) {
	return f.n(p), f.err
}

func TestWriter_WriteErrorsAreReturned(t *testing.T) {
	t.Parallel()

	errNoSpace := errors.New("no space left on device")

	tests := []struct {
		name    string
		out     failingWriter
		wantErr error
	}{
		{"write error", failingWriter{n: func([]byte) int { return 0 }, err: errNoSpace}, errNoSpace},
		{"short write", failingWriter{n: func(p []byte) int { return len(p) / 2 }}, io.ErrShortWrite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w, err := Open(filepath.Join(t.TempDir(), "clean.log"), WithClock(fixedClock))
			require.NoError(t, err)
			t.Cleanup(func() { _ = w.Close() })

			w.out.w = tt.out

			err = w.LogRename("file", "/a?.txt", "/a.txt")
			require.Error(t, err)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), "write rename log")

			w.out.w = w.file
			require.NoError(t, w.LogError(errors.New("boom")))
			assert.Equal(t, []string{"[2026-02-08T14:30:00Z] Exception occurred: boom"}, readLines(t, w.Path()))
		})
	}
}

func TestOpen_MissingDirectory(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "missing", "clean.log"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open rename log")
}

func TestFileName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "clean-filenames_20260208.log", FileName(fixedClock()))
}

func TestDefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir, err := DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "logs"), dir)
}
