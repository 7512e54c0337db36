package filelock

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_AndClose(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "test.lock")

	lock, err := Acquire(lockPath)
	require.NoError(t, err)
	require.NotNil(t, lock)
	assert.Equal(t, lockPath, lock.Path())
	assert.FileExists(t, lockPath)

	require.NoError(t, lock.Close())
	assert.NoFileExists(t, lockPath)
}

func TestAcquire_SecondAcquireFails(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "test.lock")

	lock1, err := Acquire(lockPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = lock1.Close() })

	lock2, err := Acquire(lockPath)
	require.Error(t, err)
	assert.Nil(t, lock2)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestAcquire_AfterClose(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "test.lock")

	lock1, err := Acquire(lockPath)
	require.NoError(t, err)
	require.NoError(t, lock1.Close())

	lock2, err := Acquire(lockPath)
	require.NoError(t, err, "re-acquire after release should succeed")
	require.NoError(t, lock2.Close())
}

func TestAcquire_MissingDirectory(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "nonexistent", "test.lock")

	lock, err := Acquire(lockPath)
	require.Error(t, err)
	assert.Nil(t, lock)
	assert.Contains(t, err.Error(), "open lock file")
	assert.NotErrorIs(t, err, ErrLocked)
}

func TestClose_NilLock(t *testing.T) {
	t.Parallel()

	var lock *Lock
	assert.NoError(t, lock.Close())
	assert.Empty(t, lock.Path())
}

func TestClose_NilFile(t *testing.T) {
	t.Parallel()

	lock := &Lock{file: nil}
	assert.NoError(t, lock.Close())
}

func TestClose_LockFileAlreadyRemoved(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("open files cannot be removed on windows")
	}

	lockPath := filepath.Join(t.TempDir(), "test.lock")

	lock, err := Acquire(lockPath)
	require.NoError(t, err)
	require.NoError(t, os.Remove(lockPath))

	assert.NoError(t, lock.Close())
}

func TestPathFor(t *testing.T) {
	t.Parallel()

	dir := filepath.Join("var", "logs")

	a := PathFor(dir, "/data/sync")
	b := PathFor(dir, "/data/sync/")
	c := PathFor(dir, "/data/other")

	assert.Equal(t, a, b, "trailing separator should not change the lock")
	assert.NotEqual(t, a, c)
	assert.Equal(t, dir, filepath.Dir(a))

	name := filepath.Base(a)
	assert.True(t, strings.HasPrefix(name, "clean-filenames_"))
	assert.True(t, strings.HasSuffix(name, ".lock"))
	assert.Len(t, name, len("clean-filenames_")+16+len(".lock"))
}
