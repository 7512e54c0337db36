//go:build !windows

package filelock

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Acquire creates the file at path if needed and takes an exclusive
// flock(2) on it. It never blocks: a held lock yields ErrLocked.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("acquire lock %s: %w", path, ErrLocked)
		}
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}

	return &Lock{file: f}, nil
}

// Close releases the lock and removes the lock file. A nil Lock is a no-op.
func (l *Lock) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	return release(l.file, func(f *os.File) error {
		return unix.Flock(int(f.Fd()), unix.LOCK_UN)
	})
}
