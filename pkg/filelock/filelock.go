// Package filelock keeps two clean runs from working on the same root at
// once. The lock is an exclusive, non-blocking advisory lock on a file in
// the log directory.
package filelock

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrLocked is returned by Acquire when another process holds the lock.
var ErrLocked = errors.New("another run holds the lock")

// Lock is a held advisory lock. Close releases it and removes the file.
type Lock struct {
	file *os.File
}

// PathFor returns the lock file path in dir for the given root directory.
// Different roots get different locks; the same root always maps to the
// same file.
func PathFor(dir, root string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(root)))
	return filepath.Join(dir, "clean-filenames_"+hex.EncodeToString(sum[:])[:16]+".lock")
}

// Path returns the lock file path, or "" for a nil lock.
func (l *Lock) Path() string {
	if l == nil || l.file == nil {
		return ""
	}
	return l.file.Name()
}

func release(f *os.File, unlock func(*os.File) error) error {
	path := f.Name()

	unlockErr := unlock(f)
	closeErr := f.Close()
	removeErr := os.Remove(path)

	return errors.Join(
		wrapIf("unlock", unlockErr),
		wrapIf("close lock file", closeErr),
		wrapIf("remove lock file", ignoreNotExist(removeErr)),
	)
}

func ignoreNotExist(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func wrapIf(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
