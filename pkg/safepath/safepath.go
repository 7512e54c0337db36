// Package safepath provides path containment validation to ensure
// renames never escape a designated root directory, and a rename
// primitive that never replaces an existing entry.
package safepath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrPathEscape indicates an attempt to access a path outside the root.
	ErrPathEscape = errors.New("path escapes root directory")
	// ErrSymlinkEscape indicates a parent directory resolves outside the root.
	ErrSymlinkEscape = errors.New("symlink target escapes root directory")
	// ErrInvalidRoot indicates the root path is invalid.
	ErrInvalidRoot = errors.New("invalid root directory")
	// ErrTargetExists indicates the rename destination is already taken.
	ErrTargetExists = errors.New("target already exists")
)

// Validator ensures all paths are contained within a root directory.
type Validator struct {
	root string // Absolute, cleaned, symlink-free path to root directory.
}

// New creates a new Validator for the given root directory.
// The root must be an existing directory.
func New(root string) (*Validator, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}

	resolvedRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}

	cleanRoot := filepath.Clean(resolvedRoot)

	info, err := os.Stat(cleanRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory", ErrInvalidRoot)
	}

	return &Validator{root: cleanRoot}, nil
}

// Root returns the absolute path to the root directory.
func (v *Validator) Root() string {
	return v.root
}

// ValidateEntry checks that the directory holding path resolves inside
// root. The entry itself is not resolved: renaming a symlink moves the
// link, never its target.
func (v *Validator) ValidateEntry(path string) error {
	if err := v.containsPath(path); err != nil {
		return err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: cannot resolve path", ErrPathEscape)
	}

	clean := filepath.Clean(absPath)
	if clean == v.root {
		return fmt.Errorf("%w: root itself cannot be renamed", ErrPathEscape)
	}

	return v.validateParent(filepath.Dir(clean))
}

// SafeRename renames oldPath to newPath only if both stay within root and
// newPath does not exist. A taken destination yields ErrTargetExists and
// leaves both entries untouched.
func (v *Validator) SafeRename(oldPath, newPath string) error {
	if err := v.ValidateEntry(oldPath); err != nil {
		return fmt.Errorf("source %w: %s", err, oldPath)
	}
	if err := v.ValidateEntry(newPath); err != nil {
		return fmt.Errorf("destination %w: %s", err, newPath)
	}

	return renameNoReplace(oldPath, newPath)
}

// Exists reports whether an entry named path exists, without following a
// final symlink.
func (v *Validator) Exists(path string) (bool, error) {
	if err := v.containsPath(path); err != nil {
		return false, err
	}

	return lexists(path)
}

func (v *Validator) containsPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: cannot resolve path", ErrPathEscape)
	}

	if !isSubPath(v.root, filepath.Clean(absPath)) {
		return ErrPathEscape
	}

	return nil
}

func (v *Validator) validateParent(dir string) error {
	resolved, err := resolveExistingPath(dir)
	if err != nil {
		return err
	}

	if err := v.containsPath(resolved); err != nil {
		return fmt.Errorf("%w: %s -> %s", ErrSymlinkEscape, dir, resolved)
	}

	return nil
}

// isSubPath checks if child is a subpath of parent.
// Both paths must be absolute and clean.
func isSubPath(parent, child string) bool {
	if parent == child {
		return true
	}

	parentWithSep := parent
	if !strings.HasSuffix(parentWithSep, string(filepath.Separator)) {
		parentWithSep += string(filepath.Separator)
	}

	return strings.HasPrefix(child, parentWithSep)
}

func resolveExistingPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve path: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("cannot resolve symlinks: %w", err)
	}

	parent := filepath.Dir(absPath)
	if parent == absPath {
		return "", fmt.Errorf("cannot resolve symlinks: %w", err)
	}

	return resolveExistingPath(parent)
}

func lexists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

// renameCheckThenAct is the portable fallback. It narrows but cannot close
// the window between the existence check and the rename.
func renameCheckThenAct(oldPath, newPath string) error {
	exists, err := lexists(newPath)
	if err != nil {
		return &os.LinkError{Op: "rename", Old: oldPath, New: newPath, Err: err}
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrTargetExists, newPath)
	}

	return os.Rename(oldPath, newPath)
}
