// Package collector lists directory entries and classifies them for the
// cleaning walkers.
package collector

import (
	"fmt"
	"os"
	"path/filepath"
)

// EntryKind classifies a directory entry without following symlinks.
type EntryKind int

const (
	// KindOther covers sockets, devices and named pipes; walkers ignore them.
	KindOther EntryKind = iota
	// KindFile covers regular files and symlinks of any target.
	KindFile
	// KindDir is a real directory, never a symlink to one.
	KindDir
)

func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	default:
		return "other"
	}
}

// Entry holds one listed entry.
type Entry struct {
	Path string // Full path to the entry
	Dir  string // Directory containing the entry
	Name string // Entry name as found on disk
	Kind EntryKind
}

// ReadDir lists the direct children of dir in name order.
func ReadDir(dir string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		entries = append(entries, Entry{
			Path: filepath.Join(dir, de.Name()),
			Dir:  dir,
			Name: de.Name(),
			Kind: classify(de.Type()),
		})
	}

	return entries, nil
}

func classify(mode os.FileMode) EntryKind {
	switch {
	case mode.IsDir():
		return KindDir
	case mode.IsRegular(), mode&os.ModeSymlink != 0:
		return KindFile
	default:
		return KindOther
	}
}
