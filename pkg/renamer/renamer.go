// Package renamer applies sanitized names to directory entries in place,
// resolving collisions with existing siblings by numeric suffixes.
package renamer

import (
	"errors"
	"fmt"
	"path/filepath"

	"synctidy/pkg/safepath"
	"synctidy/pkg/sanitizer"
)

// DefaultMaxAttempts bounds the suffix search for one entry.
const DefaultMaxAttempts = 10000

// ErrSuffixExhausted is returned when every suffixed name up to the
// attempt limit is already taken.
var ErrSuffixExhausted = errors.New("no free name left for entry")

// Kind selects the suffix convention and the wording in the rename log.
type Kind string

const (
	// KindFile suffixes the stem: "a.txt" -> "a_1.txt".
	KindFile Kind = "file"
	// KindFolder suffixes the whole name: "v1.2" -> "v1.2_1".
	KindFolder Kind = "folder"
)

// Outcome is what happened to one entry.
type Outcome string

const (
	OutcomeRenamed   Outcome = "renamed"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeSkipped   Outcome = "skipped"
)

// Operation represents a single rename decision.
type Operation struct {
	Kind         Kind
	OriginalPath string
	NewPath      string
	OriginalName string
	NewName      string
	Outcome      Outcome
	Attempts     int
}

// Sink receives one record per completed rename.
type Sink interface {
	LogRename(kind, oldPath, newPath string) error
}

// Options configures a Renamer.
type Options struct {
	DryRun      bool
	MaxAttempts int
	Sink        Sink
}

// Renamer handles entry renaming within one root.
type Renamer struct {
	dryRun      bool
	maxAttempts int
	sink        Sink
	validator   *safepath.Validator

	// planned tracks names claimed during a dry run, per directory.
	planned map[string]map[string]struct{}
}

// New creates a new Renamer with path containment validation.
func New(rootDir string, opts Options) (*Renamer, error) {
	v, err := safepath.New(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	return &Renamer{
		dryRun:      opts.DryRun,
		maxAttempts: maxAttempts,
		sink:        opts.Sink,
		validator:   v,
		planned:     make(map[string]map[string]struct{}),
	}, nil
}

// ResolveAndRename moves the entry name in dir to candidate, or to the
// first free suffixed variant of it. An empty candidate skips the entry;
// a candidate equal to name leaves it unchanged.
//
// Any filesystem failure is returned and should abort the run.
func (r *Renamer) ResolveAndRename(dir, name, candidate string, kind Kind) (Operation, error) {
	op := Operation{
		Kind:         kind,
		OriginalPath: filepath.Join(dir, name),
		OriginalName: name,
	}

	switch candidate {
	case "":
		op.Outcome = OutcomeSkipped
		return op, nil
	case name:
		op.Outcome = OutcomeUnchanged
		op.NewName = name
		op.NewPath = op.OriginalPath
		return op, nil
	}

	for attempt := range r.maxAttempts {
		target := suffixed(candidate, attempt, kind)
		targetPath := filepath.Join(dir, target)
		op.Attempts = attempt + 1

		taken, err := r.apply(op.OriginalPath, dir, target, targetPath)
		if err != nil {
			return op, fmt.Errorf("rename %s %s: %w", kind, op.OriginalPath, err)
		}
		if taken {
			continue
		}

		op.Outcome = OutcomeRenamed
		op.NewName = target
		op.NewPath = targetPath

		if !r.dryRun && r.sink != nil {
			if err := r.sink.LogRename(string(kind), op.OriginalPath, op.NewPath); err != nil {
				return op, fmt.Errorf("log rename: %w", err)
			}
		}

		return op, nil
	}

	return op, fmt.Errorf("%w after %d attempts: %s", ErrSuffixExhausted, r.maxAttempts, op.OriginalPath)
}

// apply performs (or plans, in dry-run) one rename attempt. It reports
// taken=true when target is occupied and the next suffix should be tried.
func (r *Renamer) apply(oldPath, dir, target, targetPath string) (taken bool, err error) {
	if !r.dryRun {
		err := r.validator.SafeRename(oldPath, targetPath)
		if errors.Is(err, safepath.ErrTargetExists) {
			return true, nil
		}
		return false, err
	}

	if _, ok := r.planned[dir][target]; ok {
		return true, nil
	}

	if err := r.validator.ValidateEntry(oldPath); err != nil {
		return false, fmt.Errorf("source %w: %s", err, oldPath)
	}

	exists, err := r.validator.Exists(targetPath)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}

	if r.planned[dir] == nil {
		r.planned[dir] = make(map[string]struct{})
	}
	r.planned[dir][target] = struct{}{}

	return false, nil
}

func suffixed(name string, n int, kind Kind) string {
	if kind == KindFolder {
		return sanitizer.ResolveFolderNameConflict(name, n)
	}

	return sanitizer.ResolveNameConflict(name, n)
}

// DryRun returns whether the renamer is in dry-run mode.
func (r *Renamer) DryRun() bool {
	return r.dryRun
}

// Root returns the root directory being validated against.
func (r *Renamer) Root() string {
	return r.validator.Root()
}
