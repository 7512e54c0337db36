// Package cleaner walks a directory tree and sanitizes entry names in
// place: first every file, then every folder. Both walks use an explicit
// work-list, so tree depth is bounded by memory rather than stack.
package cleaner

import (
	"slices"

	"github.com/rs/zerolog"

	"synctidy/pkg/collector"
	"synctidy/pkg/progress"
	"synctidy/pkg/renamer"
	"synctidy/pkg/sanitizer"
)

// Result contains the operations and counts of one clean run.
type Result struct {
	Operations     []renamer.Operation
	FilesSeen      int
	FoldersSeen    int
	RenamedCount   int
	UnchangedCount int
	SkippedCount   int
}

func (r *Result) record(op renamer.Operation) {
	r.Operations = append(r.Operations, op)

	switch op.Outcome {
	case renamer.OutcomeRenamed:
		r.RenamedCount++
	case renamer.OutcomeUnchanged:
		r.UnchangedCount++
	case renamer.OutcomeSkipped:
		r.SkippedCount++
	}

	if op.Kind == renamer.KindFolder {
		r.FoldersSeen++
	} else {
		r.FilesSeen++
	}
}

// Options configures a Cleaner.
type Options struct {
	Logger     *zerolog.Logger // nil disables diagnostics
	OnProgress progress.Func
}

// Cleaner applies the name normalizer and the renamer to a tree.
type Cleaner struct {
	renamer    *renamer.Renamer
	logger     zerolog.Logger
	onProgress progress.Func
}

// New creates a Cleaner. The renamer decides the root, dry-run mode and
// rename-log sink.
func New(r *renamer.Renamer, opts Options) *Cleaner {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Cleaner{
		renamer:    r,
		logger:     logger,
		onProgress: opts.OnProgress,
	}
}

// Clean runs the file pass and then the folder pass over the renamer root.
// The first filesystem error aborts the run; the result holds everything
// done up to that point.
func (c *Cleaner) Clean() (Result, error) {
	var result Result

	if err := c.CleanFiles(c.renamer.Root(), &result); err != nil {
		return result, err
	}

	if err := c.CleanFolders(c.renamer.Root(), &result); err != nil {
		return result, err
	}

	return result, nil
}

// CleanFiles sanitizes the name of every file below root. Directories are
// descended by their original path; they are not renamed here.
func (c *Cleaner) CleanFiles(root string, result *Result) error {
	return c.walk("files", root, func(e collector.Entry) (string, error) {
		switch e.Kind {
		case collector.KindFile:
			op, err := c.apply(e, renamer.KindFile)
			if err != nil {
				return "", err
			}
			result.record(op)
			return "", nil
		case collector.KindDir:
			return e.Path, nil
		default:
			return "", nil
		}
	})
}

// CleanFolders sanitizes the name of every directory below root, then
// descends into it under whatever name it ends up with. A rejected
// directory keeps its name but its children are still cleaned. Files are
// ignored.
func (c *Cleaner) CleanFolders(root string, result *Result) error {
	return c.walk("folders", root, func(e collector.Entry) (string, error) {
		if e.Kind != collector.KindDir {
			return "", nil
		}

		op, err := c.apply(e, renamer.KindFolder)
		if err != nil {
			return "", err
		}
		result.record(op)

		if op.Outcome == renamer.OutcomeRenamed && !c.renamer.DryRun() {
			return op.NewPath, nil
		}

		return e.Path, nil
	})
}

// walk visits root and every directory visit returns for it, depth first.
// visit returns the directory path to descend into, or "" for none.
func (c *Cleaner) walk(stage, root string, visit func(collector.Entry) (string, error)) error {
	stack := []string{root}
	visited := 0

	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := collector.ReadDir(dir)
		if err != nil {
			return err
		}

		var children []string
		for _, e := range entries {
			next, err := visit(e)
			if err != nil {
				return err
			}
			if next != "" {
				children = append(children, next)
			}
		}

		// Reversed so the first-listed child is visited first.
		slices.Reverse(children)
		stack = append(stack, children...)

		visited++
		progress.EmitStage(c.onProgress, stage, visited, visited+len(stack))
	}

	return nil
}

func (c *Cleaner) apply(e collector.Entry, kind renamer.Kind) (renamer.Operation, error) {
	candidate := sanitizer.Normalize(e.Name)

	op, err := c.renamer.ResolveAndRename(e.Dir, e.Name, candidate, kind)
	if err != nil {
		return op, err
	}

	switch op.Outcome {
	case renamer.OutcomeRenamed:
		c.logger.Debug().
			Str("kind", string(kind)).
			Str("from", op.OriginalPath).
			Str("to", op.NewPath).
			Int("attempts", op.Attempts).
			Bool("dry_run", c.renamer.DryRun()).
			Msg("Renamed entry")
	case renamer.OutcomeSkipped:
		c.logger.Debug().
			Str("kind", string(kind)).
			Str("path", op.OriginalPath).
			Msg("Reserved name left untouched")
	}

	return op, nil
}
