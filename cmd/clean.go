package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"synctidy/internal/config"
	"synctidy/pkg/renamer"
	"synctidy/pkg/usecase"
)

func buildCleanCommand() *cobra.Command {
	var (
		logDir    string
		maxSuffix int
	)

	cmd := &cobra.Command{
		Use:   "clean [path]",
		Short: "Rename files and folders to names OneDrive and Dropbox accept",
		Long: `Cleans every file name first, then every folder name, below path:
  - Removes the characters \ / * ? : " < > |
  - Removes one leading dot
  - Removes non-ASCII characters
  - Removes whitespace before the extension
  - Leaves reserved names (CON, desktop.ini, ~$ files, ...) untouched

A cleaned name that is already taken gets a numeric suffix:
"my:file?.txt" next to "myfile.txt" becomes "myfile_1.txt".

Each rename is appended to a dated log file in the log directory.

Examples:
  synctidy clean --dry-run ~/OneDrive    # Preview changes
  synctidy clean ~/OneDrive              # Apply changes
  synctidy clean -v ~/OneDrive           # Verbose output`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("log-dir") {
				logDir = cfg.Clean.LogDir
			}
			if !cmd.Flags().Changed("max-suffix") {
				maxSuffix = cfg.Clean.MaxSuffix
			}
			return runClean(args[0], logDir, maxSuffix)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without making changes")
	cmd.Flags().StringVar(&logDir, "log-dir", "", "Directory for rename logs (default from config, ~/logs)")
	cmd.Flags().IntVar(&maxSuffix, "max-suffix", renamer.DefaultMaxAttempts, "Maximum collision suffixes tried per entry")

	return cmd
}

func runClean(targetDir, logDir string, maxSuffix int) error {
	logDir, err := config.ExpandHome(logDir)
	if err != nil {
		return err
	}

	printDryRunBanner()

	progress := startProgress("Working")
	execution, err := newUseCaseService(logDir, maxSuffix).RunClean(usecase.CleanRequest{
		TargetDir:  targetDir,
		DryRun:     dryRun,
		OnProgress: progress.Report,
	})
	progress.Stop()

	if err != nil {
		if execution.LogPath != "" {
			fmt.Printf("An error occurred while cleaning files and folders. Please check the log file at: %s\n", execution.LogPath)
		}
		return err
	}

	printCommandHeader("CLEAN", execution.RootDir)
	fmt.Println()

	result := execution.Result

	printDetailedOperations(result.Operations, printCleanOperation, nil)

	printSummary(
		fmt.Sprintf("Files:      %d", result.FilesSeen),
		fmt.Sprintf("Folders:    %d", result.FoldersSeen),
		fmt.Sprintf("Renamed:    %d", result.RenamedCount),
		fmt.Sprintf("Unchanged:  %d", result.UnchangedCount),
		fmt.Sprintf("Reserved:   %d", result.SkippedCount),
		fmt.Sprintf("Duration:   %v", execution.Duration.Round(time.Millisecond)),
	)
	printDryRunHint()

	if !dryRun {
		fmt.Println()
		fmt.Printf("Successfully cleaned files and folders. For more information, check the log file at: %s\n", execution.LogPath)
	}

	return nil
}

func printCleanOperation(op renamer.Operation) {
	switch op.Outcome {
	case renamer.OutcomeRenamed:
		fmt.Printf("RENAME %s: %s\n", op.Kind, op.OriginalPath)
		fmt.Printf("    TO: %s\n", op.NewPath)
	case renamer.OutcomeSkipped:
		fmt.Printf("SKIP: %s (reserved name)\n", op.OriginalPath)
	case renamer.OutcomeUnchanged:
		if verbose {
			fmt.Printf("OK: %s\n", op.OriginalPath)
		}
	}
}
