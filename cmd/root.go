package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"synctidy/internal/config"
	"synctidy/internal/logging"
)

var (
	dryRun     bool
	verbose    bool
	configPath string
	debug      bool
	logJSON    bool

	cfg    = config.Default()
	logger = zerolog.Nop()
)

func buildRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synctidy",
		Short: "Make file and folder names safe for OneDrive and Dropbox",
		Long: `synctidy cleans up directories that are synced to OneDrive or Dropbox.

Commands:
  clean      Renames files and folders whose names the sync clients reject
  incidents  Exports PagerDuty incidents to a daily CSV report
  config     Manages the configuration file

Examples:
  # Preview what clean would do (recommended first step)
  synctidy clean --dry-run ~/OneDrive

  # Actually rename entries
  synctidy clean ~/OneDrive

  # Export incidents since 2022-08-22 (API key from PD_API_KEY)
  synctidy incidents --email ops@example.com

Safety:
  clean NEVER modifies anything outside the specified directory, never
  overwrites an existing entry and never follows symlinks.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setup()
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/synctidy/config.yaml)")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write diagnostic logs as JSON")

	return cmd
}

func setup() error {
	logger = logging.New(logging.Options{Debug: debug, JSON: logJSON})

	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	logger.Debug().Str("config", configPath).Msg("Configuration loaded")

	return nil
}
