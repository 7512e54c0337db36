package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"synctidy/internal/config"
)

func buildConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	cmd.AddCommand(buildConfigInitCommand())

	return cmd
}

func buildConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Long: `Writes the default configuration to $XDG_CONFIG_HOME/synctidy/config.yaml,
or to the path given with --config.

Examples:
  synctidy config init
  synctidy config init --config ./synctidy.yaml
  synctidy config init --force`,
		Args: cobra.NoArgs,
		// The file may not exist yet, so skip loading it.
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfigInit(force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}

func runConfigInit(force bool) error {
	path, err := config.Init(configPath, force)
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Edit the configuration file to set incidents.email and clean.log_dir")
	fmt.Println("  2. Export PD_API_KEY rather than storing the key in the file")

	return nil
}
