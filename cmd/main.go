package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := buildRootCommand()
	rootCmd.AddCommand(buildCleanCommand())
	rootCmd.AddCommand(buildIncidentsCommand())
	rootCmd.AddCommand(buildConfigCommand())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
