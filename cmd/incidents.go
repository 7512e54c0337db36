package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"synctidy/internal/config"
	"synctidy/pkg/incidents"
	"synctidy/pkg/usecase"
)

type incidentsFlags struct {
	email     string
	since     string
	until     string
	outputDir string
	baseURL   string
}

func buildIncidentsCommand() *cobra.Command {
	var flags incidentsFlags

	cmd := &cobra.Command{
		Use:   "incidents",
		Short: "Export PagerDuty incidents to a CSV report",
		Long: `Exports every PagerDuty incident from --since until now, one day at a
time, into pagerduty-incidents-report_<YYYY-MM-DD>.csv.

A day whose query fails is reported and skipped; the export continues.

The API key is read from PD_API_KEY (or SYNCTIDY_INCIDENTS_API_KEY, or
incidents.api_key in the config file).

Examples:
  export PD_API_KEY="your_api_key_here"
  synctidy incidents --email ops@example.com
  synctidy incidents --email ops@example.com --since 2024-01-01 -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			applyIncidentsConfig(cmd, &flags)
			return runIncidents(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.email, "email", "", "Email address sent as the From header (required)")
	cmd.Flags().StringVar(&flags.since, "since", "", "First day to export, YYYY-MM-DD (default from config, 2022-08-22)")
	cmd.Flags().StringVar(&flags.until, "until", "", "End of the export, YYYY-MM-DD or RFC3339 (default now)")
	cmd.Flags().StringVar(&flags.outputDir, "output-dir", "", "Directory for the CSV report (default from config, .)")
	cmd.Flags().StringVar(&flags.baseURL, "base-url", "", "PagerDuty API base URL (default from config)")

	return cmd
}

func applyIncidentsConfig(cmd *cobra.Command, flags *incidentsFlags) {
	if !cmd.Flags().Changed("email") {
		flags.email = cfg.Incidents.Email
	}
	if !cmd.Flags().Changed("since") {
		flags.since = cfg.Incidents.Since
	}
	if !cmd.Flags().Changed("output-dir") {
		flags.outputDir = cfg.Incidents.OutputDir
	}
	if !cmd.Flags().Changed("base-url") {
		flags.baseURL = cfg.Incidents.BaseURL
	}
}

func parseDay(value string) (time.Time, error) {
	if t, err := time.Parse(config.DateLayout, value); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC3339", value)
	}

	return t, nil
}

func runIncidents(ctx context.Context, flags incidentsFlags) error {
	if flags.email == "" {
		return fmt.Errorf("--email is required: %w", incidents.ErrMissingEmail)
	}
	if cfg.Incidents.APIKey == "" {
		return fmt.Errorf("%w: export PD_API_KEY=\"your_api_key_here\"", incidents.ErrMissingAPIKey)
	}

	since, err := parseDay(flags.since)
	if err != nil {
		return err
	}

	var until time.Time
	if flags.until != "" {
		if until, err = parseDay(flags.until); err != nil {
			return err
		}
	}

	req := usecase.IncidentsRequest{
		APIKey:    cfg.Incidents.APIKey,
		Email:     flags.email,
		BaseURL:   flags.baseURL,
		Timeout:   cfg.Incidents.Timeout,
		Since:     since,
		Until:     until,
		OutputDir: flags.outputDir,
		OnDayError: func(msg string) {
			fmt.Println(msg)
		},
	}

	var bar *progressbar.ProgressBar
	if verbose {
		req.OnRow = func(row incidents.Row) {
			fmt.Println(row.Summary())
		}
	} else {
		req.OnProgress = func(_ string, processed, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionSetDescription("days"),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
			}
			_ = bar.Set(processed)
		}
	}

	service := newUseCaseService(cfg.Clean.LogDir, cfg.Clean.MaxSuffix)
	execution, err := service.RunIncidents(ctx, req)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}

	printSummary(
		fmt.Sprintf("Days:         %d", execution.Summary.Days),
		fmt.Sprintf("Failed days:  %d", execution.Summary.FailedDays),
		fmt.Sprintf("Incidents:    %d", execution.Summary.Incidents),
		fmt.Sprintf("Duration:     %v", execution.Duration.Round(time.Millisecond)),
	)
	fmt.Println()
	fmt.Printf("Report written to: %s\n", execution.ReportPath)

	return nil
}
