package incidents

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"synctidy/pkg/progress"
)

// Lister fetches the incidents of one window.
type Lister interface {
	ListIncidents(ctx context.Context, since, until time.Time) ([]Incident, error)
}

// ExporterOptions configures an Exporter.
type ExporterOptions struct {
	Logger *zerolog.Logger   // nil disables diagnostics
	Now    func() time.Time // defaults to time.Now

	// OnProgress receives stage "days" after each window.
	OnProgress progress.Func
	// OnRow is called for every exported row.
	OnRow func(Row)
	// OnDayError is called with the message for a window that failed.
	OnDayError func(msg string)
}

// Summary contains the counts of one export.
type Summary struct {
	Days       int
	FailedDays int
	Incidents  int
}

// Exporter queries a Lister one day at a time and writes every incident
// to a ReportWriter.
type Exporter struct {
	lister Lister
	report *ReportWriter
	logger zerolog.Logger
	now    func() time.Time
	opts   ExporterOptions
}

// NewExporter creates an Exporter.
func NewExporter(lister Lister, report *ReportWriter, opts ExporterOptions) *Exporter {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Exporter{
		lister: lister,
		report: report,
		logger: logger,
		now:    now,
		opts:   opts,
	}
}

// Export walks the day windows of [start, end). A window whose query fails
// is reported and skipped. Report write failures and context cancellation
// stop the export.
func (e *Exporter) Export(ctx context.Context, start, end time.Time) (Summary, error) {
	windows := DayWindows(start, end)
	summary := Summary{Days: len(windows)}

	for i, w := range windows {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		// On failure list still holds the pages fetched before the error.
		list, err := e.lister.ListIncidents(ctx, w.Since, w.Until)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return summary, ctxErr
			}

			summary.FailedDays++
			msg := fmt.Sprintf("Failed to retrieve incidents for %s to %s: %v",
				w.Since.Format(time.RFC3339), w.Until.Format(time.RFC3339), err)
			e.logger.Warn().Err(err).Time("since", w.Since).Time("until", w.Until).Msg("Day query failed")
			if e.opts.OnDayError != nil {
				e.opts.OnDayError(msg)
			}
		}

		for _, inc := range list {
			row := NewRow(inc, e.now())
			if err := e.report.Write(row); err != nil {
				return summary, err
			}
			summary.Incidents++
			if e.opts.OnRow != nil {
				e.opts.OnRow(row)
			}
		}

		if err := e.report.Flush(); err != nil {
			return summary, err
		}

		e.logger.Debug().Time("since", w.Since).Int("incidents", len(list)).Msg("Day exported")
		progress.EmitStage(e.opts.OnProgress, "days", i+1, len(windows))
	}

	return summary, nil
}
