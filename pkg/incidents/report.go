package incidents

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// ReportFileName returns the report file name for the given day.
func ReportFileName(now time.Time) string {
	return "pagerduty-incidents-report_" + now.Format("2006-01-02") + ".csv"
}

// ReportWriter writes report rows as CSV.
type ReportWriter struct {
	w *csv.Writer
}

// NewReportWriter writes the header to out and returns a writer for rows.
// Lines end in CRLF as RFC 4180 specifies.
func NewReportWriter(out io.Writer) (*ReportWriter, error) {
	w := csv.NewWriter(out)
	w.UseCRLF = true
	rw := &ReportWriter{w: w}

	if err := rw.w.Write(Header); err != nil {
		return nil, fmt.Errorf("write report header: %w", err)
	}

	return rw, nil
}

// Write appends one row. Rows are buffered until Flush.
func (rw *ReportWriter) Write(row Row) error {
	if err := rw.w.Write(row.Record()); err != nil {
		return fmt.Errorf("write report row %s: %w", row.ID, err)
	}
	return nil
}

// Flush writes buffered rows to the underlying writer.
func (rw *ReportWriter) Flush() error {
	rw.w.Flush()
	if err := rw.w.Error(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}
	return nil
}
