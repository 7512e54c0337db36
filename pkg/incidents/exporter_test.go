package incidents

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	byDay map[time.Time][]Incident
	fail  map[time.Time]error
	calls []time.Time
}

func (f *fakeLister) ListIncidents(_ context.Context, since, _ time.Time) ([]Incident, error) {
	f.calls = append(f.calls, since)
	return f.byDay[since], f.fail[since]
}

func readReport(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)

	return records
}

func TestReportFileName(t *testing.T) {
	assert.Equal(t, "pagerduty-incidents-report_2024-03-09.csv",
		ReportFileName(time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)))
}

func TestReportWriter_HeaderAndQuoting(t *testing.T) {
	var buf bytes.Buffer

	rw, err := NewReportWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, rw.Write(Row{ID: "P1", Title: `disk "full", again`, AssignedTo: "A, B"}))
	require.NoError(t, rw.Flush())

	records := readReport(t, &buf)
	require.Len(t, records, 2)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, `disk "full", again`, records[1][4])
	assert.Equal(t, "A, B", records[1][7])
}

func TestReportWriter_CRLFLineEndings(t *testing.T) {
	var buf bytes.Buffer

	rw, err := NewReportWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, rw.Write(Row{ID: "P1", Status: "resolved", Duration: "0:00:05"}))
	require.NoError(t, rw.Flush())

	assert.Equal(t,
		"id,status,priority,urgency,title,created,service,assigned_to,url,duration\r\n"+
			"P1,resolved,,,,,,,,0:00:05\r\n",
		buf.String())
}

func TestExport_SkipsFailedDay(t *testing.T) {
	start := time.Date(2022, 8, 22, 0, 0, 0, 0, time.UTC)
	day2 := start.Add(24 * time.Hour)
	day3 := start.Add(48 * time.Hour)

	lister := &fakeLister{
		byDay: map[time.Time][]Incident{
			start: {{ID: "P1", Status: "triggered", CreatedAt: "2022-08-22T01:00:00Z"}},
			day3:  {{ID: "P3", Status: "resolved", CreatedAt: "2022-08-24T01:00:00Z", LastStatusChangeAt: "2022-08-24T01:00:30Z"}},
		},
		fail: map[time.Time]error{day2: errors.New("boom")},
	}

	var buf bytes.Buffer
	rw, err := NewReportWriter(&buf)
	require.NoError(t, err)

	var dayErrors []string
	var rows []Row
	var progressed []int

	exp := NewExporter(lister, rw, ExporterOptions{
		Now:        func() time.Time { return time.Date(2022, 8, 22, 2, 0, 0, 0, time.UTC) },
		OnDayError: func(msg string) { dayErrors = append(dayErrors, msg) },
		OnRow:      func(r Row) { rows = append(rows, r) },
		OnProgress: func(_ string, done, _ int) { progressed = append(progressed, done) },
	})

	summary, err := exp.Export(context.Background(), start, start.Add(3*24*time.Hour+time.Hour))
	require.NoError(t, err)

	assert.Equal(t, Summary{Days: 3, FailedDays: 1, Incidents: 2}, summary)
	assert.Equal(t, []time.Time{start, day2, day3}, lister.calls)
	assert.Equal(t, []int{1, 2, 3}, progressed)
	assert.Equal(t, []string{
		"Failed to retrieve incidents for 2022-08-23T00:00:00Z to 2022-08-24T00:00:00Z: boom",
	}, dayErrors)

	require.Len(t, rows, 2)
	assert.Equal(t, "1:00:00", rows[0].Duration)
	assert.Equal(t, "0:00:30", rows[1].Duration)

	records := readReport(t, &buf)
	require.Len(t, records, 3)
	assert.Equal(t, "P1", records[1][0])
	assert.Equal(t, "P3", records[2][0])
}

func TestExport_StopsOnCancel(t *testing.T) {
	start := time.Date(2022, 8, 22, 0, 0, 0, 0, time.UTC)
	lister := &fakeLister{}

	var buf bytes.Buffer
	rw, err := NewReportWriter(&buf)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewExporter(lister, rw, ExporterOptions{}).Export(ctx, start, start.Add(72*time.Hour))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, lister.calls)
}

func TestExport_NoWholeDay(t *testing.T) {
	start := time.Date(2022, 8, 22, 0, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	rw, err := NewReportWriter(&buf)
	require.NoError(t, err)

	summary, err := NewExporter(&fakeLister{}, rw, ExporterOptions{}).Export(context.Background(), start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, Summary{}, summary)
}
