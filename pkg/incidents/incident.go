// Package incidents exports PagerDuty incidents to a daily CSV report.
package incidents

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the layout of created_at and last_status_change_at.
const TimestampLayout = "2006-01-02T15:04:05Z"

// IncidentURLPrefix is joined with the incident id for the report's url column.
const IncidentURLPrefix = "https://app.pagerduty.com/incidents/"

// Reference is a named API object such as a service or priority.
type Reference struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Name    string `json:"name"`
}

// Assignment links an incident to an assignee.
type Assignment struct {
	Assignee *Reference `json:"assignee"`
}

// Incident holds the fields of an API incident that the report reads.
type Incident struct {
	ID                 string       `json:"id"`
	Status             string       `json:"status"`
	Urgency            string       `json:"urgency"`
	Title              string       `json:"title"`
	CreatedAt          string       `json:"created_at"`
	LastStatusChangeAt string       `json:"last_status_change_at"`
	Priority           *Reference   `json:"priority"`
	Service            *Reference   `json:"service"`
	Assignments        []Assignment `json:"assignments"`
}

// Row is one report record.
type Row struct {
	ID         string
	Status     string
	Priority   string
	Urgency    string
	Title      string
	Created    string
	Service    string
	AssignedTo string
	URL        string
	Duration   string
}

// Header lists the report columns in order.
var Header = []string{"id", "status", "priority", "urgency", "title", "created", "service", "assigned_to", "url", "duration"}

// Record returns the row values in Header order.
func (r Row) Record() []string {
	return []string{r.ID, r.Status, r.Priority, r.Urgency, r.Title, r.Created, r.Service, r.AssignedTo, r.URL, r.Duration}
}

// NewRow builds the report row for inc. Resolved incidents last from
// creation to their last status change; open ones last until now. The
// duration is left empty when a timestamp does not parse.
func NewRow(inc Incident, now time.Time) Row {
	row := Row{
		ID:         inc.ID,
		Status:     inc.Status,
		Priority:   refName(inc.Priority),
		Urgency:    inc.Urgency,
		Title:      inc.Title,
		Created:    inc.CreatedAt,
		Service:    refName(inc.Service),
		AssignedTo: assignees(inc.Assignments),
		URL:        IncidentURLPrefix + inc.ID,
	}

	if d, ok := incidentDuration(inc, now); ok {
		row.Duration = FormatDuration(d)
	}

	return row
}

// Summary renders the row as the verbose progress line.
func (r Row) Summary() string {
	return fmt.Sprintf(
		"Exported incident %s with status '%s', priority '%s', urgency '%s', title '%s', created at '%s', service '%s', assigned to '%s', URL: %s, duration: %s",
		r.ID, r.Status, r.Priority, r.Urgency, r.Title, r.Created, r.Service, r.AssignedTo, r.URL, r.Duration,
	)
}

func incidentDuration(inc Incident, now time.Time) (time.Duration, bool) {
	created, err := time.Parse(TimestampLayout, inc.CreatedAt)
	if err != nil {
		return 0, false
	}

	end := now.UTC()
	if inc.Status == "resolved" {
		end, err = time.Parse(TimestampLayout, inc.LastStatusChangeAt)
		if err != nil {
			return 0, false
		}
	}

	return end.Sub(created), true
}

func refName(ref *Reference) string {
	if ref == nil {
		return ""
	}
	return ref.Name
}

func assignees(assignments []Assignment) string {
	names := make([]string, 0, len(assignments))
	for _, a := range assignments {
		if name := refName(a.Assignee); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

// FormatDuration renders d as "H:MM:SS", prefixed with "N day(s), " when
// it spans a day or more. Sub-second precision is dropped. Negative values
// borrow from the day count, so -1s is "-1 day, 23:59:59".
func FormatDuration(d time.Duration) string {
	secs := int64(d / time.Second)
	if d < 0 && d%time.Second != 0 {
		secs--
	}

	const day = 24 * 60 * 60
	days := secs / day
	rem := secs % day
	if rem < 0 {
		rem += day
		days--
	}

	clock := fmt.Sprintf("%d:%02d:%02d", rem/3600, rem%3600/60, rem%60)
	if days == 0 {
		return clock
	}

	unit := "days"
	if days == 1 || days == -1 {
		unit = "day"
	}
	return fmt.Sprintf("%d %s, %s", days, unit, clock)
}
