package incidents

import "time"

// Window is a half-open query range [Since, Until).
type Window struct {
	Since time.Time
	Until time.Time
}

// DayWindows splits [start, end) into whole 24h windows beginning at start.
// A trailing partial day is not included.
func DayWindows(start, end time.Time) []Window {
	const day = 24 * time.Hour

	n := int(end.Sub(start) / day)
	if n <= 0 {
		return nil
	}

	windows := make([]Window, n)
	for i := range windows {
		since := start.Add(time.Duration(i) * day)
		windows[i] = Window{Since: since, Until: since.Add(day)}
	}

	return windows
}
