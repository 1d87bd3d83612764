package pipeline

import "time"

// Window is a half-open [Start, End) acquisition time range derived from a
// year and the configured mode.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Intersect narrows the window to the given range. Edge years of a run must
// not composite imagery outside the configured dates, so their windows get
// clamped before any fetch.
func (w Window) Intersect(start, end time.Time) Window {
	if start.After(w.Start) {
		w.Start = start
	}
	if end.Before(w.End) {
		w.End = end
	}
	return w
}

// YearWindow spans Jan 1 of the year to Jan 1 of the next.
func YearWindow(year int) Window {
	return Window{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// MonthWindow spans day 1 of the month to day 1 of the following month.
func MonthWindow(year, month int) Window {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.AddDate(0, 1, 0)}
}

// SeasonWindow spans day 1 of the start month to the last day of the end
// month of the same year. Like every window the end is exclusive, so the
// last day itself is not covered.
func SeasonWindow(year, startMonth, endMonth int) Window {
	start := time.Date(year, time.Month(startMonth), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.Month(endMonth), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
	return Window{Start: start, End: end}
}
