package recurrence

import "time"

const (
	// MaxSeriesLength caps every series, master included. Larger COUNT values
	// are truncated without error.
	MaxSeriesLength = 10

	// defaultByDayCount is the number of extra occurrences generated for a
	// BYDAY rule without COUNT.
	defaultByDayCount = 4
)

// Occurrence is a single generated instance of a recurring appointment.
type Occurrence struct {
	Start  time.Time
	End    time.Time
	Master bool
}

func (o Occurrence) Duration() time.Duration {
	return o.End.Sub(o.Start)
}

// Expand materializes the series described by spec. The first element is the
// master at [start, end); the rest follow in start order and keep the
// master's duration. Calendar arithmetic happens in start's location.
func Expand(spec Spec, start, end time.Time) []Occurrence {
	duration := end.Sub(start)
	if duration < 0 {
		duration = 0
	}
	if spec.Interval < 1 {
		spec.Interval = 1
	}

	results := []Occurrence{{Start: start, End: start.Add(duration), Master: true}}

	if spec.Freq == Weekly && len(spec.ByDay) > 0 {
		return append(results, expandByDay(spec, start, duration)...)
	}
	return append(results, expandStandard(spec, start, duration)...)
}

// expandByDay walks whole weeks starting from the Sunday on or before start,
// visiting the BYDAY weekdays of each week in canonical order.
func expandByDay(spec Spec, start time.Time, duration time.Duration) []Occurrence {
	limit := defaultByDayCount
	if n, ok := spec.Count.Get(); ok && n > 0 {
		limit = n
	}
	if limit > MaxSeriesLength-1 {
		limit = MaxSeriesLength - 1
	}

	until, bounded := spec.cutoff(start.Location())
	startDate := dateOf(start)
	weekBegin := startDate.AddDate(0, 0, -int(start.Weekday()))
	weeks := (limit + len(spec.ByDay) - 1) / len(spec.ByDay)

	var results []Occurrence
	for week := 0; week < weeks; week++ {
		for _, wd := range spec.ByDay {
			if len(results) >= limit {
				return results
			}

			day := weekBegin.AddDate(0, 0, int(wd)+week*7*spec.Interval)
			if day.Before(startDate) {
				continue
			}
			// the master itself
			if week == 0 && wd == start.Weekday() && day.Equal(startDate) {
				continue
			}

			occStart := atTimeOf(day, start)
			if bounded && occStart.After(until) {
				return results
			}
			results = append(results, Occurrence{Start: occStart, End: occStart.Add(duration)})
		}
	}
	return results
}

// expandStandard steps from start by whole weeks, months, or years. Every
// step is computed from start itself so a clamped month does not shift the
// day of later occurrences.
func expandStandard(spec Spec, start time.Time, duration time.Duration) []Occurrence {
	n := MaxSeriesLength - 1
	if c, ok := spec.Count.Get(); ok && c > 0 && c-1 < n {
		n = c - 1
	}

	until, bounded := spec.cutoff(start.Location())
	var results []Occurrence
	for i := 0; i < n; i++ {
		steps := (i + 1) * spec.Interval

		var occStart time.Time
		switch spec.Freq {
		case Weekly:
			occStart = start.AddDate(0, 0, 7*steps)
		case Monthly:
			occStart = addMonthsClamped(start, steps)
		case Yearly:
			occStart = addMonthsClamped(start, 12*steps)
		}

		if bounded && occStart.After(until) {
			break
		}
		results = append(results, Occurrence{Start: occStart, End: occStart.Add(duration)})
	}
	return results
}

// addMonthsClamped adds months to t, clamping the day to the end of the
// target month: Jan 31 + 1 month is Feb 28 (or 29).
func addMonthsClamped(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	day := t.Day()
	if last := daysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func atTimeOf(day, clock time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), clock.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
