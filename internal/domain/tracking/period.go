package tracking

import (
	"fmt"
	"strings"
	"time"
)

// PeriodKind names a calendar period a commitment is measured over.
type PeriodKind string

const (
	PeriodDaily       PeriodKind = "daily"
	PeriodWeekly      PeriodKind = "weekly"
	PeriodFortnightly PeriodKind = "fortnightly"
	PeriodMonthly     PeriodKind = "monthly"
	PeriodQuarterly   PeriodKind = "quarterly"
	PeriodYearly      PeriodKind = "yearly"
)

// ErrUnknownPeriod is returned for a period kind outside the known set.
type ErrUnknownPeriod struct{ Kind string }

func (e *ErrUnknownPeriod) Error() string { return fmt.Sprintf("unknown period kind %q", e.Kind) }

// ParsePeriodKind normalizes s into a known PeriodKind.
func ParsePeriodKind(s string) (PeriodKind, error) {
	k := PeriodKind(strings.TrimSpace(strings.ToLower(s)))
	switch k {
	case PeriodDaily, PeriodWeekly, PeriodFortnightly, PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return k, nil
	default:
		return "", &ErrUnknownPeriod{Kind: s}
	}
}

// Bounds returns the half-open period [start, end) containing ref, aligned to local midnight in
// ref's location.
func Bounds(kind PeriodKind, ref time.Time) (time.Time, time.Time, error) {
	loc := ref.Location()
	y, m, d := ref.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)

	switch kind {
	case PeriodDaily:
		return midnight, midnight.AddDate(0, 0, 1), nil
	case PeriodWeekly:
		start := mondayOf(midnight)
		return start, start.AddDate(0, 0, 7), nil
	case PeriodFortnightly:
		monday := mondayOf(midnight)
		start := monday
		// Even ISO weeks are the second half of a fortnight that began the Monday before.
		if _, week := monday.ISOWeek(); week%2 == 0 {
			start = monday.AddDate(0, 0, -7)
		}
		return start, start.AddDate(0, 0, 14), nil
	case PeriodMonthly:
		start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0), nil
	case PeriodQuarterly:
		qm := time.Month(((int(m)-1)/3)*3 + 1)
		start := time.Date(y, qm, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 3, 0), nil
	case PeriodYearly:
		start := time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, time.Time{}, &ErrUnknownPeriod{Kind: string(kind)}
	}
}

// PreviousBounds returns the bounds n periods before the one containing ref (n=0 is ref's own).
func PreviousBounds(kind PeriodKind, ref time.Time, n int) (time.Time, time.Time, error) {
	start, end, err := Bounds(kind, ref)
	if err != nil {
		return start, end, err
	}
	for i := 0; i < n; i++ {
		start, end, err = Bounds(kind, start.Add(-time.Nanosecond))
		if err != nil {
			return start, end, err
		}
	}
	return start, end, nil
}

func mondayOf(midnight time.Time) time.Time {
	offset := (int(midnight.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return midnight.AddDate(0, 0, -offset)
}

// LocalDate truncates t to midnight in loc.
func LocalDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Period is a half-open [Start, End) window.
type Period struct {
	Start time.Time
	End   time.Time
}

// maxEndedPeriods bounds the backward walk in EndedPeriodsAfter.
const maxEndedPeriods = 20000

// EndedPeriodsAfter lists, oldest first, every period that has fully ended by now and ends strictly
// after watermark. Bounds are computed in now's location.
func EndedPeriodsAfter(kind PeriodKind, watermark, now time.Time) ([]Period, error) {
	start, _, err := Bounds(kind, now)
	if err != nil {
		return nil, err
	}
	var out []Period
	for i := 0; i < maxEndedPeriods; i++ {
		s, e, err := Bounds(kind, start.Add(-time.Nanosecond))
		if err != nil {
			return nil, err
		}
		if !e.After(watermark) {
			break
		}
		out = append(out, Period{Start: s, End: e})
		start = s
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
