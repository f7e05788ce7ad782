// Package maintenance tracks assets, their recurring maintenance schedule
// and the maintenance requests raised against them.
package maintenance

import (
	"fmt"

	"github.com/warp/overtime-engine/generic"
)

// Pattern is the unit a schedule repeats in.
type Pattern string

const (
	PatternNone    Pattern = "none"
	PatternDaily   Pattern = "daily"
	PatternWeekly  Pattern = "weekly"
	PatternMonthly Pattern = "monthly"
	PatternYearly  Pattern = "yearly"
)

func (p Pattern) Valid() bool {
	switch p {
	case PatternNone, PatternDaily, PatternWeekly, PatternMonthly, PatternYearly:
		return true
	}
	return false
}

// DefaultLimit caps Occurrences when the caller passes no limit.
const DefaultLimit = 100

// Schedule repeats every Interval units of Pattern from Start, up to and
// including End when set. Interval 0 means 1.
type Schedule struct {
	Pattern  Pattern
	Start    generic.TimePoint
	Interval int
	End      generic.TimePoint // zero = open-ended
}

// Validate rejects unknown patterns, negative intervals and an end before start.
func (s Schedule) Validate() error {
	if !s.Pattern.Valid() {
		return fmt.Errorf("%w: unknown recurrence pattern %q", generic.ErrInvalidInput, s.Pattern)
	}
	if s.Pattern == PatternNone {
		return nil
	}
	if s.Start.IsZero() {
		return fmt.Errorf("%w: recurrence start date is required", generic.ErrInvalidInput)
	}
	if s.Interval < 0 {
		return fmt.Errorf("%w: recurrence interval must be positive", generic.ErrInvalidInput)
	}
	if !s.End.IsZero() && s.End.Before(s.Start) {
		return fmt.Errorf("recurrence end %s before start %s: %w", s.End, s.Start, generic.ErrInvalidPeriod)
	}
	return nil
}

func (s Schedule) interval() int {
	if s.Interval <= 0 {
		return 1
	}
	return s.Interval
}

// At returns the n-th occurrence (0 = Start). Month and year steps are taken
// from Start each time, so Jan 31 monthly gives Feb 28, Mar 31, Apr 30.
func (s Schedule) At(n int) generic.TimePoint {
	step := n * s.interval()
	switch s.Pattern {
	case PatternDaily:
		return s.Start.AddDays(step)
	case PatternWeekly:
		return s.Start.AddDays(7 * step)
	case PatternMonthly:
		return s.Start.AddMonths(step)
	case PatternYearly:
		return s.Start.AddYears(step)
	default:
		return s.Start
	}
}

func (s Schedule) withinEnd(d generic.TimePoint) bool {
	return s.End.IsZero() || d.BeforeOrEqual(s.End)
}

// Occurrences lists due dates from Start, at most limit of them
// (limit <= 0 means DefaultLimit). A PatternNone schedule only has Start.
func (s Schedule) Occurrences(limit int) ([]generic.TimePoint, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if s.Pattern == PatternNone {
		if s.Start.IsZero() {
			return nil, nil
		}
		return []generic.TimePoint{s.Start}, nil
	}

	var out []generic.TimePoint
	for n := 0; len(out) < limit; n++ {
		d := s.At(n)
		if !s.withinEnd(d) {
			break
		}
		out = append(out, d)
	}
	return out, nil
}

// Next returns the first occurrence strictly after after, and false when the
// schedule has ended or does not repeat.
func (s Schedule) Next(after generic.TimePoint) (generic.TimePoint, bool) {
	if s.Validate() != nil || s.Pattern == PatternNone {
		return generic.TimePoint{}, false
	}
	if after.Before(s.Start) {
		return s.Start, true
	}

	// Skip ahead close to after, then walk.
	n := 0
	switch s.Pattern {
	case PatternDaily:
		n = generic.DaysBetween(s.Start, after) / s.interval()
	case PatternWeekly:
		n = generic.DaysBetween(s.Start, after) / (7 * s.interval())
	case PatternMonthly:
		n = monthsBetween(s.Start, after) / s.interval()
	case PatternYearly:
		n = (after.Year() - s.Start.Year()) / s.interval()
	}
	if n > 0 {
		n--
	}
	for ; ; n++ {
		d := s.At(n)
		if !s.withinEnd(d) {
			return generic.TimePoint{}, false
		}
		if d.After(after) {
			return d, true
		}
	}
}

func monthsBetween(from, to generic.TimePoint) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}
