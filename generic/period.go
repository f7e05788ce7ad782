package generic

// =============================================================================
// PERIOD - Closed date range used for validity windows and report filters
// =============================================================================

// Period is the inclusive date range [Start, End].
//
// Examples:
//   - Validity of an overtime configuration: Jan 1 - Dec 31
//   - Report window chosen by HR: Mar 1 - Mar 31
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Validate returns ErrInvalidPeriod when End is before Start or either bound is unset.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() || p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// Display renders the period the way the configuration list shows it (MM/DD/YYYY - MM/DD/YYYY).
func (p Period) Display() string {
	switch {
	case !p.Start.IsZero() && !p.End.IsZero():
		return p.Start.Time.Format("01/02/2006") + " - " + p.End.Time.Format("01/02/2006")
	case !p.Start.IsZero():
		return p.Start.Time.Format("01/02/2006")
	default:
		return "No period set"
	}
}
