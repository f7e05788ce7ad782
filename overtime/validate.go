package overtime

import (
	"fmt"
	"math"
	"sort"
)

// IssueCode classifies a validation issue.
type IssueCode string

const (
	IssueNoBands         IssueCode = "no_bands"
	IssueUnknownTier     IssueCode = "unknown_tier"
	IssueUnknownDayType  IssueCode = "unknown_day_type"
	IssueTierOrder       IssueCode = "tier_order"
	IssueTierOverlap     IssueCode = "tier_overlap"
	IssueSameTierOverlap IssueCode = "same_tier_overlap"
	IssueRange           IssueCode = "range"
)

// Issue is one reason a band set is not usable.
type Issue struct {
	Code    IssueCode
	DayType DayType // empty for band-level issues
	Message string
}

func (i Issue) String() string { return i.Message }

// Validate checks a band set structurally. It returns no issues iff the band
// set can be used for calculation. It never mutates bs and can run at save
// time as well as before every calculation.
func Validate(bs BandSet) []Issue {
	if len(bs.Bands) == 0 {
		return []Issue{{Code: IssueNoBands, Message: "Configuration has no overtime lines"}}
	}

	var issues []Issue
	for _, dt := range DayTypes {
		issues = append(issues, validateGroup(dt, bs.BandsFor(dt))...)
	}

	for _, b := range bs.Bands {
		issues = append(issues, validateBand(b)...)
	}
	return issues
}

func validateGroup(dt DayType, group []Band) []Issue {
	if len(group) == 0 {
		return nil
	}
	label := dt.Label()
	var issues []Issue

	// Earliest start per tier must ascend OT1 < OT2 < OT3.
	minStart := map[Tier]float64{}
	for _, b := range group {
		if cur, ok := minStart[b.Tier]; !ok || b.Start < cur {
			minStart[b.Tier] = b.Start
		}
	}
	pairs := [][2]Tier{{TierOT1, TierOT2}, {TierOT2, TierOT3}, {TierOT1, TierOT3}}
	for _, p := range pairs {
		lo, okLo := minStart[p[0]]
		hi, okHi := minStart[p[1]]
		if okLo && okHi && lo >= hi {
			issues = append(issues, Issue{
				Code:    IssueTierOrder,
				DayType: dt,
				Message: fmt.Sprintf("[%s] %s start time (%s) must be earlier than %s start time (%s)",
					label, p[0].Label(), formatHours(lo), p[1].Label(), formatHours(hi)),
			})
		}
	}

	sorted := make([]Band, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			a, b := sorted[i], sorted[j]
			if !a.Overlaps(b) {
				continue
			}
			code, kind := IssueTierOverlap, "Overlap between"
			if a.Tier == b.Tier {
				code, kind = IssueSameTierOverlap, "Overlapping time ranges for"
			}
			issues = append(issues, Issue{
				Code:    code,
				DayType: dt,
				Message: fmt.Sprintf("[%s] %s %s (%s-%s) and %s (%s-%s)",
					label, kind,
					a.Tier.Label(), formatHours(a.Start), formatHours(a.End),
					b.Tier.Label(), formatHours(b.Start), formatHours(b.End)),
			})
		}
	}
	return issues
}

func validateBand(b Band) []Issue {
	var issues []Issue
	name := b.Tier.Label()
	if !b.Tier.Valid() {
		issues = append(issues, Issue{Code: IssueUnknownTier, Message: fmt.Sprintf("unknown overtime type %q", b.Tier)})
	}
	if !b.DayType.Valid() {
		issues = append(issues, Issue{Code: IssueUnknownDayType, Message: fmt.Sprintf("%s: unknown day type %q", name, b.DayType)})
	}
	if math.IsNaN(b.Start) || math.IsNaN(b.End) {
		return append(issues, Issue{Code: IssueRange, Message: fmt.Sprintf("%s: start and end time must be numbers", name)})
	}
	if b.Start >= b.End {
		issues = append(issues, Issue{Code: IssueRange,
			Message: fmt.Sprintf("%s: start_time (%s) must be less than end_time (%s)", name, formatHours(b.Start), formatHours(b.End))})
	}
	if b.Start < 0 || b.Start >= 24 {
		issues = append(issues, Issue{Code: IssueRange,
			Message: fmt.Sprintf("%s: start_time (%s) must be between 0 and 24", name, formatHours(b.Start))})
	}
	if b.End <= 0 || b.End > 24 {
		issues = append(issues, Issue{Code: IssueRange,
			Message: fmt.Sprintf("%s: end_time (%s) must be between 0 and 24", name, formatHours(b.End))})
	}
	return issues
}

// CheckValid returns a *ConfigurationInvalidError when Validate reports issues.
func CheckValid(bs BandSet) error {
	if issues := Validate(bs); len(issues) > 0 {
		return &ConfigurationInvalidError{Name: bs.Name, Issues: issues}
	}
	return nil
}

func formatHours(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
