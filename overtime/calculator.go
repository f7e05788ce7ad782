package overtime

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// DefaultZone is the reference zone request instants are read in when no
// other zone is configured (UTC+07:00, where the bands are defined).
var DefaultZone = time.FixedZone("UTC+07:00", 7*60*60)

// =============================================================================
// BREAKDOWN - Result of one calculation
// =============================================================================

// BandOverlap is the time one band received from a request, summed over all
// day segments. Pieces holds the intersected ranges, one per contributing day.
type BandOverlap struct {
	Band   Band
	Pieces []Segment
	Hours  decimal.Decimal
}

// Breakdown is the per-tier decomposition of a request. Tier values are
// rounded to 2 places and Total is the sum of the rounded tiers.
type Breakdown struct {
	ConfigurationID generic.ConfigurationID
	DayType         DayType
	RequestStart    float64 // time of day of the start, hours
	RequestEnd      float64 // extended-timeline end, may exceed 24
	Segments        []Segment
	Overlaps        []BandOverlap

	OT1   decimal.Decimal
	OT2   decimal.Decimal
	OT3   decimal.Decimal
	Total decimal.Decimal

	// Message is the audit trace shown to users next to the figures.
	Message string
}

// Hours returns the rounded total for one tier.
func (b Breakdown) Hours(t Tier) decimal.Decimal {
	switch t {
	case TierOT1:
		return b.OT1
	case TierOT2:
		return b.OT2
	case TierOT3:
		return b.OT3
	default:
		return decimal.Zero
	}
}

// Summary renders the tier figures as "OT1:1.00h OT2:2.00h OT3:0.00h".
func (b Breakdown) Summary() string {
	return fmt.Sprintf("OT1:%sh OT2:%sh OT3:%sh",
		b.OT1.StringFixed(generic.HoursPrecision),
		b.OT2.StringFixed(generic.HoursPrecision),
		b.OT3.StringFixed(generic.HoursPrecision))
}

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator converts request instants into per-tier hours. The zero value
// reads instants in DefaultZone. A Calculator holds no mutable state and is
// safe for concurrent use.
type Calculator struct {
	Zone *time.Location
}

// NewCalculator returns a calculator reading instants in zone (nil = DefaultZone).
func NewCalculator(zone *time.Location) Calculator {
	return Calculator{Zone: zone}
}

func (c Calculator) zone() *time.Location {
	if c.Zone == nil {
		return DefaultZone
	}
	return c.Zone
}

// TimeOfDay returns t's wall-clock time in the reference zone as hours.
func (c Calculator) TimeOfDay(t time.Time) float64 {
	local := t.In(c.zone())
	return float64(local.Hour()) + float64(local.Minute())/60 + float64(local.Second())/3600
}

// RequestDate is the calendar date of start in the reference zone; it selects
// the validity window and the day type.
func (c Calculator) RequestDate(start time.Time) generic.TimePoint {
	return generic.DateOf(start, c.zone())
}

// Normalize maps [start, end) onto one linear timeline starting on start's
// date. The end is the start's time of day plus the elapsed duration, so an
// interval ending earlier in the day than it started lands past 24, and a
// zone offset change inside the interval does not add or remove hours.
func (c Calculator) Normalize(start, end time.Time) (from, to float64, daysCrossed int) {
	from = c.TimeOfDay(start)
	to = from + end.Sub(start).Hours()
	daysCrossed = generic.DaysBetween(generic.DateOf(start, c.zone()), generic.DateOf(end, c.zone()))
	return from, to, daysCrossed
}

// CheckInterval rejects missing instants and intervals whose end is not
// after their start.
func CheckInterval(start, end time.Time) error {
	switch {
	case start.IsZero() || end.IsZero():
		return &MalformedIntervalError{Start: start, End: end, Reason: "start and end datetime are required"}
	case !end.After(start):
		return &MalformedIntervalError{Start: start, End: end, Reason: "end datetime must be after start datetime"}
	}
	return nil
}

// Calculate is the guarded entry point: it checks the interval and the
// applicability of bs for the request's date and day type, and only then
// computes. On failure no breakdown is returned.
func (c Calculator) Calculate(bs BandSet, dayType DayType, start, end time.Time) (Breakdown, error) {
	if err := CheckInterval(start, end); err != nil {
		return Breakdown{}, err
	}
	if err := CheckApplicable(bs, c.RequestDate(start), dayType); err != nil {
		return Breakdown{}, err
	}
	return c.Compute(bs, dayType, start, end)
}

// Compute splits [start, end) across the bands of bs configured for dayType.
// Bands repeat identically on every day the request touches. Callers are
// expected to have checked applicability; Compute only rejects a malformed
// interval or a day type with no bands.
func (c Calculator) Compute(bs BandSet, dayType DayType, start, end time.Time) (Breakdown, error) {
	if err := CheckInterval(start, end); err != nil {
		return Breakdown{}, err
	}
	bands := bs.BandsFor(dayType)
	if len(bands) == 0 {
		return Breakdown{}, &NotApplicableError{
			Reason: fmt.Sprintf("No overtime lines for day type '%s'", dayType.Label()),
		}
	}

	from, to, crossed := c.Normalize(start, end)
	segments := SplitSegments(from, to)

	trace := []string{
		"Rule: " + bs.Name,
		"StartDT: " + start.UTC().Format(time.DateTime),
		"EndDT: " + end.UTC().Format(time.DateTime),
		"StartDT_Local: " + start.In(c.zone()).Format(time.DateTime),
		"EndDT_Local: " + end.In(c.zone()).Format(time.DateTime),
		fmt.Sprintf("Request: %.2f-%.2f", from, to),
		"DayType: " + string(dayType),
	}
	if crossed > 0 {
		trace = append(trace, fmt.Sprintf("Cross-day adjusted (+%d day(s))", crossed))
	}
	segNames := make([]string, len(segments))
	for i, s := range segments {
		segNames[i] = s.String()
	}
	trace = append(trace, "Segments: "+strings.Join(segNames, " "))

	totals := map[Tier]decimal.Decimal{TierOT1: decimal.Zero, TierOT2: decimal.Zero, TierOT3: decimal.Zero}
	overlaps := make([]BandOverlap, 0, len(bands))

	for _, band := range bands {
		bo := BandOverlap{Band: band, Hours: decimal.Zero}
		var pieces []string
		for _, seg := range segments {
			s, e, length := overlap(seg.Start, seg.End, band.Start, band.End)
			if length <= 0 {
				continue
			}
			bo.Pieces = append(bo.Pieces, Segment{Day: seg.Day, Start: s, End: e})
			bo.Hours = bo.Hours.Add(generic.Hours(length))
			pieces = append(pieces, fmt.Sprintf("d%d overlap(%.2f-%.2f)", seg.Day, s, e))
		}
		overlaps = append(overlaps, bo)
		totals[band.Tier] = totals[band.Tier].Add(bo.Hours)

		line := fmt.Sprintf("%s(%.2f-%.2f): ", band.Tier.Label(), band.Start, band.End)
		if len(pieces) == 0 {
			line += "0h (no overlap)"
		} else {
			line += strings.Join(pieces, " + ") + " = " + bo.Hours.StringFixed(4) + "h"
		}
		trace = append(trace, line)
	}

	b := Breakdown{
		ConfigurationID: bs.ID,
		DayType:         dayType,
		RequestStart:    from,
		RequestEnd:      to,
		Segments:        segments,
		Overlaps:        overlaps,
		OT1:             generic.RoundHours(totals[TierOT1]),
		OT2:             generic.RoundHours(totals[TierOT2]),
		OT3:             generic.RoundHours(totals[TierOT3]),
	}
	b.Total = generic.SumHours(b.OT1, b.OT2, b.OT3)

	trace = append(trace, "Result: "+b.Summary()+" Total:"+b.Total.StringFixed(generic.HoursPrecision)+"h")
	b.Message = strings.Join(trace, " | ")
	return b, nil
}
