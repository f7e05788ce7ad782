// Package overtime splits requested overtime intervals across configured
// OT1/OT2/OT3 time bands and manages the configurations and requests around it.
package overtime

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// =============================================================================
// TIERS AND DAY TYPES
// =============================================================================

// Tier is an overtime level. Higher tiers apply later in the day.
type Tier string

const (
	TierOT1 Tier = "ot1"
	TierOT2 Tier = "ot2"
	TierOT3 Tier = "ot3"
)

// Tiers lists every tier in ascending order.
var Tiers = []Tier{TierOT1, TierOT2, TierOT3}

func (t Tier) Valid() bool {
	return t == TierOT1 || t == TierOT2 || t == TierOT3
}

// Label is the upper-case display name ("OT1").
func (t Tier) Label() string {
	switch t {
	case TierOT1:
		return "OT1"
	case TierOT2:
		return "OT2"
	case TierOT3:
		return "OT3"
	default:
		return string(t)
	}
}

// DayType classifies a calendar date for band selection.
type DayType string

const (
	DayWorking DayType = "weekday"
	DayOff     DayType = "off"
)

// DayTypes lists every day type in display order.
var DayTypes = []DayType{DayWorking, DayOff}

func (d DayType) Valid() bool {
	return d == DayWorking || d == DayOff
}

// Label is the human-readable name used in messages and reports.
func (d DayType) Label() string {
	switch d {
	case DayWorking:
		return "Working Days"
	case DayOff:
		return "Days Off"
	default:
		return string(d)
	}
}

// =============================================================================
// BAND
// =============================================================================

// Band is a time-of-day range [Start, End) in hours during which Tier applies
// on days of DayType. 17.5 means 17:30.
type Band struct {
	Tier    Tier
	DayType DayType
	Start   float64
	End     float64
}

// Duration is the configured length of the band in hours.
func (b Band) Duration() float64 {
	return b.End - b.Start
}

// Overlaps reports whether b and other share any time, using half-open intervals.
func (b Band) Overlaps(other Band) bool {
	return b.Start < other.End && other.Start < b.End
}

// TimeRange renders the band as "HH:MM - HH:MM".
func (b Band) TimeRange() string {
	return FormatClock(b.Start) + " - " + FormatClock(b.End)
}

func (b Band) String() string {
	return fmt.Sprintf("%s (%s)", b.Tier.Label(), b.TimeRange())
}

// FormatClock renders fractional hours as HH:MM.
func FormatClock(hours float64) string {
	h := int(hours)
	m := int(math.Round((hours - float64(h)) * 60))
	if m == 60 {
		h, m = h+1, 0
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// =============================================================================
// BAND SET (CONFIGURATION)
// =============================================================================

// Status is the activation state of a configuration.
type Status string

const (
	StatusDraft  Status = "draft"
	StatusActive Status = "active"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusActive
}

// BandSet is an overtime configuration: the bands plus the window in which
// they apply. A BandSet passed to the calculator is treated as a read-only snapshot.
type BandSet struct {
	ID       generic.ConfigurationID
	Name     string
	Validity generic.Period
	Status   Status
	Bands    []Band

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BandsFor returns the bands configured for a day type, in configuration order.
func (bs BandSet) BandsFor(dayType DayType) []Band {
	var out []Band
	for _, b := range bs.Bands {
		if b.DayType == dayType {
			out = append(out, b)
		}
	}
	return out
}

// Summary describes the configured bands for list and detail views.
type Summary struct {
	ConfiguredHours map[Tier]decimal.Decimal
	TotalHours      decimal.Decimal
	RangeStart      float64
	RangeEnd        float64
	RangeDuration   float64
	BandCount       int
	Period          string
}

// Summarize totals configured band hours per tier and the overall time range.
func (bs BandSet) Summarize() Summary {
	s := Summary{
		ConfiguredHours: map[Tier]decimal.Decimal{},
		TotalHours:      decimal.Zero,
		BandCount:       len(bs.Bands),
		Period:          bs.Validity.Display(),
	}
	for _, t := range Tiers {
		s.ConfiguredHours[t] = decimal.Zero
	}
	if len(bs.Bands) == 0 {
		return s
	}

	s.RangeStart, s.RangeEnd = math.Inf(1), math.Inf(-1)
	for _, b := range bs.Bands {
		d := generic.Hours(b.Duration())
		s.ConfiguredHours[b.Tier] = s.ConfiguredHours[b.Tier].Add(d)
		s.TotalHours = s.TotalHours.Add(d)
		s.RangeStart = math.Min(s.RangeStart, b.Start)
		s.RangeEnd = math.Max(s.RangeEnd, b.End)
	}
	s.RangeDuration = s.RangeEnd - s.RangeStart
	return s
}
