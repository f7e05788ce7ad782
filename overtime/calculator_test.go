package overtime_test

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// DECOMPOSITION
// =============================================================================

func TestCompute_CrossMidnight(t *testing.T) {
	// GIVEN: OT1 22:00-24:00 and OT2 00:00-05:00 on working days
	bs := overtime.BandSet{
		ID:       "cfg-night",
		Name:     "Night",
		Validity: year2025(),
		Status:   overtime.StatusActive,
		Bands: []overtime.Band{
			band(overtime.TierOT1, overtime.DayWorking, 22, 24),
			band(overtime.TierOT2, overtime.DayWorking, 0, 5),
		},
	}
	calc := overtime.NewCalculator(nil)

	// WHEN: a request runs from 23:00 to 02:00 the next day
	b, err := calc.Compute(bs, overtime.DayWorking, at(2025, time.March, 10, 23, 0), at(2025, time.March, 11, 2, 0))
	require.NoError(t, err)

	// THEN: one hour before midnight, two after
	assertHours(t, "1.00", b.OT1)
	assertHours(t, "2.00", b.OT2)
	assertHours(t, "0.00", b.OT3)
	assertHours(t, "3.00", b.Total)
	assert.Equal(t, 23.0, b.RequestStart)
	assert.Equal(t, 26.0, b.RequestEnd)
	require.Len(t, b.Segments, 2)
	assert.Equal(t, overtime.Segment{Day: 0, Start: 23, End: 24}, b.Segments[0])
	assert.Equal(t, overtime.Segment{Day: 1, Start: 0, End: 2}, b.Segments[1])
	assert.Contains(t, b.Message, "Cross-day adjusted (+1 day(s))")
}

func TestCompute_MultiDaySpan(t *testing.T) {
	// GIVEN: the standard working-day bands
	bs := standardConfig()
	calc := overtime.NewCalculator(nil)

	// WHEN: a request runs from Monday 22:00 to Wednesday 01:00
	b, err := calc.Compute(bs, overtime.DayWorking, at(2025, time.March, 10, 22, 0), at(2025, time.March, 12, 1, 0))
	require.NoError(t, err)

	// THEN: the bands repeat on every day touched
	require.Len(t, b.Segments, 3)
	assert.Equal(t, overtime.Segment{Day: 2, Start: 0, End: 1}, b.Segments[2])
	assertHours(t, "3.00", b.OT1)
	assertHours(t, "2.00", b.OT2)
	assertHours(t, "4.00", b.OT3)
	assertHours(t, "9.00", b.Total)
	assert.Contains(t, b.Message, "Cross-day adjusted (+2 day(s))")
}

func TestCompute_RoundsEachTierBeforeSumming(t *testing.T) {
	// GIVEN: three consecutive 20-minute bands
	third := 1.0 / 3
	bs := overtime.BandSet{
		ID:       "cfg-thirds",
		Name:     "Thirds",
		Validity: year2025(),
		Status:   overtime.StatusActive,
		Bands: []overtime.Band{
			band(overtime.TierOT1, overtime.DayWorking, 17, 17+third),
			band(overtime.TierOT2, overtime.DayWorking, 17+third, 17+2*third),
			band(overtime.TierOT3, overtime.DayWorking, 17+2*third, 18),
		},
	}
	require.Empty(t, overtime.Validate(bs))

	// WHEN: a request covers the whole hour
	b, err := overtime.NewCalculator(nil).Calculate(bs, overtime.DayWorking, at(2025, time.March, 10, 17, 0), at(2025, time.March, 10, 18, 0))
	require.NoError(t, err)

	// THEN: each tier is 0.33 and the total is their sum, not 1.00
	assertHours(t, "0.33", b.OT1)
	assertHours(t, "0.33", b.OT2)
	assertHours(t, "0.33", b.OT3)
	assertHours(t, "0.99", b.Total)
}

func TestCompute_Idempotent(t *testing.T) {
	bs := standardConfig()
	calc := overtime.NewCalculator(nil)
	start, end := at(2025, time.March, 10, 16, 0), at(2025, time.March, 10, 23, 30)

	first, err := calc.Compute(bs, overtime.DayWorking, start, end)
	require.NoError(t, err)
	second, err := calc.Compute(bs, overtime.DayWorking, start, end)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, standardConfig(), bs, "configuration must not be mutated")
}

func TestCompute_NoDoubleCounting(t *testing.T) {
	// GIVEN: non-overlapping bands and a request covering all of them
	bs := standardConfig()

	b, err := overtime.NewCalculator(nil).Compute(bs, overtime.DayWorking, at(2025, time.March, 10, 16, 0), at(2025, time.March, 10, 23, 30))
	require.NoError(t, err)

	// THEN: the per-band overlaps add up to the tier totals
	assertHours(t, "3.00", b.OT1)
	assertHours(t, "2.00", b.OT2)
	assertHours(t, "1.50", b.OT3)
	assertHours(t, "6.50", b.Total)

	require.Len(t, b.Overlaps, 3)
	sum := b.Overlaps[0].Hours.Add(b.Overlaps[1].Hours).Add(b.Overlaps[2].Hours)
	assertHours(t, "6.50", sum)
	for _, o := range b.Overlaps {
		assertHours(t, b.Hours(o.Band.Tier).StringFixed(2), o.Hours, "band %s", o.Band)
	}
}

func TestCompute_HalfOpenBoundary(t *testing.T) {
	// GIVEN: OT1 17:00-18:00 directly followed by OT2 18:00-20:00
	bs := overtime.BandSet{
		ID:       "cfg-adjacent",
		Name:     "Adjacent",
		Validity: year2025(),
		Status:   overtime.StatusActive,
		Bands: []overtime.Band{
			band(overtime.TierOT1, overtime.DayWorking, 17, 18),
			band(overtime.TierOT2, overtime.DayWorking, 18, 20),
		},
	}
	calc := overtime.NewCalculator(nil)

	// WHEN: a request starts exactly where OT1 ends
	b, err := calc.Compute(bs, overtime.DayWorking, at(2025, time.March, 10, 18, 0), at(2025, time.March, 10, 19, 0))
	require.NoError(t, err)

	// THEN: the shared boundary belongs to OT2 only
	assertHours(t, "0.00", b.OT1)
	assertHours(t, "1.00", b.OT2)
	assertHours(t, "1.00", b.Total)
	assert.Contains(t, b.Message, "OT1(17.00-18.00): 0h (no overlap)")

	// WHEN: a request ends exactly where OT1 starts
	b, err = calc.Compute(bs, overtime.DayWorking, at(2025, time.March, 10, 16, 0), at(2025, time.March, 10, 17, 0))
	require.NoError(t, err)

	// THEN: nothing is counted
	assertHours(t, "0.00", b.Total)
}

func TestCompute_ZoneOffsetChangeKeepsElapsedTime(t *testing.T) {
	// GIVEN: a calculator reading instants in a zone that springs forward at 02:00
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	bs := overtime.BandSet{
		ID:       "cfg-all-day",
		Name:     "All day",
		Validity: year2025(),
		Status:   overtime.StatusActive,
		Bands:    []overtime.Band{band(overtime.TierOT1, overtime.DayOff, 0, 24)},
	}
	calc := overtime.NewCalculator(ny)

	// WHEN: a one hour request spans the change (01:30 EST to 03:30 EDT)
	start := time.Date(2025, time.March, 9, 1, 30, 0, 0, ny)
	end := start.Add(time.Hour)
	b, err := calc.Compute(bs, overtime.DayOff, start, end)
	require.NoError(t, err)

	// THEN: one hour is counted, not the two hours of wall-clock difference
	assertHours(t, "1.00", b.OT1)
	assertHours(t, "1.00", b.Total)
	assert.Equal(t, 1.5, b.RequestStart)
	assert.Equal(t, 2.5, b.RequestEnd)
}

func TestCompute_OutsideEveryBandIsZero(t *testing.T) {
	b, err := overtime.NewCalculator(nil).Compute(standardConfig(), overtime.DayWorking, at(2025, time.March, 10, 9, 0), at(2025, time.March, 10, 12, 0))
	require.NoError(t, err)

	assertHours(t, "0.00", b.Total)
	assert.Contains(t, b.Message, "0h (no overlap)")
}

func TestCompute_ReadsInstantsInReferenceZone(t *testing.T) {
	// 10:00 UTC is 17:00 in UTC+07:00
	start := time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	b, err := overtime.NewCalculator(nil).Compute(standardConfig(), overtime.DayWorking, start, end)
	require.NoError(t, err)

	assertHours(t, "2.00", b.OT1)
	assert.Contains(t, b.Message, "StartDT: 2025-03-10 10:00:00")
	assert.Contains(t, b.Message, "StartDT_Local: 2025-03-10 17:00:00")
}

func TestCompute_TraceMessage(t *testing.T) {
	b, err := overtime.NewCalculator(nil).Compute(standardConfig(), overtime.DayWorking, at(2025, time.March, 10, 18, 0), at(2025, time.March, 10, 21, 0))
	require.NoError(t, err)

	assert.Contains(t, b.Message, "Rule: Standard Overtime")
	assert.Contains(t, b.Message, "Request: 18.00-21.00")
	assert.Contains(t, b.Message, "OT1(17.00-20.00): d0 overlap(18.00-20.00)")
	assert.Contains(t, b.Message, "Result: OT1:2.00h OT2:1.00h OT3:0.00h Total:3.00h")
	assert.Equal(t, "OT1:2.00h OT2:1.00h OT3:0.00h", b.Summary())
}

func TestCompute_DayTypeWithoutBands(t *testing.T) {
	bs := standardConfig()
	bs.Bands = bs.BandsFor(overtime.DayWorking)

	_, err := overtime.NewCalculator(nil).Compute(bs, overtime.DayOff, at(2025, time.March, 15, 9, 0), at(2025, time.March, 15, 10, 0))

	assert.ErrorIs(t, err, overtime.ErrRuleNotApplicable)
}

// =============================================================================
// GUARDED CALCULATION
// =============================================================================

func TestCalculate_DraftConfigurationIsNotApplied(t *testing.T) {
	// GIVEN: a draft configuration
	bs := standardConfig()
	bs.Status = overtime.StatusDraft

	// WHEN: calculating
	b, err := overtime.NewCalculator(nil).Calculate(bs, overtime.DayWorking, at(2025, time.March, 10, 18, 0), at(2025, time.March, 10, 21, 0))

	// THEN: no breakdown, and the reason mentions the status
	require.ErrorIs(t, err, overtime.ErrRuleNotApplicable)
	var na *overtime.NotApplicableError
	require.True(t, errors.As(err, &na))
	assert.Contains(t, na.Reason, "status")
	assert.Empty(t, b.Message)
	assert.Nil(t, b.Segments)
}

func TestCalculate_MalformedInterval(t *testing.T) {
	calc := overtime.NewCalculator(nil)

	_, err := calc.Calculate(standardConfig(), overtime.DayWorking, at(2025, time.March, 10, 21, 0), at(2025, time.March, 10, 18, 0))
	assert.ErrorIs(t, err, overtime.ErrMalformedInterval)

	_, err = calc.Calculate(standardConfig(), overtime.DayWorking, at(2025, time.March, 10, 18, 0), at(2025, time.March, 10, 18, 0))
	assert.ErrorIs(t, err, overtime.ErrMalformedInterval)

	_, err = calc.Calculate(standardConfig(), overtime.DayWorking, time.Time{}, at(2025, time.March, 10, 18, 0))
	assert.ErrorIs(t, err, overtime.ErrMalformedInterval)
}

func TestCalculate_OutsideValidity(t *testing.T) {
	_, err := overtime.NewCalculator(nil).Calculate(standardConfig(), overtime.DayWorking, at(2026, time.January, 5, 18, 0), at(2026, time.January, 5, 19, 0))

	require.ErrorIs(t, err, overtime.ErrRuleNotApplicable)
	assert.Contains(t, err.Error(), "outside rule period (2025-01-01 to 2025-12-31)")
}

func TestNormalize(t *testing.T) {
	calc := overtime.NewCalculator(nil)

	from, to, crossed := calc.Normalize(at(2025, time.March, 10, 17, 30), at(2025, time.March, 10, 18, 45))
	assert.Equal(t, 17.5, from)
	assert.Equal(t, 18.75, to)
	assert.Equal(t, 0, crossed)

	from, to, crossed = calc.Normalize(at(2025, time.March, 10, 23, 0), at(2025, time.March, 11, 0, 0))
	assert.Equal(t, 23.0, from)
	assert.Equal(t, 24.0, to)
	assert.Equal(t, 1, crossed)

	// ending later in the day than it started, one day on
	from, to, crossed = calc.Normalize(at(2025, time.March, 10, 22, 0), at(2025, time.March, 11, 23, 0))
	assert.Equal(t, 22.0, from)
	assert.Equal(t, 47.0, to)
	assert.Equal(t, 1, crossed)
}

func TestRequestDate_UsesReferenceZone(t *testing.T) {
	// 20:00 UTC on the 10th is already the 11th in UTC+07:00
	d := overtime.NewCalculator(nil).RequestDate(time.Date(2025, time.March, 10, 20, 0, 0, 0, time.UTC))
	assert.Equal(t, "2025-03-11", d.String())

	utc := overtime.NewCalculator(time.UTC).RequestDate(time.Date(2025, time.March, 10, 20, 0, 0, 0, time.UTC))
	assert.Equal(t, "2025-03-10", utc.String())
}
