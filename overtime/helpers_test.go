package overtime_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// at builds an instant in the default reference zone (UTC+07:00).
func at(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, overtime.DefaultZone)
}

func year2025() generic.Period {
	return generic.Period{
		Start: generic.NewTimePoint(2025, time.January, 1),
		End:   generic.NewTimePoint(2025, time.December, 31),
	}
}

func band(tier overtime.Tier, dt overtime.DayType, start, end float64) overtime.Band {
	return overtime.Band{Tier: tier, DayType: dt, Start: start, End: end}
}

// standardConfig is an active configuration used across tests:
// weekday OT1 17-20, OT2 20-22, OT3 22-24; days off OT1 8-17, OT2 17-24.
func standardConfig() overtime.BandSet {
	return overtime.BandSet{
		ID:       "cfg-standard",
		Name:     "Standard Overtime",
		Validity: year2025(),
		Status:   overtime.StatusActive,
		Bands: []overtime.Band{
			band(overtime.TierOT1, overtime.DayWorking, 17, 20),
			band(overtime.TierOT2, overtime.DayWorking, 20, 22),
			band(overtime.TierOT3, overtime.DayWorking, 22, 24),
			band(overtime.TierOT1, overtime.DayOff, 8, 17),
			band(overtime.TierOT2, overtime.DayOff, 17, 24),
		},
	}
}

// assertHours compares a decimal against a 2-place string like "1.50".
func assertHours(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(generic.HoursPrecision), msgAndArgs...)
}
