/*
Package generic provides the calendar and quantity primitives shared by the
overtime engine.

KEY CONCEPTS IN THIS FILE (types.go):
  - Hours: durations as decimal.Decimal, rounded to 2 places for display and payroll
  - Typed identifiers: employees, configurations, overtime requests and
    the maintained assets, teams and maintenance requests

DESIGN PRINCIPLES:
  1. Precision: accumulated hours use decimal.Decimal, never float sums
  2. Type Safety: strong typing for IDs prevents mixing employee/configuration IDs

SEE ALSO:
  - time.go: TimePoint and holiday calendar
  - period.go: Validity windows
  - errors.go: Shared sentinel errors
*/
package generic

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// HOURS - Durations in hours
// =============================================================================

// HoursPrecision is the number of decimal places kept on reported hours.
const HoursPrecision = 2

// Hours converts a float hour value to a decimal.
func Hours(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// RoundHours rounds half away from zero to HoursPrecision places.
func RoundHours(d decimal.Decimal) decimal.Decimal {
	return d.Round(HoursPrecision)
}

// HoursFloat returns the float value of d for JSON output.
func HoursFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// SumHours adds all values.
func SumHours(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type ConfigurationID string
type RequestID string

type AssetID string
type TeamID string
type MaintenanceRequestID string

// NewID returns a prefixed random identifier, e.g. "cfg-3f2a...".
func NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
