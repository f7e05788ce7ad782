package overtime

import (
	"fmt"

	"github.com/warp/overtime-engine/generic"
)

// IsApplicable decides whether bs may be used for a request dated requestDate
// whose day type the caller has already resolved. The reason is suitable for
// showing to the user in both outcomes.
func IsApplicable(bs BandSet, requestDate generic.TimePoint, dayType DayType) (bool, string) {
	if bs.Status != StatusActive {
		return false, fmt.Sprintf("Configuration status is %s, must be 'active'", bs.Status)
	}
	if len(bs.Bands) == 0 {
		return false, "Configuration has no overtime lines"
	}
	if issues := Validate(bs); len(issues) > 0 {
		return false, fmt.Sprintf("Configuration has invalid sequence (%d issue(s)): %s", len(issues), issues[0].Message)
	}
	if !bs.Validity.Contains(requestDate) {
		return false, fmt.Sprintf("Request date %s is outside rule period (%s to %s)",
			requestDate, bs.Validity.Start, bs.Validity.End)
	}
	if len(bs.BandsFor(dayType)) == 0 {
		return false, fmt.Sprintf("No overtime lines configured for day type '%s'", dayType.Label())
	}
	return true, fmt.Sprintf("Rule is applicable for %s", dayType)
}

// CheckApplicable is IsApplicable returning a *NotApplicableError on failure.
func CheckApplicable(bs BandSet, requestDate generic.TimePoint, dayType DayType) error {
	if ok, reason := IsApplicable(bs, requestDate, dayType); !ok {
		return &NotApplicableError{Reason: reason}
	}
	return nil
}
