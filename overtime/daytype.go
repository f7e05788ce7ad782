package overtime

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/overtime-engine/generic"
)

// =============================================================================
// WORK CALENDAR
// =============================================================================

// WorkCalendar lists the weekdays an employee has working time on. Holidays
// for the calendar are looked up through a generic.HolidayCalendar by ID.
type WorkCalendar struct {
	ID          string
	Name        string
	WorkingDays []time.Weekday
}

// HasWorkingTime reports whether the calendar has attendance on wd.
func (wc WorkCalendar) HasWorkingTime(wd time.Weekday) bool {
	for _, d := range wc.WorkingDays {
		if d == wd {
			return true
		}
	}
	return false
}

// =============================================================================
// FALLBACK POLICY - Day type when an employee has no work calendar
// =============================================================================

// FallbackPolicy names the rule used to classify a date when no work calendar
// is available. It is chosen explicitly in configuration.
type FallbackPolicy string

const (
	// FallbackMonFri treats Monday to Friday as working days and the weekend as off.
	FallbackMonFri FallbackPolicy = "mon_fri"
	// FallbackAllWorking treats every day as a working day.
	FallbackAllWorking FallbackPolicy = "all_working"
)

// ParseFallbackPolicy accepts the configured policy name; empty means FallbackMonFri.
func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch FallbackPolicy(s) {
	case "":
		return FallbackMonFri, nil
	case FallbackMonFri, FallbackAllWorking:
		return FallbackPolicy(s), nil
	default:
		return "", fmt.Errorf("%w: unknown day type fallback policy %q", generic.ErrInvalidInput, s)
	}
}

// DayType classifies date under the policy.
func (p FallbackPolicy) DayType(date generic.TimePoint) DayType {
	switch p {
	case FallbackAllWorking:
		return DayWorking
	default:
		if date.IsWorkday() {
			return DayWorking
		}
		return DayOff
	}
}

// =============================================================================
// RESOLVER
// =============================================================================

// DayTypeResolver resolves the day type of a request date for an employee.
// The calculator never calls it; callers resolve first and pass the result in.
type DayTypeResolver interface {
	ResolveDayType(ctx context.Context, employeeID generic.EmployeeID, date generic.TimePoint) (DayType, error)
}

// CalendarResolver resolves day types from the employee's work calendar and
// its holidays, falling back to Fallback when the employee has none.
type CalendarResolver struct {
	Employees EmployeeStore
	Holidays  generic.HolidayCalendar
	Fallback  FallbackPolicy
}

var _ DayTypeResolver = (*CalendarResolver)(nil)

func (r *CalendarResolver) ResolveDayType(ctx context.Context, employeeID generic.EmployeeID, date generic.TimePoint) (DayType, error) {
	emp, err := r.Employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return "", err
	}
	if emp.Calendar == nil {
		return r.Fallback.DayType(date), nil
	}
	return DayTypeOn(*emp.Calendar, r.Holidays, date), nil
}

// DayTypeOn classifies date on a work calendar: a holiday or a weekday
// without working time is a day off.
func DayTypeOn(cal WorkCalendar, holidays generic.HolidayCalendar, date generic.TimePoint) DayType {
	if holidays != nil && holidays.IsHoliday(cal.ID, date) {
		return DayOff
	}
	if cal.HasWorkingTime(date.Weekday()) {
		return DayWorking
	}
	return DayOff
}
