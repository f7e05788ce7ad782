package maintenance

import (
	"fmt"
	"time"

	"github.com/warp/overtime-engine/generic"
)

// =============================================================================
// ASSET - Equipment that receives recurring maintenance
// =============================================================================

// AssetStatus is where an asset is in its lifecycle.
type AssetStatus string

const (
	AssetDraft         AssetStatus = "draft"
	AssetActive        AssetStatus = "active"
	AssetInMaintenance AssetStatus = "maintenance"
)

func (s AssetStatus) Valid() bool {
	switch s {
	case AssetDraft, AssetActive, AssetInMaintenance:
		return true
	}
	return false
}

// Condition is the physical state recorded on an asset.
type Condition string

const (
	ConditionNew         Condition = "new"
	ConditionGood        Condition = "good"
	ConditionMinorDamage Condition = "minor_damage"
	ConditionMajorDamage Condition = "major_damage"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionGood, ConditionMinorDamage, ConditionMajorDamage:
		return true
	}
	return false
}

// Asset is a piece of equipment with an optional maintenance recurrence.
//
// Schedule only means something while MaintenanceRequired is set; clearing
// the flag also clears the recurrence.
type Asset struct {
	ID                  generic.AssetID
	Name                string
	Code                string // serial number code
	Location            string
	ResponsibleID       generic.EmployeeID
	TeamID              generic.TeamID // default team for generated requests
	Status              AssetStatus
	Condition           Condition
	MaintenanceRequired bool
	Schedule            Schedule
	Notes               string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName falls back to the code, then to a placeholder.
func (a Asset) DisplayName() string {
	switch {
	case a.Name != "":
		return a.Name
	case a.Code != "":
		return a.Code
	default:
		return "Unnamed Asset"
	}
}

// HasRecurrence reports whether the schedule can produce due dates: a
// pattern, a start date and either an interval or an end date.
func (a Asset) HasRecurrence() bool {
	s := a.Schedule
	return s.Pattern != "" && s.Pattern != PatternNone && !s.Start.IsZero() && (s.Interval > 0 || !s.End.IsZero())
}

// NextMaintenance is the first due date on or after today. Only assets in
// maintenance with a recurrence have one.
func (a Asset) NextMaintenance(today generic.TimePoint) (generic.TimePoint, bool) {
	if a.Status != AssetInMaintenance || !a.HasRecurrence() {
		return generic.TimePoint{}, false
	}
	return a.Schedule.Next(today.AddDays(-1))
}

// Validate checks the fields an asset needs before it is stored.
func (a Asset) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("%w: asset name is required", generic.ErrInvalidInput)
	}
	if !a.Status.Valid() {
		return fmt.Errorf("%w: unknown asset status %q", generic.ErrInvalidInput, a.Status)
	}
	if !a.Condition.Valid() {
		return fmt.Errorf("%w: unknown asset condition %q", generic.ErrInvalidInput, a.Condition)
	}
	return a.Schedule.Validate()
}

// CheckDeletable only lets draft assets be deleted.
func (a Asset) CheckDeletable() error {
	if a.Status != AssetDraft {
		return fmt.Errorf("%w: cannot delete asset '%s' because it is %s, only draft assets can be deleted",
			generic.ErrConflict, a.DisplayName(), a.Status)
	}
	return nil
}

// setMaintenanceRequired updates the flag, dropping the recurrence when it
// is cleared.
func (a *Asset) setMaintenanceRequired(required bool) {
	a.MaintenanceRequired = required
	if !required {
		a.Schedule = Schedule{Pattern: PatternNone}
	}
}

func (a *Asset) normalize() {
	if a.Status == "" {
		a.Status = AssetDraft
	}
	if a.Condition == "" {
		a.Condition = ConditionNew
	}
	if a.Schedule.Pattern == "" {
		a.Schedule.Pattern = PatternNone
	}
	if !a.MaintenanceRequired {
		a.Schedule = Schedule{Pattern: PatternNone}
	}
}

// =============================================================================
// TEAM - People who carry out maintenance
// =============================================================================

// Team groups the employees who work on maintenance requests. Inactive
// teams are kept for history but cannot take new work.
type Team struct {
	ID      generic.TeamID
	Name    string
	Members []generic.EmployeeID
	Active  bool
}
