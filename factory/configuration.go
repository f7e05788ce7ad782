/*
Package factory provides JSON to Go overtime configuration conversion.

PURPOSE:
  Converts JSON configuration definitions into overtime.BandSet values and
  back. HR can keep configurations as JSON (admin UI, version control,
  seed files) and the factory creates the Go structs the calculator uses.

JSON SCHEMA:
  {
    "id": "ot-standard",
    "name": "Standard Overtime",
    "date_start": "2025-01-01",
    "date_end": "2025-12-31",
    "status": "draft",
    "lines": [
      {"type": "ot1", "type_week": "weekday", "start_time": 17.0, "end_time": 20.0},
      {"type": "ot2", "type_week": "weekday", "start_time": 20.0, "end_time": 22.0},
      {"type": "ot1", "type_week": "off",     "start_time": 8.0,  "end_time": 17.0}
    ]
  }

  Times are hours of the day in the reference zone (17.5 = 17:30).
  status defaults to "draft". Structural band checks are left to
  overtime.Validate; the factory only rejects what cannot be parsed.

USAGE:
  f := NewConfigurationFactory()
  bs, err := f.ParseConfiguration(jsonString)

SEE ALSO:
  - overtime/types.go: BandSet and Band
  - overtime/validate.go: Structural checks
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ConfigurationJSON is the JSON representation of an overtime configuration.
type ConfigurationJSON struct {
	ID        string     `json:"id,omitempty"`
	Name      string     `json:"name"`
	DateStart string     `json:"date_start"`
	DateEnd   string     `json:"date_end"`
	Status    string     `json:"status,omitempty"`
	Lines     []LineJSON `json:"lines"`
}

// LineJSON is one overtime band.
type LineJSON struct {
	Type      string  `json:"type"`      // ot1, ot2, ot3
	TypeWeek  string  `json:"type_week"` // weekday, off
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// =============================================================================
// CONFIGURATION FACTORY
// =============================================================================

// ConfigurationFactory creates band sets from JSON definitions.
type ConfigurationFactory struct{}

func NewConfigurationFactory() *ConfigurationFactory {
	return &ConfigurationFactory{}
}

// ParseConfiguration parses a JSON string into a BandSet.
func (f *ConfigurationFactory) ParseConfiguration(jsonStr string) (overtime.BandSet, error) {
	var cj ConfigurationJSON
	if err := json.Unmarshal([]byte(jsonStr), &cj); err != nil {
		return overtime.BandSet{}, fmt.Errorf("%w: invalid configuration JSON: %v", generic.ErrInvalidInput, err)
	}
	return f.FromJSON(cj)
}

// ParseConfigurations parses a JSON array of configurations, e.g. a seed file.
func (f *ConfigurationFactory) ParseConfigurations(data []byte) ([]overtime.BandSet, error) {
	var list []ConfigurationJSON
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: invalid configuration list JSON: %v", generic.ErrInvalidInput, err)
	}
	out := make([]overtime.BandSet, 0, len(list))
	for i, cj := range list {
		bs, err := f.FromJSON(cj)
		if err != nil {
			return nil, fmt.Errorf("configuration %d: %w", i, err)
		}
		out = append(out, bs)
	}
	return out, nil
}

// FromJSON converts a ConfigurationJSON to a BandSet.
func (f *ConfigurationFactory) FromJSON(cj ConfigurationJSON) (overtime.BandSet, error) {
	if cj.Name == "" {
		return overtime.BandSet{}, fmt.Errorf("%w: configuration name is required", generic.ErrInvalidInput)
	}
	start, err := generic.ParseDate(cj.DateStart)
	if err != nil {
		return overtime.BandSet{}, fmt.Errorf("%w: date_start: %v", generic.ErrInvalidInput, err)
	}
	end, err := generic.ParseDate(cj.DateEnd)
	if err != nil {
		return overtime.BandSet{}, fmt.Errorf("%w: date_end: %v", generic.ErrInvalidInput, err)
	}

	status := overtime.StatusDraft
	if cj.Status != "" {
		status = overtime.Status(cj.Status)
		if !status.Valid() {
			return overtime.BandSet{}, fmt.Errorf("%w: unknown status %q", generic.ErrInvalidInput, cj.Status)
		}
	}

	bs := overtime.BandSet{
		ID:       generic.ConfigurationID(cj.ID),
		Name:     cj.Name,
		Validity: generic.Period{Start: start, End: end},
		Status:   status,
		Bands:    make([]overtime.Band, 0, len(cj.Lines)),
	}
	for i, lj := range cj.Lines {
		b, err := parseLine(lj)
		if err != nil {
			return overtime.BandSet{}, fmt.Errorf("line %d: %w", i, err)
		}
		bs.Bands = append(bs.Bands, b)
	}
	return bs, nil
}

// ToJSON converts a BandSet back to its JSON representation.
func (f *ConfigurationFactory) ToJSON(bs overtime.BandSet) ConfigurationJSON {
	cj := ConfigurationJSON{
		ID:     string(bs.ID),
		Name:   bs.Name,
		Status: string(bs.Status),
		Lines:  make([]LineJSON, len(bs.Bands)),
	}
	if !bs.Validity.Start.IsZero() {
		cj.DateStart = bs.Validity.Start.String()
	}
	if !bs.Validity.End.IsZero() {
		cj.DateEnd = bs.Validity.End.String()
	}
	for i, b := range bs.Bands {
		cj.Lines[i] = LineJSON{Type: string(b.Tier), TypeWeek: string(b.DayType), StartTime: b.Start, EndTime: b.End}
	}
	return cj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseLine(lj LineJSON) (overtime.Band, error) {
	tier := overtime.Tier(lj.Type)
	if !tier.Valid() {
		return overtime.Band{}, fmt.Errorf("%w: unknown overtime type %q (use ot1, ot2 or ot3)", generic.ErrInvalidInput, lj.Type)
	}
	dayType := overtime.DayType(lj.TypeWeek)
	if !dayType.Valid() {
		return overtime.Band{}, fmt.Errorf("%w: unknown day type %q (use weekday or off)", generic.ErrInvalidInput, lj.TypeWeek)
	}
	return overtime.Band{Tier: tier, DayType: dayType, Start: lj.StartTime, End: lj.EndTime}, nil
}
