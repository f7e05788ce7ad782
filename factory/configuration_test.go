package factory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/factory"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

const standardJSON = `{
  "id": "ot-standard",
  "name": "Standard Overtime",
  "date_start": "2025-01-01",
  "date_end": "2025-12-31",
  "lines": [
    {"type": "ot1", "type_week": "weekday", "start_time": 17.0, "end_time": 20.0},
    {"type": "ot2", "type_week": "weekday", "start_time": 20.0, "end_time": 22.5},
    {"type": "ot1", "type_week": "off", "start_time": 8.0, "end_time": 17.0}
  ]
}`

func TestParseConfiguration(t *testing.T) {
	f := factory.NewConfigurationFactory()

	bs, err := f.ParseConfiguration(standardJSON)

	require.NoError(t, err)
	assert.Equal(t, generic.ConfigurationID("ot-standard"), bs.ID)
	assert.Equal(t, overtime.StatusDraft, bs.Status)
	assert.Equal(t, "2025-01-01", bs.Validity.Start.String())
	assert.Equal(t, "2025-12-31", bs.Validity.End.String())
	require.Len(t, bs.Bands, 3)
	assert.Equal(t, overtime.Band{Tier: overtime.TierOT2, DayType: overtime.DayWorking, Start: 20, End: 22.5}, bs.Bands[1])
	assert.Empty(t, overtime.Validate(bs))
}

func TestParseConfiguration_Errors(t *testing.T) {
	f := factory.NewConfigurationFactory()
	tests := []struct {
		name string
		json string
	}{
		{"not json", `{`},
		{"missing name", `{"date_start": "2025-01-01", "date_end": "2025-12-31"}`},
		{"bad date", `{"name": "x", "date_start": "01/01/2025", "date_end": "2025-12-31"}`},
		{"bad status", `{"name": "x", "date_start": "2025-01-01", "date_end": "2025-12-31", "status": "live"}`},
		{"bad tier", `{"name": "x", "date_start": "2025-01-01", "date_end": "2025-12-31", "lines": [{"type": "ot4", "type_week": "weekday", "start_time": 1, "end_time": 2}]}`},
		{"bad day type", `{"name": "x", "date_start": "2025-01-01", "date_end": "2025-12-31", "lines": [{"type": "ot1", "type_week": "holiday", "start_time": 1, "end_time": 2}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseConfiguration(tt.json)
			assert.ErrorIs(t, err, generic.ErrInvalidInput)
		})
	}
}

func TestParseConfiguration_KeepsStructuralIssuesForValidate(t *testing.T) {
	// overlapping bands parse fine; Validate reports them
	bs, err := factory.NewConfigurationFactory().ParseConfiguration(`{
	  "name": "Overlapping", "date_start": "2025-01-01", "date_end": "2025-12-31",
	  "lines": [
	    {"type": "ot1", "type_week": "weekday", "start_time": 17, "end_time": 21},
	    {"type": "ot2", "type_week": "weekday", "start_time": 20, "end_time": 22}
	  ]}`)

	require.NoError(t, err)
	assert.NotEmpty(t, overtime.Validate(bs))
}

func TestToJSON_RoundTrip(t *testing.T) {
	f := factory.NewConfigurationFactory()
	bs, err := f.ParseConfiguration(standardJSON)
	require.NoError(t, err)

	back, err := f.FromJSON(f.ToJSON(bs))

	require.NoError(t, err)
	assert.Equal(t, bs, back)
}

func TestParseConfigurations(t *testing.T) {
	list, err := factory.NewConfigurationFactory().ParseConfigurations([]byte("[" + standardJSON + "]"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Standard Overtime", list[0].Name)
}
