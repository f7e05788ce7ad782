package overtime_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

func issueCodes(issues []overtime.Issue) []overtime.IssueCode {
	codes := make([]overtime.IssueCode, len(issues))
	for i, is := range issues {
		codes[i] = is.Code
	}
	return codes
}

// =============================================================================
// VALIDATE
// =============================================================================

func TestValidate_StandardConfigurationIsClean(t *testing.T) {
	assert.Empty(t, overtime.Validate(standardConfig()))
	assert.NoError(t, overtime.CheckValid(standardConfig()))
}

func TestValidate_NoBands(t *testing.T) {
	issues := overtime.Validate(overtime.BandSet{Name: "Empty"})

	require.Len(t, issues, 1)
	assert.Equal(t, overtime.IssueNoBands, issues[0].Code)
}

func TestValidate_TierOrdering(t *testing.T) {
	// GIVEN: OT2 starting at 10:00 and OT3 starting at 9:00 on the same day type
	bs := overtime.BandSet{Name: "Backwards", Bands: []overtime.Band{
		band(overtime.TierOT2, overtime.DayWorking, 10, 12),
		band(overtime.TierOT3, overtime.DayWorking, 9, 10),
	}}

	// WHEN
	issues := overtime.Validate(bs)

	// THEN: one ordering issue naming OT2 and OT3
	require.Len(t, issues, 1)
	assert.Equal(t, overtime.IssueTierOrder, issues[0].Code)
	assert.Equal(t, overtime.DayWorking, issues[0].DayType)
	assert.Equal(t, "[Working Days] OT2 start time (10.00) must be earlier than OT3 start time (9.00)", issues[0].Message)
}

func TestValidate_OrderingIsPerDayType(t *testing.T) {
	// OT2 before OT1 is fine when they belong to different day types
	bs := overtime.BandSet{Name: "Split", Bands: []overtime.Band{
		band(overtime.TierOT1, overtime.DayWorking, 18, 20),
		band(overtime.TierOT2, overtime.DayOff, 8, 12),
	}}

	assert.Empty(t, overtime.Validate(bs))
}

func TestValidate_Overlaps(t *testing.T) {
	tests := []struct {
		name  string
		bands []overtime.Band
		want  []overtime.IssueCode
	}{
		{
			name: "adjacent bands do not overlap",
			bands: []overtime.Band{
				band(overtime.TierOT1, overtime.DayWorking, 17, 20),
				band(overtime.TierOT2, overtime.DayWorking, 20, 22),
			},
			want: nil,
		},
		{
			name: "different tiers overlapping",
			bands: []overtime.Band{
				band(overtime.TierOT1, overtime.DayWorking, 17, 21),
				band(overtime.TierOT2, overtime.DayWorking, 20, 22),
			},
			want: []overtime.IssueCode{overtime.IssueTierOverlap},
		},
		{
			name: "same tier overlapping",
			bands: []overtime.Band{
				band(overtime.TierOT1, overtime.DayWorking, 17, 19),
				band(overtime.TierOT1, overtime.DayWorking, 18, 20),
			},
			want: []overtime.IssueCode{overtime.IssueSameTierOverlap},
		},
		{
			name: "same range on different day types",
			bands: []overtime.Band{
				band(overtime.TierOT1, overtime.DayWorking, 17, 20),
				band(overtime.TierOT1, overtime.DayOff, 17, 20),
			},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := overtime.Validate(overtime.BandSet{Name: tt.name, Bands: tt.bands})
			if tt.want == nil {
				assert.Empty(t, issues)
				return
			}
			assert.Equal(t, tt.want, issueCodes(issues))
		})
	}
}

func TestValidate_Ranges(t *testing.T) {
	tests := []struct {
		name string
		band overtime.Band
	}{
		{"start after end", band(overtime.TierOT1, overtime.DayWorking, 20, 18)},
		{"negative start", band(overtime.TierOT1, overtime.DayWorking, -1, 5)},
		{"end past midnight", band(overtime.TierOT1, overtime.DayWorking, 22, 25)},
		{"empty band", band(overtime.TierOT1, overtime.DayWorking, 12, 12)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := overtime.Validate(overtime.BandSet{Name: tt.name, Bands: []overtime.Band{tt.band}})
			require.NotEmpty(t, issues)
			assert.Contains(t, issueCodes(issues), overtime.IssueRange)
		})
	}
}

func TestValidate_UnknownTierAndDayType(t *testing.T) {
	issues := overtime.Validate(overtime.BandSet{Name: "Odd", Bands: []overtime.Band{
		{Tier: "ot4", DayType: "holiday", Start: 8, End: 9},
	}})

	assert.Equal(t, []overtime.IssueCode{overtime.IssueUnknownTier, overtime.IssueUnknownDayType}, issueCodes(issues))
}

func TestValidate_DoesNotMutate(t *testing.T) {
	bs := overtime.BandSet{Name: "Unsorted", Bands: []overtime.Band{
		band(overtime.TierOT3, overtime.DayWorking, 22, 24),
		band(overtime.TierOT1, overtime.DayWorking, 17, 20),
	}}
	before := append([]overtime.Band(nil), bs.Bands...)

	overtime.Validate(bs)
	overtime.Validate(bs)

	assert.Equal(t, before, bs.Bands)
}

func TestCheckValid_ReturnsAllIssues(t *testing.T) {
	bs := overtime.BandSet{Name: "Broken", Bands: []overtime.Band{
		band(overtime.TierOT2, overtime.DayWorking, 10, 12),
		band(overtime.TierOT3, overtime.DayWorking, 9, 11),
	}}

	err := overtime.CheckValid(bs)

	require.ErrorIs(t, err, overtime.ErrConfigurationInvalid)
	var invalid *overtime.ConfigurationInvalidError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "Broken", invalid.Name)
	assert.Equal(t, []overtime.IssueCode{overtime.IssueTierOrder, overtime.IssueTierOverlap}, issueCodes(invalid.Issues))
	assert.True(t, overtime.IsRuleError(err))
}

// =============================================================================
// APPLICABILITY
// =============================================================================

func TestIsApplicable(t *testing.T) {
	monday := generic.NewTimePoint(2025, time.March, 10)

	draft := standardConfig()
	draft.Status = overtime.StatusDraft

	empty := standardConfig()
	empty.Bands = nil

	broken := standardConfig()
	broken.Bands = append(broken.Bands, band(overtime.TierOT1, overtime.DayWorking, 19, 21))

	workingOnly := standardConfig()
	workingOnly.Bands = workingOnly.BandsFor(overtime.DayWorking)

	tests := []struct {
		name    string
		bs      overtime.BandSet
		date    generic.TimePoint
		dayType overtime.DayType
		ok      bool
		reason  string
	}{
		{"active and in period", standardConfig(), monday, overtime.DayWorking, true, "Rule is applicable for weekday"},
		{"draft", draft, monday, overtime.DayWorking, false, "Configuration status is draft, must be 'active'"},
		{"no bands", empty, monday, overtime.DayWorking, false, "Configuration has no overtime lines"},
		{"invalid sequence", broken, monday, overtime.DayWorking, false, "Configuration has invalid sequence (2 issue(s))"},
		{"before period", standardConfig(), generic.NewTimePoint(2024, time.December, 31), overtime.DayWorking, false, "Request date 2024-12-31 is outside rule period (2025-01-01 to 2025-12-31)"},
		{"last day of period", standardConfig(), generic.NewTimePoint(2025, time.December, 31), overtime.DayWorking, true, "Rule is applicable for weekday"},
		{"no bands for day type", workingOnly, monday, overtime.DayOff, false, "No overtime lines configured for day type 'Days Off'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := overtime.IsApplicable(tt.bs, tt.date, tt.dayType)
			assert.Equal(t, tt.ok, ok)
			assert.Contains(t, reason, tt.reason)

			err := overtime.CheckApplicable(tt.bs, tt.date, tt.dayType)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, overtime.ErrRuleNotApplicable)
			}
		})
	}
}
