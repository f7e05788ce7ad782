package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
	"github.com/warp/overtime-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func configuration() overtime.BandSet {
	return overtime.BandSet{
		ID:   "cfg-1",
		Name: "Standard Overtime",
		Validity: generic.Period{
			Start: generic.NewTimePoint(2025, time.January, 1),
			End:   generic.NewTimePoint(2025, time.December, 31),
		},
		Status: overtime.StatusActive,
		Bands: []overtime.Band{
			{Tier: overtime.TierOT1, DayType: overtime.DayWorking, Start: 17, End: 20},
			{Tier: overtime.TierOT2, DayType: overtime.DayWorking, Start: 20, End: 22},
			{Tier: overtime.TierOT1, DayType: overtime.DayOff, Start: 8, End: 17.5},
		},
		CreatedAt: time.Date(2025, time.January, 2, 8, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, time.January, 2, 8, 0, 0, 0, time.UTC),
	}
}

func TestConfigurations(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	// GIVEN: a saved configuration
	require.NoError(t, store.SaveConfiguration(ctx, configuration()))

	// WHEN: it is read back
	got, err := store.GetConfiguration(ctx, "cfg-1")

	// THEN: bands keep their order and values
	require.NoError(t, err)
	assert.Equal(t, configuration(), got)

	// WHEN: saved again with fewer bands and a draft status
	updated := configuration()
	updated.Status = overtime.StatusDraft
	updated.Bands = updated.Bands[:1]
	updated.CreatedAt = time.Date(2025, time.February, 1, 8, 0, 0, 0, time.UTC)
	updated.UpdatedAt = time.Date(2025, time.February, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveConfiguration(ctx, updated))

	// THEN: the lines are replaced, not appended, and the creation time is kept
	got, err = store.GetConfiguration(ctx, "cfg-1")
	require.NoError(t, err)
	assert.Equal(t, overtime.StatusDraft, got.Status)
	assert.Len(t, got.Bands, 1)
	assert.Equal(t, configuration().CreatedAt, got.CreatedAt)
	assert.Equal(t, updated.UpdatedAt, got.UpdatedAt)

	other := configuration()
	other.ID, other.Name = "cfg-2", "Alpha"
	require.NoError(t, store.SaveConfiguration(ctx, other))

	list, err := store.ListConfigurations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alpha", list[0].Name)
	assert.Len(t, list[0].Bands, 3)

	require.NoError(t, store.DeleteConfiguration(ctx, "cfg-2"))
	_, err = store.GetConfiguration(ctx, "cfg-2")
	assert.ErrorIs(t, err, generic.ErrNotFound)
	assert.ErrorIs(t, store.DeleteConfiguration(ctx, "cfg-2"), generic.ErrNotFound)
}

func TestEmployees(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.SaveConfiguration(ctx, configuration()))

	cal := &overtime.WorkCalendar{ID: "cal-office", Name: "Office", WorkingDays: []time.Weekday{time.Monday, time.Tuesday}}
	require.NoError(t, store.SaveEmployee(ctx, overtime.Employee{ID: "emp-1", Name: "Dewi", ConfigurationID: "cfg-1", Calendar: cal}))
	require.NoError(t, store.SaveEmployee(ctx, overtime.Employee{ID: "emp-2", Name: "Budi"}))

	dewi, err := store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, generic.ConfigurationID("cfg-1"), dewi.ConfigurationID)
	require.NotNil(t, dewi.Calendar)
	assert.Equal(t, *cal, *dewi.Calendar)

	budi, err := store.GetEmployee(ctx, "emp-2")
	require.NoError(t, err)
	assert.Empty(t, budi.ConfigurationID)
	assert.Nil(t, budi.Calendar)

	list, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Budi", list[0].Name)

	_, err = store.GetEmployee(ctx, "emp-404")
	assert.ErrorIs(t, err, generic.ErrNotFound)

	// deleting the configuration unassigns it
	require.NoError(t, store.DeleteConfiguration(ctx, "cfg-1"))
	dewi, err = store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Empty(t, dewi.ConfigurationID)
}

func TestRequests(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.SaveEmployee(ctx, overtime.Employee{ID: "emp-1", Name: "Dewi"}))

	zone := overtime.DefaultZone
	computed := overtime.Request{
		ID:               "otr-1",
		Reference:        "OT/2025/00001",
		EmployeeID:       "emp-1",
		ConfigurationID:  "cfg-1",
		Start:            time.Date(2025, time.March, 10, 21, 0, 0, 0, zone),
		End:              time.Date(2025, time.March, 11, 3, 0, 0, 0, zone),
		Date:             generic.NewTimePoint(2025, time.March, 10),
		Description:      "release",
		IncludeInPayroll: true,
		Status:           overtime.RequestSubmitted,
		DayType:          overtime.DayWorking,
		TotalHours:       decimal.RequireFromString("6"),
		Breakdown: &overtime.Breakdown{
			ConfigurationID: "cfg-1",
			DayType:         overtime.DayWorking,
			RequestStart:    21,
			RequestEnd:      27,
			Segments:        []overtime.Segment{{Day: 0, Start: 21, End: 24}, {Day: 1, Start: 0, End: 3}},
			OT1:             decimal.RequireFromString("1"),
			OT2:             decimal.RequireFromString("2"),
			OT3:             decimal.RequireFromString("3"),
			Total:           decimal.RequireFromString("6"),
			Message:         "trace",
		},
		CalculationNote: "trace",
		CreatedAt:       time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt:       time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC),
	}
	skipped := overtime.Request{
		ID:              "otr-2",
		Reference:       "OT/2025/00002",
		EmployeeID:      "emp-1",
		Start:           time.Date(2025, time.April, 5, 9, 0, 0, 0, zone),
		End:             time.Date(2025, time.April, 5, 12, 0, 0, 0, zone),
		Date:            generic.NewTimePoint(2025, time.April, 5),
		Status:          overtime.RequestDraft,
		TotalHours:      decimal.RequireFromString("3"),
		CalculationNote: "No configuration assigned to employee",
	}
	require.NoError(t, store.SaveRequest(ctx, computed))
	require.NoError(t, store.SaveRequest(ctx, skipped))

	// GIVEN/WHEN: the computed request is read back
	got, err := store.GetRequest(ctx, "otr-1")

	// THEN: instants, decimals and the breakdown survive
	require.NoError(t, err)
	assert.True(t, computed.Start.Equal(got.Start))
	assert.True(t, computed.End.Equal(got.End))
	assert.True(t, computed.Date.Equal(got.Date))
	assert.Equal(t, "6.00", got.TotalHours.StringFixed(2))
	require.True(t, got.Computed())
	assert.Equal(t, "3.00", got.Breakdown.OT3.StringFixed(2))
	assert.Equal(t, "6.00", got.Breakdown.Total.StringFixed(2))
	assert.Equal(t, computed.Breakdown.Segments, got.Breakdown.Segments)
	assert.Equal(t, "trace", got.CalculationNote)

	got, err = store.GetRequest(ctx, "otr-2")
	require.NoError(t, err)
	assert.False(t, got.Computed())
	assert.Empty(t, got.ConfigurationID)

	// a second request may not reuse a reference
	dup := skipped
	dup.ID = "otr-3"
	assert.ErrorIs(t, store.SaveRequest(ctx, dup), generic.ErrConflict)

	// filters
	all, err := store.ListRequests(ctx, overtime.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, generic.RequestID("otr-2"), all[0].ID, "newest first")

	from := generic.NewTimePoint(2025, time.March, 1)
	to := generic.NewTimePoint(2025, time.March, 31)
	march, err := store.ListRequests(ctx, overtime.RequestFilter{
		EmployeeIDs: []generic.EmployeeID{"emp-1"},
		Statuses:    overtime.ReportableStatuses,
		From:        &from,
		To:          &to,
	})
	require.NoError(t, err)
	require.Len(t, march, 1)
	assert.Equal(t, generic.RequestID("otr-1"), march[0].ID)

	byCfg, err := store.ListRequests(ctx, overtime.RequestFilter{ConfigurationID: "cfg-1"})
	require.NoError(t, err)
	assert.Len(t, byCfg, 1)

	require.NoError(t, store.DeleteRequest(ctx, "otr-2"))
	assert.ErrorIs(t, store.DeleteRequest(ctx, "otr-2"), generic.ErrNotFound)
}

func TestHolidays(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.SaveHoliday(ctx, generic.Holiday{
		ID: "hol-1", CalendarID: "cal-office", Date: generic.NewTimePoint(2025, time.March, 12), Name: "Office closed",
	}))
	require.NoError(t, store.SaveHoliday(ctx, generic.Holiday{
		ID: "hol-2", Date: generic.NewTimePoint(2020, time.August, 17), Name: "Independence Day", Recurring: true,
	}))

	assert.True(t, store.IsHoliday("cal-office", generic.NewTimePoint(2025, time.March, 12)))
	assert.False(t, store.IsHoliday("cal-plant", generic.NewTimePoint(2025, time.March, 12)))
	assert.True(t, store.IsHoliday("cal-plant", generic.NewTimePoint(2026, time.August, 17)), "global recurring")
	assert.False(t, store.IsHoliday("cal-office", generic.NewTimePoint(2026, time.March, 12)))

	holidays := store.GetHolidays("cal-office", 2025)
	require.Len(t, holidays, 2)
	assert.Equal(t, "Office closed", holidays[0].Name)
	assert.Equal(t, 2025, holidays[1].Date.Year())

	list, err := store.ListHolidays(ctx, "")
	require.NoError(t, err)
	assert.Len(t, list, 2)
	list, err = store.ListHolidays(ctx, "cal-plant")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, store.DeleteHoliday(ctx, "hol-1"))
	assert.ErrorIs(t, store.DeleteHoliday(ctx, "hol-1"), generic.ErrNotFound)
}

func TestNextReference(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	for want := int64(1); want <= 3; want++ {
		n, err := store.NextReference(ctx, overtime.ReferenceCode, 2025)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	n, err := store.NextReference(ctx, overtime.ReferenceCode, 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "counters are per year")

	require.NoError(t, store.Reset(ctx))
	n, err = store.NextReference(ctx, overtime.ReferenceCode, 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
