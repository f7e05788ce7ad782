package maintenance_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/maintenance"
)

func date(y int, m time.Month, d int) generic.TimePoint {
	return generic.NewTimePoint(y, m, d)
}

func dates(points []generic.TimePoint) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.String()
	}
	return out
}

func TestOccurrences(t *testing.T) {
	tests := []struct {
		name     string
		schedule maintenance.Schedule
		limit    int
		want     []string
	}{
		{
			name:     "daily every 2 days until end",
			schedule: maintenance.Schedule{Pattern: maintenance.PatternDaily, Start: date(2025, 3, 1), Interval: 2, End: date(2025, 3, 7)},
			want:     []string{"2025-03-01", "2025-03-03", "2025-03-05", "2025-03-07"},
		},
		{
			name:     "weekly limited",
			schedule: maintenance.Schedule{Pattern: maintenance.PatternWeekly, Start: date(2025, 3, 3)},
			limit:    3,
			want:     []string{"2025-03-03", "2025-03-10", "2025-03-17"},
		},
		{
			name:     "monthly clamps to month end without drifting",
			schedule: maintenance.Schedule{Pattern: maintenance.PatternMonthly, Start: date(2025, 1, 31), End: date(2025, 4, 30)},
			want:     []string{"2025-01-31", "2025-02-28", "2025-03-31", "2025-04-30"},
		},
		{
			name:     "quarterly across the year end",
			schedule: maintenance.Schedule{Pattern: maintenance.PatternMonthly, Start: date(2025, 11, 15), Interval: 3},
			limit:    3,
			want:     []string{"2025-11-15", "2026-02-15", "2026-05-15"},
		},
		{
			name:     "yearly from leap day",
			schedule: maintenance.Schedule{Pattern: maintenance.PatternYearly, Start: date(2024, 2, 29)},
			limit:    2,
			want:     []string{"2024-02-29", "2025-02-28"},
		},
		{
			name:     "no recurrence",
			schedule: maintenance.Schedule{Pattern: maintenance.PatternNone, Start: date(2025, 3, 1)},
			want:     []string{"2025-03-01"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.schedule.Occurrences(tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, dates(got))
		})
	}
}

func TestOccurrences_DefaultLimit(t *testing.T) {
	got, err := maintenance.Schedule{Pattern: maintenance.PatternDaily, Start: date(2025, 1, 1)}.Occurrences(0)
	require.NoError(t, err)
	assert.Len(t, got, maintenance.DefaultLimit)
}

func TestValidate(t *testing.T) {
	_, err := maintenance.Schedule{Pattern: "hourly", Start: date(2025, 1, 1)}.Occurrences(1)
	assert.ErrorIs(t, err, generic.ErrInvalidInput)

	_, err = maintenance.Schedule{Pattern: maintenance.PatternDaily}.Occurrences(1)
	assert.ErrorIs(t, err, generic.ErrInvalidInput)

	_, err = maintenance.Schedule{Pattern: maintenance.PatternDaily, Start: date(2025, 2, 1), End: date(2025, 1, 1)}.Occurrences(1)
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)
}

func TestNext(t *testing.T) {
	monthly := maintenance.Schedule{Pattern: maintenance.PatternMonthly, Start: date(2025, 1, 31), Interval: 1, End: date(2025, 6, 30)}

	next, ok := monthly.Next(date(2024, 12, 1))
	require.True(t, ok)
	assert.Equal(t, "2025-01-31", next.String())

	next, ok = monthly.Next(date(2025, 1, 31))
	require.True(t, ok)
	assert.Equal(t, "2025-02-28", next.String())

	next, ok = monthly.Next(date(2025, 4, 10))
	require.True(t, ok)
	assert.Equal(t, "2025-04-30", next.String())

	next, ok = monthly.Next(date(2025, 6, 1))
	require.True(t, ok)
	assert.Equal(t, "2025-06-30", next.String())

	_, ok = monthly.Next(date(2025, 6, 30))
	assert.False(t, ok, "schedule ended")

	weekly := maintenance.Schedule{Pattern: maintenance.PatternWeekly, Start: date(2025, 3, 3), Interval: 2}
	next, ok = weekly.Next(date(2025, 3, 20))
	require.True(t, ok)
	assert.Equal(t, "2025-03-31", next.String())

	_, ok = maintenance.Schedule{Pattern: maintenance.PatternNone, Start: date(2025, 3, 3)}.Next(date(2025, 1, 1))
	assert.False(t, ok)
}

// Interval is the distance between due dates, never a count of dates or a
// length of a single event.
func TestOccurrences_DailyIntervalIsStep(t *testing.T) {
	// GIVEN a daily schedule every 2 days bounded by an end date
	bounded := maintenance.Schedule{Pattern: maintenance.PatternDaily, Start: date(2025, 3, 1), Interval: 2, End: date(2025, 3, 8)}

	// WHEN listing its dates
	got, err := bounded.Occurrences(0)

	// THEN dates step by 2 and stop at the end
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-01", "2025-03-03", "2025-03-05", "2025-03-07"}, dates(got))

	// GIVEN an open-ended schedule every 3 days
	open := maintenance.Schedule{Pattern: maintenance.PatternDaily, Start: date(2025, 3, 1), Interval: 3}

	// THEN the limit caps the count and the interval still sets the step
	got, err = open.Occurrences(3)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-01", "2025-03-04", "2025-03-07"}, dates(got))

	next, ok := open.Next(date(2025, 3, 4))
	require.True(t, ok)
	assert.Equal(t, "2025-03-07", next.String())
}
