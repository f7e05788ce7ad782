package overtime_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

func TestBuildReport(t *testing.T) {
	// GIVEN: two computed requests for one employee and an uncomputed one for another
	period := generic.Period{
		Start: generic.NewTimePoint(2025, time.March, 1),
		End:   generic.NewTimePoint(2025, time.March, 31),
	}
	h := decimal.RequireFromString
	requests := []overtime.Request{
		{ID: "otr-2", EmployeeID: "emp-b", Status: overtime.RequestApproved, TotalHours: h("3"),
			Breakdown: &overtime.Breakdown{OT1: h("2"), OT2: h("1"), OT3: decimal.Zero, Total: h("3")}},
		{ID: "otr-1", EmployeeID: "emp-b", Status: overtime.RequestSubmitted, TotalHours: h("1.5"),
			Breakdown: &overtime.Breakdown{OT1: decimal.Zero, OT2: decimal.Zero, OT3: h("1.5"), Total: h("1.5")}},
		{ID: "otr-3", EmployeeID: "emp-a", Status: overtime.RequestRejected, TotalHours: h("2"),
			CalculationNote: "No configuration assigned to employee"},
	}
	names := map[generic.EmployeeID]string{"emp-a": "Ayu", "emp-b": "Bagus"}

	// WHEN
	rep := overtime.BuildReport(period, requests, names)

	// THEN: rows keep input order, totals are per employee sorted by ID
	require.Len(t, rep.Rows, 3)
	assert.Equal(t, "Bagus", rep.Rows[0].EmployeeName)
	assert.False(t, rep.Rows[2].Computed)
	assertHours(t, "0.00", rep.Rows[2].Overtime)

	require.Len(t, rep.Totals, 2)
	assert.Equal(t, generic.EmployeeID("emp-a"), rep.Totals[0].EmployeeID)
	assert.Equal(t, 1, rep.Totals[0].Requests)
	assertHours(t, "2.00", rep.Totals[0].TotalHours)
	assertHours(t, "0.00", rep.Totals[0].Overtime)

	b := rep.Totals[1]
	assert.Equal(t, "Bagus", b.EmployeeName)
	assert.Equal(t, 2, b.Requests)
	assertHours(t, "2.00", b.OT1)
	assertHours(t, "1.00", b.OT2)
	assertHours(t, "1.50", b.OT3)
	assertHours(t, "4.50", b.Overtime)
}
