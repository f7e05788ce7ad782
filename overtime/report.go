package overtime

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// ReportFilter selects requests for an overtime report. Period is required.
type ReportFilter struct {
	Period          generic.Period
	EmployeeIDs     []generic.EmployeeID
	ConfigurationID generic.ConfigurationID
}

// ReportRow is one request line.
type ReportRow struct {
	RequestID       generic.RequestID
	Reference       string
	EmployeeID      generic.EmployeeID
	EmployeeName    string
	ConfigurationID generic.ConfigurationID
	Start           time.Time
	End             time.Time
	Status          RequestStatus
	DayType         DayType
	TotalHours      decimal.Decimal
	OT1             decimal.Decimal
	OT2             decimal.Decimal
	OT3             decimal.Decimal
	Overtime        decimal.Decimal
	Computed        bool
	Description     string
}

// EmployeeTotal sums an employee's rows.
type EmployeeTotal struct {
	EmployeeID   generic.EmployeeID
	EmployeeName string
	Requests     int
	TotalHours   decimal.Decimal
	OT1          decimal.Decimal
	OT2          decimal.Decimal
	OT3          decimal.Decimal
	Overtime     decimal.Decimal
}

// Report is the overtime reporting view for a period.
type Report struct {
	Period generic.Period
	Rows   []ReportRow
	Totals []EmployeeTotal
}

// BuildReport turns requests into rows and per-employee totals. Requests
// without a breakdown contribute their raw duration but no tier hours.
func BuildReport(period generic.Period, requests []Request, names map[generic.EmployeeID]string) Report {
	rep := Report{Period: period, Rows: make([]ReportRow, 0, len(requests))}
	totals := map[generic.EmployeeID]*EmployeeTotal{}

	for _, r := range requests {
		row := ReportRow{
			RequestID:       r.ID,
			Reference:       r.Reference,
			EmployeeID:      r.EmployeeID,
			EmployeeName:    names[r.EmployeeID],
			ConfigurationID: r.ConfigurationID,
			Start:           r.Start,
			End:             r.End,
			Status:          r.Status,
			DayType:         r.DayType,
			TotalHours:      r.TotalHours,
			OT1:             decimal.Zero,
			OT2:             decimal.Zero,
			OT3:             decimal.Zero,
			Overtime:        decimal.Zero,
			Computed:        r.Computed(),
			Description:     r.Description,
		}
		if r.Breakdown != nil {
			row.OT1, row.OT2, row.OT3, row.Overtime = r.Breakdown.OT1, r.Breakdown.OT2, r.Breakdown.OT3, r.Breakdown.Total
		}
		rep.Rows = append(rep.Rows, row)

		t, ok := totals[r.EmployeeID]
		if !ok {
			t = &EmployeeTotal{
				EmployeeID: r.EmployeeID, EmployeeName: names[r.EmployeeID],
				TotalHours: decimal.Zero, OT1: decimal.Zero, OT2: decimal.Zero, OT3: decimal.Zero, Overtime: decimal.Zero,
			}
			totals[r.EmployeeID] = t
		}
		t.Requests++
		t.TotalHours = t.TotalHours.Add(row.TotalHours)
		t.OT1 = t.OT1.Add(row.OT1)
		t.OT2 = t.OT2.Add(row.OT2)
		t.OT3 = t.OT3.Add(row.OT3)
		t.Overtime = t.Overtime.Add(row.Overtime)
	}

	for _, t := range totals {
		rep.Totals = append(rep.Totals, *t)
	}
	sort.Slice(rep.Totals, func(i, j int) bool { return rep.Totals[i].EmployeeID < rep.Totals[j].EmployeeID })
	return rep
}
