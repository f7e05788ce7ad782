// Package memory provides an in-memory overtime.Store and maintenance.Store
// for tests and demos.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/maintenance"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu             sync.RWMutex
	configurations map[generic.ConfigurationID]overtime.BandSet
	employees      map[generic.EmployeeID]overtime.Employee
	requests       map[generic.RequestID]overtime.Request
	holidays       map[string]generic.Holiday
	counters       map[counterKey]int64

	assets       map[generic.AssetID]maintenance.Asset
	teams        map[generic.TeamID]maintenance.Team
	maintenances map[generic.MaintenanceRequestID]maintenance.Request
}

type counterKey struct {
	Code string
	Year int
}

var (
	_ overtime.Store    = (*Memory)(nil)
	_ maintenance.Store = (*Memory)(nil)
)

func New() *Memory {
	return &Memory{
		configurations: make(map[generic.ConfigurationID]overtime.BandSet),
		employees:      make(map[generic.EmployeeID]overtime.Employee),
		requests:       make(map[generic.RequestID]overtime.Request),
		holidays:       make(map[string]generic.Holiday),
		counters:       make(map[counterKey]int64),
		assets:         make(map[generic.AssetID]maintenance.Asset),
		teams:          make(map[generic.TeamID]maintenance.Team),
		maintenances:   make(map[generic.MaintenanceRequestID]maintenance.Request),
	}
}

// =============================================================================
// CONFIGURATIONS
// =============================================================================

func (m *Memory) SaveConfiguration(_ context.Context, bs overtime.BandSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bs.Bands = append([]overtime.Band(nil), bs.Bands...)
	m.configurations[bs.ID] = bs
	return nil
}

func (m *Memory) GetConfiguration(_ context.Context, id generic.ConfigurationID) (overtime.BandSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bs, ok := m.configurations[id]
	if !ok {
		return overtime.BandSet{}, &generic.NotFoundError{Kind: "configuration", ID: string(id)}
	}
	bs.Bands = append([]overtime.Band(nil), bs.Bands...)
	return bs, nil
}

func (m *Memory) ListConfigurations(_ context.Context) ([]overtime.BandSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]overtime.BandSet, 0, len(m.configurations))
	for _, bs := range m.configurations {
		out = append(out, bs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) DeleteConfiguration(_ context.Context, id generic.ConfigurationID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.configurations[id]; !ok {
		return &generic.NotFoundError{Kind: "configuration", ID: string(id)}
	}
	delete(m.configurations, id)
	return nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (m *Memory) SaveEmployee(_ context.Context, emp overtime.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[emp.ID] = emp
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id generic.EmployeeID) (overtime.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[id]
	if !ok {
		return overtime.Employee{}, &generic.NotFoundError{Kind: "employee", ID: string(id)}
	}
	return emp, nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]overtime.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]overtime.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

func (m *Memory) SaveRequest(_ context.Context, r overtime.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[r.ID] = r
	return nil
}

func (m *Memory) GetRequest(_ context.Context, id generic.RequestID) (overtime.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requests[id]
	if !ok {
		return overtime.Request{}, &generic.NotFoundError{Kind: "request", ID: string(id)}
	}
	return r, nil
}

func (m *Memory) DeleteRequest(_ context.Context, id generic.RequestID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[id]; !ok {
		return &generic.NotFoundError{Kind: "request", ID: string(id)}
	}
	delete(m.requests, id)
	return nil
}

func (m *Memory) ListRequests(_ context.Context, f overtime.RequestFilter) ([]overtime.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []overtime.Request
	for _, r := range m.requests {
		if matches(r, f) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.After(out[j].Start) })
	return out, nil
}

func matches(r overtime.Request, f overtime.RequestFilter) bool {
	if len(f.EmployeeIDs) > 0 && !contains(f.EmployeeIDs, r.EmployeeID) {
		return false
	}
	if f.ConfigurationID != "" && r.ConfigurationID != f.ConfigurationID {
		return false
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, r.Status) {
		return false
	}
	if f.From != nil && r.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && r.Date.After(*f.To) {
		return false
	}
	return true
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (m *Memory) SaveHoliday(_ context.Context, h generic.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holidays[h.ID] = h
	return nil
}

func (m *Memory) DeleteHoliday(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.holidays[id]; !ok {
		return &generic.NotFoundError{Kind: "holiday", ID: id}
	}
	delete(m.holidays, id)
	return nil
}

// ListHolidays returns holidays of calendarID plus global ones; an empty
// calendarID lists everything.
func (m *Memory) ListHolidays(_ context.Context, calendarID string) ([]generic.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []generic.Holiday
	for _, h := range m.holidays {
		if calendarID == "" || h.CalendarID == "" || h.CalendarID == calendarID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Memory) IsHoliday(calendarID string, date generic.TimePoint) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, h := range m.holidays {
		if (h.CalendarID == "" || h.CalendarID == calendarID) && h.Matches(date) {
			return true
		}
	}
	return false
}

func (m *Memory) GetHolidays(calendarID string, year int) []generic.Holiday {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []generic.Holiday
	for _, h := range m.holidays {
		if h.CalendarID != "" && h.CalendarID != calendarID {
			continue
		}
		if h.Recurring || h.Date.Year() == year {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// =============================================================================
// ASSETS
// =============================================================================

func (m *Memory) SaveAsset(_ context.Context, a maintenance.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[a.ID] = a
	return nil
}

func (m *Memory) GetAsset(_ context.Context, id generic.AssetID) (maintenance.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assets[id]
	if !ok {
		return maintenance.Asset{}, &generic.NotFoundError{Kind: "asset", ID: string(id)}
	}
	return a, nil
}

func (m *Memory) ListAssets(_ context.Context) ([]maintenance.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]maintenance.Asset, 0, len(m.assets))
	for _, a := range m.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) DeleteAsset(_ context.Context, id generic.AssetID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assets[id]; !ok {
		return &generic.NotFoundError{Kind: "asset", ID: string(id)}
	}
	delete(m.assets, id)
	for rid, r := range m.maintenances {
		if r.AssetID == id {
			delete(m.maintenances, rid)
		}
	}
	return nil
}

// =============================================================================
// MAINTENANCE TEAMS
// =============================================================================

func (m *Memory) SaveTeam(_ context.Context, t maintenance.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.Members = append([]generic.EmployeeID(nil), t.Members...)
	m.teams[t.ID] = t
	return nil
}

func (m *Memory) GetTeam(_ context.Context, id generic.TeamID) (maintenance.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.teams[id]
	if !ok {
		return maintenance.Team{}, &generic.NotFoundError{Kind: "team", ID: string(id)}
	}
	t.Members = append([]generic.EmployeeID(nil), t.Members...)
	return t, nil
}

func (m *Memory) ListTeams(_ context.Context) ([]maintenance.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]maintenance.Team, 0, len(m.teams))
	for _, t := range m.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// =============================================================================
// MAINTENANCE REQUESTS
// =============================================================================

func (m *Memory) SaveMaintenanceRequest(_ context.Context, r maintenance.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assets[r.AssetID]; !ok {
		return &generic.NotFoundError{Kind: "asset", ID: string(r.AssetID)}
	}
	m.maintenances[r.ID] = r
	return nil
}

func (m *Memory) GetMaintenanceRequest(_ context.Context, id generic.MaintenanceRequestID) (maintenance.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.maintenances[id]
	if !ok {
		return maintenance.Request{}, &generic.NotFoundError{Kind: "maintenance request", ID: string(id)}
	}
	return r, nil
}

func (m *Memory) DeleteMaintenanceRequest(_ context.Context, id generic.MaintenanceRequestID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.maintenances[id]; !ok {
		return &generic.NotFoundError{Kind: "maintenance request", ID: string(id)}
	}
	delete(m.maintenances, id)
	return nil
}

func (m *Memory) ListMaintenanceRequests(_ context.Context, f maintenance.RequestFilter) ([]maintenance.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []maintenance.Request
	for _, r := range m.maintenances {
		if f.AssetID != "" && r.AssetID != f.AssetID {
			continue
		}
		if len(f.States) > 0 && !contains(f.States, r.State) {
			continue
		}
		if f.AutoGenerated != nil && r.AutoGenerated != *f.AutoGenerated {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledDate.Equal(out[j].ScheduledDate) {
			return out[i].ScheduledDate.Before(out[j].ScheduledDate)
		}
		return out[i].Reference < out[j].Reference
	})
	return out, nil
}

// =============================================================================
// REFERENCE COUNTERS
// =============================================================================

func (m *Memory) NextReference(_ context.Context, code string, year int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := counterKey{Code: code, Year: year}
	m.counters[k]++
	return m.counters[k], nil
}
