/*
store.go - Persistence interfaces for the overtime service

PURPOSE:
  Defines the boundary between the overtime rules and the database.
  The calculator itself never touches a store; the Service loads a
  configuration snapshot, resolves the day type and passes plain values in.

KEY INTERFACES:
  ConfigurationStore: Band sets (configurations) with their bands
  EmployeeStore:      Employees with their assigned configuration and calendar
  RequestStore:       Overtime requests with their last computed breakdown
  HolidayStore:       Holidays per work calendar (also a generic.HolidayCalendar)
  ReferenceAllocator: Monotonic counters for request references

NOT FOUND:
  Getters return a *generic.NotFoundError (errors.Is(err, generic.ErrNotFound)).

IMPLEMENTATIONS:
  - store/sqlite: SQLite via database/sql
  - store/memory: In-memory for tests and demos
*/
package overtime

import (
	"context"
	"time"

	"github.com/warp/overtime-engine/generic"
)

// Employee is the slice of an employee record the overtime rules need.
type Employee struct {
	ID              generic.EmployeeID
	Name            string
	ConfigurationID generic.ConfigurationID // empty = no configuration assigned
	Calendar        *WorkCalendar           // nil = use the fallback policy
	CreatedAt       time.Time
}

type ConfigurationStore interface {
	SaveConfiguration(ctx context.Context, bs BandSet) error
	GetConfiguration(ctx context.Context, id generic.ConfigurationID) (BandSet, error)
	ListConfigurations(ctx context.Context) ([]BandSet, error)
	DeleteConfiguration(ctx context.Context, id generic.ConfigurationID) error
}

type EmployeeStore interface {
	SaveEmployee(ctx context.Context, emp Employee) error
	GetEmployee(ctx context.Context, id generic.EmployeeID) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
}

// RequestFilter narrows ListRequests. Zero fields do not filter.
type RequestFilter struct {
	EmployeeIDs     []generic.EmployeeID
	ConfigurationID generic.ConfigurationID
	Statuses        []RequestStatus
	From            *generic.TimePoint // request date >= From
	To              *generic.TimePoint // request date <= To
}

type RequestStore interface {
	SaveRequest(ctx context.Context, r Request) error
	GetRequest(ctx context.Context, id generic.RequestID) (Request, error)
	DeleteRequest(ctx context.Context, id generic.RequestID) error
	// ListRequests returns matches ordered by start, newest first.
	ListRequests(ctx context.Context, filter RequestFilter) ([]Request, error)
}

type HolidayStore interface {
	generic.HolidayCalendar
	SaveHoliday(ctx context.Context, h generic.Holiday) error
	DeleteHoliday(ctx context.Context, id string) error
	ListHolidays(ctx context.Context, calendarID string) ([]generic.Holiday, error)
}

// ReferenceAllocator hands out strictly increasing numbers per (code, year).
// It is owned by the storage layer; the service never keeps counters itself.
type ReferenceAllocator interface {
	NextReference(ctx context.Context, code string, year int) (int64, error)
}

// Store is everything the Service needs.
type Store interface {
	ConfigurationStore
	EmployeeStore
	RequestStore
	HolidayStore
	ReferenceAllocator
}
