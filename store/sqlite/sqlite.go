/*
Package sqlite provides a SQLite-backed implementation of overtime.Store
and maintenance.Store.

PURPOSE:
  Persists configurations, employees, overtime requests, holidays, assets
  with their maintenance requests and the reference counters. In production the same patterns apply to PostgreSQL
  with minor SQL dialect differences.

KEY TABLES:
  configurations:      Band sets (name, validity window, status)
  configuration_lines: The bands of each configuration, in order
  employees:           Employee with assigned configuration and work calendar
  requests:            Overtime requests with their last breakdown
  holidays:            Holidays per work calendar ('' = global)
  reference_counters:  Monotonic request numbers per (code, year)
  assets:              Assets with their maintenance recurrence
  maintenance_teams:   Teams and their members
  maintenance_requests: Maintenance work per asset (cascades with the asset)

BREAKDOWNS:
  Tier hours are stored as decimal strings next to the full breakdown JSON,
  so reports can filter without decoding. computed = 0 means the rule was
  not applicable; calculation_note then holds the reason.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/overtime.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - overtime/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/maintenance"
	"github.com/warp/overtime-engine/overtime"
)

// Store implements overtime.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ overtime.Store    = (*Store)(nil)
	_ maintenance.Store = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS configurations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		date_start TEXT NOT NULL,
		date_end TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS configuration_lines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		configuration_id TEXT NOT NULL REFERENCES configurations(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		type TEXT NOT NULL,
		type_week TEXT NOT NULL,
		start_time REAL NOT NULL,
		end_time REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_configuration_lines_configuration
		ON configuration_lines(configuration_id, seq);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		configuration_id TEXT REFERENCES configurations(id) ON DELETE SET NULL,
		calendar_id TEXT,
		calendar_name TEXT,
		working_days_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		reference TEXT NOT NULL UNIQUE,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		configuration_id TEXT,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		request_date TEXT NOT NULL,
		description TEXT,
		include_in_payroll INTEGER NOT NULL DEFAULT 1,
		status TEXT NOT NULL DEFAULT 'draft',
		day_type TEXT,
		total_hours TEXT NOT NULL DEFAULT '0',
		computed INTEGER NOT NULL DEFAULT 0,
		ot1_hours TEXT NOT NULL DEFAULT '0',
		ot2_hours TEXT NOT NULL DEFAULT '0',
		ot3_hours TEXT NOT NULL DEFAULT '0',
		overtime_hours TEXT NOT NULL DEFAULT '0',
		breakdown_json TEXT,
		calculation_note TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_employee_date
		ON requests(employee_id, request_date);
	CREATE INDEX IF NOT EXISTS idx_requests_status_date
		ON requests(status, request_date);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		calendar_id TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		recurring INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		UNIQUE(calendar_id, date, name)
	);

	CREATE TABLE IF NOT EXISTS reference_counters (
		code TEXT NOT NULL,
		year INTEGER NOT NULL,
		value INTEGER NOT NULL,
		PRIMARY KEY (code, year)
	);

	CREATE TABLE IF NOT EXISTS maintenance_teams (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		members_json TEXT NOT NULL DEFAULT '[]',
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		code TEXT,
		location TEXT,
		responsible_id TEXT,
		team_id TEXT REFERENCES maintenance_teams(id) ON DELETE SET NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		condition TEXT NOT NULL DEFAULT 'new',
		maintenance_required INTEGER NOT NULL DEFAULT 0,
		recurrence_pattern TEXT NOT NULL DEFAULT 'none',
		recurrence_start TEXT NOT NULL DEFAULT '',
		recurrence_interval INTEGER NOT NULL DEFAULT 0,
		recurrence_end TEXT NOT NULL DEFAULT '',
		notes TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS maintenance_requests (
		id TEXT PRIMARY KEY,
		reference TEXT NOT NULL UNIQUE,
		asset_id TEXT NOT NULL REFERENCES assets(id) ON DELETE CASCADE,
		team_id TEXT,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		kind TEXT NOT NULL,
		priority INTEGER NOT NULL DEFAULT 0,
		scheduled_date TEXT NOT NULL,
		scheduled_end TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT 'draft',
		auto_generated INTEGER NOT NULL DEFAULT 0,
		cancellation_reason TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_maintenance_requests_asset
		ON maintenance_requests(asset_id, scheduled_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CONFIGURATION STORE
// =============================================================================

// SaveConfiguration upserts a configuration and replaces its lines.
func (s *Store) SaveConfiguration(ctx context.Context, bs overtime.BandSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO configurations (id, name, date_start, date_end, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			date_start = excluded.date_start,
			date_end = excluded.date_end,
			status = excluded.status,
			updated_at = excluded.updated_at
	`, bs.ID, bs.Name, formatDate(bs.Validity.Start), formatDate(bs.Validity.End), bs.Status,
		formatTimestamp(bs.CreatedAt), formatTimestamp(bs.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM configuration_lines WHERE configuration_id = ?", bs.ID); err != nil {
		return fmt.Errorf("failed to clear configuration lines: %w", err)
	}
	for i, b := range bs.Bands {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO configuration_lines (configuration_id, seq, type, type_week, start_time, end_time)
			VALUES (?, ?, ?, ?, ?, ?)
		`, bs.ID, i, b.Tier, b.DayType, b.Start, b.End)
		if err != nil {
			return fmt.Errorf("failed to save configuration line %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// GetConfiguration retrieves a configuration with its lines.
func (s *Store) GetConfiguration(ctx context.Context, id generic.ConfigurationID) (overtime.BandSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, date_start, date_end, status, created_at, updated_at
		FROM configurations WHERE id = ?
	`, id)
	bs, err := scanConfiguration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return overtime.BandSet{}, &generic.NotFoundError{Kind: "configuration", ID: string(id)}
	}
	if err != nil {
		return overtime.BandSet{}, err
	}

	if bs.Bands, err = s.loadLines(ctx, bs.ID); err != nil {
		return overtime.BandSet{}, err
	}
	return bs, nil
}

// ListConfigurations returns all configurations ordered by name.
func (s *Store) ListConfigurations(ctx context.Context) ([]overtime.BandSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, date_start, date_end, status, created_at, updated_at
		FROM configurations ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	var list []overtime.BandSet
	for rows.Next() {
		bs, err := scanConfiguration(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		list = append(list, bs)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// lines are loaded after the cursor is closed; :memory: runs on one connection
	for i := range list {
		if list[i].Bands, err = s.loadLines(ctx, list[i].ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// DeleteConfiguration deletes a configuration; its lines cascade.
func (s *Store) DeleteConfiguration(ctx context.Context, id generic.ConfigurationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM configurations WHERE id = ?", id)
	if err != nil {
		return err
	}
	return notFoundIfNone(res, "configuration", string(id))
}

func (s *Store) loadLines(ctx context.Context, id generic.ConfigurationID) ([]overtime.Band, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT type, type_week, start_time, end_time
		FROM configuration_lines WHERE configuration_id = ? ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bands := []overtime.Band{}
	for rows.Next() {
		var b overtime.Band
		var tier, dayType string
		if err := rows.Scan(&tier, &dayType, &b.Start, &b.End); err != nil {
			return nil, err
		}
		b.Tier, b.DayType = overtime.Tier(tier), overtime.DayType(dayType)
		bands = append(bands, b)
	}
	return bands, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConfiguration(row scanner) (overtime.BandSet, error) {
	var bs overtime.BandSet
	var id, start, end, status, createdAt, updatedAt string
	if err := row.Scan(&id, &bs.Name, &start, &end, &status, &createdAt, &updatedAt); err != nil {
		return overtime.BandSet{}, err
	}
	bs.ID = generic.ConfigurationID(id)
	bs.Status = overtime.Status(status)
	bs.Validity = generic.Period{Start: parseDate(start), End: parseDate(end)}
	bs.CreatedAt = parseTimestamp(createdAt)
	bs.UpdatedAt = parseTimestamp(updatedAt)
	return bs, nil
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

// SaveEmployee saves or updates an employee.
func (s *Store) SaveEmployee(ctx context.Context, emp overtime.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var calID, calName, workingDays sql.NullString
	if emp.Calendar != nil {
		calID = sql.NullString{String: emp.Calendar.ID, Valid: true}
		calName = nullString(emp.Calendar.Name)
		days, err := json.Marshal(emp.Calendar.WorkingDays)
		if err != nil {
			return fmt.Errorf("failed to encode working days: %w", err)
		}
		workingDays = sql.NullString{String: string(days), Valid: true}
	}
	createdAt := emp.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, configuration_id, calendar_id, calendar_name, working_days_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			configuration_id = excluded.configuration_id,
			calendar_id = excluded.calendar_id,
			calendar_name = excluded.calendar_name,
			working_days_json = excluded.working_days_json
	`, emp.ID, emp.Name, nullString(string(emp.ConfigurationID)), calID, calName, workingDays,
		createdAt.UTC().Format(time.RFC3339))
	return err
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id generic.EmployeeID) (overtime.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, configuration_id, calendar_id, calendar_name, working_days_json, created_at
		FROM employees WHERE id = ?
	`, id)
	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return overtime.Employee{}, &generic.NotFoundError{Kind: "employee", ID: string(id)}
	}
	return emp, err
}

// ListEmployees returns all employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]overtime.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, configuration_id, calendar_id, calendar_name, working_days_json, created_at
		FROM employees ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []overtime.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func scanEmployee(row scanner) (overtime.Employee, error) {
	var emp overtime.Employee
	var id, createdAt string
	var cfgID, calID, calName, workingDays sql.NullString
	if err := row.Scan(&id, &emp.Name, &cfgID, &calID, &calName, &workingDays, &createdAt); err != nil {
		return overtime.Employee{}, err
	}
	emp.ID = generic.EmployeeID(id)
	emp.ConfigurationID = generic.ConfigurationID(cfgID.String)
	emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if calID.Valid {
		emp.Calendar = &overtime.WorkCalendar{ID: calID.String, Name: calName.String}
		if workingDays.Valid {
			if err := json.Unmarshal([]byte(workingDays.String), &emp.Calendar.WorkingDays); err != nil {
				return overtime.Employee{}, fmt.Errorf("employee %s: invalid working days: %w", id, err)
			}
		}
	}
	return emp, nil
}

// =============================================================================
// REQUEST STORE
// =============================================================================

const requestColumns = `id, reference, employee_id, configuration_id, start_at, end_at, request_date,
	description, include_in_payroll, status, day_type, total_hours, computed, breakdown_json,
	calculation_note, created_at, updated_at`

// SaveRequest saves or updates a request together with its breakdown.
func (s *Store) SaveRequest(ctx context.Context, r overtime.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ot1, ot2, ot3, total := "0", "0", "0", "0"
	var breakdownJSON sql.NullString
	if r.Breakdown != nil {
		b, err := json.Marshal(r.Breakdown)
		if err != nil {
			return fmt.Errorf("failed to encode breakdown: %w", err)
		}
		breakdownJSON = sql.NullString{String: string(b), Valid: true}
		ot1, ot2, ot3, total = r.Breakdown.OT1.String(), r.Breakdown.OT2.String(), r.Breakdown.OT3.String(), r.Breakdown.Total.String()
	}

	query := `
		INSERT INTO requests (id, reference, employee_id, configuration_id, start_at, end_at, request_date,
			description, include_in_payroll, status, day_type, total_hours, computed,
			ot1_hours, ot2_hours, ot3_hours, overtime_hours, breakdown_json, calculation_note,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			configuration_id = excluded.configuration_id,
			start_at = excluded.start_at,
			end_at = excluded.end_at,
			request_date = excluded.request_date,
			description = excluded.description,
			include_in_payroll = excluded.include_in_payroll,
			status = excluded.status,
			day_type = excluded.day_type,
			total_hours = excluded.total_hours,
			computed = excluded.computed,
			ot1_hours = excluded.ot1_hours,
			ot2_hours = excluded.ot2_hours,
			ot3_hours = excluded.ot3_hours,
			overtime_hours = excluded.overtime_hours,
			breakdown_json = excluded.breakdown_json,
			calculation_note = excluded.calculation_note,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		r.ID,
		r.Reference,
		r.EmployeeID,
		nullString(string(r.ConfigurationID)),
		r.Start.UTC().Format(time.RFC3339Nano),
		r.End.UTC().Format(time.RFC3339Nano),
		formatDate(r.Date),
		nullString(r.Description),
		r.IncludeInPayroll,
		r.Status,
		nullString(string(r.DayType)),
		r.TotalHours.String(),
		r.Breakdown != nil,
		ot1, ot2, ot3, total,
		breakdownJSON,
		nullString(r.CalculationNote),
		r.CreatedAt.UTC().Format(time.RFC3339),
		r.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: reference %s already used", generic.ErrConflict, r.Reference)
	}
	return err
}

// GetRequest retrieves a request by ID.
func (s *Store) GetRequest(ctx context.Context, id generic.RequestID) (overtime.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+requestColumns+" FROM requests WHERE id = ?", id)
	r, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return overtime.Request{}, &generic.NotFoundError{Kind: "request", ID: string(id)}
	}
	return r, err
}

// DeleteRequest deletes a request by ID.
func (s *Store) DeleteRequest(ctx context.Context, id generic.RequestID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM requests WHERE id = ?", id)
	if err != nil {
		return err
	}
	return notFoundIfNone(res, "request", string(id))
}

// ListRequests returns requests matching the filter, newest first.
func (s *Store) ListRequests(ctx context.Context, f overtime.RequestFilter) ([]overtime.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var where []string
	var args []any
	if len(f.EmployeeIDs) > 0 {
		where = append(where, "employee_id IN ("+placeholders(len(f.EmployeeIDs))+")")
		for _, id := range f.EmployeeIDs {
			args = append(args, id)
		}
	}
	if f.ConfigurationID != "" {
		where = append(where, "configuration_id = ?")
		args = append(args, f.ConfigurationID)
	}
	if len(f.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(f.Statuses))+")")
		for _, st := range f.Statuses {
			args = append(args, st)
		}
	}
	if f.From != nil {
		where = append(where, "request_date >= ?")
		args = append(args, formatDate(*f.From))
	}
	if f.To != nil {
		where = append(where, "request_date <= ?")
		args = append(args, formatDate(*f.To))
	}

	query := "SELECT " + requestColumns + " FROM requests"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []overtime.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func scanRequest(row scanner) (overtime.Request, error) {
	var r overtime.Request
	var id, employeeID, startAt, endAt, requestDate, status, totalHours, createdAt, updatedAt string
	var cfgID, description, dayType, breakdownJSON, note sql.NullString
	var computed bool

	err := row.Scan(&id, &r.Reference, &employeeID, &cfgID, &startAt, &endAt, &requestDate,
		&description, &r.IncludeInPayroll, &status, &dayType, &totalHours, &computed, &breakdownJSON,
		&note, &createdAt, &updatedAt)
	if err != nil {
		return overtime.Request{}, err
	}

	r.ID = generic.RequestID(id)
	r.EmployeeID = generic.EmployeeID(employeeID)
	r.ConfigurationID = generic.ConfigurationID(cfgID.String)
	r.Start, _ = time.Parse(time.RFC3339Nano, startAt)
	r.End, _ = time.Parse(time.RFC3339Nano, endAt)
	r.Date = parseDate(requestDate)
	r.Description = description.String
	r.Status = overtime.RequestStatus(status)
	r.DayType = overtime.DayType(dayType.String)
	r.TotalHours = parseDecimal(totalHours)
	r.CalculationNote = note.String
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	r.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	if computed && breakdownJSON.Valid {
		var b overtime.Breakdown
		if err := json.Unmarshal([]byte(breakdownJSON.String), &b); err != nil {
			return overtime.Request{}, fmt.Errorf("request %s: invalid breakdown: %w", id, err)
		}
		r.Breakdown = &b
	}
	return r, nil
}

// =============================================================================
// HOLIDAY CALENDAR IMPLEMENTATION
// =============================================================================

// SaveHoliday saves a holiday to the database.
func (s *Store) SaveHoliday(ctx context.Context, h generic.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO holidays (id, calendar_id, date, name, recurring, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			calendar_id = excluded.calendar_id,
			date = excluded.date,
			name = excluded.name,
			recurring = excluded.recurring
	`

	_, err := s.db.ExecContext(ctx, query,
		h.ID,
		h.CalendarID,
		formatDate(h.Date),
		h.Name,
		h.Recurring,
		time.Now().UTC().Format(time.RFC3339),
	)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: holiday %q on %s already exists", generic.ErrConflict, h.Name, h.Date)
	}
	return err
}

// DeleteHoliday deletes a holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return err
	}
	return notFoundIfNone(res, "holiday", id)
}

// GetHolidays returns all holidays for a calendar in a given year.
// Includes both calendar-specific and global holidays.
func (s *Store) GetHolidays(calendarID string, year int) []generic.Holiday {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, calendar_id, date, name, recurring
		FROM holidays
		WHERE (calendar_id = ? OR calendar_id = '')
		  AND (recurring = 1 OR strftime('%Y', date) = ?)
		ORDER BY strftime('%m-%d', date) ASC
	`

	rows, err := s.db.Query(query, calendarID, fmt.Sprintf("%04d", year))
	if err != nil {
		return nil
	}
	defer rows.Close()

	var holidays []generic.Holiday
	for rows.Next() {
		h, err := scanHoliday(rows)
		if err != nil {
			continue
		}
		// If recurring, move into the requested year
		if h.Recurring {
			h.Date = h.Date.AddYears(year - h.Date.Year())
		}
		holidays = append(holidays, h)
	}

	return holidays
}

// IsHoliday checks if a date is a holiday for the given calendar.
func (s *Store) IsHoliday(calendarID string, date generic.TimePoint) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT COUNT(*) FROM holidays
		WHERE (calendar_id = ? OR calendar_id = '')
		  AND (
			(recurring = 0 AND date = ?)
			OR (recurring = 1 AND strftime('%m-%d', date) = ?)
		  )
	`

	var count int
	err := s.db.QueryRow(query, calendarID, formatDate(date), date.Time.Format("01-02")).Scan(&count)
	if err != nil {
		return false
	}
	return count > 0
}

// ListHolidays returns holidays of a calendar plus global ones (for admin UI).
// An empty calendarID lists every holiday.
func (s *Store) ListHolidays(ctx context.Context, calendarID string) ([]generic.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, calendar_id, date, name, recurring
		FROM holidays
		WHERE ? = '' OR calendar_id = ? OR calendar_id = ''
		ORDER BY date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, calendarID, calendarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []generic.Holiday
	for rows.Next() {
		h, err := scanHoliday(rows)
		if err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}

	return holidays, rows.Err()
}

func scanHoliday(row scanner) (generic.Holiday, error) {
	var h generic.Holiday
	var date string
	if err := row.Scan(&h.ID, &h.CalendarID, &date, &h.Name, &h.Recurring); err != nil {
		return generic.Holiday{}, err
	}
	h.Date = parseDate(date)
	return h, nil
}

// =============================================================================
// REFERENCE ALLOCATOR
// =============================================================================

// NextReference increments and returns the counter for (code, year). The
// first call for a pair returns 1.
func (s *Store) NextReference(ctx context.Context, code string, year int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO reference_counters (code, year, value) VALUES (?, ?, 1)
		ON CONFLICT(code, year) DO UPDATE SET value = value + 1
		RETURNING value
	`, code, year).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate reference: %w", err)
	}
	return next, nil
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset clears all data (for demo/testing).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"requests", "employees", "configuration_lines", "configurations", "holidays", "reference_counters",
		"maintenance_requests", "assets", "maintenance_teams",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatDate(tp generic.TimePoint) string {
	if tp.IsZero() {
		return ""
	}
	return tp.Time.Format(generic.DateLayout)
}

func parseDate(s string) generic.TimePoint {
	tp, err := generic.ParseDate(s)
	if err != nil {
		return generic.TimePoint{}
	}
	return tp
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func notFoundIfNone(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &generic.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
