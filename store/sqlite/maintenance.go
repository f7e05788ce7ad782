package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/maintenance"
)

// =============================================================================
// ASSET STORE
// =============================================================================

const assetColumns = `id, name, code, location, responsible_id, team_id, status, condition,
	maintenance_required, recurrence_pattern, recurrence_start, recurrence_interval, recurrence_end,
	notes, created_at, updated_at`

// SaveAsset saves or updates an asset with its recurrence.
func (s *Store) SaveAsset(ctx context.Context, a maintenance.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assets (`+assetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			code = excluded.code,
			location = excluded.location,
			responsible_id = excluded.responsible_id,
			team_id = excluded.team_id,
			status = excluded.status,
			condition = excluded.condition,
			maintenance_required = excluded.maintenance_required,
			recurrence_pattern = excluded.recurrence_pattern,
			recurrence_start = excluded.recurrence_start,
			recurrence_interval = excluded.recurrence_interval,
			recurrence_end = excluded.recurrence_end,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`,
		a.ID,
		a.Name,
		nullString(a.Code),
		nullString(a.Location),
		nullString(string(a.ResponsibleID)),
		nullString(string(a.TeamID)),
		a.Status,
		a.Condition,
		a.MaintenanceRequired,
		a.Schedule.Pattern,
		formatDate(a.Schedule.Start),
		a.Schedule.Interval,
		formatDate(a.Schedule.End),
		nullString(a.Notes),
		formatTimestamp(a.CreatedAt),
		formatTimestamp(a.UpdatedAt),
	)
	if isForeignKeyError(err) {
		return &generic.NotFoundError{Kind: "team", ID: string(a.TeamID)}
	}
	return err
}

// GetAsset retrieves an asset by ID.
func (s *Store) GetAsset(ctx context.Context, id generic.AssetID) (maintenance.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+assetColumns+" FROM assets WHERE id = ?", id)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return maintenance.Asset{}, &generic.NotFoundError{Kind: "asset", ID: string(id)}
	}
	return a, err
}

// ListAssets returns all assets ordered by name.
func (s *Store) ListAssets(ctx context.Context) ([]maintenance.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+assetColumns+" FROM assets ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []maintenance.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// DeleteAsset deletes an asset; its maintenance requests cascade.
func (s *Store) DeleteAsset(ctx context.Context, id generic.AssetID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM assets WHERE id = ?", id)
	if err != nil {
		return err
	}
	return notFoundIfNone(res, "asset", string(id))
}

func scanAsset(row scanner) (maintenance.Asset, error) {
	var a maintenance.Asset
	var id, status, condition, pattern, start, end, createdAt, updatedAt string
	var code, location, responsible, team, notes sql.NullString
	err := row.Scan(&id, &a.Name, &code, &location, &responsible, &team, &status, &condition,
		&a.MaintenanceRequired, &pattern, &start, &a.Schedule.Interval, &end,
		&notes, &createdAt, &updatedAt)
	if err != nil {
		return maintenance.Asset{}, err
	}
	a.ID = generic.AssetID(id)
	a.Code = code.String
	a.Location = location.String
	a.ResponsibleID = generic.EmployeeID(responsible.String)
	a.TeamID = generic.TeamID(team.String)
	a.Status = maintenance.AssetStatus(status)
	a.Condition = maintenance.Condition(condition)
	a.Schedule.Pattern = maintenance.Pattern(pattern)
	a.Schedule.Start = parseDate(start)
	a.Schedule.End = parseDate(end)
	a.Notes = notes.String
	a.CreatedAt = parseTimestamp(createdAt)
	a.UpdatedAt = parseTimestamp(updatedAt)
	return a, nil
}

// =============================================================================
// TEAM STORE
// =============================================================================

// SaveTeam saves or updates a maintenance team.
func (s *Store) SaveTeam(ctx context.Context, t maintenance.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := t.Members
	if members == nil {
		members = []generic.EmployeeID{}
	}
	membersJSON, err := json.Marshal(members)
	if err != nil {
		return fmt.Errorf("failed to encode team members: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO maintenance_teams (id, name, members_json, active)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			members_json = excluded.members_json,
			active = excluded.active
	`, t.ID, t.Name, string(membersJSON), t.Active)
	return err
}

// GetTeam retrieves a team by ID.
func (s *Store) GetTeam(ctx context.Context, id generic.TeamID) (maintenance.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT id, name, members_json, active FROM maintenance_teams WHERE id = ?", id)
	t, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return maintenance.Team{}, &generic.NotFoundError{Kind: "team", ID: string(id)}
	}
	return t, err
}

// ListTeams returns all teams ordered by name.
func (s *Store) ListTeams(ctx context.Context) ([]maintenance.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, members_json, active FROM maintenance_teams ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []maintenance.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func scanTeam(row scanner) (maintenance.Team, error) {
	var t maintenance.Team
	var id, members string
	if err := row.Scan(&id, &t.Name, &members, &t.Active); err != nil {
		return maintenance.Team{}, err
	}
	t.ID = generic.TeamID(id)
	if err := json.Unmarshal([]byte(members), &t.Members); err != nil {
		return maintenance.Team{}, fmt.Errorf("team %s: invalid members: %w", id, err)
	}
	return t, nil
}

// =============================================================================
// MAINTENANCE REQUEST STORE
// =============================================================================

const maintenanceColumns = `id, reference, asset_id, team_id, title, description, kind, priority,
	scheduled_date, scheduled_end, state, auto_generated, cancellation_reason, created_at, updated_at`

// SaveMaintenanceRequest saves or updates a maintenance request. The asset
// must exist.
func (s *Store) SaveMaintenanceRequest(ctx context.Context, r maintenance.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO maintenance_requests (`+maintenanceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			asset_id = excluded.asset_id,
			team_id = excluded.team_id,
			title = excluded.title,
			description = excluded.description,
			kind = excluded.kind,
			priority = excluded.priority,
			scheduled_date = excluded.scheduled_date,
			scheduled_end = excluded.scheduled_end,
			state = excluded.state,
			cancellation_reason = excluded.cancellation_reason,
			updated_at = excluded.updated_at
	`,
		r.ID,
		r.Reference,
		r.AssetID,
		nullString(string(r.TeamID)),
		r.Title,
		r.Description,
		r.Kind,
		r.Priority,
		formatDate(r.ScheduledDate),
		formatDate(r.ScheduledEnd),
		r.State,
		r.AutoGenerated,
		nullString(r.CancellationReason),
		formatTimestamp(r.CreatedAt),
		formatTimestamp(r.UpdatedAt),
	)
	switch {
	case isUniqueConstraintError(err):
		return fmt.Errorf("%w: reference %s already used", generic.ErrConflict, r.Reference)
	case isForeignKeyError(err):
		return &generic.NotFoundError{Kind: "asset", ID: string(r.AssetID)}
	}
	return err
}

// GetMaintenanceRequest retrieves a maintenance request by ID.
func (s *Store) GetMaintenanceRequest(ctx context.Context, id generic.MaintenanceRequestID) (maintenance.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+maintenanceColumns+" FROM maintenance_requests WHERE id = ?", id)
	r, err := scanMaintenanceRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return maintenance.Request{}, &generic.NotFoundError{Kind: "maintenance request", ID: string(id)}
	}
	return r, err
}

// DeleteMaintenanceRequest deletes a maintenance request by ID.
func (s *Store) DeleteMaintenanceRequest(ctx context.Context, id generic.MaintenanceRequestID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM maintenance_requests WHERE id = ?", id)
	if err != nil {
		return err
	}
	return notFoundIfNone(res, "maintenance request", string(id))
}

// ListMaintenanceRequests returns matching requests by scheduled date, then reference.
func (s *Store) ListMaintenanceRequests(ctx context.Context, f maintenance.RequestFilter) ([]maintenance.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var where []string
	var args []any
	if f.AssetID != "" {
		where = append(where, "asset_id = ?")
		args = append(args, f.AssetID)
	}
	if len(f.States) > 0 {
		where = append(where, "state IN ("+placeholders(len(f.States))+")")
		for _, st := range f.States {
			args = append(args, st)
		}
	}
	if f.AutoGenerated != nil {
		where = append(where, "auto_generated = ?")
		args = append(args, *f.AutoGenerated)
	}

	query := "SELECT " + maintenanceColumns + " FROM maintenance_requests"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY scheduled_date ASC, reference ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []maintenance.Request
	for rows.Next() {
		r, err := scanMaintenanceRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func scanMaintenanceRequest(row scanner) (maintenance.Request, error) {
	var r maintenance.Request
	var id, assetID, kind, scheduled, scheduledEnd, state, createdAt, updatedAt string
	var team, reason sql.NullString
	err := row.Scan(&id, &r.Reference, &assetID, &team, &r.Title, &r.Description, &kind, &r.Priority,
		&scheduled, &scheduledEnd, &state, &r.AutoGenerated, &reason, &createdAt, &updatedAt)
	if err != nil {
		return maintenance.Request{}, err
	}
	r.ID = generic.MaintenanceRequestID(id)
	r.AssetID = generic.AssetID(assetID)
	r.TeamID = generic.TeamID(team.String)
	r.Kind = maintenance.Kind(kind)
	r.ScheduledDate = parseDate(scheduled)
	r.ScheduledEnd = parseDate(scheduledEnd)
	r.State = maintenance.RequestState(state)
	r.CancellationReason = reason.String
	r.CreatedAt = parseTimestamp(createdAt)
	r.UpdatedAt = parseTimestamp(updatedAt)
	return r, nil
}
