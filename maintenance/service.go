/*
service.go - Asset maintenance workflow

PURPOSE:
  Keeps assets, their recurrence and their maintenance requests consistent.
  Request state changes drive the asset status:

    request -> in_progress, repaired   asset -> maintenance, maintenance required
    request -> done                    asset -> active, required only if it recurs
    request -> cancelled               asset -> active, not required (recurrence cleared)
    request -> draft (from cancelled)  asset -> active, required only if it recurs

SCHEDULE GENERATION:
  GenerateSchedule replaces the asset's auto-generated draft requests with
  one preventive draft per due date of the asset schedule. Open-ended
  schedules stop after GenerateLimit dates.

SEE ALSO:
  - schedule.go: Due date arithmetic
  - request.go: Request states and transitions
*/
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/warp/overtime-engine/generic"
)

// RequestReferenceCode is the counter code used for maintenance references.
const RequestReferenceCode = "maintenance.request"

// DefaultGenerateLimit caps the requests generated from an open-ended schedule.
const DefaultGenerateLimit = 12

// Service implements the asset maintenance workflow.
type Service struct {
	Store         Store
	Zone          *time.Location // dates are read in this zone; nil = UTC
	GenerateLimit int
	Logger        *slog.Logger
	Now           func() time.Time
}

// NewService builds a service reading dates in zone.
func NewService(store Store, zone *time.Location, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Store:         store,
		Zone:          zone,
		GenerateLimit: DefaultGenerateLimit,
		Logger:        logger,
		Now:           time.Now,
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Today is the current date in the service zone.
func (s *Service) Today() generic.TimePoint {
	return generic.DateOf(s.now(), s.Zone)
}

// =============================================================================
// ASSETS
// =============================================================================

// CreateAsset stores a new asset, in draft unless a status is given.
func (s *Service) CreateAsset(ctx context.Context, a Asset) (Asset, error) {
	if a.ID == "" {
		a.ID = generic.AssetID(generic.NewID("ast"))
	}
	a.normalize()
	if err := s.checkAsset(ctx, a); err != nil {
		return Asset{}, err
	}
	a.CreatedAt = s.now().UTC()
	a.UpdatedAt = a.CreatedAt
	if err := s.Store.SaveAsset(ctx, a); err != nil {
		return Asset{}, fmt.Errorf("save asset: %w", err)
	}
	s.Logger.InfoContext(ctx, "asset created", "asset_id", a.ID, "pattern", a.Schedule.Pattern)
	return a, nil
}

// UpdateAsset replaces the editable fields. The status only changes
// through SetAssetStatus and request transitions.
func (s *Service) UpdateAsset(ctx context.Context, a Asset) (Asset, error) {
	existing, err := s.Store.GetAsset(ctx, a.ID)
	if err != nil {
		return Asset{}, err
	}
	a.Status = existing.Status
	a.normalize()
	if err := s.checkAsset(ctx, a); err != nil {
		return Asset{}, err
	}
	a.CreatedAt, a.UpdatedAt = existing.CreatedAt, s.now().UTC()
	if err := s.Store.SaveAsset(ctx, a); err != nil {
		return Asset{}, fmt.Errorf("save asset: %w", err)
	}
	return a, nil
}

func (s *Service) checkAsset(ctx context.Context, a Asset) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.TeamID != "" {
		if _, err := s.activeTeam(ctx, a.TeamID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) GetAsset(ctx context.Context, id generic.AssetID) (Asset, error) {
	return s.Store.GetAsset(ctx, id)
}

func (s *Service) ListAssets(ctx context.Context) ([]Asset, error) {
	return s.Store.ListAssets(ctx)
}

// SetAssetStatus moves an asset to status. Going back to draft from active
// or maintenance clears the maintenance flag and the recurrence.
func (s *Service) SetAssetStatus(ctx context.Context, id generic.AssetID, status AssetStatus) (Asset, error) {
	if !status.Valid() {
		return Asset{}, fmt.Errorf("%w: unknown asset status %q", generic.ErrInvalidInput, status)
	}
	a, err := s.Store.GetAsset(ctx, id)
	if err != nil {
		return Asset{}, err
	}
	if status == AssetDraft && a.Status != AssetDraft {
		a.setMaintenanceRequired(false)
	}
	a.Status = status
	a.UpdatedAt = s.now().UTC()
	if err := s.Store.SaveAsset(ctx, a); err != nil {
		return Asset{}, fmt.Errorf("save asset: %w", err)
	}
	s.Logger.InfoContext(ctx, "asset status changed", "asset_id", id, "status", status)
	return a, nil
}

// DeleteAsset removes a draft asset together with its requests.
func (s *Service) DeleteAsset(ctx context.Context, id generic.AssetID) error {
	a, err := s.Store.GetAsset(ctx, id)
	if err != nil {
		return err
	}
	if err := a.CheckDeletable(); err != nil {
		return err
	}
	return s.Store.DeleteAsset(ctx, id)
}

// GenerateSchedule creates one preventive draft request per due date of the
// asset schedule, replacing earlier auto-generated drafts, and marks the
// asset as requiring maintenance.
func (s *Service) GenerateSchedule(ctx context.Context, id generic.AssetID) ([]Request, error) {
	a, err := s.Store.GetAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case a.Schedule.Pattern == PatternNone || a.Schedule.Pattern == "":
		return nil, fmt.Errorf("%w: select a recurrence pattern before generating a schedule", generic.ErrInvalidInput)
	case a.Schedule.Start.IsZero():
		return nil, fmt.Errorf("%w: set a start date before generating a schedule", generic.ErrInvalidInput)
	case a.Schedule.Interval <= 0 && a.Schedule.End.IsZero():
		return nil, fmt.Errorf("%w: set either an interval or an end date before generating a schedule", generic.ErrInvalidInput)
	}

	dates, err := a.Schedule.Occurrences(s.GenerateLimit)
	if err != nil {
		return nil, err
	}

	auto := true
	stale, err := s.Store.ListMaintenanceRequests(ctx, RequestFilter{AssetID: id, States: []RequestState{StateDraft}, AutoGenerated: &auto})
	if err != nil {
		return nil, err
	}
	for _, r := range stale {
		if err := s.Store.DeleteMaintenanceRequest(ctx, r.ID); err != nil {
			return nil, fmt.Errorf("delete generated request: %w", err)
		}
	}

	now := s.now().UTC()
	created := make([]Request, 0, len(dates))
	for _, d := range dates {
		r := Request{
			ID:            generic.MaintenanceRequestID(generic.NewID("mr")),
			AssetID:       id,
			TeamID:        a.TeamID,
			Title:         "Scheduled - " + a.DisplayName(),
			Description:   fmt.Sprintf("Auto-generated maintenance scheduled on %s", d),
			Kind:          KindPreventive,
			ScheduledDate: d,
			State:         StateDraft,
			AutoGenerated: true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.store(ctx, &r); err != nil {
			return nil, err
		}
		created = append(created, r)
	}

	a.MaintenanceRequired = true
	a.UpdatedAt = now
	if err := s.Store.SaveAsset(ctx, a); err != nil {
		return nil, fmt.Errorf("save asset: %w", err)
	}
	s.Logger.InfoContext(ctx, "maintenance schedule generated",
		"asset_id", id, "pattern", a.Schedule.Pattern, "requests", len(created), "replaced", len(stale))
	return created, nil
}

// =============================================================================
// TEAMS
// =============================================================================

// SaveTeam creates or updates a team. New teams are active.
func (s *Service) SaveTeam(ctx context.Context, t Team) (Team, error) {
	if t.Name == "" {
		return Team{}, fmt.Errorf("%w: team name is required", generic.ErrInvalidInput)
	}
	if t.ID == "" {
		t.ID = generic.TeamID(generic.NewID("team"))
		t.Active = true
	}
	if err := s.Store.SaveTeam(ctx, t); err != nil {
		return Team{}, fmt.Errorf("save team: %w", err)
	}
	return t, nil
}

func (s *Service) ListTeams(ctx context.Context) ([]Team, error) {
	return s.Store.ListTeams(ctx)
}

func (s *Service) activeTeam(ctx context.Context, id generic.TeamID) (Team, error) {
	t, err := s.Store.GetTeam(ctx, id)
	if err != nil {
		return Team{}, err
	}
	if !t.Active {
		return Team{}, fmt.Errorf("%w: team %q is archived", generic.ErrInvalidInput, t.Name)
	}
	return t, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

// RequestInput is what a user supplies when creating or editing a request.
type RequestInput struct {
	AssetID       generic.AssetID
	TeamID        generic.TeamID
	Title         string
	Description   string
	Kind          Kind
	Priority      int
	ScheduledDate generic.TimePoint
	ScheduledEnd  generic.TimePoint
}

// CreateRequest stores a draft request. The title defaults to
// "Maintenance for <asset>" and the kind to corrective.
func (s *Service) CreateRequest(ctx context.Context, in RequestInput) (Request, error) {
	if in.AssetID == "" {
		return Request{}, fmt.Errorf("%w: asset is required", generic.ErrInvalidInput)
	}
	a, err := s.Store.GetAsset(ctx, in.AssetID)
	if err != nil {
		return Request{}, err
	}

	now := s.now().UTC()
	r := Request{
		ID:        generic.MaintenanceRequestID(generic.NewID("mr")),
		State:     StateDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(&r, in)
	if r.Title == "" {
		r.Title = "Maintenance for " + a.DisplayName()
	}
	if r.TeamID == "" {
		r.TeamID = a.TeamID
	}
	if err := s.checkRequest(ctx, r); err != nil {
		return Request{}, err
	}
	if err := s.store(ctx, &r); err != nil {
		return Request{}, err
	}
	s.Logger.InfoContext(ctx, "maintenance request created", "request_id", r.ID, "reference", r.Reference, "asset_id", r.AssetID)
	return r, nil
}

// UpdateRequest edits a request that is not done.
func (s *Service) UpdateRequest(ctx context.Context, id generic.MaintenanceRequestID, in RequestInput) (Request, error) {
	r, err := s.Store.GetMaintenanceRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if err := r.CheckEditable(); err != nil {
		return Request{}, err
	}
	if in.AssetID != "" && in.AssetID != r.AssetID {
		if _, err := s.Store.GetAsset(ctx, in.AssetID); err != nil {
			return Request{}, err
		}
	}
	apply(&r, in)
	r.UpdatedAt = s.now().UTC()
	if err := s.checkRequest(ctx, r); err != nil {
		return Request{}, err
	}
	if err := s.Store.SaveMaintenanceRequest(ctx, r); err != nil {
		return Request{}, fmt.Errorf("save maintenance request: %w", err)
	}
	return r, nil
}

func apply(r *Request, in RequestInput) {
	if in.AssetID != "" {
		r.AssetID = in.AssetID
	}
	if in.TeamID != "" {
		r.TeamID = in.TeamID
	}
	if in.Title != "" {
		r.Title = in.Title
	}
	if in.Description != "" {
		r.Description = in.Description
	}
	r.Kind = in.Kind
	if r.Kind == "" {
		r.Kind = KindCorrective
	}
	r.Priority = in.Priority
	r.ScheduledDate = in.ScheduledDate
	r.ScheduledEnd = in.ScheduledEnd
}

func (s *Service) checkRequest(ctx context.Context, r Request) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.TeamID != "" {
		if _, err := s.activeTeam(ctx, r.TeamID); err != nil {
			return err
		}
	}
	return nil
}

// store allocates the reference of a new request and saves it.
func (s *Service) store(ctx context.Context, r *Request) error {
	year := r.ScheduledDate.Year()
	n, err := s.Store.NextReference(ctx, RequestReferenceCode, year)
	if err != nil {
		return fmt.Errorf("allocate reference: %w", err)
	}
	r.Reference = fmt.Sprintf("MR/%d/%05d", year, n)
	if err := s.Store.SaveMaintenanceRequest(ctx, *r); err != nil {
		return fmt.Errorf("save maintenance request: %w", err)
	}
	return nil
}

func (s *Service) GetRequest(ctx context.Context, id generic.MaintenanceRequestID) (Request, error) {
	return s.Store.GetMaintenanceRequest(ctx, id)
}

func (s *Service) ListRequests(ctx context.Context, f RequestFilter) ([]Request, error) {
	return s.Store.ListMaintenanceRequests(ctx, f)
}

// StartRequest moves a draft to in progress.
func (s *Service) StartRequest(ctx context.Context, id generic.MaintenanceRequestID) (Request, error) {
	return s.moveRequest(ctx, id, StateInProgress, "")
}

// MarkRepaired records that the repair is finished but not yet signed off.
func (s *Service) MarkRepaired(ctx context.Context, id generic.MaintenanceRequestID) (Request, error) {
	return s.moveRequest(ctx, id, StateRepaired, "")
}

// MarkDone closes the request; its scheduled end becomes today.
func (s *Service) MarkDone(ctx context.Context, id generic.MaintenanceRequestID) (Request, error) {
	return s.moveRequest(ctx, id, StateDone, "")
}

// CancelRequest cancels a request. A reason is required.
func (s *Service) CancelRequest(ctx context.Context, id generic.MaintenanceRequestID, reason string) (Request, error) {
	if reason == "" {
		return Request{}, fmt.Errorf("%w: a cancellation reason is required", generic.ErrInvalidInput)
	}
	return s.moveRequest(ctx, id, StateCancelled, reason)
}

// SetRequestDraft reopens a cancelled request.
func (s *Service) SetRequestDraft(ctx context.Context, id generic.MaintenanceRequestID) (Request, error) {
	return s.moveRequest(ctx, id, StateDraft, "")
}

func (s *Service) moveRequest(ctx context.Context, id generic.MaintenanceRequestID, to RequestState, reason string) (Request, error) {
	r, err := s.Store.GetMaintenanceRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}
	from := r.State
	if err := r.transition(to, s.now().UTC()); err != nil {
		return Request{}, err
	}
	switch to {
	case StateDone:
		r.ScheduledEnd = s.Today()
		if r.ScheduledEnd.Before(r.ScheduledDate) {
			r.ScheduledEnd = r.ScheduledDate
		}
	case StateCancelled:
		r.CancellationReason = reason
	}
	if err := s.checkRequest(ctx, r); err != nil {
		return Request{}, err
	}

	a, err := s.Store.GetAsset(ctx, r.AssetID)
	if err != nil {
		return Request{}, err
	}
	switch to {
	case StateInProgress, StateRepaired:
		a.Status = AssetInMaintenance
		a.setMaintenanceRequired(true)
	case StateDone:
		a.Status = AssetActive
		a.setMaintenanceRequired(a.HasRecurrence())
	case StateCancelled:
		a.Status = AssetActive
		a.setMaintenanceRequired(false)
	case StateDraft:
		a.Status = AssetActive
		a.setMaintenanceRequired(a.HasRecurrence())
	}
	a.UpdatedAt = r.UpdatedAt

	if err := s.Store.SaveMaintenanceRequest(ctx, r); err != nil {
		return Request{}, fmt.Errorf("save maintenance request: %w", err)
	}
	if err := s.Store.SaveAsset(ctx, a); err != nil {
		return Request{}, fmt.Errorf("save asset: %w", err)
	}
	s.Logger.InfoContext(ctx, "maintenance request moved",
		"request_id", id, "from", from, "to", to, "asset_id", a.ID, "asset_status", a.Status)
	return r, nil
}

// DeleteRequest removes a draft or cancelled request.
func (s *Service) DeleteRequest(ctx context.Context, id generic.MaintenanceRequestID) error {
	r, err := s.Store.GetMaintenanceRequest(ctx, id)
	if err != nil {
		return err
	}
	if err := r.CheckDeletable(); err != nil {
		return err
	}
	return s.Store.DeleteMaintenanceRequest(ctx, id)
}
