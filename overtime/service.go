/*
service.go - Configuration and request lifecycle around the calculator

PURPOSE:
  Calls Validate, IsApplicable and the Calculator at fixed lifecycle points
  instead of recomputing on every field change:

    configuration save      -> Validate (reject on issues)
    configuration activate  -> Validate + end date not in the past
    request create/update   -> resolve day type, Calculate
    request submit/approve  -> period check, Calculate again
    recalculate             -> Calculate again on demand

NOT APPLICABLE VS ZERO:
  When a rule cannot be applied the request keeps Breakdown == nil and the
  reason goes to CalculationNote. Zero hours only ever means "computed, and
  nothing fell inside a band".

SEE ALSO:
  - calculator.go: The band decomposition
  - daytype.go: Day type resolution
  - store.go: Persistence interfaces
*/
package overtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// Observer receives calculation outcomes, e.g. for metrics.
type Observer interface {
	CalculationDone(b Breakdown)
	CalculationSkipped(err error)
	ConfigurationRejected(issues []Issue)
}

type nopObserver struct{}

func (nopObserver) CalculationDone(Breakdown)     {}
func (nopObserver) CalculationSkipped(error)      {}
func (nopObserver) ConfigurationRejected([]Issue) {}

// ReferenceCode is the counter code used for request references.
const ReferenceCode = "overtime.request"

// Service wires the store, day type resolution and the calculator.
type Service struct {
	Store      Store
	Resolver   DayTypeResolver
	Calculator Calculator
	Observer   Observer
	Logger     *slog.Logger
	Now        func() time.Time
}

// NewService builds a service resolving day types from employee calendars
// with the given fallback policy.
func NewService(store Store, calc Calculator, fallback FallbackPolicy, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Store:      store,
		Resolver:   &CalendarResolver{Employees: store, Holidays: store, Fallback: fallback},
		Calculator: calc,
		Observer:   nopObserver{},
		Logger:     logger,
		Now:        time.Now,
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Service) observer() Observer {
	if s.Observer == nil {
		return nopObserver{}
	}
	return s.Observer
}

// today is the current date in the calculator's reference zone.
func (s *Service) today() generic.TimePoint {
	return s.Calculator.RequestDate(s.now())
}

// =============================================================================
// CONFIGURATIONS
// =============================================================================

// CreateConfiguration stores a new configuration in draft.
func (s *Service) CreateConfiguration(ctx context.Context, bs BandSet) (BandSet, error) {
	if bs.ID == "" {
		bs.ID = generic.ConfigurationID(generic.NewID("cfg"))
	}
	bs.Status = StatusDraft
	if err := s.checkConfiguration(bs); err != nil {
		return BandSet{}, err
	}
	bs.CreatedAt = s.now().UTC()
	bs.UpdatedAt = bs.CreatedAt
	if err := s.Store.SaveConfiguration(ctx, bs); err != nil {
		return BandSet{}, fmt.Errorf("save configuration: %w", err)
	}
	s.Logger.InfoContext(ctx, "configuration created", "configuration_id", bs.ID, "bands", len(bs.Bands))
	return bs, nil
}

// UpdateConfiguration replaces name, validity and bands. The status is kept;
// an active configuration must stay valid after the edit.
func (s *Service) UpdateConfiguration(ctx context.Context, bs BandSet) (BandSet, error) {
	existing, err := s.Store.GetConfiguration(ctx, bs.ID)
	if err != nil {
		return BandSet{}, err
	}
	bs.Status = existing.Status
	bs.CreatedAt, bs.UpdatedAt = existing.CreatedAt, s.now().UTC()
	if err := s.checkConfiguration(bs); err != nil {
		return BandSet{}, err
	}
	if bs.Status == StatusActive && bs.Validity.End.Before(s.today()) {
		return BandSet{}, &generic.TransitionError{Kind: "configuration", ID: string(bs.ID), From: string(bs.Status), To: string(StatusActive),
			Reason: fmt.Sprintf("end date (%s) has already passed", bs.Validity.End)}
	}
	if err := s.Store.SaveConfiguration(ctx, bs); err != nil {
		return BandSet{}, fmt.Errorf("save configuration: %w", err)
	}
	s.Logger.InfoContext(ctx, "configuration updated", "configuration_id", bs.ID, "status", bs.Status)
	return bs, nil
}

func (s *Service) checkConfiguration(bs BandSet) error {
	if bs.Name == "" {
		return fmt.Errorf("%w: configuration name is required", generic.ErrInvalidInput)
	}
	if err := bs.Validity.Validate(); err != nil {
		return fmt.Errorf("configuration %q validity: %w", bs.Name, err)
	}
	if err := CheckValid(bs); err != nil {
		var invalid *ConfigurationInvalidError
		if errors.As(err, &invalid) {
			s.observer().ConfigurationRejected(invalid.Issues)
		}
		s.Logger.Warn("configuration rejected", "configuration", bs.Name, "error", err)
		return err
	}
	return nil
}

func (s *Service) GetConfiguration(ctx context.Context, id generic.ConfigurationID) (BandSet, error) {
	return s.Store.GetConfiguration(ctx, id)
}

func (s *Service) ListConfigurations(ctx context.Context) ([]BandSet, error) {
	return s.Store.ListConfigurations(ctx)
}

// ValidateConfiguration re-runs Validate on the stored configuration.
func (s *Service) ValidateConfiguration(ctx context.Context, id generic.ConfigurationID) ([]Issue, error) {
	bs, err := s.Store.GetConfiguration(ctx, id)
	if err != nil {
		return nil, err
	}
	return Validate(bs), nil
}

// ActivateConfiguration makes a configuration usable for calculations.
func (s *Service) ActivateConfiguration(ctx context.Context, id generic.ConfigurationID) (BandSet, error) {
	bs, err := s.Store.GetConfiguration(ctx, id)
	if err != nil {
		return BandSet{}, err
	}
	if today := s.today(); bs.Validity.End.Before(today) {
		return BandSet{}, &generic.TransitionError{Kind: "configuration", ID: string(id), From: string(bs.Status), To: string(StatusActive),
			Reason: fmt.Sprintf("end date (%s) has already passed, update the end date to a future date", bs.Validity.End)}
	}
	if err := s.checkConfiguration(bs); err != nil {
		return BandSet{}, err
	}
	bs.Status = StatusActive
	bs.UpdatedAt = s.now().UTC()
	if err := s.Store.SaveConfiguration(ctx, bs); err != nil {
		return BandSet{}, fmt.Errorf("save configuration: %w", err)
	}
	s.Logger.InfoContext(ctx, "configuration activated", "configuration_id", id)
	return bs, nil
}

// SetConfigurationDraft moves a configuration back to draft.
func (s *Service) SetConfigurationDraft(ctx context.Context, id generic.ConfigurationID) (BandSet, error) {
	bs, err := s.Store.GetConfiguration(ctx, id)
	if err != nil {
		return BandSet{}, err
	}
	bs.Status = StatusDraft
	bs.UpdatedAt = s.now().UTC()
	if err := s.Store.SaveConfiguration(ctx, bs); err != nil {
		return BandSet{}, fmt.Errorf("save configuration: %w", err)
	}
	s.Logger.InfoContext(ctx, "configuration set to draft", "configuration_id", id)
	return bs, nil
}

// DeleteConfiguration removes a draft configuration.
func (s *Service) DeleteConfiguration(ctx context.Context, id generic.ConfigurationID) error {
	bs, err := s.Store.GetConfiguration(ctx, id)
	if err != nil {
		return err
	}
	if bs.Status == StatusActive {
		return fmt.Errorf("%w: you can not delete an active configuration, set it to draft first", generic.ErrConflict)
	}
	if err := s.Store.DeleteConfiguration(ctx, id); err != nil {
		return fmt.Errorf("delete configuration: %w", err)
	}
	s.Logger.InfoContext(ctx, "configuration deleted", "configuration_id", id)
	return nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// SaveEmployee creates or updates an employee. A referenced configuration must exist.
func (s *Service) SaveEmployee(ctx context.Context, emp Employee) (Employee, error) {
	if emp.Name == "" {
		return Employee{}, fmt.Errorf("%w: employee name is required", generic.ErrInvalidInput)
	}
	if emp.ID == "" {
		emp.ID = generic.EmployeeID(generic.NewID("emp"))
	}
	if emp.ConfigurationID != "" {
		if _, err := s.Store.GetConfiguration(ctx, emp.ConfigurationID); err != nil {
			return Employee{}, err
		}
	}
	if emp.CreatedAt.IsZero() {
		emp.CreatedAt = s.now().UTC()
	}
	if err := s.Store.SaveEmployee(ctx, emp); err != nil {
		return Employee{}, fmt.Errorf("save employee: %w", err)
	}
	return emp, nil
}

// =============================================================================
// AD-HOC CALCULATION
// =============================================================================

// CalculationInput describes a calculation outside of a stored request.
// DayType may be left empty when EmployeeID is given; it is then resolved.
type CalculationInput struct {
	ConfigurationID generic.ConfigurationID
	EmployeeID      generic.EmployeeID
	DayType         DayType
	Start           time.Time
	End             time.Time
}

// Calculate runs the guarded calculation for in.
func (s *Service) Calculate(ctx context.Context, in CalculationInput) (Breakdown, error) {
	if err := CheckInterval(in.Start, in.End); err != nil {
		return Breakdown{}, err
	}
	cfgID := in.ConfigurationID
	if cfgID == "" && in.EmployeeID != "" {
		emp, err := s.Store.GetEmployee(ctx, in.EmployeeID)
		if err != nil {
			return Breakdown{}, err
		}
		if emp.ConfigurationID == "" {
			return Breakdown{}, &NotApplicableError{Reason: "No configuration assigned to employee"}
		}
		cfgID = emp.ConfigurationID
	}
	if cfgID == "" {
		return Breakdown{}, fmt.Errorf("%w: configuration_id or employee_id is required", generic.ErrInvalidInput)
	}
	bs, err := s.Store.GetConfiguration(ctx, cfgID)
	if err != nil {
		return Breakdown{}, err
	}

	dayType := in.DayType
	if dayType == "" {
		if in.EmployeeID == "" {
			return Breakdown{}, fmt.Errorf("%w: day_type or employee_id is required", generic.ErrInvalidInput)
		}
		if dayType, err = s.Resolver.ResolveDayType(ctx, in.EmployeeID, s.Calculator.RequestDate(in.Start)); err != nil {
			return Breakdown{}, err
		}
	}
	if !dayType.Valid() {
		return Breakdown{}, fmt.Errorf("%w: unknown day type %q", generic.ErrInvalidInput, dayType)
	}

	b, err := s.Calculator.Calculate(bs, dayType, in.Start, in.End)
	if err != nil {
		s.observer().CalculationSkipped(err)
		return Breakdown{}, err
	}
	s.observer().CalculationDone(b)
	return b, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

// RequestInput carries the user-editable fields of a request.
type RequestInput struct {
	EmployeeID       generic.EmployeeID
	Start            time.Time
	End              time.Time
	Description      string
	IncludeInPayroll *bool // nil = true
}

// CreateRequest stores a draft request with a fresh reference and its breakdown.
func (s *Service) CreateRequest(ctx context.Context, in RequestInput) (Request, error) {
	if err := CheckInterval(in.Start, in.End); err != nil {
		return Request{}, err
	}
	if in.EmployeeID == "" {
		return Request{}, fmt.Errorf("%w: employee_id is required", generic.ErrInvalidInput)
	}
	if _, err := s.Store.GetEmployee(ctx, in.EmployeeID); err != nil {
		return Request{}, err
	}

	now := s.now().UTC()
	r := Request{
		ID:               generic.RequestID(generic.NewID("otr")),
		EmployeeID:       in.EmployeeID,
		Description:      in.Description,
		IncludeInPayroll: in.IncludeInPayroll == nil || *in.IncludeInPayroll,
		Status:           RequestDraft,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	r.Start, r.End = in.Start, in.End
	if err := s.recalculate(ctx, &r); err != nil {
		return Request{}, err
	}

	// numbers are only consumed by requests that get stored
	n, err := s.Store.NextReference(ctx, ReferenceCode, r.Date.Year())
	if err != nil {
		return Request{}, fmt.Errorf("allocate reference: %w", err)
	}
	r.Reference = fmt.Sprintf("OT/%d/%05d", r.Date.Year(), n)
	if err := s.Store.SaveRequest(ctx, r); err != nil {
		return Request{}, fmt.Errorf("save request: %w", err)
	}
	s.Logger.InfoContext(ctx, "overtime request created",
		"request_id", r.ID, "reference", r.Reference, "employee_id", r.EmployeeID, "computed", r.Computed())
	return r, nil
}

// UpdateRequest edits a draft request and recalculates it.
func (s *Service) UpdateRequest(ctx context.Context, id generic.RequestID, in RequestInput) (Request, error) {
	r, err := s.Store.GetRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if r.Status != RequestDraft {
		return Request{}, fmt.Errorf("%w: only draft requests can be edited (status %s)", generic.ErrConflict, r.Status)
	}
	if err := CheckInterval(in.Start, in.End); err != nil {
		return Request{}, err
	}
	r.Start, r.End, r.Description = in.Start, in.End, in.Description
	if in.IncludeInPayroll != nil {
		r.IncludeInPayroll = *in.IncludeInPayroll
	}
	r.UpdatedAt = s.now().UTC()
	if err := s.recalculate(ctx, &r); err != nil {
		return Request{}, err
	}
	if err := s.Store.SaveRequest(ctx, r); err != nil {
		return Request{}, fmt.Errorf("save request: %w", err)
	}
	return r, nil
}

// RecalculateRequest recomputes and stores the breakdown of a request.
func (s *Service) RecalculateRequest(ctx context.Context, id generic.RequestID) (Request, error) {
	r, err := s.Store.GetRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if err := s.recalculate(ctx, &r); err != nil {
		return Request{}, err
	}
	r.UpdatedAt = s.now().UTC()
	if err := s.Store.SaveRequest(ctx, r); err != nil {
		return Request{}, fmt.Errorf("save request: %w", err)
	}
	return r, nil
}

// recalculate refreshes day type, duration and breakdown of r in place. Rule
// errors end up in CalculationNote; only lookup and storage errors are returned.
func (s *Service) recalculate(ctx context.Context, r *Request) error {
	r.Date = s.Calculator.RequestDate(r.Start)
	r.TotalHours = generic.RoundHours(decimal.NewFromFloat(r.End.Sub(r.Start).Hours()))
	r.Breakdown = nil

	emp, err := s.Store.GetEmployee(ctx, r.EmployeeID)
	if err != nil {
		return err
	}
	if dt, err := s.Resolver.ResolveDayType(ctx, r.EmployeeID, r.Date); err != nil {
		return err
	} else {
		r.DayType = dt
	}

	r.ConfigurationID = emp.ConfigurationID
	if emp.ConfigurationID == "" {
		r.CalculationNote = "No configuration assigned to employee"
		s.observer().CalculationSkipped(&NotApplicableError{Reason: r.CalculationNote})
		return nil
	}
	bs, err := s.Store.GetConfiguration(ctx, emp.ConfigurationID)
	if err != nil {
		return err
	}

	b, err := s.Calculator.Calculate(bs, r.DayType, r.Start, r.End)
	if err != nil {
		if !IsRuleError(err) {
			return err
		}
		r.CalculationNote = "Configuration not applicable: " + err.Error()
		s.observer().CalculationSkipped(err)
		return nil
	}
	r.Breakdown = &b
	r.CalculationNote = b.Message
	s.observer().CalculationDone(b)
	return nil
}

// GetRequest returns a stored request.
func (s *Service) GetRequest(ctx context.Context, id generic.RequestID) (Request, error) {
	return s.Store.GetRequest(ctx, id)
}

// EmployeeRequests is the overtime history of one employee.
func (s *Service) EmployeeRequests(ctx context.Context, id generic.EmployeeID) ([]Request, error) {
	if _, err := s.Store.GetEmployee(ctx, id); err != nil {
		return nil, err
	}
	return s.Store.ListRequests(ctx, RequestFilter{EmployeeIDs: []generic.EmployeeID{id}})
}

// SubmitRequest moves a draft to submitted. The employee needs a configuration
// whose period covers the request.
func (s *Service) SubmitRequest(ctx context.Context, id generic.RequestID) (Request, error) {
	return s.moveRequest(ctx, id, RequestSubmitted, true)
}

// ApproveRequest approves a submitted request, with the same checks as submit.
func (s *Service) ApproveRequest(ctx context.Context, id generic.RequestID) (Request, error) {
	return s.moveRequest(ctx, id, RequestApproved, true)
}

// RejectRequest rejects a submitted request.
func (s *Service) RejectRequest(ctx context.Context, id generic.RequestID) (Request, error) {
	return s.moveRequest(ctx, id, RequestRejected, false)
}

// SetRequestDraft returns a request to draft.
func (s *Service) SetRequestDraft(ctx context.Context, id generic.RequestID) (Request, error) {
	return s.moveRequest(ctx, id, RequestDraft, false)
}

func (s *Service) moveRequest(ctx context.Context, id generic.RequestID, to RequestStatus, checkPeriod bool) (Request, error) {
	r, err := s.Store.GetRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if !r.CanTransition(to) {
		return Request{}, &generic.TransitionError{Kind: "overtime request", ID: string(id), From: string(r.Status), To: string(to)}
	}

	if checkPeriod {
		if err := s.checkRequestPeriod(ctx, r, to); err != nil {
			s.Logger.WarnContext(ctx, "overtime request refused", "request_id", id, "to", to, "error", err)
			return Request{}, err
		}
		if err := s.recalculate(ctx, &r); err != nil {
			return Request{}, err
		}
	}

	from := r.Status
	if err := r.transition(to, s.now().UTC()); err != nil {
		return Request{}, err
	}
	if err := s.Store.SaveRequest(ctx, r); err != nil {
		return Request{}, fmt.Errorf("save request: %w", err)
	}
	s.Logger.InfoContext(ctx, "overtime request status changed",
		"request_id", id, "reference", r.Reference, "from", from, "to", to)
	return r, nil
}

func (s *Service) checkRequestPeriod(ctx context.Context, r Request, to RequestStatus) error {
	emp, err := s.Store.GetEmployee(ctx, r.EmployeeID)
	if err != nil {
		return err
	}
	refuse := func(reason string) error {
		return &generic.TransitionError{Kind: "overtime request", ID: string(r.ID), From: string(r.Status), To: string(to), Reason: reason}
	}
	if emp.ConfigurationID == "" {
		return refuse(fmt.Sprintf("employee '%s' has no overtime configuration", emp.Name))
	}
	bs, err := s.Store.GetConfiguration(ctx, emp.ConfigurationID)
	if err != nil {
		return err
	}
	if err := CheckWithinPeriod(r, bs, s.Calculator); err != nil {
		return refuse(err.Error())
	}
	return nil
}

// DeleteRequest removes a draft request.
func (s *Service) DeleteRequest(ctx context.Context, id generic.RequestID) error {
	r, err := s.Store.GetRequest(ctx, id)
	if err != nil {
		return err
	}
	if err := r.CheckDeletable(); err != nil {
		return err
	}
	if err := s.Store.DeleteRequest(ctx, id); err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	s.Logger.InfoContext(ctx, "overtime request deleted", "request_id", id)
	return nil
}

// =============================================================================
// REPORTING
// =============================================================================

// Report lists submitted, approved and rejected requests in the filter period.
func (s *Service) Report(ctx context.Context, f ReportFilter) (Report, error) {
	if err := f.Period.Validate(); err != nil {
		return Report{}, fmt.Errorf("report period: %w", err)
	}
	from, to := f.Period.Start, f.Period.End
	requests, err := s.Store.ListRequests(ctx, RequestFilter{
		EmployeeIDs:     f.EmployeeIDs,
		ConfigurationID: f.ConfigurationID,
		Statuses:        ReportableStatuses,
		From:            &from,
		To:              &to,
	})
	if err != nil {
		return Report{}, fmt.Errorf("list requests: %w", err)
	}

	employees, err := s.Store.ListEmployees(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list employees: %w", err)
	}
	names := make(map[generic.EmployeeID]string, len(employees))
	for _, e := range employees {
		names[e.ID] = e.Name
	}
	return BuildReport(f.Period, requests, names), nil
}
