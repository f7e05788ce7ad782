/*
handlers.go - HTTP API handlers for the overtime engine

PURPOSE:
  Exposes the overtime service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the overtime.Service.

ENDPOINTS:
  Configurations:
    GET    /api/configurations                List with summary and validity
    POST   /api/configurations                Create (draft) from JSON
    GET    /api/configurations/{id}           Detail with validation issues
    PUT    /api/configurations/{id}           Update (re-validated)
    DELETE /api/configurations/{id}           Delete (refused while active)
    POST   /api/configurations/{id}/validate  Validation issues
    POST   /api/configurations/{id}/activate  Move to active
    POST   /api/configurations/{id}/draft     Move back to draft

  Calculation:
    POST   /api/calculate                     Ad-hoc breakdown

  Employees:
    GET    /api/employees                     List
    POST   /api/employees                     Create or update
    GET    /api/employees/{id}                Detail
    GET    /api/employees/{id}/requests       Overtime history

  Requests:
    POST   /api/requests                      Create (computes the breakdown)
    GET    /api/requests/{id}                 Detail
    PUT    /api/requests/{id}                 Edit a draft
    DELETE /api/requests/{id}                 Delete a draft
    POST   /api/requests/{id}/{action}        submit, approve, reject, draft, recalculate

  Holidays:
    GET    /api/holidays?calendar_id=         List
    POST   /api/holidays                      Create
    DELETE /api/holidays/{id}                 Delete

  Reports:
    GET    /api/reports/overtime?from=&to=&employee_id=&configuration_id=

  Assets:
    GET    /api/assets                        List with next due date
    POST   /api/assets                        Create (draft unless a status is given)
    GET    /api/assets/{id}                   Detail
    PUT    /api/assets/{id}                   Update details and recurrence
    DELETE /api/assets/{id}                   Delete a draft with its requests
    POST   /api/assets/{id}/status/{status}   Move to draft, active or maintenance
    POST   /api/assets/{id}/schedule          Generate preventive requests
    GET    /api/assets/{id}/requests          Maintenance history

  Maintenance:
    POST   /api/maintenance/schedule          Recurrence preview
    GET    /api/maintenance/teams             List teams
    POST   /api/maintenance/teams             Create or update a team
    GET    /api/maintenance/requests          List (?asset_id=&state=)
    POST   /api/maintenance/requests          Create a draft
    GET    /api/maintenance/requests/{id}     Detail
    PUT    /api/maintenance/requests/{id}     Edit (refused once done)
    DELETE /api/maintenance/requests/{id}     Delete a draft or cancelled request
    POST   /api/maintenance/requests/{id}/{action}  start, repair, done, cancel, draft

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input shape (dates, instants)
  3. Call the service
  4. Serialize response
  5. Map errors to status codes

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed input, malformed interval, invalid period
  - 404: Resource not found
  - 409: Conflict or refused status transition
  - 422: Configuration invalid (details = issues) or rule not applicable
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - maintenance.go: Asset and maintenance request handlers
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/overtime-engine/factory"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/maintenance"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service     *overtime.Service
	Maintenance *maintenance.Service
	Factory     *factory.ConfigurationFactory
	Logger      *slog.Logger
}

// NewHandler creates a new handler around the overtime and maintenance services.
func NewHandler(svc *overtime.Service, maint *maintenance.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Service:     svc,
		Maintenance: maint,
		Factory:     factory.NewConfigurationFactory(),
		Logger:      logger,
	}
}

// Pinger is implemented by stores backed by a database connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health reports liveness, including the database when the store has one.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Service.Store.(Pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			h.Logger.ErrorContext(r.Context(), "database ping failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) zone() *time.Location {
	if z := h.Service.Calculator.Zone; z != nil {
		return z
	}
	return overtime.DefaultZone
}

// =============================================================================
// CONFIGURATION HANDLERS
// =============================================================================

// ListConfigurations returns all configurations with their summaries.
func (h *Handler) ListConfigurations(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListConfigurations(r.Context())
	if err != nil {
		h.respondError(w, r, "Failed to list configurations", err)
		return
	}

	dtos := make([]ConfigurationDTO, len(list))
	for i, bs := range list {
		dtos[i] = toConfigurationDTO(h.Factory, bs, false)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateConfiguration stores a new draft configuration.
func (h *Handler) CreateConfiguration(w http.ResponseWriter, r *http.Request) {
	var req factory.ConfigurationJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	bs, err := h.Factory.FromJSON(req)
	if err != nil {
		h.respondError(w, r, "Invalid configuration", err)
		return
	}
	created, err := h.Service.CreateConfiguration(r.Context(), bs)
	if err != nil {
		h.respondError(w, r, "Failed to create configuration", err)
		return
	}
	writeJSON(w, http.StatusCreated, toConfigurationDTO(h.Factory, created, true))
}

// GetConfiguration returns one configuration with its validation issues.
func (h *Handler) GetConfiguration(w http.ResponseWriter, r *http.Request) {
	bs, err := h.Service.GetConfiguration(r.Context(), generic.ConfigurationID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondError(w, r, "Failed to get configuration", err)
		return
	}
	writeJSON(w, http.StatusOK, toConfigurationDTO(h.Factory, bs, true))
}

// UpdateConfiguration replaces a configuration's name, validity and lines.
func (h *Handler) UpdateConfiguration(w http.ResponseWriter, r *http.Request) {
	var req factory.ConfigurationJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.ID = chi.URLParam(r, "id")

	bs, err := h.Factory.FromJSON(req)
	if err != nil {
		h.respondError(w, r, "Invalid configuration", err)
		return
	}
	updated, err := h.Service.UpdateConfiguration(r.Context(), bs)
	if err != nil {
		h.respondError(w, r, "Failed to update configuration", err)
		return
	}
	writeJSON(w, http.StatusOK, toConfigurationDTO(h.Factory, updated, true))
}

// DeleteConfiguration removes a draft configuration.
func (h *Handler) DeleteConfiguration(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteConfiguration(r.Context(), generic.ConfigurationID(chi.URLParam(r, "id"))); err != nil {
		h.respondError(w, r, "Failed to delete configuration", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ValidateConfiguration lists the validation issues of a stored configuration.
func (h *Handler) ValidateConfiguration(w http.ResponseWriter, r *http.Request) {
	issues, err := h.Service.ValidateConfiguration(r.Context(), generic.ConfigurationID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondError(w, r, "Failed to validate configuration", err)
		return
	}
	writeJSON(w, http.StatusOK, ValidationResponse{Valid: len(issues) == 0, Issues: toIssueDTOs(issues)})
}

// ActivateConfiguration moves a configuration to active.
func (h *Handler) ActivateConfiguration(w http.ResponseWriter, r *http.Request) {
	bs, err := h.Service.ActivateConfiguration(r.Context(), generic.ConfigurationID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondError(w, r, "Failed to activate configuration", err)
		return
	}
	writeJSON(w, http.StatusOK, toConfigurationDTO(h.Factory, bs, false))
}

// DraftConfiguration moves a configuration back to draft.
func (h *Handler) DraftConfiguration(w http.ResponseWriter, r *http.Request) {
	bs, err := h.Service.SetConfigurationDraft(r.Context(), generic.ConfigurationID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondError(w, r, "Failed to set configuration to draft", err)
		return
	}
	writeJSON(w, http.StatusOK, toConfigurationDTO(h.Factory, bs, false))
}

// =============================================================================
// CALCULATION HANDLERS
// =============================================================================

// Calculate returns a breakdown without storing anything.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	start, end, err := parseInterval(req.Start, req.End)
	if err != nil {
		h.respondError(w, r, "Invalid interval", err)
		return
	}

	b, err := h.Service.Calculate(r.Context(), overtime.CalculationInput{
		ConfigurationID: generic.ConfigurationID(req.ConfigurationID),
		EmployeeID:      generic.EmployeeID(req.EmployeeID),
		DayType:         overtime.DayType(req.DayType),
		Start:           start,
		End:             end,
	})
	if err != nil {
		h.respondError(w, r, "Calculation not performed", err)
		return
	}
	writeJSON(w, http.StatusOK, toBreakdownDTO(b))
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Service.Store.ListEmployees(r.Context())
	if err != nil {
		h.respondError(w, r, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Service.Store.GetEmployee(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondError(w, r, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// CreateEmployee creates or updates an employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cal, err := fromCalendarDTO(req.Calendar)
	if err != nil {
		h.respondError(w, r, "Invalid calendar", err)
		return
	}
	emp, err := h.Service.SaveEmployee(r.Context(), overtime.Employee{
		ID:              generic.EmployeeID(req.ID),
		Name:            req.Name,
		ConfigurationID: generic.ConfigurationID(req.ConfigurationID),
		Calendar:        cal,
	})
	if err != nil {
		h.respondError(w, r, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// GetEmployeeRequests returns an employee's overtime history, newest first.
func (h *Handler) GetEmployeeRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Service.EmployeeRequests(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondError(w, r, "Failed to list requests", err)
		return
	}

	dtos := make([]RequestDTO, len(requests))
	for i, req := range requests {
		dtos[i] = toRequestDTO(req, h.zone())
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// CreateRequest stores a draft request and computes its breakdown.
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeRequestInput(w, r)
	if !ok {
		return
	}
	req, err := h.Service.CreateRequest(r.Context(), in)
	if err != nil {
		h.respondError(w, r, "Failed to create request", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(req, h.zone()))
}

// GetRequest returns one request.
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.Service.GetRequest(r.Context(), generic.RequestID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondError(w, r, "Failed to get request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req, h.zone()))
}

// UpdateRequest edits a draft request and recalculates it.
func (h *Handler) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeRequestInput(w, r)
	if !ok {
		return
	}
	req, err := h.Service.UpdateRequest(r.Context(), generic.RequestID(chi.URLParam(r, "id")), in)
	if err != nil {
		h.respondError(w, r, "Failed to update request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req, h.zone()))
}

// DeleteRequest removes a draft request.
func (h *Handler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteRequest(r.Context(), generic.RequestID(chi.URLParam(r, "id"))); err != nil {
		h.respondError(w, r, "Failed to delete request", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RequestAction runs one of the request workflow actions.
func (h *Handler) RequestAction(w http.ResponseWriter, r *http.Request) {
	id := generic.RequestID(chi.URLParam(r, "id"))
	action := chi.URLParam(r, "action")

	var run func(*overtime.Service) (overtime.Request, error)
	switch action {
	case "submit":
		run = func(s *overtime.Service) (overtime.Request, error) { return s.SubmitRequest(r.Context(), id) }
	case "approve":
		run = func(s *overtime.Service) (overtime.Request, error) { return s.ApproveRequest(r.Context(), id) }
	case "reject":
		run = func(s *overtime.Service) (overtime.Request, error) { return s.RejectRequest(r.Context(), id) }
	case "draft":
		run = func(s *overtime.Service) (overtime.Request, error) { return s.SetRequestDraft(r.Context(), id) }
	case "recalculate":
		run = func(s *overtime.Service) (overtime.Request, error) { return s.RecalculateRequest(r.Context(), id) }
	default:
		writeError(w, http.StatusNotFound, "Unknown action", fmt.Errorf("action %q", action))
		return
	}

	req, err := run(h.Service)
	if err != nil {
		h.respondError(w, r, "Failed to "+action+" request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req, h.zone()))
}

func (h *Handler) decodeRequestInput(w http.ResponseWriter, r *http.Request) (overtime.RequestInput, bool) {
	var req SubmitRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return overtime.RequestInput{}, false
	}
	start, end, err := parseInterval(req.Start, req.End)
	if err != nil {
		h.respondError(w, r, "Invalid interval", err)
		return overtime.RequestInput{}, false
	}
	return overtime.RequestInput{
		EmployeeID:       generic.EmployeeID(req.EmployeeID),
		Start:            start,
		End:              end,
		Description:      req.Description,
		IncludeInPayroll: req.IncludeInPayroll,
	}, true
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns holidays of a calendar (plus global ones), or all of them.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Service.Store.ListHolidays(r.Context(), r.URL.Query().Get("calendar_id"))
	if err != nil {
		h.respondError(w, r, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = toHolidayDTO(hol)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds a holiday.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Holiday name is required", nil)
		return
	}
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	if req.ID == "" {
		req.ID = generic.NewID("hol")
	}

	hol := generic.Holiday{ID: req.ID, CalendarID: req.CalendarID, Date: date, Name: req.Name, Recurring: req.Recurring}
	if err := h.Service.Store.SaveHoliday(r.Context(), hol); err != nil {
		h.respondError(w, r, "Failed to create holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(hol))
}

// DeleteHoliday removes a holiday.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Store.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, r, "Failed to delete holiday", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// OvertimeReport returns submitted, approved and rejected requests in a period.
func (h *Handler) OvertimeReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := generic.ParseDate(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
		return
	}
	to, err := generic.ParseDate(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
		return
	}

	filter := overtime.ReportFilter{
		Period:          generic.Period{Start: from, End: to},
		ConfigurationID: generic.ConfigurationID(q.Get("configuration_id")),
	}
	for _, id := range q["employee_id"] {
		for _, part := range strings.Split(id, ",") {
			if part = strings.TrimSpace(part); part != "" {
				filter.EmployeeIDs = append(filter.EmployeeIDs, generic.EmployeeID(part))
			}
		}
	}

	rep, err := h.Service.Report(r.Context(), filter)
	if err != nil {
		h.respondError(w, r, "Failed to build report", err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(rep, h.zone()))
}

// =============================================================================
// MAINTENANCE HANDLERS
// =============================================================================

// PreviewSchedule lists the due dates of a maintenance recurrence.
func (h *Handler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	sched, err := fromScheduleRequest(req)
	if err != nil {
		h.respondError(w, r, "Invalid schedule", err)
		return
	}

	dates, err := sched.Occurrences(req.Limit)
	if err != nil {
		h.respondError(w, r, "Invalid schedule", err)
		return
	}
	resp := ScheduleResponse{Occurrences: make([]string, len(dates))}
	for i, d := range dates {
		resp.Occurrences[i] = d.Time.Format(generic.DateLayout)
	}

	if req.After != "" {
		after, err := generic.ParseDate(req.After)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid after date (use YYYY-MM-DD)", err)
			return
		}
		if next, ok := sched.Next(after); ok {
			s := next.Time.Format(generic.DateLayout)
			resp.Next = &s
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// HELPERS
// =============================================================================

// parseInterval reads RFC 3339 instants. An offset is required so the
// reference zone conversion is unambiguous.
func parseInterval(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start must be RFC 3339 with offset: %v", generic.ErrInvalidInput, err)
	}
	end, err := time.Parse(time.RFC3339, endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end must be RFC 3339 with offset: %v", generic.ErrInvalidInput, err)
	}
	return start, end, nil
}

// respondError maps domain errors to HTTP status codes.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, message string, err error) {
	var invalid *overtime.ConfigurationInvalidError
	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   message,
			Code:    "configuration_invalid",
			Details: toIssueDTOs(invalid.Issues),
		})
	case generic.IsNotFound(err):
		writeCodedError(w, http.StatusNotFound, message, "not_found", err)
	case generic.IsConflict(err):
		writeCodedError(w, http.StatusConflict, message, "conflict", err)
	case errors.Is(err, overtime.ErrRuleNotApplicable):
		writeCodedError(w, http.StatusUnprocessableEntity, message, "not_applicable", err)
	case errors.Is(err, overtime.ErrMalformedInterval):
		writeCodedError(w, http.StatusBadRequest, message, "malformed_interval", err)
	case generic.IsClientError(err):
		writeCodedError(w, http.StatusBadRequest, message, "invalid_input", err)
	default:
		h.Logger.ErrorContext(r.Context(), message, "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	writeCodedError(w, status, message, "", err)
}

func writeCodedError(w http.ResponseWriter, status int, message, code string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
