/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

FORMATS:
  - Instants are RFC 3339 strings; a missing offset is rejected
  - Dates are YYYY-MM-DD
  - Hours are numbers rounded to 2 places
  - Band times are fractional hours (17.5 = 17:30)

VALIDATION:
  Validation is done in handlers and the service, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/configuration.go: ConfigurationJSON type
*/
package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/factory"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/maintenance"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// CONFIGURATIONS
// =============================================================================

// ConfigurationDTO is a configuration with its summary and validation state.
type ConfigurationDTO struct {
	factory.ConfigurationJSON
	Summary SummaryDTO `json:"summary"`
	Valid   bool       `json:"valid"`
	Issues  []IssueDTO `json:"issues,omitempty"`
}

// SummaryDTO describes the configured bands.
type SummaryDTO struct {
	ConfiguredHours map[string]float64 `json:"configured_hours"`
	TotalHours      float64            `json:"total_hours"`
	RangeStart      string             `json:"range_start,omitempty"`
	RangeEnd        string             `json:"range_end,omitempty"`
	RangeDuration   float64            `json:"range_duration"`
	BandCount       int                `json:"band_count"`
	Period          string             `json:"period"`
}

// IssueDTO is one validation issue.
type IssueDTO struct {
	Code    string `json:"code"`
	DayType string `json:"day_type,omitempty"`
	Message string `json:"message"`
}

// ValidationResponse is returned by the validate endpoint.
type ValidationResponse struct {
	Valid  bool       `json:"valid"`
	Issues []IssueDTO `json:"issues"`
}

// =============================================================================
// CALCULATION
// =============================================================================

// CalculateRequest asks for a breakdown outside of a stored request.
type CalculateRequest struct {
	ConfigurationID string `json:"configuration_id"`
	EmployeeID      string `json:"employee_id"`
	DayType         string `json:"day_type"`
	Start           string `json:"start"`
	End             string `json:"end"`
}

// BreakdownDTO is the per-tier decomposition with its trace.
type BreakdownDTO struct {
	ConfigurationID string       `json:"configuration_id"`
	DayType         string       `json:"day_type"`
	DayTypeLabel    string       `json:"day_type_label"`
	RequestStart    float64      `json:"request_start"`
	RequestEnd      float64      `json:"request_end"`
	Segments        []SegmentDTO `json:"segments"`
	Overlaps        []OverlapDTO `json:"overlaps"`
	OT1             float64      `json:"ot1_hours"`
	OT2             float64      `json:"ot2_hours"`
	OT3             float64      `json:"ot3_hours"`
	Total           float64      `json:"overtime_hours"`
	Message         string       `json:"message"`
}

// SegmentDTO is one per-day piece of the request timeline.
type SegmentDTO struct {
	Day   int    `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// OverlapDTO is the contribution of one band.
type OverlapDTO struct {
	Tier  string  `json:"tier"`
	Start string  `json:"start"`
	End   string  `json:"end"`
	Hours float64 `json:"hours"`
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	ConfigurationID string       `json:"configuration_id,omitempty"`
	Calendar        *CalendarDTO `json:"calendar,omitempty"`
	CreatedAt       string       `json:"created_at,omitempty"`
}

// CalendarDTO is a work calendar. WorkingDays are lowercase English weekday names.
type CalendarDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	WorkingDays []string `json:"working_days"`
}

// CreateEmployeeRequest is the request to create or update an employee.
type CreateEmployeeRequest struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	ConfigurationID string       `json:"configuration_id"`
	Calendar        *CalendarDTO `json:"calendar,omitempty"`
}

// =============================================================================
// REQUESTS
// =============================================================================

// RequestDTO is an overtime request.
type RequestDTO struct {
	ID               string        `json:"id"`
	Reference        string        `json:"reference"`
	EmployeeID       string        `json:"employee_id"`
	ConfigurationID  string        `json:"configuration_id,omitempty"`
	Start            string        `json:"start"`
	End              string        `json:"end"`
	Date             string        `json:"date"`
	Description      string        `json:"description,omitempty"`
	IncludeInPayroll bool          `json:"include_in_payroll"`
	Status           string        `json:"status"`
	DayType          string        `json:"day_type,omitempty"`
	TotalHours       float64       `json:"total_hours"`
	Computed         bool          `json:"computed"`
	Breakdown        *BreakdownDTO `json:"breakdown,omitempty"`
	CalculationNote  string        `json:"calculation_note,omitempty"`
	CreatedAt        string        `json:"created_at"`
	UpdatedAt        string        `json:"updated_at"`
}

// SubmitRequestDTO creates or edits a request.
type SubmitRequestDTO struct {
	EmployeeID       string `json:"employee_id"`
	Start            string `json:"start"`
	End              string `json:"end"`
	Description      string `json:"description"`
	IncludeInPayroll *bool  `json:"include_in_payroll,omitempty"`
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// HolidayDTO represents a holiday. An empty calendar_id applies to every calendar.
type HolidayDTO struct {
	ID         string `json:"id"`
	CalendarID string `json:"calendar_id"`
	Date       string `json:"date"`
	Name       string `json:"name"`
	Recurring  bool   `json:"recurring"`
}

// =============================================================================
// REPORTS
// =============================================================================

// ReportDTO is the overtime report for a period.
type ReportDTO struct {
	From   string           `json:"from"`
	To     string           `json:"to"`
	Rows   []ReportRowDTO   `json:"rows"`
	Totals []ReportTotalDTO `json:"totals"`
}

type ReportRowDTO struct {
	RequestID       string  `json:"request_id"`
	Reference       string  `json:"reference"`
	EmployeeID      string  `json:"employee_id"`
	EmployeeName    string  `json:"employee_name"`
	ConfigurationID string  `json:"configuration_id,omitempty"`
	Start           string  `json:"start"`
	End             string  `json:"end"`
	Status          string  `json:"status"`
	DayType         string  `json:"day_type,omitempty"`
	TotalHours      float64 `json:"total_hours"`
	OT1             float64 `json:"ot1_hours"`
	OT2             float64 `json:"ot2_hours"`
	OT3             float64 `json:"ot3_hours"`
	Overtime        float64 `json:"overtime_hours"`
	Computed        bool    `json:"computed"`
	Description     string  `json:"description,omitempty"`
}

type ReportTotalDTO struct {
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	Requests     int     `json:"requests"`
	TotalHours   float64 `json:"total_hours"`
	OT1          float64 `json:"ot1_hours"`
	OT2          float64 `json:"ot2_hours"`
	OT3          float64 `json:"ot3_hours"`
	Overtime     float64 `json:"overtime_hours"`
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// ScheduleRequest previews a maintenance recurrence.
type ScheduleRequest struct {
	Pattern  string `json:"pattern"`
	Start    string `json:"start"`
	Interval int    `json:"interval"`
	End      string `json:"end,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	After    string `json:"after,omitempty"`
}

// ScheduleResponse lists due dates and, when After was given, the next one.
type ScheduleResponse struct {
	Occurrences []string `json:"occurrences"`
	Next        *string  `json:"next,omitempty"`
}

// ScheduleDTO is the recurrence stored on an asset.
type ScheduleDTO struct {
	Pattern  string `json:"pattern"`
	Start    string `json:"start,omitempty"`
	Interval int    `json:"interval"`
	End      string `json:"end,omitempty"`
}

// AssetDTO is an asset with its next due date.
type AssetDTO struct {
	ID                  string      `json:"id"`
	Name                string      `json:"name"`
	DisplayName         string      `json:"display_name"`
	Code                string      `json:"code,omitempty"`
	Location            string      `json:"location,omitempty"`
	ResponsibleID       string      `json:"responsible_id,omitempty"`
	TeamID              string      `json:"team_id,omitempty"`
	Status              string      `json:"status"`
	Condition           string      `json:"condition"`
	MaintenanceRequired bool        `json:"maintenance_required"`
	Schedule            ScheduleDTO `json:"schedule"`
	NextMaintenance     *string     `json:"next_maintenance,omitempty"`
	Notes               string      `json:"notes,omitempty"`
}

// AssetRequest creates or updates an asset. Status is only read on create.
type AssetRequest struct {
	Name                string          `json:"name"`
	Code                string          `json:"code"`
	Location            string          `json:"location"`
	ResponsibleID       string          `json:"responsible_id"`
	TeamID              string          `json:"team_id"`
	Status              string          `json:"status"`
	Condition           string          `json:"condition"`
	MaintenanceRequired bool            `json:"maintenance_required"`
	Schedule            ScheduleRequest `json:"schedule"`
	Notes               string          `json:"notes"`
}

// TeamDTO is a maintenance team. Active is ignored on create.
type TeamDTO struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
	Active  bool     `json:"active"`
}

// MaintenanceRequestDTO is a maintenance request.
type MaintenanceRequestDTO struct {
	ID                 string `json:"id"`
	Reference          string `json:"reference"`
	DisplayName        string `json:"display_name"`
	AssetID            string `json:"asset_id"`
	TeamID             string `json:"team_id,omitempty"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	Kind               string `json:"kind"`
	Priority           int    `json:"priority"`
	ScheduledDate      string `json:"scheduled_date"`
	ScheduledEnd       string `json:"scheduled_end,omitempty"`
	State              string `json:"state"`
	AutoGenerated      bool   `json:"auto_generated"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
}

// MaintenanceRequestInput creates or edits a maintenance request.
type MaintenanceRequestInput struct {
	AssetID       string `json:"asset_id"`
	TeamID        string `json:"team_id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Kind          string `json:"kind"`
	Priority      int    `json:"priority"`
	ScheduledDate string `json:"scheduled_date"`
	ScheduledEnd  string `json:"scheduled_end"`
}

// CancelMaintenanceRequest carries the mandatory cancellation reason.
type CancelMaintenanceRequest struct {
	Reason string `json:"reason"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func hours(d decimal.Decimal) float64 {
	return generic.HoursFloat(generic.RoundHours(d))
}

func toConfigurationDTO(f *factory.ConfigurationFactory, bs overtime.BandSet, withIssues bool) ConfigurationDTO {
	issues := overtime.Validate(bs)
	dto := ConfigurationDTO{
		ConfigurationJSON: f.ToJSON(bs),
		Summary:           toSummaryDTO(bs.Summarize()),
		Valid:             len(issues) == 0,
	}
	if withIssues {
		dto.Issues = toIssueDTOs(issues)
	}
	return dto
}

func toSummaryDTO(s overtime.Summary) SummaryDTO {
	dto := SummaryDTO{
		ConfiguredHours: make(map[string]float64, len(s.ConfiguredHours)),
		TotalHours:      hours(s.TotalHours),
		RangeDuration:   s.RangeDuration,
		BandCount:       s.BandCount,
		Period:          s.Period,
	}
	for t, h := range s.ConfiguredHours {
		dto.ConfiguredHours[string(t)] = hours(h)
	}
	if s.BandCount > 0 {
		dto.RangeStart = overtime.FormatClock(s.RangeStart)
		dto.RangeEnd = overtime.FormatClock(s.RangeEnd)
	}
	return dto
}

func toIssueDTOs(issues []overtime.Issue) []IssueDTO {
	out := make([]IssueDTO, len(issues))
	for i, is := range issues {
		out[i] = IssueDTO{Code: string(is.Code), DayType: string(is.DayType), Message: is.Message}
	}
	return out
}

func toBreakdownDTO(b overtime.Breakdown) BreakdownDTO {
	dto := BreakdownDTO{
		ConfigurationID: string(b.ConfigurationID),
		DayType:         string(b.DayType),
		DayTypeLabel:    b.DayType.Label(),
		RequestStart:    b.RequestStart,
		RequestEnd:      b.RequestEnd,
		Segments:        make([]SegmentDTO, len(b.Segments)),
		Overlaps:        make([]OverlapDTO, len(b.Overlaps)),
		OT1:             hours(b.OT1),
		OT2:             hours(b.OT2),
		OT3:             hours(b.OT3),
		Total:           hours(b.Total),
		Message:         b.Message,
	}
	for i, s := range b.Segments {
		dto.Segments[i] = SegmentDTO{Day: s.Day, Start: overtime.FormatClock(s.Start), End: overtime.FormatClock(s.End)}
	}
	for i, o := range b.Overlaps {
		dto.Overlaps[i] = OverlapDTO{
			Tier:  string(o.Band.Tier),
			Start: overtime.FormatClock(o.Band.Start),
			End:   overtime.FormatClock(o.Band.End),
			Hours: hours(o.Hours),
		}
	}
	return dto
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
}

func toCalendarDTO(wc *overtime.WorkCalendar) *CalendarDTO {
	if wc == nil {
		return nil
	}
	dto := &CalendarDTO{ID: wc.ID, Name: wc.Name, WorkingDays: make([]string, len(wc.WorkingDays))}
	for i, d := range wc.WorkingDays {
		dto.WorkingDays[i] = strings.ToLower(d.String())
	}
	return dto
}

func fromCalendarDTO(dto *CalendarDTO) (*overtime.WorkCalendar, error) {
	if dto == nil {
		return nil, nil
	}
	if dto.ID == "" {
		return nil, fmt.Errorf("%w: calendar id is required", generic.ErrInvalidInput)
	}
	wc := &overtime.WorkCalendar{ID: dto.ID, Name: dto.Name}
	for _, name := range dto.WorkingDays {
		d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("%w: unknown weekday %q", generic.ErrInvalidInput, name)
		}
		wc.WorkingDays = append(wc.WorkingDays, d)
	}
	return wc, nil
}

func toEmployeeDTO(e overtime.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:              string(e.ID),
		Name:            e.Name,
		ConfigurationID: string(e.ConfigurationID),
		Calendar:        toCalendarDTO(e.Calendar),
	}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toRequestDTO(r overtime.Request, zone *time.Location) RequestDTO {
	dto := RequestDTO{
		ID:               string(r.ID),
		Reference:        r.Reference,
		EmployeeID:       string(r.EmployeeID),
		ConfigurationID:  string(r.ConfigurationID),
		Start:            r.Start.In(zone).Format(time.RFC3339),
		End:              r.End.In(zone).Format(time.RFC3339),
		Date:             r.Date.Time.Format(generic.DateLayout),
		Description:      r.Description,
		IncludeInPayroll: r.IncludeInPayroll,
		Status:           string(r.Status),
		DayType:          string(r.DayType),
		TotalHours:       hours(r.TotalHours),
		Computed:         r.Computed(),
		CalculationNote:  r.CalculationNote,
		CreatedAt:        r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        r.UpdatedAt.Format(time.RFC3339),
	}
	if r.Breakdown != nil {
		b := toBreakdownDTO(*r.Breakdown)
		dto.Breakdown = &b
	}
	return dto
}

func toHolidayDTO(h generic.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:         h.ID,
		CalendarID: h.CalendarID,
		Date:       h.Date.Time.Format(generic.DateLayout),
		Name:       h.Name,
		Recurring:  h.Recurring,
	}
}

func toReportDTO(rep overtime.Report, zone *time.Location) ReportDTO {
	dto := ReportDTO{
		From:   rep.Period.Start.Time.Format(generic.DateLayout),
		To:     rep.Period.End.Time.Format(generic.DateLayout),
		Rows:   make([]ReportRowDTO, len(rep.Rows)),
		Totals: make([]ReportTotalDTO, len(rep.Totals)),
	}
	for i, r := range rep.Rows {
		dto.Rows[i] = ReportRowDTO{
			RequestID:       string(r.RequestID),
			Reference:       r.Reference,
			EmployeeID:      string(r.EmployeeID),
			EmployeeName:    r.EmployeeName,
			ConfigurationID: string(r.ConfigurationID),
			Start:           r.Start.In(zone).Format(time.RFC3339),
			End:             r.End.In(zone).Format(time.RFC3339),
			Status:          string(r.Status),
			DayType:         string(r.DayType),
			TotalHours:      hours(r.TotalHours),
			OT1:             hours(r.OT1),
			OT2:             hours(r.OT2),
			OT3:             hours(r.OT3),
			Overtime:        hours(r.Overtime),
			Computed:        r.Computed,
			Description:     r.Description,
		}
	}
	for i, t := range rep.Totals {
		dto.Totals[i] = ReportTotalDTO{
			EmployeeID:   string(t.EmployeeID),
			EmployeeName: t.EmployeeName,
			Requests:     t.Requests,
			TotalHours:   hours(t.TotalHours),
			OT1:          hours(t.OT1),
			OT2:          hours(t.OT2),
			OT3:          hours(t.OT3),
			Overtime:     hours(t.Overtime),
		}
	}
	return dto
}

func fromScheduleRequest(req ScheduleRequest) (maintenance.Schedule, error) {
	s := maintenance.Schedule{Pattern: maintenance.Pattern(req.Pattern), Interval: req.Interval}
	if s.Pattern == "" {
		s.Pattern = maintenance.PatternNone
	}
	var err error
	if req.Start != "" {
		if s.Start, err = generic.ParseDate(req.Start); err != nil {
			return maintenance.Schedule{}, fmt.Errorf("%w: start: %v", generic.ErrInvalidInput, err)
		}
	}
	if req.End != "" {
		if s.End, err = generic.ParseDate(req.End); err != nil {
			return maintenance.Schedule{}, fmt.Errorf("%w: end: %v", generic.ErrInvalidInput, err)
		}
	}
	return s, nil
}

func toAssetDTO(a maintenance.Asset, today generic.TimePoint) AssetDTO {
	dto := AssetDTO{
		ID:                  string(a.ID),
		Name:                a.Name,
		DisplayName:         a.DisplayName(),
		Code:                a.Code,
		Location:            a.Location,
		ResponsibleID:       string(a.ResponsibleID),
		TeamID:              string(a.TeamID),
		Status:              string(a.Status),
		Condition:           string(a.Condition),
		MaintenanceRequired: a.MaintenanceRequired,
		Schedule: ScheduleDTO{
			Pattern:  string(a.Schedule.Pattern),
			Start:    optionalDate(a.Schedule.Start),
			Interval: a.Schedule.Interval,
			End:      optionalDate(a.Schedule.End),
		},
		Notes: a.Notes,
	}
	if next, ok := a.NextMaintenance(today); ok {
		s := next.String()
		dto.NextMaintenance = &s
	}
	return dto
}

func fromAssetRequest(req AssetRequest) (maintenance.Asset, error) {
	sched, err := fromScheduleRequest(req.Schedule)
	if err != nil {
		return maintenance.Asset{}, err
	}
	return maintenance.Asset{
		Name:                req.Name,
		Code:                req.Code,
		Location:            req.Location,
		ResponsibleID:       generic.EmployeeID(req.ResponsibleID),
		TeamID:              generic.TeamID(req.TeamID),
		Status:              maintenance.AssetStatus(req.Status),
		Condition:           maintenance.Condition(req.Condition),
		MaintenanceRequired: req.MaintenanceRequired,
		Schedule:            sched,
		Notes:               req.Notes,
	}, nil
}

func toTeamDTO(t maintenance.Team) TeamDTO {
	members := make([]string, len(t.Members))
	for i, m := range t.Members {
		members[i] = string(m)
	}
	return TeamDTO{ID: string(t.ID), Name: t.Name, Members: members, Active: t.Active}
}

func toMaintenanceRequestDTO(r maintenance.Request) MaintenanceRequestDTO {
	return MaintenanceRequestDTO{
		ID:                 string(r.ID),
		Reference:          r.Reference,
		DisplayName:        r.DisplayName(),
		AssetID:            string(r.AssetID),
		TeamID:             string(r.TeamID),
		Title:              r.Title,
		Description:        r.Description,
		Kind:               string(r.Kind),
		Priority:           r.Priority,
		ScheduledDate:      optionalDate(r.ScheduledDate),
		ScheduledEnd:       optionalDate(r.ScheduledEnd),
		State:              string(r.State),
		AutoGenerated:      r.AutoGenerated,
		CancellationReason: r.CancellationReason,
	}
}

func fromMaintenanceRequestInput(req MaintenanceRequestInput) (maintenance.RequestInput, error) {
	in := maintenance.RequestInput{
		AssetID:     generic.AssetID(req.AssetID),
		TeamID:      generic.TeamID(req.TeamID),
		Title:       req.Title,
		Description: req.Description,
		Kind:        maintenance.Kind(req.Kind),
		Priority:    req.Priority,
	}
	var err error
	if req.ScheduledDate != "" {
		if in.ScheduledDate, err = generic.ParseDate(req.ScheduledDate); err != nil {
			return maintenance.RequestInput{}, fmt.Errorf("%w: scheduled_date: %v", generic.ErrInvalidInput, err)
		}
	}
	if req.ScheduledEnd != "" {
		if in.ScheduledEnd, err = generic.ParseDate(req.ScheduledEnd); err != nil {
			return maintenance.RequestInput{}, fmt.Errorf("%w: scheduled_end: %v", generic.ErrInvalidInput, err)
		}
	}
	return in, nil
}

func optionalDate(tp generic.TimePoint) string {
	if tp.IsZero() {
		return ""
	}
	return tp.String()
}
