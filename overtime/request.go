package overtime

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// RequestStatus is the approval state of an overtime request.
type RequestStatus string

const (
	RequestDraft     RequestStatus = "draft"
	RequestSubmitted RequestStatus = "submitted"
	RequestApproved  RequestStatus = "approved"
	RequestRejected  RequestStatus = "rejected"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestDraft, RequestSubmitted, RequestApproved, RequestRejected:
		return true
	}
	return false
}

// ReportableStatuses are the statuses that show up in overtime reports.
var ReportableStatuses = []RequestStatus{RequestSubmitted, RequestApproved, RequestRejected}

// Request is an employee's overtime request.
//
// Breakdown is nil whenever the calculation was not performed (no
// configuration, rule not applicable); CalculationNote then says why. A
// non-nil Breakdown with zero hours means the request fell outside every band.
type Request struct {
	ID               generic.RequestID
	Reference        string // e.g. OT/2025/00042
	EmployeeID       generic.EmployeeID
	ConfigurationID  generic.ConfigurationID
	Start            time.Time
	End              time.Time
	Date             generic.TimePoint // start date in the reference zone
	Description      string
	IncludeInPayroll bool
	Status           RequestStatus

	DayType         DayType
	TotalHours      decimal.Decimal // raw requested duration
	Breakdown       *Breakdown
	CalculationNote string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Computed reports whether a breakdown was produced.
func (r Request) Computed() bool { return r.Breakdown != nil }

// DisplayName is "<employee> - 2025-03-10 17:00".
func (r Request) DisplayName(employeeName string) string {
	if employeeName == "" {
		return fmt.Sprintf("Overtime Request - %s", r.ID)
	}
	return fmt.Sprintf("%s - %s", employeeName, r.Start.Format("2006-01-02 15:04"))
}

// =============================================================================
// TRANSITIONS
// =============================================================================

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestSubmitted: {RequestDraft},
	RequestApproved:  {RequestSubmitted},
	RequestRejected:  {RequestSubmitted},
	RequestDraft:     {RequestSubmitted, RequestApproved, RequestRejected},
}

// CanTransition reports whether the request may move to status to.
func (r Request) CanTransition(to RequestStatus) bool {
	for _, from := range requestTransitions[to] {
		if r.Status == from {
			return true
		}
	}
	return false
}

func (r *Request) transition(to RequestStatus, now time.Time) error {
	if !r.CanTransition(to) {
		return &generic.TransitionError{Kind: "overtime request", ID: string(r.ID), From: string(r.Status), To: string(to)}
	}
	r.Status = to
	r.UpdatedAt = now
	return nil
}

// CheckDeletable only lets drafts be deleted.
func (r Request) CheckDeletable() error {
	if r.Status != RequestDraft {
		return fmt.Errorf("%w: you can not delete an overtime request with status '%s', only draft can be deleted",
			generic.ErrConflict, r.Status)
	}
	return nil
}

// CheckWithinPeriod requires both the start and end date of the request
// (in the reference zone) to fall inside the configuration validity window.
func CheckWithinPeriod(r Request, bs BandSet, c Calculator) error {
	start := c.RequestDate(r.Start)
	end := c.RequestDate(r.End)
	if bs.Validity.Contains(start) && bs.Validity.Contains(end) {
		return nil
	}
	return &NotApplicableError{Reason: fmt.Sprintf(
		"request %s to %s is outside the configuration period %s - %s",
		start, end, bs.Validity.Start, bs.Validity.End)}
}
