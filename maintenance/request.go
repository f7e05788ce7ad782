package maintenance

import (
	"fmt"
	"time"

	"github.com/warp/overtime-engine/generic"
)

// RequestState is the progress of a maintenance request.
type RequestState string

const (
	StateDraft      RequestState = "draft"
	StateInProgress RequestState = "in_progress"
	StateRepaired   RequestState = "repaired"
	StateDone       RequestState = "done"
	StateCancelled  RequestState = "cancelled"
)

func (s RequestState) Valid() bool {
	switch s {
	case StateDraft, StateInProgress, StateRepaired, StateDone, StateCancelled:
		return true
	}
	return false
}

// Kind tells breakdown repairs from planned work.
type Kind string

const (
	KindCorrective Kind = "corrective"
	KindPreventive Kind = "preventive"
)

func (k Kind) Valid() bool { return k == KindCorrective || k == KindPreventive }

// MaxPriority is the highest star rating a request can carry.
const MaxPriority = 3

// Request is a unit of maintenance work on one asset.
type Request struct {
	ID                 generic.MaintenanceRequestID
	Reference          string // e.g. MR/2025/00007
	AssetID            generic.AssetID
	TeamID             generic.TeamID
	Title              string
	Description        string
	Kind               Kind
	Priority           int // 0-3 stars
	ScheduledDate      generic.TimePoint
	ScheduledEnd       generic.TimePoint // set to the completion date when done
	State              RequestState
	AutoGenerated      bool // created from the asset schedule
	CancellationReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName is "<reference> - <title>".
func (r Request) DisplayName() string {
	if r.Reference == "" {
		return "MR - " + r.Title
	}
	return r.Reference + " - " + r.Title
}

// Validate checks required fields and the dates. A team is required once
// work has started.
func (r Request) Validate() error {
	switch {
	case r.AssetID == "":
		return fmt.Errorf("%w: asset is required", generic.ErrInvalidInput)
	case r.Title == "":
		return fmt.Errorf("%w: request title is required", generic.ErrInvalidInput)
	case r.Description == "":
		return fmt.Errorf("%w: description is required", generic.ErrInvalidInput)
	case r.ScheduledDate.IsZero():
		return fmt.Errorf("%w: scheduled start is required", generic.ErrInvalidInput)
	case !r.Kind.Valid():
		return fmt.Errorf("%w: unknown maintenance type %q", generic.ErrInvalidInput, r.Kind)
	case r.Priority < 0 || r.Priority > MaxPriority:
		return fmt.Errorf("%w: priority must be between 0 and %d", generic.ErrInvalidInput, MaxPriority)
	}
	if !r.ScheduledEnd.IsZero() && r.ScheduledEnd.Before(r.ScheduledDate) {
		return fmt.Errorf("scheduled end %s before scheduled start %s: %w", r.ScheduledEnd, r.ScheduledDate, generic.ErrInvalidPeriod)
	}
	if r.TeamID == "" && r.State != StateDraft && r.State != StateCancelled {
		return fmt.Errorf("%w: a team is required before the request leaves draft", generic.ErrInvalidInput)
	}
	return nil
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// requestTransitions lists the states each state may move to. Done is final.
var requestTransitions = map[RequestState][]RequestState{
	StateDraft:      {StateInProgress, StateCancelled},
	StateInProgress: {StateRepaired, StateDone, StateCancelled},
	StateRepaired:   {StateDone, StateCancelled},
	StateCancelled:  {StateDraft},
	StateDone:       nil,
}

// CanTransition reports whether the request may move to state to.
func (r Request) CanTransition(to RequestState) bool {
	for _, next := range requestTransitions[r.State] {
		if next == to {
			return true
		}
	}
	return false
}

func (r *Request) transition(to RequestState, now time.Time) error {
	if !r.CanTransition(to) {
		reason := ""
		if r.State == StateDone {
			reason = "a request marked done cannot be modified"
		}
		return &generic.TransitionError{Kind: "maintenance request", ID: string(r.ID), From: string(r.State), To: string(to), Reason: reason}
	}
	r.State = to
	r.UpdatedAt = now
	return nil
}

// CheckEditable refuses edits to finished requests.
func (r Request) CheckEditable() error {
	if r.State == StateDone {
		return fmt.Errorf("%w: you cannot modify a maintenance request that is already marked as done", generic.ErrConflict)
	}
	return nil
}

// CheckDeletable lets draft and cancelled requests be deleted.
func (r Request) CheckDeletable() error {
	if r.State != StateDraft && r.State != StateCancelled {
		return fmt.Errorf("%w: only draft or cancelled maintenance requests can be deleted (state %s)", generic.ErrConflict, r.State)
	}
	return nil
}
