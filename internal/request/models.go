package request

import (
	"strings"
	"time"

	id "civid/pkg/domain"
	derrors "civid/pkg/domain-errors"
)

// Status is the lifecycle state of an identity request. The transitions table
// below is the single source of truth consulted by every mutating operation;
// no call site compares status strings ad hoc.
type Status string

const (
	StatusPending             Status = "pending"
	StatusApproved            Status = "approved"
	StatusRejected            Status = "rejected"
	StatusAwaitingAppointment Status = "awaiting_appointment"
	StatusProcessing          Status = "processing"
	StatusCompleted           Status = "completed"
)

// transitions encodes the legal state machine:
//
//	pending -> approved | rejected   (officer decision)
//	approved -> awaiting_appointment (automatic on approval)
//	awaiting_appointment -> processing (appointment booked)
//	processing -> completed          (appointment completed)
//	processing -> awaiting_appointment (appointment cancelled or missed)
//
// rejected and completed are terminal.
var transitions = map[Status][]Status{
	StatusPending:             {StatusApproved, StatusRejected},
	StatusApproved:            {StatusAwaitingAppointment},
	StatusAwaitingAppointment: {StatusProcessing},
	StatusProcessing:          {StatusCompleted, StatusAwaitingAppointment},
	StatusRejected:            {},
	StatusCompleted:           {},
}

// CanTransitionTo reports whether the status may move to target.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Active reports whether the status counts against the one-active-request-
// per-user invariant. Only rejection frees the user to submit again.
func (s Status) Active() bool {
	return s != StatusRejected
}

// Decision records the officer's verdict on a pending request.
type Decision struct {
	Approved  bool      `json:"approved"`
	Comment   string    `json:"comment,omitempty"`
	DecidedBy id.UserID `json:"decided_by"`
	DecidedAt time.Time `json:"decided_at"`
}

// IdentityRequest is the citizen-initiated application for a credential.
//
// Invariants:
//   - at most one request per user in an active (non-rejected) state
//   - status moves only along the transitions table
//   - never physically deleted, only state-transitioned
type IdentityRequest struct {
	ID     id.RequestID `json:"id"`
	UserID id.UserID    `json:"user_id"`

	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Address     string    `json:"address"`

	WindowFrom time.Time `json:"window_from"`
	WindowTo   time.Time `json:"window_to"`
	CostDinars int       `json:"cost_dinars"`

	Status        Status            `json:"status"`
	Decision      *Decision         `json:"decision,omitempty"`
	AppointmentID *id.AppointmentID `json:"appointment_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New validates and constructs a pending request.
func New(requestID id.RequestID, userID id.UserID, first, last string, dob time.Time, address string, from, to time.Time, now time.Time) (*IdentityRequest, error) {
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	if first == "" || last == "" {
		return nil, derrors.New(derrors.CodeValidation, "first and last name are required")
	}
	if dob.IsZero() || !dob.Before(now) {
		return nil, derrors.New(derrors.CodeValidation, "date of birth must be in the past")
	}
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, derrors.New(derrors.CodeValidation, "requested window is invalid")
	}
	return &IdentityRequest{
		ID:          requestID,
		UserID:      userID,
		FirstName:   first,
		LastName:    last,
		DateOfBirth: dob,
		Address:     strings.TrimSpace(address),
		WindowFrom:  from,
		WindowTo:    to,
		CostDinars:  defaultCostDinars,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

const defaultCostDinars = 30

// Transition moves the request to target, refusing anything the table does
// not allow. Refusals are conflicts, never silent no-ops.
func (r *IdentityRequest) Transition(target Status, now time.Time) error {
	if !target.Valid() {
		return derrors.Newf(derrors.CodeValidation, "unknown request status %q", target)
	}
	if !r.Status.CanTransitionTo(target) {
		return derrors.Newf(derrors.CodeConflict, "request cannot move from %s to %s", r.Status, target)
	}
	r.Status = target
	r.UpdatedAt = now
	return nil
}

// ApplyDecision records the officer verdict and advances the state machine:
// approval lands on awaiting_appointment (via approved), rejection is
// terminal. Only a pending request accepts a decision.
func (r *IdentityRequest) ApplyDecision(approved bool, comment string, officer id.UserID, now time.Time) error {
	if approved {
		if err := r.Transition(StatusApproved, now); err != nil {
			return err
		}
		if err := r.Transition(StatusAwaitingAppointment, now); err != nil {
			return err
		}
	} else {
		if err := r.Transition(StatusRejected, now); err != nil {
			return err
		}
	}
	r.Decision = &Decision{
		Approved:  approved,
		Comment:   strings.TrimSpace(comment),
		DecidedBy: officer,
		DecidedAt: now,
	}
	return nil
}

// LinkAppointment ties the booked appointment to the request while moving it
// to processing.
func (r *IdentityRequest) LinkAppointment(appointmentID id.AppointmentID, now time.Time) error {
	if err := r.Transition(StatusProcessing, now); err != nil {
		return err
	}
	r.AppointmentID = &appointmentID
	return nil
}

// UnlinkAppointment returns a processing request to awaiting_appointment
// after its appointment was cancelled or missed, so the user can rebook.
func (r *IdentityRequest) UnlinkAppointment(now time.Time) error {
	if err := r.Transition(StatusAwaitingAppointment, now); err != nil {
		return err
	}
	r.AppointmentID = nil
	return nil
}
