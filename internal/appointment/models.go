package appointment

import (
	"time"

	id "civid/pkg/domain"
	derrors "civid/pkg/domain-errors"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusMissed    Status = "missed"
)

// transitions: an appointment only ever leaves scheduled, and only once.
var transitions = map[Status][]Status{
	StatusScheduled: {StatusCompleted, StatusCancelled, StatusMissed},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusMissed:    {},
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

// Appointment links a user, the assigned officer, the originating identity
// request, a (date, slot) at a center, and its own lifecycle state. Created
// only through the binder, which consumes exactly one slot in the matching
// day entry.
type Appointment struct {
	ID        id.AppointmentID `json:"id"`
	UserID    id.UserID        `json:"user_id"`
	OfficerID id.UserID        `json:"officer_id"`
	RequestID id.RequestID     `json:"request_id"`
	CenterID  id.CenterID      `json:"center_id"`
	Date      time.Time        `json:"date"`
	Slot      string           `json:"slot"` // "10:30"
	Status    Status           `json:"status"`
	Notes     string           `json:"notes,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Transition moves the appointment to target, refusing anything outside the
// table with a conflict.
func (a *Appointment) Transition(target Status, now time.Time) error {
	if !a.Status.CanTransitionTo(target) {
		return derrors.Newf(derrors.CodeConflict, "appointment cannot move from %s to %s", a.Status, target)
	}
	a.Status = target
	a.UpdatedAt = now
	return nil
}
