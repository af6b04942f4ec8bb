package center

import (
	"strings"
	"time"

	"civid/internal/schedule"
	id "civid/pkg/domain"
	derrors "civid/pkg/domain-errors"
)

// Status is the operational state of a center.
type Status string

const (
	StatusActive      Status = "active"
	StatusInactive    Status = "inactive"
	StatusMaintenance Status = "maintenance"
)

// transitions is the single source of truth for legal status changes.
var transitions = map[Status][]Status{
	StatusActive:      {StatusInactive, StatusMaintenance},
	StatusInactive:    {StatusActive},
	StatusMaintenance: {StatusActive, StatusInactive},
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
	switch s {
	case StatusActive, StatusInactive, StatusMaintenance:
		return true
	}
	return false
}

// Center is a physical enrollment location. Its weekly template is the sole
// input to schedule generation; only active centers are reconciled by the
// periodic job.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - Status transitions follow the transitions table only
type Center struct {
	ID        id.CenterID             `json:"id"`
	Name      string                  `json:"name"`
	Address   string                  `json:"address"`
	Region    string                  `json:"region"`
	Template  schedule.WeeklyTemplate `json:"template"`
	Status    Status                  `json:"status"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// New validates and constructs an active center. A nil template means the
// center runs on the system defaults.
func New(centerID id.CenterID, name, address, region string, template schedule.WeeklyTemplate, now time.Time) (*Center, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, derrors.New(derrors.CodeInvariantViolation, "center name cannot be empty")
	}
	if len(name) > 128 {
		return nil, derrors.New(derrors.CodeInvariantViolation, "center name must be 128 characters or less")
	}
	if template == nil {
		template = schedule.DefaultTemplate()
	}
	return &Center{
		ID:        centerID,
		Name:      name,
		Address:   strings.TrimSpace(address),
		Region:    strings.TrimSpace(region),
		Template:  template,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsActive reports whether the center accepts bookings and reconciliation.
func (c *Center) IsActive() bool { return c.Status == StatusActive }

// SetStatus validates and applies a status transition.
func (c *Center) SetStatus(target Status, now time.Time) error {
	if !target.Valid() {
		return derrors.Newf(derrors.CodeValidation, "unknown center status %q", target)
	}
	if !c.Status.CanTransitionTo(target) {
		return derrors.Newf(derrors.CodeConflict, "center cannot move from %s to %s", c.Status, target)
	}
	c.Status = target
	c.UpdatedAt = now
	return nil
}

// SetTemplate replaces the weekly template. Callers regenerate the affected
// ledgers afterwards; existing reservations survive regeneration.
func (c *Center) SetTemplate(template schedule.WeeklyTemplate, now time.Time) error {
	if len(template) == 0 {
		return derrors.New(derrors.CodeValidation, "weekly template cannot be empty")
	}
	c.Template = template
	c.UpdatedAt = now
	return nil
}
