package biometric

import (
	"context"

	id "civid/pkg/domain"
)

// Store persists captures. Create must refuse a second capture for the same
// appointment with ErrConflict.
type Store interface {
	Create(ctx context.Context, c *Capture) error
	Update(ctx context.Context, c *Capture) error
	Delete(ctx context.Context, captureID id.CaptureID) error
	FindByID(ctx context.Context, captureID id.CaptureID) (*Capture, error)
	FindByAppointment(ctx context.Context, appointmentID id.AppointmentID) (*Capture, error)
	FindByRequest(ctx context.Context, requestID id.RequestID) (*Capture, error)
}
