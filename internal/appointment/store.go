package appointment

import (
	"context"

	id "civid/pkg/domain"
)

//go:generate mockgen -source=store.go -destination=mocks/store_mocks.go -package=mocks Store

// Store persists appointments. Create and Delete must both be durable inside
// the binder's transaction scope: Delete exists solely as compensation for a
// reserve-then-fail booking.
type Store interface {
	Create(ctx context.Context, a *Appointment) error
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, appointmentID id.AppointmentID) error
	FindByID(ctx context.Context, appointmentID id.AppointmentID) (*Appointment, error)
	FindByRequest(ctx context.Context, requestID id.RequestID) (*Appointment, error)
	ListByCenterDate(ctx context.Context, centerID id.CenterID, date string) ([]*Appointment, error)
}
