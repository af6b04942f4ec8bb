package schedule

import (
	"context"
	"time"

	id "civid/pkg/domain"
)

// Store persists schedule ledgers. The per-(center, month) ledger is the only
// shared mutable resource in the scheduling core; all mutation goes through
// the guarded Reserve/Release or the atomic Replace.
//
// Stores return pkg/platform/sentinel errors:
//   - ErrNotFound: ledger or day entry does not exist
//   - ErrDayClosed: Reserve against a closed day
//   - ErrCapacityExhausted: Reserve would exceed capacity
type Store interface {
	// Ledger returns the ledger for (centerID, month).
	Ledger(ctx context.Context, centerID id.CenterID, month id.Month) (*Ledger, error)

	// Swap atomically replaces the whole ledger for (centerID, month),
	// creating it if absent. The build callback receives the current ledger
	// (nil when absent) and returns its replacement; it runs inside the
	// store's atomic scope, so a reservation committed before the swap is
	// always visible to the callback and can never be lost to read skew.
	Swap(ctx context.Context, centerID id.CenterID, month id.Month, build func(existing *Ledger) (*Ledger, error)) (*Ledger, error)

	// DeleteBefore removes every ledger of the center whose month is
	// strictly older than the cutoff. Returns how many were removed.
	DeleteBefore(ctx context.Context, centerID id.CenterID, cutoff id.Month) (int, error)

	// Day returns a copy of the day entry for the given date.
	Day(ctx context.Context, centerID id.CenterID, date time.Time) (DayEntry, error)

	// Reserve atomically checks remaining capacity, increments the reserved
	// count and appends the reservation detail. The capacity check and the
	// increment are a single atomically-evaluated operation: concurrent
	// calls racing for the last slot yield exactly one success.
	Reserve(ctx context.Context, centerID id.CenterID, date time.Time, res Reservation) error

	// Release atomically decrements the reserved count and removes the
	// reservation detail held by the appointment.
	Release(ctx context.Context, centerID id.CenterID, date time.Time, appointmentID id.AppointmentID) error
}
