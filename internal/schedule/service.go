package schedule

import (
	"context"
	"time"

	id "civid/pkg/domain"
	derrors "civid/pkg/domain-errors"
	"civid/pkg/platform/sentinel"
)

// Service is the read-query and slot-accounting surface over the ledger
// store. It is the single choke point for capacity mutation: the appointment
// binder reserves and releases through here so cache invalidation can never
// be skipped.
type Service struct {
	store Store
	cache AvailabilityCache
}

func NewService(store Store, cache AvailabilityCache) *Service {
	if cache == nil {
		cache = NoopCache{}
	}
	return &Service{store: store, cache: cache}
}

// AvailableSlots reports remaining capacity for (centerID, date). A closed
// day reports the distinguished Closed availability, never zero: zero would
// be ambiguous with "fully booked".
func (s *Service) AvailableSlots(ctx context.Context, centerID id.CenterID, date time.Time) (Availability, error) {
	if centerID.IsNil() {
		return Availability{}, derrors.New(derrors.CodeValidation, "center id is required")
	}
	if date.IsZero() {
		return Availability{}, derrors.New(derrors.CodeValidation, "date is required")
	}

	if avail, ok := s.cache.Get(ctx, centerID, date); ok {
		return avail, nil
	}

	day, err := s.store.Day(ctx, centerID, date)
	if err != nil {
		if derrors.Is(err, sentinel.ErrNotFound) {
			return Availability{}, derrors.New(derrors.CodeNotFound, "no schedule ledger covers this date")
		}
		return Availability{}, derrors.Wrap(err, derrors.CodeInternal, "read day entry")
	}

	avail := availabilityOf(day)
	s.cache.Set(ctx, centerID, date, avail)
	return avail, nil
}

// Day exposes the full day entry for officer-facing listings.
func (s *Service) Day(ctx context.Context, centerID id.CenterID, date time.Time) (DayEntry, error) {
	day, err := s.store.Day(ctx, centerID, date)
	if err != nil {
		if derrors.Is(err, sentinel.ErrNotFound) {
			return DayEntry{}, derrors.New(derrors.CodeNotFound, "no schedule ledger covers this date")
		}
		return DayEntry{}, derrors.Wrap(err, derrors.CodeInternal, "read day entry")
	}
	return day, nil
}

// Month returns the whole ledger for (centerID, month).
func (s *Service) Month(ctx context.Context, centerID id.CenterID, month id.Month) (*Ledger, error) {
	ledger, err := s.store.Ledger(ctx, centerID, month)
	if err != nil {
		if derrors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "no schedule ledger for this month")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "read month ledger")
	}
	return ledger, nil
}

// Reserve consumes one slot. Sentinel translation stays at this boundary:
// exhausted capacity and closed days surface as conflicts the caller must not
// retry blindly.
func (s *Service) Reserve(ctx context.Context, centerID id.CenterID, date time.Time, res Reservation) error {
	err := s.store.Reserve(ctx, centerID, date, res)
	if err != nil {
		switch {
		case derrors.Is(err, sentinel.ErrCapacityExhausted):
			return derrors.New(derrors.CodeConflict, "no remaining slots on this day")
		case derrors.Is(err, sentinel.ErrDayClosed):
			return derrors.New(derrors.CodeConflict, "center is closed on this day")
		case derrors.Is(err, sentinel.ErrNotFound):
			return derrors.New(derrors.CodeNotFound, "no schedule ledger covers this date")
		default:
			return derrors.Wrap(err, derrors.CodeInternal, "reserve slot")
		}
	}
	s.cache.Invalidate(ctx, centerID, date)
	return nil
}

// Release returns a slot previously held by the appointment.
func (s *Service) Release(ctx context.Context, centerID id.CenterID, date time.Time, appointmentID id.AppointmentID) error {
	err := s.store.Release(ctx, centerID, date, appointmentID)
	if err != nil {
		if derrors.Is(err, sentinel.ErrNotFound) {
			return derrors.New(derrors.CodeNotFound, "no reservation held by this appointment")
		}
		return derrors.Wrap(err, derrors.CodeInternal, "release slot")
	}
	s.cache.Invalidate(ctx, centerID, date)
	return nil
}

func availabilityOf(day DayEntry) Availability {
	if day.Closed {
		return ClosedDay()
	}
	return Open(day.Remaining())
}
