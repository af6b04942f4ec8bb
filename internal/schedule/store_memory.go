package schedule

import (
	"context"
	"sync"
	"time"

	id "civid/pkg/domain"
	"civid/pkg/platform/sentinel"
)

type ledgerKey struct {
	center id.CenterID
	month  id.Month
}

// InMemoryStore keeps ledgers in a mutex-guarded map. The map key enforces
// the one-ledger-per-(center, month) invariant structurally. All capacity
// checks run under the lock, so the check-and-increment in Reserve is a
// single atomically-evaluated operation.
type InMemoryStore struct {
	mu      sync.RWMutex
	ledgers map[ledgerKey]*Ledger
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{ledgers: make(map[ledgerKey]*Ledger)}
}

func (s *InMemoryStore) Ledger(_ context.Context, centerID id.CenterID, month id.Month) (*Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.ledgers[ledgerKey{centerID, month}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneLedger(l), nil
}

func (s *InMemoryStore) Swap(_ context.Context, centerID id.CenterID, month id.Month, build func(existing *Ledger) (*Ledger, error)) (*Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ledgerKey{centerID, month}
	var existing *Ledger
	if l, ok := s.ledgers[key]; ok {
		existing = cloneLedger(l)
	}
	replacement, err := build(existing)
	if err != nil {
		return nil, err
	}
	s.ledgers[key] = cloneLedger(replacement)
	return replacement, nil
}

func (s *InMemoryStore) DeleteBefore(_ context.Context, centerID id.CenterID, cutoff id.Month) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.ledgers {
		if key.center == centerID && key.month.Before(cutoff) {
			delete(s.ledgers, key)
			removed++
		}
	}
	return removed, nil
}

func (s *InMemoryStore) Day(_ context.Context, centerID id.CenterID, date time.Time) (DayEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.ledgers[ledgerKey{centerID, id.MonthOf(date)}]
	if !ok {
		return DayEntry{}, sentinel.ErrNotFound
	}
	day, ok := l.Day(date)
	if !ok {
		return DayEntry{}, sentinel.ErrNotFound
	}
	return cloneDay(day), nil
}

func (s *InMemoryStore) Reserve(_ context.Context, centerID id.CenterID, date time.Time, res Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.ledgers[ledgerKey{centerID, id.MonthOf(date)}]
	if !ok {
		return sentinel.ErrNotFound
	}
	day, ok := l.Day(date)
	if !ok {
		return sentinel.ErrNotFound
	}
	if day.Closed {
		return sentinel.ErrDayClosed
	}
	if day.Reserved >= day.Capacity {
		return sentinel.ErrCapacityExhausted
	}
	day.Reserved++
	day.Reservations = append(day.Reservations, res)
	l.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStore) Release(_ context.Context, centerID id.CenterID, date time.Time, appointmentID id.AppointmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.ledgers[ledgerKey{centerID, id.MonthOf(date)}]
	if !ok {
		return sentinel.ErrNotFound
	}
	day, ok := l.Day(date)
	if !ok {
		return sentinel.ErrNotFound
	}
	for i := range day.Reservations {
		if day.Reservations[i].AppointmentID == appointmentID {
			day.Reservations = append(day.Reservations[:i], day.Reservations[i+1:]...)
			day.Reserved--
			l.UpdatedAt = time.Now()
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func cloneLedger(l *Ledger) *Ledger {
	out := *l
	out.Days = make([]DayEntry, len(l.Days))
	for i := range l.Days {
		out.Days[i] = *cloneDayValue(&l.Days[i])
	}
	return &out
}

func cloneDay(d *DayEntry) DayEntry { return *cloneDayValue(d) }

func cloneDayValue(d *DayEntry) *DayEntry {
	out := *d
	out.Reservations = append([]Reservation(nil), d.Reservations...)
	return &out
}
