package appointment

import (
	"context"
	"sync"

	id "civid/pkg/domain"
	"civid/pkg/platform/sentinel"
)

// InMemoryStore is a thread-safe map-backed store for tests and local runs.
type InMemoryStore struct {
	mu    sync.RWMutex
	items map[id.AppointmentID]*Appointment
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{items: make(map[id.AppointmentID]*Appointment)}
}

func (s *InMemoryStore) Create(_ context.Context, a *Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[a.ID]; ok {
		return sentinel.ErrConflict
	}
	s.items[a.ID] = cloneAppointment(a)
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, a *Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[a.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.items[a.ID] = cloneAppointment(a)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, appointmentID id.AppointmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[appointmentID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.items, appointmentID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, appointmentID id.AppointmentID) (*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.items[appointmentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneAppointment(a), nil
}

func (s *InMemoryStore) FindByRequest(_ context.Context, requestID id.RequestID) (*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.items {
		if a.RequestID == requestID {
			return cloneAppointment(a), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByCenterDate(_ context.Context, centerID id.CenterID, date string) ([]*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Appointment
	for _, a := range s.items {
		if a.CenterID == centerID && a.Date.Format("2006-01-02") == date {
			out = append(out, cloneAppointment(a))
		}
	}
	return out, nil
}

func cloneAppointment(a *Appointment) *Appointment {
	cp := *a
	return &cp
}
