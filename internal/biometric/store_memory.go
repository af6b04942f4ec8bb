package biometric

import (
	"context"
	"sync"

	id "civid/pkg/domain"
	"civid/pkg/platform/sentinel"
)

// InMemoryStore is a thread-safe map-backed store for tests and local runs.
type InMemoryStore struct {
	mu            sync.RWMutex
	items         map[id.CaptureID]*Capture
	byAppointment map[id.AppointmentID]id.CaptureID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		items:         make(map[id.CaptureID]*Capture),
		byAppointment: make(map[id.AppointmentID]id.CaptureID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, c *Capture) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byAppointment[c.AppointmentID]; ok {
		return sentinel.ErrConflict
	}
	s.items[c.ID] = cloneCapture(c)
	s.byAppointment[c.AppointmentID] = c.ID
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, c *Capture) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.items[c.ID] = cloneCapture(c)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, captureID id.CaptureID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[captureID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byAppointment, c.AppointmentID)
	delete(s.items, captureID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, captureID id.CaptureID) (*Capture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.items[captureID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneCapture(c), nil
}

func (s *InMemoryStore) FindByAppointment(_ context.Context, appointmentID id.AppointmentID) (*Capture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cid, ok := s.byAppointment[appointmentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneCapture(s.items[cid]), nil
}

func (s *InMemoryStore) FindByRequest(_ context.Context, requestID id.RequestID) (*Capture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *Capture
	for _, c := range s.items {
		if c.RequestID != requestID {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	return cloneCapture(latest), nil
}

func cloneCapture(c *Capture) *Capture {
	cp := *c
	cp.Fingerprints = append([]Fingerprint(nil), c.Fingerprints...)
	cp.DocumentRefs = append([]string(nil), c.DocumentRefs...)
	if c.IrisQuality != nil {
		q := *c.IrisQuality
		cp.IrisQuality = &q
	}
	return &cp
}
