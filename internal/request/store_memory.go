package request

import (
	"context"
	"sort"
	"sync"

	id "civid/pkg/domain"
	"civid/pkg/platform/sentinel"
)

// InMemoryStore keeps requests in a mutex-guarded map. The duplicate-active
// check in CreateIfNoneActive runs under the same lock as the insert, making
// the pair atomic.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[id.RequestID]*IdentityRequest
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[id.RequestID]*IdentityRequest)}
}

func (s *InMemoryStore) CreateIfNoneActive(_ context.Context, r *IdentityRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.requests {
		if existing.UserID == r.UserID && existing.Status.Active() {
			return sentinel.ErrConflict
		}
	}
	s.requests[r.ID] = cloneRequest(r)
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, r *IdentityRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[r.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.requests[r.ID] = cloneRequest(r)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, requestID id.RequestID) (*IdentityRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneRequest(r), nil
}

func (s *InMemoryStore) FindActiveByUser(_ context.Context, userID id.UserID) (*IdentityRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.requests {
		if r.UserID == userID && r.Status.Active() {
			return cloneRequest(r), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByStatus(_ context.Context, status Status) ([]*IdentityRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*IdentityRequest
	for _, r := range s.requests {
		if r.Status == status {
			out = append(out, cloneRequest(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func cloneRequest(r *IdentityRequest) *IdentityRequest {
	out := *r
	if r.Decision != nil {
		d := *r.Decision
		out.Decision = &d
	}
	if r.AppointmentID != nil {
		a := *r.AppointmentID
		out.AppointmentID = &a
	}
	return &out
}
