package credential

import (
	"context"
	"sort"
	"sync"

	id "civid/pkg/domain"
	"civid/pkg/platform/sentinel"
)

// InMemoryStore is a thread-safe map-backed store for tests and local runs.
type InMemoryStore struct {
	mu    sync.RWMutex
	items map[id.CredentialID]*Credential
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{items: make(map[id.CredentialID]*Credential)}
}

// CreateIfNoneActive scans for an existing active credential and inserts
// under one lock hold, mirroring the partial unique index the SQL store
// relies on.
func (s *InMemoryStore) CreateIfNoneActive(_ context.Context, c *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if existing.UserID == c.UserID && existing.Status == StatusActive {
			return sentinel.ErrConflict
		}
	}
	s.items[c.ID] = cloneCredential(c)
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, c *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.items[c.ID] = cloneCredential(c)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, credentialID id.CredentialID) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.items[credentialID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneCredential(c), nil
}

func (s *InMemoryStore) FindByNumber(_ context.Context, number string) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.items {
		if c.Number == number {
			return cloneCredential(c), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindActiveByUser(_ context.Context, userID id.UserID) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.items {
		if c.UserID == userID && c.Status == StatusActive {
			return cloneCredential(c), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Credential
	for _, c := range s.items {
		if c.UserID == userID {
			out = append(out, cloneCredential(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.After(out[j].IssuedAt) })
	return out, nil
}

func cloneCredential(c *Credential) *Credential {
	cp := *c
	if c.RevokedAt != nil {
		t := *c.RevokedAt
		cp.RevokedAt = &t
	}
	if c.RevokedBy != nil {
		by := *c.RevokedBy
		cp.RevokedBy = &by
	}
	return &cp
}
