package center

import (
	"context"
	"sort"
	"sync"

	"civid/internal/schedule"
	id "civid/pkg/domain"
	"civid/pkg/platform/sentinel"
)

// InMemoryStore keeps centers in a mutex-guarded map.
type InMemoryStore struct {
	mu      sync.RWMutex
	centers map[id.CenterID]*Center
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{centers: make(map[id.CenterID]*Center)}
}

func (s *InMemoryStore) Create(_ context.Context, c *Center) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.centers[c.ID]; ok {
		return sentinel.ErrConflict
	}
	s.centers[c.ID] = clone(c)
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, c *Center) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.centers[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.centers[c.ID] = clone(c)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, centerID id.CenterID) (*Center, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.centers[centerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(c), nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*Center, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Center, 0, len(s.centers))
	for _, c := range s.centers {
		out = append(out, clone(c))
	}
	sortByName(out)
	return out, nil
}

func (s *InMemoryStore) ListActive(_ context.Context) ([]*Center, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Center
	for _, c := range s.centers {
		if c.IsActive() {
			out = append(out, clone(c))
		}
	}
	sortByName(out)
	return out, nil
}

func sortByName(centers []*Center) {
	sort.Slice(centers, func(i, j int) bool { return centers[i].Name < centers[j].Name })
}

func clone(c *Center) *Center {
	out := *c
	out.Template = make(schedule.WeeklyTemplate, len(c.Template))
	for k, v := range c.Template {
		out.Template[k] = v
	}
	return &out
}
