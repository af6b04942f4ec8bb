// Package ratelimit throttles the unauthenticated surface. The public
// verification endpoint and request submission can be hammered from a single
// address; a per-IP sliding window keeps one client from starving the rest.
package ratelimit

import (
	"sync"
	"time"
)

// Result is the outcome of one rate limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// SlidingWindow is an in-memory per-key sliding window counter. The window
// slides by timestamp rather than fixed buckets so a burst across a boundary
// cannot double the effective limit.
type SlidingWindow struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	keys   map[string][]time.Time
}

func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		limit:  limit,
		window: window,
		keys:   make(map[string][]time.Time),
	}
}

// Allow records one request for the key and reports whether it fit the window.
func (s *SlidingWindow) Allow(key string) Result {
	now := time.Now()
	cutoff := now.Add(-s.window)

	s.mu.Lock()
	defer s.mu.Unlock()

	stamps := s.keys[key]
	i := 0
	for ; i < len(stamps); i++ {
		if stamps[i].After(cutoff) {
			break
		}
	}
	stamps = stamps[i:]

	if len(stamps) >= s.limit {
		s.keys[key] = stamps
		return Result{Allowed: false, Limit: s.limit, ResetAt: stamps[0].Add(s.window)}
	}

	stamps = append(stamps, now)
	s.keys[key] = stamps
	return Result{
		Allowed:   true,
		Limit:     s.limit,
		Remaining: s.limit - len(stamps),
		ResetAt:   stamps[0].Add(s.window),
	}
}

// Reset clears the window for a key.
func (s *SlidingWindow) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
}
