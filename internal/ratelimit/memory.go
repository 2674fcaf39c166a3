package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps hit logs in process memory. It is only consistent within
// a single instance.
type MemoryStore struct {
	mu        sync.Mutex
	hits      map[string][]time.Time
	lastSweep time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{hits: make(map[string][]time.Time)}
}

func (s *MemoryStore) Allow(_ context.Context, key string, now time.Time, window time.Duration, limit int) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-window)
	s.sweep(now, cutoff, window)

	log := s.hits[key]
	i := 0
	for i < len(log) && !log[i].After(cutoff) {
		i++
	}
	log = log[i:]

	d := Decision{}
	if len(log) < limit {
		log = append(log, now)
		d.Allowed = true
		d.Remaining = limit - len(log)
	}
	if len(log) > 0 {
		d.Reset = log[0].Add(window)
	}

	if len(log) == 0 {
		delete(s.hits, key)
	} else {
		s.hits[key] = log
	}
	return d, nil
}

// sweep drops keys whose newest hit has left the window. It runs at most
// once per window so the cost stays proportional to traffic.
func (s *MemoryStore) sweep(now, cutoff time.Time, window time.Duration) {
	if now.Sub(s.lastSweep) < window {
		return
	}
	s.lastSweep = now
	for key, log := range s.hits {
		if len(log) == 0 || !log[len(log)-1].After(cutoff) {
			delete(s.hits, key)
		}
	}
}
