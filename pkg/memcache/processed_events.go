// pkg/memcache/processed_events.go
package mem

import (
	"sync"
	"time"
)

// EventStore remembers webhook event ids that were already applied.
type EventStore interface {
	Remember(eventID string)

	// Seen reports whether eventID was remembered and has not expired.
	Seen(eventID string) bool
}

type ProcessedEvents struct {
	mu        sync.RWMutex
	data      map[string]time.Time
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewProcessedEvents(ttl time.Duration) *ProcessedEvents {
	return &ProcessedEvents{
		data: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (s *ProcessedEvents) Remember(eventID string) {
	if eventID == "" || s.ttl <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.data[eventID] = now.Add(s.ttl)
	if now.Sub(s.lastSweep) > s.ttl {
		s.sweepLocked(now)
	}
}

func (s *ProcessedEvents) Seen(eventID string) bool {
	if eventID == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiresAt, ok := s.data[eventID]
	return ok && s.now().Before(expiresAt)
}

func (s *ProcessedEvents) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *ProcessedEvents) sweepLocked(now time.Time) {
	for id, expiresAt := range s.data {
		if !now.Before(expiresAt) {
			delete(s.data, id)
		}
	}
	s.lastSweep = now
}
