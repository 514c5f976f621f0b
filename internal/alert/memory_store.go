package alert

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu     sync.RWMutex
	alerts []*Alert // insertion order, oldest first
}

// NewMemoryStore creates an in-memory alert store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Insert(ctx context.Context, a *Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *a
	s.alerts = append(s.alerts, &cp)
	return nil
}

func (s *MemoryStore) RecentExists(ctx context.Context, countryCode string, t Type, since time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.alerts) - 1; i >= 0; i-- {
		a := s.alerts[i]
		if a.TriggeredAt.Before(since) {
			break
		}
		if a.CountryCode == countryCode && a.Type == t {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]*Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(limit, func(*Alert) bool { return true }), nil
}

func (s *MemoryStore) ListByCountry(ctx context.Context, countryCode string, limit int) ([]*Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(limit, func(a *Alert) bool { return a.CountryCode == countryCode }), nil
}

// collect walks newest-first and copies matching alerts up to limit.
func (s *MemoryStore) collect(limit int, match func(*Alert) bool) []*Alert {
	result := make([]*Alert, 0, limit)
	for i := len(s.alerts) - 1; i >= 0 && len(result) < limit; i-- {
		if match(s.alerts[i]) {
			cp := *s.alerts[i]
			result = append(result, &cp)
		}
	}
	return result
}
