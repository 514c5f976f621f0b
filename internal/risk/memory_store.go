package risk

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
// Scores are held per country in insertion order, which the engine guarantees
// is also timestamp order because runs for a country are serialized.
type MemoryStore struct {
	mu     sync.RWMutex
	scores map[string][]*RiskScore // countryCode → scores, oldest first
}

// NewMemoryStore creates an in-memory risk score store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scores: make(map[string][]*RiskScore),
	}
}

func (s *MemoryStore) Insert(ctx context.Context, score *RiskScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *score
	s.scores[score.CountryCode] = append(s.scores[score.CountryCode], &cp)
	return nil
}

func (s *MemoryStore) Latest(ctx context.Context, countryCode string) (*RiskScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.scores[countryCode]
	if len(all) == 0 {
		return nil, nil
	}
	cp := *all[len(all)-1]
	return &cp, nil
}

func (s *MemoryStore) LatestBefore(ctx context.Context, countryCode string, since, before time.Time) (*RiskScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.scores[countryCode]
	for i := len(all) - 1; i >= 0; i-- {
		d := all[i].Date
		if d.Before(before) && !d.Before(since) {
			cp := *all[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) History(ctx context.Context, countryCode string, since time.Time) ([]*RiskScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.scores[countryCode]
	result := make([]*RiskScore, 0, len(all))
	for _, sc := range all {
		if !sc.Date.Before(since) {
			cp := *sc
			result = append(result, &cp)
		}
	}
	return result, nil
}
