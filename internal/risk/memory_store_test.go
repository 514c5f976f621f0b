package risk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedScores(t *testing.T, s Store, country string, scores ...float64) []*RiskScore {
	t.Helper()
	now := time.Now().UTC()
	recs := make([]*RiskScore, 0, len(scores))
	for i, score := range scores {
		rec := &RiskScore{
			ID:           "rs_" + country + string(rune('a'+i)),
			CountryCode:  country,
			Date:         now.Add(time.Duration(i-len(scores)) * time.Hour),
			OverallScore: score,
			Trend:        TrendStable,
		}
		require.NoError(t, s.Insert(context.Background(), rec))
		recs = append(recs, rec)
	}
	return recs
}

func TestMemoryStore_LatestEmpty(t *testing.T) {
	s := NewMemoryStore()

	rec, err := s.Latest(context.Background(), "UA")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestMemoryStore_Latest(t *testing.T) {
	s := NewMemoryStore()
	recs := seedScores(t, s, "UA", 10, 20, 30)

	got, err := s.Latest(context.Background(), "UA")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, recs[2].ID, got.ID)
	assert.Equal(t, 30.0, got.OverallScore)
}

func TestMemoryStore_LatestBefore(t *testing.T) {
	s := NewMemoryStore()
	recs := seedScores(t, s, "UA", 10, 20, 30)

	// Exclude the newest record by passing its date as the upper bound.
	got, err := s.LatestBefore(context.Background(), "UA", recs[0].Date.Add(-time.Hour), recs[2].Date)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, recs[1].ID, got.ID)
}

func TestMemoryStore_LatestBefore_WindowExcludesOldScores(t *testing.T) {
	s := NewMemoryStore()
	recs := seedScores(t, s, "UA", 10)

	got, err := s.LatestBefore(context.Background(), "UA", recs[0].Date.Add(time.Minute), time.Now().UTC())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_HistoryOldestFirst(t *testing.T) {
	s := NewMemoryStore()
	seedScores(t, s, "UA", 10, 20, 30)
	seedScores(t, s, "SY", 99)

	history, err := s.History(context.Background(), "UA", time.Now().UTC().AddDate(0, 0, -1))
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 10.0, history[0].OverallScore)
	assert.Equal(t, 30.0, history[2].OverallScore)
}

func TestMemoryStore_CopiesOnRead(t *testing.T) {
	s := NewMemoryStore()
	seedScores(t, s, "UA", 10)

	got, err := s.Latest(context.Background(), "UA")
	require.NoError(t, err)
	got.OverallScore = 99

	again, err := s.Latest(context.Background(), "UA")
	require.NoError(t, err)
	assert.Equal(t, 10.0, again.OverallScore)
}
