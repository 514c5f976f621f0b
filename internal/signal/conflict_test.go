package signal

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConflictSource struct {
	events []ConflictEvent
	err    error
}

func (s *stubConflictSource) FetchConflictEvents(ctx context.Context, countryCode string, since time.Time) ([]ConflictEvent, error) {
	return s.events, s.err
}

func TestConflict_NoEvents(t *testing.T) {
	c := NewConflict(&stubConflictSource{})

	res := c.Calculate(context.Background(), "CO")

	require.NotNil(t, res)
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, 0, res.EventCount)
	assert.Equal(t, DefaultConflictLookbackDays, res.DaysAnalyzed)
	assert.Empty(t, res.Err)
}

func TestConflict_SourceError(t *testing.T) {
	c := NewConflict(&stubConflictSource{err: errors.New("acled timeout")})

	res := c.Calculate(context.Background(), "CO")

	assert.Equal(t, 0.0, res.Score)
	assert.Contains(t, res.Err, "acled timeout")
}

func TestConflict_WorkedExample(t *testing.T) {
	// 20 battles, 5 fatalities each, split evenly across the window:
	//   frequency  = min(20/15, 1) * 40         = 40
	//   severity   = (10 * 1.1) / 15 * 35       = 25.67
	//   fatality   = min(100/50, 1) * 20        = 20
	//   escalation = (10-10)/10 * 100 = 0 → bonus 0
	now := time.Now().UTC()
	var events []ConflictEvent
	for i := 0; i < 10; i++ {
		events = append(events, ConflictEvent{
			EventType:  "Battles",
			Fatalities: 5,
			OccurredAt: now.AddDate(0, 0, -20),
		})
	}
	for i := 0; i < 10; i++ {
		events = append(events, ConflictEvent{
			EventType:  "Battles",
			Fatalities: 5,
			OccurredAt: now.AddDate(0, 0, -5),
		})
	}

	c := NewConflict(&stubConflictSource{events: events})
	res := c.Calculate(context.Background(), "UA")

	assert.Equal(t, 20, res.EventCount)
	assert.Equal(t, 100, res.TotalFatalities)
	assert.Equal(t, 0, res.HighCasualtyEvents)
	assert.InDelta(t, 11.0, res.AvgSeverity, 0.001)
	assert.InDelta(t, 0.0, res.EscalationRate, 0.001)
	assert.InDelta(t, 85.67, res.Score, 0.01)
}

func TestConflict_EscalationRate(t *testing.T) {
	// 5 events in the first half, 15 in the second: rate = 200%, bonus capped
	// at 5.
	now := time.Now().UTC()
	var events []ConflictEvent
	for i := 0; i < 5; i++ {
		events = append(events, ConflictEvent{EventType: "Protests", OccurredAt: now.AddDate(0, 0, -20)})
	}
	for i := 0; i < 15; i++ {
		events = append(events, ConflictEvent{EventType: "Protests", OccurredAt: now.AddDate(0, 0, -2)})
	}

	c := NewConflict(&stubConflictSource{events: events})
	res := c.Calculate(context.Background(), "PK")

	assert.InDelta(t, 200.0, res.EscalationRate, 0.001)
	// frequency = 40, severity = 4/15*35 = 9.33, fatality = 0, bonus = 5.
	assert.InDelta(t, 54.33, res.Score, 0.01)
}

func TestConflict_EscalationZeroWhenFirstHalfEmpty(t *testing.T) {
	now := time.Now().UTC()
	events := []ConflictEvent{
		{EventType: "Riots", OccurredAt: now.AddDate(0, 0, -1)},
		{EventType: "Riots", OccurredAt: now.AddDate(0, 0, -2)},
	}

	c := NewConflict(&stubConflictSource{events: events})
	res := c.Calculate(context.Background(), "SY")

	assert.Equal(t, 0.0, res.EscalationRate)
}

func TestConflict_CasualtyMultipliers(t *testing.T) {
	now := time.Now().UTC()
	events := []ConflictEvent{
		{EventType: "Battles", Fatalities: 60, OccurredAt: now.AddDate(0, 0, -1)},  // 10 * 1.5
		{EventType: "Battles", Fatalities: 20, OccurredAt: now.AddDate(0, 0, -1)},  // 10 * 1.3
		{EventType: "Battles", Fatalities: 3, OccurredAt: now.AddDate(0, 0, -1)},   // 10 * 1.1
		{EventType: "Battles", Fatalities: 0, OccurredAt: now.AddDate(0, 0, -1)},   // 10 * 1.0
		{EventType: "Unmapped type", Fatalities: 0, OccurredAt: now.AddDate(0, 0, -1)}, // default 5
	}

	c := NewConflict(&stubConflictSource{events: events})
	res := c.Calculate(context.Background(), "NG")

	assert.Equal(t, 1, res.HighCasualtyEvents)
	assert.Equal(t, 83, res.TotalFatalities)
	// (15 + 13 + 11 + 10 + 5) / 5 = 10.8
	assert.InDelta(t, 10.8, res.AvgSeverity, 0.001)
}

func TestConflict_ScoreBounds(t *testing.T) {
	now := time.Now().UTC()
	var events []ConflictEvent
	for i := 0; i < 200; i++ {
		events = append(events, ConflictEvent{
			EventType:  "Battles",
			Fatalities: 100,
			OccurredAt: now.AddDate(0, 0, -1),
		})
	}

	c := NewConflict(&stubConflictSource{events: events})
	res := c.Calculate(context.Background(), "UA")

	assert.LessOrEqual(t, res.Score, 100.0)
	assert.GreaterOrEqual(t, res.Score, 0.0)
}

func TestConflict_ScoreBounds_RandomizedEvents(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	now := time.Now().UTC()
	types := []string{
		"Battles", "Explosions/Remote violence", "Violence against civilians",
		"Riots", "Protests", "Strategic developments", "Unmapped type", "",
	}

	for run := 0; run < 200; run++ {
		events := make([]ConflictEvent, rng.Intn(300))
		for i := range events {
			events[i] = ConflictEvent{
				EventType:  types[rng.Intn(len(types))],
				Fatalities: rng.Intn(500),
				OccurredAt: now.AddDate(0, 0, -rng.Intn(DefaultConflictLookbackDays)),
			}
		}

		c := NewConflict(&stubConflictSource{events: events})
		res := c.Calculate(context.Background(), "UA")

		if res.Score < 0 || res.Score > 100 {
			t.Fatalf("run %d: score %v out of bounds for %d events", run, res.Score, len(events))
		}
	}
}
