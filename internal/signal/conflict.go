package signal

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultConflictLookbackDays is the default conflict analysis window.
const DefaultConflictLookbackDays = 30

// eventSeverity maps conflict event types to Goldstein-like base harm
// weights, applied before casualty multipliers. Unknown types get
// defaultEventSeverity.
var eventSeverity = map[string]float64{
	"Battles":                     10,
	"Violence against civilians":  10,
	"Explosions/Remote violence":  9,
	"Riots":                       7,
	"Protests":                    4,
	"Strategic developments":      3,
}

const defaultEventSeverity = 5.0

// ConflictResult is the diagnostic output of the conflict signal.
type ConflictResult struct {
	Score              float64 `json:"score"`
	EventCount         int     `json:"eventCount"`
	TotalFatalities    int     `json:"totalFatalities"`
	HighCasualtyEvents int     `json:"highCasualtyEvents"`
	AvgSeverity        float64 `json:"avgSeverity"`
	EscalationRate     float64 `json:"escalationRate"`
	DaysAnalyzed       int     `json:"daysAnalyzed"`
	Err                string  `json:"error,omitempty"`
}

// Conflict scores a country's conflict events. Frequency, per-event
// severity, and absolute harm are weighted independently so that
// many-small-events and few-severe-events both surface risk; an escalation
// bonus rewards acceleration on top of magnitude.
type Conflict struct {
	source       ConflictSource
	logger       *slog.Logger
	lookbackDays int
}

// NewConflict creates a conflict signal calculator.
func NewConflict(source ConflictSource) *Conflict {
	return &Conflict{
		source:       source,
		logger:       slog.Default(),
		lookbackDays: DefaultConflictLookbackDays,
	}
}

// WithLogger sets a structured logger.
func (c *Conflict) WithLogger(l *slog.Logger) *Conflict {
	c.logger = l
	return c
}

// WithLookback overrides the default lookback window in days.
func (c *Conflict) WithLookback(days int) *Conflict {
	c.lookbackDays = days
	return c
}

// Calculate scores the country's recent conflict activity. Never returns a
// Go error; failures are captured in the result.
func (c *Conflict) Calculate(ctx context.Context, countryCode string) (result *ConflictResult) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("conflict signal panicked", "country", countryCode, "panic", fmt.Sprint(r))
			result = &ConflictResult{DaysAnalyzed: c.lookbackDays, Err: fmt.Sprint(r)}
		}
	}()

	now := time.Now().UTC()
	since := now.AddDate(0, 0, -c.lookbackDays)

	events, err := c.source.FetchConflictEvents(ctx, countryCode, since)
	if err != nil {
		return &ConflictResult{DaysAnalyzed: c.lookbackDays, Err: err.Error()}
	}
	if len(events) == 0 {
		return &ConflictResult{DaysAnalyzed: c.lookbackDays}
	}

	// Escalation rate: percentage change in event frequency between the
	// first and second half of the window. 0 when the first half is empty.
	midpoint := since.Add(now.Sub(since) / 2)
	firstHalf, secondHalf := 0, 0
	for _, ev := range events {
		if ev.OccurredAt.Before(midpoint) {
			firstHalf++
		} else {
			secondHalf++
		}
	}
	escalationRate := 0.0
	if firstHalf > 0 {
		escalationRate = float64(secondHalf-firstHalf) / float64(firstHalf) * 100
	}

	totalFatalities := 0
	highCasualty := 0
	severitySum := 0.0
	for _, ev := range events {
		totalFatalities += ev.Fatalities

		base, ok := eventSeverity[ev.EventType]
		if !ok {
			base = defaultEventSeverity
		}

		multiplier := 1.0
		switch {
		case ev.Fatalities > 50:
			multiplier = 1.5
			highCasualty++
		case ev.Fatalities > 10:
			multiplier = 1.3
		case ev.Fatalities > 0:
			multiplier = 1.1
		}
		severitySum += base * multiplier
	}

	avgSeverity := severitySum / float64(len(events))

	frequency := minf(float64(len(events))/15.0*40, 40)
	severity := avgSeverity / 15.0 * 35
	fatality := minf(float64(totalFatalities)/50.0*20, 20)
	escalationBonus := minf(maxf(escalationRate/100.0*5, 0), 5)

	return &ConflictResult{
		Score:              round2(clamp(frequency + severity + fatality + escalationBonus)),
		EventCount:         len(events),
		TotalFatalities:    totalFatalities,
		HighCasualtyEvents: highCasualty,
		AvgSeverity:        round2(avgSeverity),
		EscalationRate:     round2(escalationRate),
		DaysAnalyzed:       c.lookbackDays,
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
