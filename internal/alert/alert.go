// Package alert detects risk movement patterns on freshly persisted scores
// and records them as immutable Alert rows.
//
// Detection runs after every scoring run. Each pattern check is independent
// and contained: one failing check never suppresses the others, and no check
// failure ever propagates back into the scoring pipeline.
package alert

import (
	"context"
	"time"

	"github.com/kautilya-labs/georisk/internal/risk"
)

// Type identifies the movement pattern that fired.
type Type string

const (
	TypeRiskIncrease    Type = "risk_increase"    // >= +15% vs last 7 days
	TypeSuddenSpike     Type = "sudden_spike"     // >= +30% within 24h
	TypeSustainedHigh   Type = "sustained_high"   // >= 70 across 48h of scores
	TypeRapidEscalation Type = "rapid_escalation" // >= +50% within 6h
	TypeThresholdBreach Type = "threshold_breach" // score entered high/critical band
)

// Severity grades how urgent an alert is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// StatusNew is the only status the detector ever writes. Acknowledgement and
// resolution belong to consumers, not the core.
const StatusNew = "new"

// Evidence links an alert back to the score records and signal data that
// justified it. Persisted as JSON.
type Evidence struct {
	RiskScoreID     string         `json:"riskScoreId"`
	PreviousScoreID string         `json:"previousScoreId,omitempty"`
	PrimaryDriver   string         `json:"primaryDriver,omitempty"`
	TimeWindow      string         `json:"timeWindow,omitempty"`
	Change          float64        `json:"change,omitempty"`
	DurationHours   float64        `json:"durationHours,omitempty"`
	AvgScore        float64        `json:"avgScore,omitempty"`
	ScoreCount      int            `json:"scoreCount,omitempty"`
	Signals         *risk.Metadata `json:"signals,omitempty"`
}

// Alert is one persisted detection. Created once, never mutated by the core.
type Alert struct {
	ID              string    `json:"id"`
	CountryCode     string    `json:"countryCode"`
	Type            Type      `json:"alertType"`
	Severity        Severity  `json:"severity"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	RiskScore       float64   `json:"riskScore"`
	PreviousScore   float64   `json:"previousScore,omitempty"`
	ConfidenceScore float64   `json:"confidenceScore"`
	ChangePercent   float64   `json:"changePercentage"`
	Status          string    `json:"status"`
	Evidence        *Evidence `json:"evidence,omitempty"`
	TriggeredAt     time.Time `json:"triggeredAt"`
}

// Store persists alerts and answers the dedup query.
type Store interface {
	Insert(ctx context.Context, a *Alert) error
	// RecentExists reports whether an alert of this type fired for the
	// country at or after since.
	RecentExists(ctx context.Context, countryCode string, t Type, since time.Time) (bool, error)
	// List returns the most recent alerts across all countries, newest first.
	List(ctx context.Context, limit int) ([]*Alert, error)
	// ListByCountry returns a country's most recent alerts, newest first.
	ListByCountry(ctx context.Context, countryCode string, limit int) ([]*Alert, error)
}
