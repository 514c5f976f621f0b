// Package risk implements the deterministic geopolitical risk aggregation
// pipeline.
//
// One call to Engine.Compute scores one country at one point in time: the
// four signal calculators run, their scores combine under fixed weights into
// an overall 0-100 score, a confidence estimate is attached, the RiskScore
// record is persisted, and alert pattern detection runs against the persisted
// record. Scores are immutable once written.
package risk

import (
	"context"
	"math"
	"time"

	"github.com/kautilya-labs/georisk/internal/confidence"
	"github.com/kautilya-labs/georisk/internal/signal"
)

// Signal combination weights. Conflict dominates deliberately: event data is
// the most direct observation of instability the pipeline has.
const (
	WeightNews       = 0.20
	WeightConflict   = 0.40
	WeightEconomic   = 0.30
	WeightGovernment = 0.10
)

func init() {
	sum := WeightNews + WeightConflict + WeightEconomic + WeightGovernment
	if math.Abs(sum-1.0) > 1e-9 {
		panic("risk: signal weights must sum to 1.0")
	}
}

// Weights returns the signal weight table for metadata/audit output.
func Weights() map[string]float64 {
	return map[string]float64{
		"news":       WeightNews,
		"conflict":   WeightConflict,
		"economic":   WeightEconomic,
		"government": WeightGovernment,
	}
}

// Trend describes the direction of a country's score versus its most recent
// prior score within the last 7 days.
type Trend string

const (
	TrendIncreasing Trend = "increasing" // diff > +10
	TrendDecreasing Trend = "decreasing" // diff < -10
	TrendStable     Trend = "stable"
)

// Level is the categorical risk band of an overall score.
type Level string

const (
	LevelMinimal  Level = "minimal"
	LevelLow      Level = "low"      // >= 20
	LevelMedium   Level = "medium"   // >= 40
	LevelHigh     Level = "high"     // >= 60
	LevelCritical Level = "critical" // >= 75
)

// Band thresholds for LevelFor.
const (
	ThresholdLow      = 20.0
	ThresholdMedium   = 40.0
	ThresholdHigh     = 60.0
	ThresholdCritical = 75.0
)

// LevelFor maps an overall score to its risk band.
func LevelFor(score float64) Level {
	switch {
	case score >= ThresholdCritical:
		return LevelCritical
	case score >= ThresholdHigh:
		return LevelHigh
	case score >= ThresholdMedium:
		return LevelMedium
	case score >= ThresholdLow:
		return LevelLow
	default:
		return LevelMinimal
	}
}

// Metadata is the full diagnostic output of one scoring run: every signal's
// result plus the weight table and the confidence breakdown. It is persisted
// as JSON with the RiskScore so the overall score can be recomputed and
// audited from storage alone.
type Metadata struct {
	News       *signal.NewsResult       `json:"news"`
	Conflict   *signal.ConflictResult   `json:"conflict"`
	Economic   *signal.EconomicResult   `json:"economic"`
	Government *signal.GovernmentResult `json:"government"`
	Weights    map[string]float64       `json:"weights"`
	Confidence *confidence.Breakdown    `json:"confidence"`
}

// RiskScore is one persisted scoring result for a (country, timestamp).
// Created exactly once per run, immutable afterwards, never deleted by the
// core.
type RiskScore struct {
	ID              string    `json:"id"`
	CountryCode     string    `json:"countryCode"`
	Date            time.Time `json:"date"`
	OverallScore    float64   `json:"overallScore"`
	NewsScore       float64   `json:"newsScore"`
	ConflictScore   float64   `json:"conflictScore"`
	EconomicScore   float64   `json:"economicScore"`
	GovernmentScore float64   `json:"governmentScore"`
	ConfidenceScore float64   `json:"confidenceScore"`
	Trend           Trend     `json:"trend"`
	Metadata        *Metadata `json:"metadata"`
}

// Store persists RiskScore records. Any engine works as long as it supports
// query-by-country-and-time-range with timestamp ordering.
type Store interface {
	Insert(ctx context.Context, score *RiskScore) error
	// Latest returns the most recent score for a country, or nil.
	Latest(ctx context.Context, countryCode string) (*RiskScore, error)
	// LatestBefore returns the most recent score with since <= date < before,
	// or nil when none exists in the window.
	LatestBefore(ctx context.Context, countryCode string, since, before time.Time) (*RiskScore, error)
	// History returns scores at or after since, ordered oldest first.
	History(ctx context.Context, countryCode string, since time.Time) ([]*RiskScore, error)
}

// AlertSink runs pattern detection after a score has been persisted.
// Implemented by the alert detector; the identity of the persisted record is
// available for evidence linkage.
type AlertSink interface {
	Detect(ctx context.Context, rec *RiskScore, meta *Metadata) (int, error)
}
