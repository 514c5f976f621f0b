// Package confidence estimates how trustworthy a computed risk score is.
//
// Confidence is NOT a measure of risk. It is a secondary 0-100 score built
// from data coverage, recency, agreement between signals, and historical
// stability of the country's scores.
package confidence

import (
	"fmt"
	"math"

	"github.com/kautilya-labs/georisk/internal/signal"
)

// Sub-score weights. Must sum to 1.0.
const (
	weightSourceCount = 0.30
	weightFreshness   = 0.25
	weightConsistency = 0.25
	weightHistorical  = 0.20
	undeterminedScore = 50.0 // used when a sub-score has too little data
)

// Level is the categorical confidence band.
type Level string

const (
	LevelVeryHigh Level = "very_high" // >= 80
	LevelHigh     Level = "high"      // >= 65
	LevelMedium   Level = "medium"    // >= 50
	LevelLow      Level = "low"       // >= 35
	LevelVeryLow  Level = "very_low"
)

// Breakdown is the full confidence result, persisted alongside the risk
// score so the final number can be audited component by component.
type Breakdown struct {
	Score                float64 `json:"confidenceScore"`
	Level                Level   `json:"confidenceLevel"`
	SourceCount          float64 `json:"sourceCount"`
	Freshness            float64 `json:"freshness"`
	Consistency          float64 `json:"consistency"`
	HistoricalValidation float64 `json:"historicalValidation"`
	Err                  string  `json:"error,omitempty"`
}

// Score computes the weighted confidence for one scoring run. It is a pure
// function of the four signal results plus the country's recent historical
// overall scores (which may be empty). It never fails: an internal panic
// degrades to 50 / medium with the error captured.
func Score(news *signal.NewsResult, conflict *signal.ConflictResult, economic *signal.EconomicResult, government *signal.GovernmentResult, history []float64) (b *Breakdown) {
	defer func() {
		if r := recover(); r != nil {
			b = &Breakdown{Score: undeterminedScore, Level: LevelMedium, Err: fmt.Sprint(r)}
		}
	}()

	sourceCount := sourceCountScore(news, conflict, economic, government)
	freshness := freshnessScore(news, conflict, economic, government)
	consistency := consistencyScore(news, conflict, economic, government)
	historical := historicalValidationScore(history)

	total := sourceCount*weightSourceCount +
		freshness*weightFreshness +
		consistency*weightConsistency +
		historical*weightHistorical

	return &Breakdown{
		Score:                round2(clamp(total)),
		Level:                levelFor(total),
		SourceCount:          round2(sourceCount),
		Freshness:            round2(freshness),
		Consistency:          round2(consistency),
		HistoricalValidation: round2(historical),
	}
}

// sourceCountScore rewards breadth (how many signals cleared their activity
// threshold) and depth (data volume within each active signal), each worth
// half of the 100-point sub-score.
func sourceCountScore(news *signal.NewsResult, conflict *signal.ConflictResult, economic *signal.EconomicResult, government *signal.GovernmentResult) float64 {
	active := 0
	volume := 0.0

	if news != nil && news.ArticleCount > 5 {
		active++
		volume += minf(float64(news.ArticleCount)/50.0*25, 25)
	}
	if conflict != nil && conflict.EventCount > 3 {
		active++
		volume += minf(float64(conflict.EventCount)/30.0*25, 25)
	}
	if economic != nil && economic.Score > 0 {
		active++
		volume += 25
	}
	if government != nil && government.ReportsAnalyzed > 3 {
		active++
		volume += minf(float64(government.ReportsAnalyzed)/20.0*25, 25)
	}

	breadth := float64(active) / 4.0 * 50
	return minf(breadth+minf(volume, 50), 100)
}

// freshnessScore rewards each signal having found recent data within its own
// window. A signal that legitimately found nothing within a short window
// still earns partial credit: "no events this month" is a valid negative
// result, not a stale one.
func freshnessScore(news *signal.NewsResult, conflict *signal.ConflictResult, economic *signal.EconomicResult, government *signal.GovernmentResult) float64 {
	score := 0.0

	if news != nil {
		if news.ArticleCount > 0 {
			score += 30
		} else if news.DaysAnalyzed <= signal.DefaultNewsLookbackDays {
			score += 15
		}
	}
	if conflict != nil {
		if conflict.EventCount > 0 {
			score += 30
		} else if conflict.DaysAnalyzed <= signal.DefaultConflictLookbackDays {
			score += 15
		}
	}
	if economic != nil && economic.Score > 0 {
		// Annual data; freshness matters less.
		score += 20
	}
	if government != nil {
		if government.ReportsAnalyzed > 0 {
			score += 20
		} else if government.DaysAnalyzed <= signal.DefaultGovernmentLookbackDays {
			score += 10
		}
	}

	return minf(score, 100)
}

// consistencyScore measures agreement between the active signals: low spread
// among non-zero signal scores means high consistency. With fewer than two
// non-zero signals consistency is undetermined and defaults to 50.
func consistencyScore(news *signal.NewsResult, conflict *signal.ConflictResult, economic *signal.EconomicResult, government *signal.GovernmentResult) float64 {
	var scores []float64
	add := func(s float64) {
		if s > 0 {
			scores = append(scores, s)
		}
	}
	if news != nil {
		add(news.Score)
	}
	if conflict != nil {
		add(conflict.Score)
	}
	if economic != nil {
		add(economic.Score)
	}
	if government != nil {
		add(government.Score)
	}

	if len(scores) < 2 {
		return undeterminedScore
	}

	std := sampleStddev(scores)
	return minf(maxf(100-(std/30.0*100), 0), 100)
}

// historicalValidationScore scores the volatility of recent overall scores:
// stable history means the pipeline's output is predictable and therefore
// more trustworthy. Requires at least 3 points, else undetermined (50).
// Piecewise: std <=10 → 100-3*std; <=30 → 70-2*(std-10); else max(0, 30-(std-30)).
func historicalValidationScore(history []float64) float64 {
	if len(history) < 3 {
		return undeterminedScore
	}

	std := sampleStddev(history)
	var score float64
	switch {
	case std <= 10:
		score = 100 - std*3
	case std <= 30:
		score = 70 - (std-10)*2
	default:
		score = maxf(0, 30-(std-30))
	}
	return minf(maxf(score, 0), 100)
}

func levelFor(score float64) Level {
	switch {
	case score >= 80:
		return LevelVeryHigh
	case score >= 65:
		return LevelHigh
	case score >= 50:
		return LevelMedium
	case score >= 35:
		return LevelLow
	default:
		return LevelVeryLow
	}
}

// sampleStddev is the n-1 standard deviation.
func sampleStddev(values []float64) float64 {
	n := float64(len(values))
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / (n - 1))
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
