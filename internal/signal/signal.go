// Package signal implements the four geopolitical risk signal calculators.
//
// Each calculator consumes raw records for one country and a lookback window
// and produces a bounded score in [0, 100] plus diagnostic metadata. The four
// signals (news, conflict, economic, government) are mutually independent:
// no shared state, no ordering requirement. A calculator never returns a Go
// error to its caller: missing data degrades to score 0 with a note, and
// unexpected failures are captured in the result with Method = "error".
package signal

import (
	"context"
	"math"
)

// Method records which analysis path produced a news or government score.
type Method string

const (
	// MethodNone means no records were found, even after fallback widening.
	MethodNone Method = "none"
	// MethodMLSentiment means a sentiment analyzer scored the records.
	MethodMLSentiment Method = "ml_sentiment"
	// MethodMLSentimentWidened is MethodMLSentiment over a widened query
	// (the windowed fetch was empty, so the most recent records were used).
	MethodMLSentimentWidened Method = "ml_sentiment_widened"
	// MethodKeyword means the keyword fallback scored the records.
	MethodKeyword Method = "keyword"
	// MethodKeywordWidened is MethodKeyword over a widened query.
	MethodKeywordWidened Method = "keyword_widened"
	// MethodError means the calculator failed; score is 0.
	MethodError Method = "error"
)

// Sentiment is the output contract of an external sentiment model:
// a normalized score in [-1, 1] (negative to positive) with a confidence
// in [0, 1].
type Sentiment struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// SentimentAnalyzer is an optional capability. A nil analyzer (or one that
// fails at runtime) switches the news and government calculators onto their
// keyword fallback paths; it never aborts a calculation.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) (Sentiment, error)
}

// sentimentAggregate summarizes per-record sentiment results.
type sentimentAggregate struct {
	mean          float64
	negativeRatio float64
	positiveRatio float64
}

// aggregateSentiment computes mean score and sign-based ratios.
func aggregateSentiment(sentiments []Sentiment) sentimentAggregate {
	if len(sentiments) == 0 {
		return sentimentAggregate{}
	}
	var sum float64
	var pos, neg int
	for _, s := range sentiments {
		sum += s.Score
		switch {
		case s.Score > 0:
			pos++
		case s.Score < 0:
			neg++
		}
	}
	n := float64(len(sentiments))
	return sentimentAggregate{
		mean:          round4(sum / n),
		negativeRatio: round4(float64(neg) / n),
		positiveRatio: round4(float64(pos) / n),
	}
}

// clamp bounds v to [0, 100]. Every score leaves a calculator clamped;
// no unclamped value may reach persistence or the alert detector.
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
