package signal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DefaultGovernmentLookbackDays is the default government analysis window.
const DefaultGovernmentLookbackDays = 30

// Keyword lists for the fallback path without a sentiment analyzer.
var (
	securityKeywords    = []string{"defence", "military", "security", "border", "terrorism", "threat"}
	govNegativeKeywords = []string{"concern", "issue", "problem", "challenge", "crisis", "tension"}
)

// GovernmentResult is the diagnostic output of the government signal.
type GovernmentResult struct {
	Score           float64 `json:"score"`
	ReportsAnalyzed int     `json:"reportsAnalyzed"`
	Method          Method  `json:"method,omitempty"`
	DaysAnalyzed    int     `json:"daysAnalyzed"`

	// ML path diagnostics.
	MeanSentiment  float64        `json:"meanSentiment,omitempty"`
	NegativeRatio  float64        `json:"negativeRatio,omitempty"`
	Categories     map[string]int `json:"categories,omitempty"`
	StabilityScore float64        `json:"stabilityScore,omitempty"`
	SentimentScore float64        `json:"sentimentScore,omitempty"`
	SecurityScore  float64        `json:"securityScore,omitempty"`

	// Keyword path diagnostics.
	SecurityMentions int `json:"securityMentions,omitempty"`
	NegativeMentions int `json:"negativeMentions,omitempty"`

	Note string `json:"note,omitempty"`
	Err  string `json:"error,omitempty"`
}

// Government scores a country's official publication stream. Report cadence,
// official sentiment, and the share of security-related reports each
// contribute up to 30-40 points. The underlying feed is sparse or entirely
// absent for most countries, which is acceptable: absence yields score 0,
// not an error.
type Government struct {
	source       GovernmentSource
	analyzer     SentimentAnalyzer // nil → keyword fallback
	logger       *slog.Logger
	lookbackDays int
}

// NewGovernment creates a government signal calculator.
func NewGovernment(source GovernmentSource) *Government {
	return &Government{
		source:       source,
		logger:       slog.Default(),
		lookbackDays: DefaultGovernmentLookbackDays,
	}
}

// WithAnalyzer wires an optional sentiment analyzer.
func (g *Government) WithAnalyzer(a SentimentAnalyzer) *Government {
	g.analyzer = a
	return g
}

// WithLogger sets a structured logger.
func (g *Government) WithLogger(l *slog.Logger) *Government {
	g.logger = l
	return g
}

// WithLookback overrides the default lookback window in days.
func (g *Government) WithLookback(days int) *Government {
	g.lookbackDays = days
	return g
}

// Calculate scores the country's government activity. Never returns a Go
// error; failures are captured in the result.
func (g *Government) Calculate(ctx context.Context, countryCode string) (result *GovernmentResult) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("government signal panicked", "country", countryCode, "panic", fmt.Sprint(r))
			result = &GovernmentResult{
				Method:       MethodError,
				DaysAnalyzed: g.lookbackDays,
				Err:          fmt.Sprint(r),
				Note:         "government signal analysis failed",
			}
		}
	}()

	since := time.Now().UTC().AddDate(0, 0, -g.lookbackDays)
	reports, err := g.source.FetchReports(ctx, countryCode, since)
	if err != nil {
		return &GovernmentResult{
			Method:       MethodError,
			DaysAnalyzed: g.lookbackDays,
			Err:          err.Error(),
			Note:         "government signal analysis failed",
		}
	}

	if len(reports) == 0 {
		return &GovernmentResult{
			Method:       MethodNone,
			DaysAnalyzed: g.lookbackDays,
			Note:         "no government data available - signal inactive",
		}
	}

	if g.analyzer != nil {
		if res, ok := g.calculateML(ctx, reports); ok {
			return res
		}
		g.logger.Warn("sentiment analyzer failed, using keyword fallback", "country", countryCode)
	}

	return g.calculateKeyword(reports)
}

// calculateML combines report-cadence stability, official sentiment, and the
// security category share. Returns ok=false when the analyzer errors.
func (g *Government) calculateML(ctx context.Context, reports []Report) (*GovernmentResult, bool) {
	sentiments := make([]Sentiment, 0, len(reports))
	categories := make(map[string]int)
	for _, r := range reports {
		s, err := g.analyzer.Analyze(ctx, strings.TrimSpace(r.Title+". "+r.Content))
		if err != nil {
			return nil, false
		}
		sentiments = append(sentiments, s)

		cat := r.Category
		if cat == "" {
			cat = "general"
		}
		categories[cat]++
	}

	agg := aggregateSentiment(sentiments)
	count := len(reports)

	// Cadence: 5-30 reports per window is normal. Too few suggests opacity,
	// too many suggests churn.
	var stability float64
	switch {
	case count < 5:
		stability = 30
	case count > 30:
		stability = 60
	default:
		stability = 20
	}

	sentiment := (1.0 - agg.mean) / 2.0 * 30
	security := float64(categories["security"]) / float64(count) * 30

	return &GovernmentResult{
		Score:           round2(clamp(stability + sentiment + security)),
		ReportsAnalyzed: count,
		Method:          MethodMLSentiment,
		DaysAnalyzed:    g.lookbackDays,
		MeanSentiment:   agg.mean,
		NegativeRatio:   agg.negativeRatio,
		Categories:      categories,
		StabilityScore:  round2(stability),
		SentimentScore:  round2(sentiment),
		SecurityScore:   round2(security),
	}, true
}

// calculateKeyword scores from publication volume plus security and negative
// keyword incidence.
func (g *Government) calculateKeyword(reports []Report) *GovernmentResult {
	securityCount, negativeCount := 0, 0
	for _, r := range reports {
		text := strings.ToLower(r.Title + " " + r.Content)
		if containsAny(text, securityKeywords) {
			securityCount++
		}
		if containsAny(text, govNegativeKeywords) {
			negativeCount++
		}
	}

	count := float64(len(reports))
	activity := minf(count/20.0*40, 40)
	security := float64(securityCount) / count * 30
	negative := float64(negativeCount) / count * 30

	return &GovernmentResult{
		Score:            round2(clamp(activity + security + negative)),
		ReportsAnalyzed:  len(reports),
		Method:           MethodKeyword,
		DaysAnalyzed:     g.lookbackDays,
		SecurityMentions: securityCount,
		NegativeMentions: negativeCount,
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
