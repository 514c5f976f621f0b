package signal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	// DefaultNewsLookbackDays is the default news analysis window.
	DefaultNewsLookbackDays = 7

	// widenedNewsLimit caps the fallback query for the most recent articles
	// when the windowed query returns nothing.
	widenedNewsLimit = 50

	newsVolumeCeiling = 20.0 // articles at which the volume component saturates
)

// negativeKeywords drive the keyword fallback when no sentiment analyzer
// is available.
var negativeKeywords = []string{
	"protest", "riot", "violence", "conflict", "crisis",
	"terrorism", "attack", "strike", "unrest", "tension",
	"war", "emergency", "threat", "sanction",
}

// NewsResult is the diagnostic output of the news signal.
type NewsResult struct {
	Score        float64 `json:"score"`
	ArticleCount int     `json:"articleCount"`
	Method       Method  `json:"method"`
	DaysAnalyzed int     `json:"daysAnalyzed"`
	Widened      bool    `json:"widened,omitempty"`

	// ML path diagnostics.
	MeanSentiment float64 `json:"meanSentiment,omitempty"`
	NegativeRatio float64 `json:"negativeRatio,omitempty"`
	PositiveRatio float64 `json:"positiveRatio,omitempty"`

	// Keyword path diagnostics.
	NegativeCount int `json:"negativeCount,omitempty"`

	Err string `json:"error,omitempty"`
}

// News scores a country's news coverage: article volume plus either ML
// sentiment or keyword incidence.
type News struct {
	source       NewsSource
	analyzer     SentimentAnalyzer // nil → keyword fallback
	logger       *slog.Logger
	lookbackDays int
}

// NewNews creates a news signal calculator.
func NewNews(source NewsSource) *News {
	return &News{
		source:       source,
		logger:       slog.Default(),
		lookbackDays: DefaultNewsLookbackDays,
	}
}

// WithAnalyzer wires an optional sentiment analyzer.
func (n *News) WithAnalyzer(a SentimentAnalyzer) *News {
	n.analyzer = a
	return n
}

// WithLogger sets a structured logger.
func (n *News) WithLogger(l *slog.Logger) *News {
	n.logger = l
	return n
}

// WithLookback overrides the default lookback window in days.
func (n *News) WithLookback(days int) *News {
	n.lookbackDays = days
	return n
}

// Calculate scores the country's recent news. It never returns an error:
// no data yields {0, "none"} and internal failures yield {0, "error"}.
func (n *News) Calculate(ctx context.Context, countryCode string) (result *NewsResult) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("news signal panicked", "country", countryCode, "panic", fmt.Sprint(r))
			result = &NewsResult{Method: MethodError, DaysAnalyzed: n.lookbackDays, Err: fmt.Sprint(r)}
		}
	}()

	since := time.Now().UTC().AddDate(0, 0, -n.lookbackDays)
	articles, err := n.source.FetchNews(ctx, countryCode, since)
	if err != nil {
		return &NewsResult{Method: MethodError, DaysAnalyzed: n.lookbackDays, Err: err.Error()}
	}

	// Widen to the most recent articles regardless of date when the windowed
	// query is empty. days_analyzed then reflects the requested window, not
	// the data actually used; the Widened flag and method suffix make that
	// explicit to consumers.
	widened := false
	if len(articles) == 0 {
		n.logger.Warn("no articles in window, widening query", "country", countryCode, "days", n.lookbackDays)
		articles, err = n.source.FetchRecentNews(ctx, countryCode, widenedNewsLimit)
		if err != nil {
			return &NewsResult{Method: MethodError, DaysAnalyzed: n.lookbackDays, Err: err.Error()}
		}
		widened = true
	}

	if len(articles) == 0 {
		return &NewsResult{Method: MethodNone, DaysAnalyzed: n.lookbackDays}
	}

	if n.analyzer != nil {
		if res, ok := n.calculateML(ctx, countryCode, articles, widened); ok {
			return res
		}
		// Analyzer failed mid-run: degrade to the keyword path.
		n.logger.Warn("sentiment analyzer failed, using keyword fallback", "country", countryCode)
	}

	return n.calculateKeyword(articles, widened)
}

// calculateML scores via per-article sentiment. Returns ok=false when the
// analyzer errors, signalling the caller to fall back to keywords.
func (n *News) calculateML(ctx context.Context, countryCode string, articles []Article, widened bool) (*NewsResult, bool) {
	sentiments := make([]Sentiment, 0, len(articles))
	for _, a := range articles {
		s, err := n.analyzeArticle(ctx, a)
		if err != nil {
			return nil, false
		}
		sentiments = append(sentiments, s)
	}

	agg := aggregateSentiment(sentiments)

	// Volume contributes up to 40 points, sentiment up to 60: fully negative
	// coverage maps to 60, fully positive to 0.
	volume := minf(float64(len(articles))/newsVolumeCeiling*40, 40)
	sentiment := (1.0 - agg.mean) / 2.0 * 60

	method := MethodMLSentiment
	if widened {
		method = MethodMLSentimentWidened
	}
	return &NewsResult{
		Score:         round2(clamp(volume + sentiment)),
		ArticleCount:  len(articles),
		Method:        method,
		DaysAnalyzed:  n.lookbackDays,
		Widened:       widened,
		MeanSentiment: agg.mean,
		NegativeRatio: agg.negativeRatio,
		PositiveRatio: agg.positiveRatio,
	}, true
}

// calculateKeyword scores by counting articles that mention any negative
// keyword.
func (n *News) calculateKeyword(articles []Article, widened bool) *NewsResult {
	negative := 0
	for _, a := range articles {
		text := strings.ToLower(a.Title + " " + a.Content)
		for _, kw := range negativeKeywords {
			if strings.Contains(text, kw) {
				negative++
				break
			}
		}
	}

	volume := minf(float64(len(articles))/newsVolumeCeiling*50, 50)
	negScore := float64(negative) / float64(len(articles)) * 50

	method := MethodKeyword
	if widened {
		method = MethodKeywordWidened
	}
	return &NewsResult{
		Score:         round2(clamp(volume + negScore)),
		ArticleCount:  len(articles),
		Method:        method,
		DaysAnalyzed:  n.lookbackDays,
		Widened:       widened,
		NegativeCount: negative,
	}
}

// analyzeArticle weights title sentiment 60/40 over content when both are
// present; otherwise it scores whatever text exists.
func (n *News) analyzeArticle(ctx context.Context, a Article) (Sentiment, error) {
	if a.Title != "" && a.Content != "" {
		title, err := n.analyzer.Analyze(ctx, a.Title)
		if err != nil {
			return Sentiment{}, err
		}
		content := a.Content
		if len(content) > 1000 {
			content = content[:1000]
		}
		body, err := n.analyzer.Analyze(ctx, content)
		if err != nil {
			return Sentiment{}, err
		}
		return Sentiment{
			Score:      round4(title.Score*0.6 + body.Score*0.4),
			Confidence: round4((title.Confidence + body.Confidence) / 2),
		}, nil
	}
	return n.analyzer.Analyze(ctx, strings.TrimSpace(a.Title+". "+a.Content))
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
