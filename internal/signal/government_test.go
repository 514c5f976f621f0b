package signal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubGovernmentSource struct {
	reports []Report
	err     error
}

func (s *stubGovernmentSource) FetchReports(ctx context.Context, countryCode string, since time.Time) ([]Report, error) {
	return s.reports, s.err
}

func TestGovernment_NoReports(t *testing.T) {
	g := NewGovernment(&stubGovernmentSource{})

	res := g.Calculate(context.Background(), "SY")

	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, MethodNone, res.Method)
	assert.Equal(t, "no government data available - signal inactive", res.Note)
}

func TestGovernment_SourceError(t *testing.T) {
	g := NewGovernment(&stubGovernmentSource{err: errors.New("portal down")})

	res := g.Calculate(context.Background(), "SY")

	assert.Equal(t, MethodError, res.Method)
	assert.Contains(t, res.Err, "portal down")
	assert.Equal(t, "government signal analysis failed", res.Note)
}

func TestGovernment_KeywordScoring(t *testing.T) {
	now := time.Now().UTC()
	var reports []Report
	for i := 0; i < 4; i++ {
		reports = append(reports, Report{
			Title:       "Border security briefing",
			Content:     "The ministry outlined new military measures.",
			PublishedAt: now,
		})
	}
	for i := 0; i < 2; i++ {
		reports = append(reports, Report{
			Title:       "Economic outlook",
			Content:     "Officials expressed concern over regional tension.",
			PublishedAt: now,
		})
	}
	for i := 0; i < 4; i++ {
		reports = append(reports, Report{
			Title:       "Infrastructure update",
			Content:     "Road works continue on schedule.",
			PublishedAt: now,
		})
	}

	g := NewGovernment(&stubGovernmentSource{reports: reports})
	res := g.Calculate(context.Background(), "UA")

	// activity = 10/20*40 = 20, security = 4/10*30 = 12, negative = 2/10*30 = 6.
	assert.Equal(t, MethodKeyword, res.Method)
	assert.Equal(t, 10, res.ReportsAnalyzed)
	assert.Equal(t, 4, res.SecurityMentions)
	assert.Equal(t, 2, res.NegativeMentions)
	assert.InDelta(t, 38.0, res.Score, 0.001)
}

func TestGovernment_MLScoring(t *testing.T) {
	now := time.Now().UTC()
	var reports []Report
	for i := 0; i < 3; i++ {
		reports = append(reports, Report{Title: "Security posture", Category: "security", PublishedAt: now})
	}
	for i := 0; i < 3; i++ {
		reports = append(reports, Report{Title: "Budget statement", PublishedAt: now})
	}

	analyzer := &stubAnalyzer{sentiment: Sentiment{Score: -0.5, Confidence: 0.8}}
	g := NewGovernment(&stubGovernmentSource{reports: reports}).WithAnalyzer(analyzer)

	res := g.Calculate(context.Background(), "UA")

	// stability = 20 (normal cadence), sentiment = (1-(-0.5))/2*30 = 22.5,
	// security = 3/6*30 = 15.
	assert.Equal(t, MethodMLSentiment, res.Method)
	assert.InDelta(t, 57.5, res.Score, 0.001)
	assert.InDelta(t, 20.0, res.StabilityScore, 0.001)
	assert.InDelta(t, 22.5, res.SentimentScore, 0.001)
	assert.InDelta(t, 15.0, res.SecurityScore, 0.001)
	assert.Equal(t, 3, res.Categories["security"])
	assert.Equal(t, 3, res.Categories["general"])
}

func TestGovernment_MLStabilityBands(t *testing.T) {
	analyzer := &stubAnalyzer{sentiment: Sentiment{Score: 0}}
	now := time.Now().UTC()

	sparse := make([]Report, 3)
	for i := range sparse {
		sparse[i] = Report{Title: "Notice", PublishedAt: now}
	}
	g := NewGovernment(&stubGovernmentSource{reports: sparse}).WithAnalyzer(analyzer)
	res := g.Calculate(context.Background(), "SY")
	assert.InDelta(t, 30.0, res.StabilityScore, 0.001)

	churn := make([]Report, 35)
	for i := range churn {
		churn[i] = Report{Title: "Notice", PublishedAt: now}
	}
	g = NewGovernment(&stubGovernmentSource{reports: churn}).WithAnalyzer(analyzer)
	res = g.Calculate(context.Background(), "SY")
	assert.InDelta(t, 60.0, res.StabilityScore, 0.001)
}

func TestGovernment_AnalyzerFailureFallsBackToKeywords(t *testing.T) {
	analyzer := &stubAnalyzer{failAfter: 1}
	reports := []Report{
		{Title: "Security briefing", PublishedAt: time.Now().UTC()},
		{Title: "Security briefing", PublishedAt: time.Now().UTC()},
	}
	g := NewGovernment(&stubGovernmentSource{reports: reports}).WithAnalyzer(analyzer)

	res := g.Calculate(context.Background(), "UA")

	assert.Equal(t, MethodKeyword, res.Method)
	assert.Equal(t, 2, res.SecurityMentions)
}
