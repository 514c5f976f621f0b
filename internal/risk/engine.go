package risk

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/kautilya-labs/georisk/internal/confidence"
	"github.com/kautilya-labs/georisk/internal/idgen"
	"github.com/kautilya-labs/georisk/internal/metrics"
	"github.com/kautilya-labs/georisk/internal/signal"
	"github.com/kautilya-labs/georisk/internal/syncutil"
	"github.com/kautilya-labs/georisk/internal/traces"
)

const (
	trendLookback   = 7 * 24 * time.Hour  // prior-score window for trend
	historyLookback = 30 * 24 * time.Hour // history window for confidence
	trendBand       = 10.0                // |diff| beyond which trend moves
)

// Assessment is the composite result of one scoring run, mirroring the
// persisted RiskScore plus the raw signal breakdown and the number of alerts
// the run produced.
type Assessment struct {
	RiskScoreID     string           `json:"riskScoreId"`
	CountryCode     string           `json:"countryCode"`
	OverallScore    float64          `json:"overallScore"`
	RiskLevel       Level            `json:"riskLevel"`
	Trend           Trend            `json:"trend"`
	ConfidenceScore float64          `json:"confidenceScore"`
	ConfidenceLevel confidence.Level `json:"confidenceLevel"`
	Signals         *Metadata        `json:"signals"`
	AlertsTriggered int              `json:"alertsTriggered"`
	CalculatedAt    time.Time        `json:"calculatedAt"`
}

// Engine orchestrates the scoring pipeline for one country at a time.
// The four signal calculators are independent and run concurrently; their
// outputs join before aggregation and confidence scoring. Runs for the same
// country are serialized so the alert dedup window can't race.
type Engine struct {
	news       *signal.News
	conflict   *signal.Conflict
	economic   *signal.Economic
	government *signal.Government
	store      Store
	alerts     AlertSink
	locks      syncutil.ShardedMutex
	logger     *slog.Logger
}

// NewEngine creates a risk aggregation engine over the four calculators and
// a score store.
func NewEngine(news *signal.News, conflict *signal.Conflict, economic *signal.Economic, government *signal.Government, store Store) *Engine {
	return &Engine{
		news:       news,
		conflict:   conflict,
		economic:   economic,
		government: government,
		store:      store,
		logger:     slog.Default(),
	}
}

// WithAlertSink wires the alert detector invoked after each persisted score.
func (e *Engine) WithAlertSink(sink AlertSink) *Engine {
	e.alerts = sink
	return e
}

// WithLogger sets a structured logger.
func (e *Engine) WithLogger(l *slog.Logger) *Engine {
	e.logger = l
	return e
}

// Compute runs the full pipeline once for a country. The caller either gets
// a complete, persisted assessment (possibly with degraded/zero signals
// noted in metadata) or an explicit error, never a partially-computed
// result framed as success. Persistence failure is the one fatal path:
// a silently missing score would leave downstream consumers stale.
func (e *Engine) Compute(ctx context.Context, countryCode string) (*Assessment, error) {
	unlock := e.locks.Lock(countryCode)
	defer unlock()

	ctx, span := traces.StartSpan(ctx, "risk.compute", traces.Country(countryCode))
	defer span.End()

	start := time.Now()
	now := start.UTC()

	// The calculators share no state; evaluate all four concurrently and
	// join before aggregation.
	var (
		newsRes *signal.NewsResult
		confRes *signal.ConflictResult
		econRes *signal.EconomicResult
		govRes  *signal.GovernmentResult
	)
	var wg sync.WaitGroup
	wg.Add(4)
	go func() { defer wg.Done(); newsRes = e.news.Calculate(ctx, countryCode) }()
	go func() { defer wg.Done(); confRes = e.conflict.Calculate(ctx, countryCode) }()
	go func() { defer wg.Done(); econRes = e.economic.Calculate(ctx, countryCode) }()
	go func() { defer wg.Done(); govRes = e.government.Calculate(ctx, countryCode) }()
	wg.Wait()

	overall := clampScore(newsRes.Score*WeightNews +
		confRes.Score*WeightConflict +
		econRes.Score*WeightEconomic +
		govRes.Score*WeightGovernment)

	trend := e.determineTrend(ctx, countryCode, overall, now)
	history := e.historicalScores(ctx, countryCode, now)
	conf := confidence.Score(newsRes, confRes, econRes, govRes, history)

	meta := &Metadata{
		News:       newsRes,
		Conflict:   confRes,
		Economic:   econRes,
		Government: govRes,
		Weights:    Weights(),
		Confidence: conf,
	}

	rec := &RiskScore{
		ID:              idgen.WithPrefix("rs_"),
		CountryCode:     countryCode,
		Date:            now,
		OverallScore:    round2(overall),
		NewsScore:       round2(newsRes.Score),
		ConflictScore:   round2(confRes.Score),
		EconomicScore:   round2(econRes.Score),
		GovernmentScore: round2(govRes.Score),
		ConfidenceScore: conf.Score,
		Trend:           trend,
		Metadata:        meta,
	}

	if err := e.store.Insert(ctx, rec); err != nil {
		metrics.ScoringRunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("persist risk score for %s: %w", countryCode, err)
	}

	alertCount := 0
	if e.alerts != nil {
		n, err := e.alerts.Detect(ctx, rec, meta)
		if err != nil {
			// Alert failures never invalidate the persisted score.
			e.logger.Error("alert detection failed", "country", countryCode, "error", err)
		}
		alertCount = n
	}

	metrics.ScoringRunsTotal.WithLabelValues("ok").Inc()
	metrics.ScoringDuration.Observe(time.Since(start).Seconds())
	metrics.CountryRiskScore.WithLabelValues(countryCode).Set(rec.OverallScore)
	metrics.CountrySignalScore.WithLabelValues(countryCode, "news").Set(rec.NewsScore)
	metrics.CountrySignalScore.WithLabelValues(countryCode, "conflict").Set(rec.ConflictScore)
	metrics.CountrySignalScore.WithLabelValues(countryCode, "economic").Set(rec.EconomicScore)
	metrics.CountrySignalScore.WithLabelValues(countryCode, "government").Set(rec.GovernmentScore)

	e.logger.Info("risk score calculated",
		"country", countryCode,
		"overall", rec.OverallScore,
		"confidence", rec.ConfidenceScore,
		"trend", trend,
		"alerts", alertCount,
	)

	return &Assessment{
		RiskScoreID:     rec.ID,
		CountryCode:     countryCode,
		OverallScore:    rec.OverallScore,
		RiskLevel:       LevelFor(rec.OverallScore),
		Trend:           trend,
		ConfidenceScore: conf.Score,
		ConfidenceLevel: conf.Level,
		Signals:         meta,
		AlertsTriggered: alertCount,
		CalculatedAt:    now,
	}, nil
}

// determineTrend compares against the most recent prior score from the last
// 7 days. No prior (or a store error, which is non-fatal here) reads as
// stable.
func (e *Engine) determineTrend(ctx context.Context, countryCode string, current float64, now time.Time) Trend {
	prev, err := e.store.LatestBefore(ctx, countryCode, now.Add(-trendLookback), now)
	if err != nil {
		e.logger.Warn("trend lookup failed", "country", countryCode, "error", err)
		return TrendStable
	}
	if prev == nil {
		return TrendStable
	}

	diff := current - prev.OverallScore
	switch {
	case diff > trendBand:
		return TrendIncreasing
	case diff < -trendBand:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// historicalScores returns the last 30 days of overall scores, oldest first.
// Errors degrade to no history (confidence then reports it undetermined).
func (e *Engine) historicalScores(ctx context.Context, countryCode string, now time.Time) []float64 {
	recs, err := e.store.History(ctx, countryCode, now.Add(-historyLookback))
	if err != nil {
		e.logger.Warn("history lookup failed", "country", countryCode, "error", err)
		return nil
	}
	scores := make([]float64, 0, len(recs))
	for _, r := range recs {
		scores = append(scores, r.OverallScore)
	}
	return scores
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
