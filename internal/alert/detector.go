package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kautilya-labs/georisk/internal/idgen"
	"github.com/kautilya-labs/georisk/internal/metrics"
	"github.com/kautilya-labs/georisk/internal/risk"
	"github.com/kautilya-labs/georisk/internal/traces"
)

// Detection thresholds. Percentages are relative change of the overall score
// against the reference score for the check's window.
const (
	riskIncreasePercent    = 15.0
	suddenSpikePercent     = 30.0
	rapidEscalationPercent = 50.0
	sustainedHighScore     = 70.0

	suddenSpikeWindow     = 24 * time.Hour
	rapidEscalationWindow = 6 * time.Hour
	sustainedHighWindow   = 48 * time.Hour
	riskIncreaseWindow    = 7 * 24 * time.Hour

	// One alert per (country, type) per day.
	dedupWindow = 24 * time.Hour
)

// Detector runs the pattern checks against a persisted score and writes the
// surviving alerts. It implements risk.AlertSink.
type Detector struct {
	alerts Store
	scores risk.Store
	logger *slog.Logger
	notify func(*Alert)
}

// NewDetector creates an alert detector over an alert store and the risk
// score store used for historical lookups.
func NewDetector(alerts Store, scores risk.Store) *Detector {
	return &Detector{
		alerts: alerts,
		scores: scores,
		logger: slog.Default(),
	}
}

// WithLogger sets a structured logger.
func (d *Detector) WithLogger(l *slog.Logger) *Detector {
	d.logger = l
	return d
}

// WithNotifier registers a callback invoked for every alert that persists,
// after the store write succeeds.
func (d *Detector) WithNotifier(fn func(*Alert)) *Detector {
	d.notify = fn
	return d
}

// Detect runs every pattern check for the given persisted score, dedupes,
// persists the survivors, and returns how many alerts were created. Check
// failures are collected and returned joined; they never abort the remaining
// checks.
func (d *Detector) Detect(ctx context.Context, rec *risk.RiskScore, meta *risk.Metadata) (int, error) {
	ctx, span := traces.StartSpan(ctx, "alert.detect", traces.Country(rec.CountryCode))
	defer span.End()

	now := time.Now().UTC()

	checks := []struct {
		name string
		fn   func(context.Context, *risk.RiskScore, *risk.Metadata, time.Time) (*Alert, error)
	}{
		{"risk_increase", d.checkRiskIncrease},
		{"sudden_spike", d.checkSuddenSpike},
		{"sustained_high", d.checkSustainedHigh},
		{"rapid_escalation", d.checkRapidEscalation},
		{"threshold_breach", d.checkThresholdBreach},
	}

	var (
		created int
		errs    []error
	)
	for _, c := range checks {
		a, err := d.runCheck(ctx, c.name, c.fn, rec, meta, now)
		if err != nil {
			d.logger.Error("alert check failed", "check", c.name, "country", rec.CountryCode, "error", err)
			errs = append(errs, err)
			continue
		}
		if a == nil {
			continue
		}

		dup, err := d.alerts.RecentExists(ctx, rec.CountryCode, a.Type, now.Add(-dedupWindow))
		if err != nil {
			// A broken dedup lookup must not swallow a real alert.
			d.logger.Warn("alert dedup lookup failed, creating anyway", "type", a.Type, "error", err)
		} else if dup {
			continue
		}

		if err := d.alerts.Insert(ctx, a); err != nil {
			errs = append(errs, fmt.Errorf("persist %s alert: %w", a.Type, err))
			continue
		}
		created++
		metrics.AlertsFiredTotal.WithLabelValues(string(a.Type), string(a.Severity)).Inc()
		d.logger.Info("alert created",
			"country", a.CountryCode,
			"type", a.Type,
			"severity", a.Severity,
			"score", a.RiskScore,
		)
		if d.notify != nil {
			d.notify(a)
		}
	}

	return created, errors.Join(errs...)
}

// runCheck contains panics so one misbehaving check can't take down the rest.
func (d *Detector) runCheck(ctx context.Context, name string, fn func(context.Context, *risk.RiskScore, *risk.Metadata, time.Time) (*Alert, error), rec *risk.RiskScore, meta *risk.Metadata, now time.Time) (a *Alert, err error) {
	defer func() {
		if r := recover(); r != nil {
			a = nil
			err = fmt.Errorf("alert check %s panicked: %v", name, r)
		}
	}()
	return fn(ctx, rec, meta, now)
}

// checkRiskIncrease fires on a >=15% rise against the most recent score from
// the last 7 days. Severity scales with the magnitude of the rise.
func (d *Detector) checkRiskIncrease(ctx context.Context, rec *risk.RiskScore, meta *risk.Metadata, now time.Time) (*Alert, error) {
	prev, err := d.previousScore(ctx, rec, now, riskIncreaseWindow)
	if err != nil || prev == nil {
		return nil, err
	}

	changePercent := percentChange(prev.OverallScore, rec.OverallScore)
	if changePercent < riskIncreasePercent {
		return nil, nil
	}

	return d.newAlert(rec, meta, Alert{
		Type:          TypeRiskIncrease,
		Severity:      increaseSeverity(changePercent),
		Title:         fmt.Sprintf("Risk Increase Alert: %s", rec.CountryCode),
		Description:   fmt.Sprintf("Risk score increased by %.1f%% from %.1f to %.1f", changePercent, prev.OverallScore, rec.OverallScore),
		PreviousScore: prev.OverallScore,
		ChangePercent: changePercent,
		Evidence: &Evidence{
			PreviousScoreID: prev.ID,
			Change:          rec.OverallScore - prev.OverallScore,
		},
	}), nil
}

// checkSuddenSpike fires on a >=30% rise within 24 hours.
func (d *Detector) checkSuddenSpike(ctx context.Context, rec *risk.RiskScore, meta *risk.Metadata, now time.Time) (*Alert, error) {
	prev, err := d.previousScore(ctx, rec, now, suddenSpikeWindow)
	if err != nil || prev == nil {
		return nil, err
	}

	changePercent := percentChange(prev.OverallScore, rec.OverallScore)
	if changePercent < suddenSpikePercent {
		return nil, nil
	}

	severity := SeverityHigh
	if changePercent >= 50 {
		severity = SeverityCritical
	}
	driver := primaryDriver(meta)

	return d.newAlert(rec, meta, Alert{
		Type:          TypeSuddenSpike,
		Severity:      severity,
		Title:         fmt.Sprintf("SUDDEN SPIKE: %s Risk Up %.0f%% in 24h", rec.CountryCode, changePercent),
		Description:   fmt.Sprintf("Risk jumped from %.1f to %.1f within 24 hours. Primary driver: %s", prev.OverallScore, rec.OverallScore, driver),
		PreviousScore: prev.OverallScore,
		ChangePercent: changePercent,
		Evidence: &Evidence{
			PreviousScoreID: prev.ID,
			PrimaryDriver:   driver,
			TimeWindow:      "24 hours",
		},
	}), nil
}

// checkSustainedHigh fires when every score over the last 48 hours, including
// the current one, sits at or above 70. Needs at least two observations so a
// single data point can't claim persistence.
func (d *Detector) checkSustainedHigh(ctx context.Context, rec *risk.RiskScore, meta *risk.Metadata, now time.Time) (*Alert, error) {
	if rec.OverallScore < sustainedHighScore {
		return nil, nil
	}

	scores, err := d.scores.History(ctx, rec.CountryCode, now.Add(-sustainedHighWindow))
	if err != nil {
		return nil, fmt.Errorf("load 48h history: %w", err)
	}
	if len(scores) < 2 {
		return nil, nil
	}

	sum := 0.0
	for _, s := range scores {
		if s.OverallScore < sustainedHighScore {
			return nil, nil
		}
		sum += s.OverallScore
	}
	durationHours := now.Sub(scores[0].Date).Hours()
	avg := sum / float64(len(scores))

	return d.newAlert(rec, meta, Alert{
		Type:          TypeSustainedHigh,
		Severity:      SeverityCritical,
		Title:         fmt.Sprintf("SUSTAINED HIGH RISK: %s", rec.CountryCode),
		Description:   fmt.Sprintf("Risk has remained above %.0f for %.1f hours (avg: %.1f)", sustainedHighScore, durationHours, avg),
		PreviousScore: scores[0].OverallScore,
		Evidence: &Evidence{
			DurationHours: durationHours,
			AvgScore:      avg,
			ScoreCount:    len(scores),
		},
	}), nil
}

// checkRapidEscalation fires on a >=50% rise within 6 hours. Always critical.
func (d *Detector) checkRapidEscalation(ctx context.Context, rec *risk.RiskScore, meta *risk.Metadata, now time.Time) (*Alert, error) {
	prev, err := d.previousScore(ctx, rec, now, rapidEscalationWindow)
	if err != nil || prev == nil {
		return nil, err
	}

	changePercent := percentChange(prev.OverallScore, rec.OverallScore)
	if changePercent < rapidEscalationPercent {
		return nil, nil
	}
	driver := primaryDriver(meta)

	return d.newAlert(rec, meta, Alert{
		Type:          TypeRapidEscalation,
		Severity:      SeverityCritical,
		Title:         fmt.Sprintf("RAPID ESCALATION: %s", rec.CountryCode),
		Description:   fmt.Sprintf("CRITICAL: Risk escalated %.0f%% in just 6 hours (%.1f to %.1f). Driver: %s", changePercent, prev.OverallScore, rec.OverallScore, driver),
		PreviousScore: prev.OverallScore,
		ChangePercent: changePercent,
		Evidence: &Evidence{
			PreviousScoreID: prev.ID,
			PrimaryDriver:   driver,
			TimeWindow:      "6 hours",
		},
	}), nil
}

// checkThresholdBreach fires whenever the current score sits in the high or
// critical band, regardless of how it got there. Dedup keeps this to one per
// day while a country stays elevated.
func (d *Detector) checkThresholdBreach(ctx context.Context, rec *risk.RiskScore, meta *risk.Metadata, now time.Time) (*Alert, error) {
	level := risk.LevelFor(rec.OverallScore)

	var severity Severity
	switch level {
	case risk.LevelCritical:
		severity = SeverityCritical
	case risk.LevelHigh:
		severity = SeverityHigh
	default:
		return nil, nil
	}

	return d.newAlert(rec, meta, Alert{
		Type:        TypeThresholdBreach,
		Severity:    severity,
		Title:       fmt.Sprintf("High Risk Level: %s", rec.CountryCode),
		Description: fmt.Sprintf("Risk score %.1f is in the %s band. Primary driver: %s", rec.OverallScore, level, primaryDriver(meta)),
		Evidence: &Evidence{
			PrimaryDriver: primaryDriver(meta),
		},
	}), nil
}

// previousScore returns the most recent score strictly before the current
// record within the window, or nil.
func (d *Detector) previousScore(ctx context.Context, rec *risk.RiskScore, now time.Time, window time.Duration) (*risk.RiskScore, error) {
	prev, err := d.scores.LatestBefore(ctx, rec.CountryCode, now.Add(-window), rec.Date)
	if err != nil {
		return nil, fmt.Errorf("load previous score: %w", err)
	}
	return prev, nil
}

// newAlert fills the fields every alert shares.
func (d *Detector) newAlert(rec *risk.RiskScore, meta *risk.Metadata, a Alert) *Alert {
	a.ID = idgen.WithPrefix("alrt_")
	a.CountryCode = rec.CountryCode
	a.RiskScore = rec.OverallScore
	a.ConfidenceScore = rec.ConfidenceScore
	a.Status = StatusNew
	a.TriggeredAt = time.Now().UTC()
	if a.Evidence == nil {
		a.Evidence = &Evidence{}
	}
	a.Evidence.RiskScoreID = rec.ID
	a.Evidence.Signals = meta
	return &a
}

// percentChange is the relative change in percent; 0 when the reference is
// not strictly positive.
func percentChange(previous, current float64) float64 {
	if previous <= 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// increaseSeverity grades a risk_increase alert by the size of the rise.
func increaseSeverity(changePercent float64) Severity {
	switch {
	case changePercent >= 40:
		return SeverityCritical
	case changePercent >= 25:
		return SeverityHigh
	case changePercent >= 15:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// primaryDriver names the signal contributing the highest raw score, with an
// escalation annotation when conflict is both dominant and accelerating.
func primaryDriver(meta *risk.Metadata) string {
	if meta == nil {
		return "Multiple factors"
	}

	type candidate struct {
		name  string
		score float64
	}
	candidates := []candidate{}
	if meta.News != nil {
		candidates = append(candidates, candidate{"News", meta.News.Score})
	}
	if meta.Conflict != nil {
		candidates = append(candidates, candidate{"Conflict", meta.Conflict.Score})
	}
	if meta.Economic != nil {
		candidates = append(candidates, candidate{"Economic", meta.Economic.Score})
	}
	if meta.Government != nil {
		candidates = append(candidates, candidate{"Government", meta.Government.Score})
	}

	best := candidate{}
	for _, c := range candidates {
		if c.score > best.score {
			best = c
		}
	}
	if best.name == "" {
		return "Unknown"
	}

	if best.name == "Conflict" && meta.Conflict.EscalationRate > 50 {
		return fmt.Sprintf("Conflict (escalating %.0f%%)", meta.Conflict.EscalationRate)
	}
	return fmt.Sprintf("%s (%.0f)", best.name, best.score)
}
