package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kautilya-labs/georisk/internal/risk"
	"github.com/kautilya-labs/georisk/internal/signal"
)

func insertScore(t *testing.T, store risk.Store, country string, score float64, age time.Duration) *risk.RiskScore {
	t.Helper()
	rec := &risk.RiskScore{
		ID:           "rs_" + country + age.String(),
		CountryCode:  country,
		Date:         time.Now().UTC().Add(-age),
		OverallScore: score,
		Trend:        risk.TrendStable,
	}
	require.NoError(t, store.Insert(context.Background(), rec))
	return rec
}

func alertTypes(alerts []*Alert) []Type {
	types := make([]Type, 0, len(alerts))
	for _, a := range alerts {
		types = append(types, a.Type)
	}
	return types
}

func TestDetector_NoHistoryNoAlerts(t *testing.T) {
	scores := risk.NewMemoryStore()
	alerts := NewMemoryStore()
	d := NewDetector(alerts, scores)

	rec := insertScore(t, scores, "UA", 50, 0)
	created, err := d.Detect(context.Background(), rec, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestDetector_RiskIncrease(t *testing.T) {
	scores := risk.NewMemoryStore()
	alerts := NewMemoryStore()
	d := NewDetector(alerts, scores)

	prev := insertScore(t, scores, "UA", 40, 48*time.Hour)
	rec := insertScore(t, scores, "UA", 50, 0)

	created, err := d.Detect(context.Background(), rec, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	stored, err := alerts.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	a := stored[0]
	assert.Equal(t, TypeRiskIncrease, a.Type)
	// 25% rise sits in the high band.
	assert.Equal(t, SeverityHigh, a.Severity)
	assert.InDelta(t, 25.0, a.ChangePercent, 0.001)
	assert.Equal(t, 40.0, a.PreviousScore)
	assert.Equal(t, StatusNew, a.Status)
	require.NotNil(t, a.Evidence)
	assert.Equal(t, rec.ID, a.Evidence.RiskScoreID)
	assert.Equal(t, prev.ID, a.Evidence.PreviousScoreID)
	assert.InDelta(t, 10.0, a.Evidence.Change, 0.001)
}

func TestDetector_RiskIncrease_BelowThreshold(t *testing.T) {
	scores := risk.NewMemoryStore()
	alerts := NewMemoryStore()
	d := NewDetector(alerts, scores)

	insertScore(t, scores, "UA", 40, 48*time.Hour)
	rec := insertScore(t, scores, "UA", 45, 0) // +12.5%

	created, err := d.Detect(context.Background(), rec, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestDetector_SuddenSpike(t *testing.T) {
	scores := risk.NewMemoryStore()
	alerts := NewMemoryStore()
	d := NewDetector(alerts, scores)

	insertScore(t, scores, "UA", 40, 2*time.Hour)
	rec := insertScore(t, scores, "UA", 56, 0) // +40% in 2h

	created, err := d.Detect(context.Background(), rec, nil)
	require.NoError(t, err)
	// risk_increase (40% ≥ 15%) and sudden_spike (40% ≥ 30%) both fire;
	// rapid_escalation needs 50%.
	assert.Equal(t, 2, created)

	stored, _ := alerts.List(context.Background(), 10)
	assert.ElementsMatch(t, []Type{TypeRiskIncrease, TypeSuddenSpike}, alertTypes(stored))

	for _, a := range stored {
		if a.Type == TypeSuddenSpike {
			assert.Equal(t, SeverityHigh, a.Severity)
			assert.Equal(t, "24 hours", a.Evidence.TimeWindow)
		}
	}
}

func TestDetector_RapidEscalation(t *testing.T) {
	scores := risk.NewMemoryStore()
	alerts := NewMemoryStore()
	d := NewDetector(alerts, scores)

	insertScore(t, scores, "UA", 40, 2*time.Hour)
	rec := insertScore(t, scores, "UA", 64, 0) // +60% in 2h

	created, err := d.Detect(context.Background(), rec, nil)
	require.NoError(t, err)
	// risk_increase, sudden_spike (critical at ≥50%), rapid_escalation, and
	// threshold_breach (64 is in the high band) all fire.
	assert.Equal(t, 4, created)

	stored, _ := alerts.List(context.Background(), 10)
	assert.ElementsMatch(t,
		[]Type{TypeRiskIncrease, TypeSuddenSpike, TypeRapidEscalation, TypeThresholdBreach},
		alertTypes(stored))

	for _, a := range stored {
		switch a.Type {
		case TypeRapidEscalation:
			assert.Equal(t, SeverityCritical, a.Severity)
			assert.Equal(t, "6 hours", a.Evidence.TimeWindow)
		case TypeSuddenSpike:
			assert.Equal(t, SeverityCritical, a.Severity)
		case TypeRiskIncrease:
			assert.Equal(t, SeverityCritical, a.Severity)
		}
	}
}

func TestDetector_SustainedHigh(t *testing.T) {
	scores := risk.NewMemoryStore()
	alerts := NewMemoryStore()
	d := NewDetector(alerts, scores)

	insertScore(t, scores, "UA", 75, 30*time.Hour)
	insertScore(t, scores, "UA", 78, 12*time.Hour)
	rec := insertScore(t, scores, "UA", 80, 0)

	created, err := d.Detect(context.Background(), rec, nil)
	require.NoError(t, err)

	stored, _ := alerts.List(context.Background(), 10)
	assert.Contains(t, alertTypes(stored), TypeSustainedHigh)
	// 80 is also a critical-band threshold breach.
	assert.Contains(t, alertTypes(stored), TypeThresholdBreach)
	assert.Equal(t, len(stored), created)

	for _, a := range stored {
		if a.Type == TypeSustainedHigh {
			assert.Equal(t, SeverityCritical, a.Severity)
			assert.InDelta(t, 30.0, a.Evidence.DurationHours, 0.1)
			assert.Equal(t, 3, a.Evidence.ScoreCount)
			assert.InDelta(t, (75.0+78+80)/3, a.Evidence.AvgScore, 0.001)
		}
	}
}

func TestDetector_SustainedHigh_BrokenByDip(t *testing.T) {
	scores := risk.NewMemoryStore()
	alerts := NewMemoryStore()
	d := NewDetector(alerts, scores)

	insertScore(t, scores, "UA", 75, 30*time.Hour)
	insertScore(t, scores, "UA", 65, 12*time.Hour) // dip below 70
	rec := insertScore(t, scores, "UA", 72, 0)

	_, err := d.Detect(context.Background(), rec, nil)
	require.NoError(t, err)

	stored, _ := alerts.List(context.Background(), 10)
	assert.NotContains(t, alertTypes(stored), TypeSustainedHigh)
}

func TestDetector_SustainedHigh_NeedsTwoObservations(t *testing.T) {
	scores := risk.NewMemoryStore()
	alerts := NewMemoryStore()
	d := NewDetector(alerts, scores)

	rec := insertScore(t, scores, "UA", 72, 0)

	_, err := d.Detect(context.Background(), rec, nil)
	require.NoError(t, err)

	stored, _ := alerts.List(context.Background(), 10)
	assert.NotContains(t, alertTypes(stored), TypeSustainedHigh)
}

func TestDetector_ThresholdBreachBands(t *testing.T) {
	cases := []struct {
		score    float64
		severity Severity
		fires    bool
	}{
		{80, SeverityCritical, true},
		{75, SeverityCritical, true},
		{65, SeverityHigh, true},
		{59.9, "", false},
	}

	for _, tc := range cases {
		scores := risk.NewMemoryStore()
		alerts := NewMemoryStore()
		d := NewDetector(alerts, scores)

		rec := insertScore(t, scores, "UA", tc.score, 0)
		_, err := d.Detect(context.Background(), rec, nil)
		require.NoError(t, err)

		stored, _ := alerts.List(context.Background(), 10)
		if !tc.fires {
			assert.NotContains(t, alertTypes(stored), TypeThresholdBreach, "score %v", tc.score)
			continue
		}
		require.Contains(t, alertTypes(stored), TypeThresholdBreach, "score %v", tc.score)
		for _, a := range stored {
			if a.Type == TypeThresholdBreach {
				assert.Equal(t, tc.severity, a.Severity, "score %v", tc.score)
			}
		}
	}
}

func TestDetector_DedupWithinWindow(t *testing.T) {
	scores := risk.NewMemoryStore()
	alerts := NewMemoryStore()
	d := NewDetector(alerts, scores)

	insertScore(t, scores, "UA", 40, 48*time.Hour)
	rec := insertScore(t, scores, "UA", 50, 0)

	created, err := d.Detect(context.Background(), rec, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	// Same pattern again within 24h is suppressed: 50 → 58 is another +16%
	// rise but the previous risk_increase alert is under a day old.
	rec2 := insertScore(t, scores, "UA", 58, 0)
	created, err = d.Detect(context.Background(), rec2, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestDetector_DedupIsPerCountry(t *testing.T) {
	scores := risk.NewMemoryStore()
	alerts := NewMemoryStore()
	d := NewDetector(alerts, scores)

	insertScore(t, scores, "UA", 40, 48*time.Hour)
	recUA := insertScore(t, scores, "UA", 50, 0)
	insertScore(t, scores, "SY", 40, 48*time.Hour)
	recSY := insertScore(t, scores, "SY", 50, 0)

	createdUA, err := d.Detect(context.Background(), recUA, nil)
	require.NoError(t, err)
	createdSY, err := d.Detect(context.Background(), recSY, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, createdUA)
	assert.Equal(t, 1, createdSY)
}

func TestDetector_InsertFailureReportedNotFatal(t *testing.T) {
	scores := risk.NewMemoryStore()
	d := NewDetector(&failingAlertStore{}, scores)

	insertScore(t, scores, "UA", 40, 48*time.Hour)
	rec := insertScore(t, scores, "UA", 50, 0)

	created, err := d.Detect(context.Background(), rec, nil)
	require.Error(t, err)
	assert.Equal(t, 0, created)
	assert.Contains(t, err.Error(), "risk_increase")
}

func TestDetector_NotifierCalledPerAlert(t *testing.T) {
	scores := risk.NewMemoryStore()
	alerts := NewMemoryStore()

	var notified []*Alert
	d := NewDetector(alerts, scores).WithNotifier(func(a *Alert) {
		notified = append(notified, a)
	})

	insertScore(t, scores, "UA", 40, 2*time.Hour)
	rec := insertScore(t, scores, "UA", 56, 0)

	created, err := d.Detect(context.Background(), rec, nil)
	require.NoError(t, err)
	assert.Len(t, notified, created)
}

func TestPercentChange(t *testing.T) {
	assert.InDelta(t, 25.0, percentChange(40, 50), 0.001)
	assert.InDelta(t, -20.0, percentChange(50, 40), 0.001)
	assert.Equal(t, 0.0, percentChange(0, 50))
	assert.Equal(t, 0.0, percentChange(-5, 50))
}

func TestIncreaseSeverity(t *testing.T) {
	assert.Equal(t, SeverityCritical, increaseSeverity(40))
	assert.Equal(t, SeverityHigh, increaseSeverity(25))
	assert.Equal(t, SeverityMedium, increaseSeverity(15))
	assert.Equal(t, SeverityLow, increaseSeverity(10))
}

func TestPrimaryDriver(t *testing.T) {
	assert.Equal(t, "Multiple factors", primaryDriver(nil))

	allZero := &risk.Metadata{
		News:     &signal.NewsResult{},
		Conflict: &signal.ConflictResult{},
	}
	assert.Equal(t, "Unknown", primaryDriver(allZero))

	newsLed := &risk.Metadata{
		News:     &signal.NewsResult{Score: 70},
		Conflict: &signal.ConflictResult{Score: 30},
	}
	assert.Equal(t, "News (70)", primaryDriver(newsLed))

	escalating := &risk.Metadata{
		News:     &signal.NewsResult{Score: 40},
		Conflict: &signal.ConflictResult{Score: 85, EscalationRate: 120},
	}
	assert.Equal(t, "Conflict (escalating 120%)", primaryDriver(escalating))

	dominantButFlat := &risk.Metadata{
		Conflict: &signal.ConflictResult{Score: 85, EscalationRate: 20},
	}
	assert.Equal(t, "Conflict (85)", primaryDriver(dominantButFlat))
}

// failingAlertStore rejects every insert.
type failingAlertStore struct{}

func (f *failingAlertStore) Insert(ctx context.Context, a *Alert) error {
	return errors.New("insert refused")
}

func (f *failingAlertStore) RecentExists(ctx context.Context, countryCode string, t Type, since time.Time) (bool, error) {
	return false, nil
}

func (f *failingAlertStore) List(ctx context.Context, limit int) ([]*Alert, error) {
	return nil, nil
}

func (f *failingAlertStore) ListByCountry(ctx context.Context, countryCode string, limit int) ([]*Alert, error) {
	return nil, nil
}
