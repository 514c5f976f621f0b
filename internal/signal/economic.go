package signal

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// neutralSubScore is used when an indicator has no data: it avoids biasing
// the aggregate toward 0 (falsely safe) or 100 (falsely alarming) purely
// from data gaps.
const neutralSubScore = 50.0

// EconomicResult is the diagnostic output of the economic signal.
type EconomicResult struct {
	Score               float64  `json:"score"`
	GDPScore            float64  `json:"gdpScore"`
	InflationScore      float64  `json:"inflationScore"`
	UnemploymentScore   float64  `json:"unemploymentScore"`
	IndicatorsAvailable []string `json:"indicatorsAvailable"`
	Err                 string   `json:"error,omitempty"`
}

// Economic scores a country's macroeconomic stress from the most recent
// yearly indicator data: GDP growth and inflation at 40% each, unemployment
// at 20%. There is no lookback window; the feed is annual.
type Economic struct {
	source EconomicSource
	logger *slog.Logger
}

// NewEconomic creates an economic signal calculator.
func NewEconomic(source EconomicSource) *Economic {
	return &Economic{source: source, logger: slog.Default()}
}

// WithLogger sets a structured logger.
func (e *Economic) WithLogger(l *slog.Logger) *Economic {
	e.logger = l
	return e
}

// Calculate scores the country's economic stress. Never returns a Go error;
// failures are captured in the result.
func (e *Economic) Calculate(ctx context.Context, countryCode string) (result *EconomicResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("economic signal panicked", "country", countryCode, "panic", fmt.Sprint(r))
			result = &EconomicResult{Err: fmt.Sprint(r)}
		}
	}()

	indicators, err := e.source.FetchIndicators(ctx, countryCode)
	if err != nil {
		return &EconomicResult{Err: err.Error()}
	}

	gdp := scoreGDPGrowth(latestValue(indicators[IndicatorGDPGrowth]))
	inflation := scoreInflation(latestValue(indicators[IndicatorInflation]))
	unemployment := scoreUnemployment(latestValue(indicators[IndicatorUnemployment]))

	available := make([]string, 0, len(indicators))
	for code, values := range indicators {
		if len(values) > 0 {
			available = append(available, code)
		}
	}
	sort.Strings(available)

	total := gdp*0.4 + inflation*0.4 + unemployment*0.2

	return &EconomicResult{
		Score:               round2(clamp(total)),
		GDPScore:            round2(gdp),
		InflationScore:      round2(inflation),
		UnemploymentScore:   round2(unemployment),
		IndicatorsAvailable: available,
	}
}

// latestValue returns the most recent observation, or ok=false when the
// series is empty.
func latestValue(values []IndicatorValue) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	latest := values[0]
	for _, v := range values[1:] {
		if v.Year > latest.Year {
			latest = v
		}
	}
	return latest.Value, true
}

// scoreGDPGrowth maps GDP growth to risk: lower growth = higher risk.
func scoreGDPGrowth(latest float64, ok bool) float64 {
	if !ok {
		return neutralSubScore
	}
	switch {
	case latest < 0:
		return 90 // recession
	case latest < 2:
		return 65
	case latest < 4:
		return 45
	case latest < 6:
		return 25
	case latest < 8:
		return 15
	default:
		return 5
	}
}

// scoreInflation maps inflation to risk: higher inflation = higher risk.
func scoreInflation(latest float64, ok bool) float64 {
	if !ok {
		return neutralSubScore
	}
	switch {
	case latest > 10:
		return 85
	case latest > 7:
		return 65
	case latest > 5:
		return 45
	case latest > 3:
		return 25
	case latest > 2:
		return 15
	default:
		return 5
	}
}

// scoreUnemployment maps unemployment to risk: higher = higher risk.
func scoreUnemployment(latest float64, ok bool) float64 {
	if !ok {
		return neutralSubScore
	}
	switch {
	case latest > 15:
		return 90
	case latest > 12:
		return 75
	case latest > 9:
		return 60
	case latest > 7:
		return 45
	case latest > 5:
		return 30
	case latest > 3:
		return 15
	default:
		return 5
	}
}
