package signal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubEconomicSource struct {
	indicators map[string][]IndicatorValue
	err        error
}

func (s *stubEconomicSource) FetchIndicators(ctx context.Context, countryCode string) (map[string][]IndicatorValue, error) {
	return s.indicators, s.err
}

func TestEconomic_NoData(t *testing.T) {
	e := NewEconomic(&stubEconomicSource{indicators: map[string][]IndicatorValue{}})

	res := e.Calculate(context.Background(), "SY")

	// All three components fall back to the neutral 50.
	assert.InDelta(t, 50.0, res.Score, 0.001)
	assert.Empty(t, res.IndicatorsAvailable)
}

func TestEconomic_SourceError(t *testing.T) {
	e := NewEconomic(&stubEconomicSource{err: errors.New("worldbank 500")})

	res := e.Calculate(context.Background(), "SY")

	assert.Equal(t, 0.0, res.Score)
	assert.Contains(t, res.Err, "worldbank 500")
}

func TestEconomic_InflationOnly(t *testing.T) {
	// 12% inflation → 85; GDP and unemployment neutral at 50.
	// total = 50*0.4 + 85*0.4 + 50*0.2 = 64.
	e := NewEconomic(&stubEconomicSource{indicators: map[string][]IndicatorValue{
		IndicatorInflation: {{Year: 2024, Value: 12.0}},
	}})

	res := e.Calculate(context.Background(), "PK")

	assert.InDelta(t, 64.0, res.Score, 0.001)
	assert.InDelta(t, 85.0, res.InflationScore, 0.001)
	assert.InDelta(t, 50.0, res.GDPScore, 0.001)
	assert.InDelta(t, 50.0, res.UnemploymentScore, 0.001)
	assert.Equal(t, []string{IndicatorInflation}, res.IndicatorsAvailable)
}

func TestEconomic_StressedEconomy(t *testing.T) {
	// Recession (90), high inflation (85), very high unemployment (75):
	// total = 90*0.4 + 85*0.4 + 75*0.2 = 85.
	e := NewEconomic(&stubEconomicSource{indicators: map[string][]IndicatorValue{
		IndicatorGDPGrowth:    {{Year: 2024, Value: -3.2}},
		IndicatorInflation:    {{Year: 2024, Value: 12.8}},
		IndicatorUnemployment: {{Year: 2024, Value: 14.5}},
	}})

	res := e.Calculate(context.Background(), "UA")

	assert.InDelta(t, 85.0, res.Score, 0.001)
	assert.Len(t, res.IndicatorsAvailable, 3)
}

func TestEconomic_HealthyEconomy(t *testing.T) {
	// Strong growth (15), low inflation (5), low unemployment (15):
	// total = 15*0.4 + 5*0.4 + 15*0.2 = 11.
	e := NewEconomic(&stubEconomicSource{indicators: map[string][]IndicatorValue{
		IndicatorGDPGrowth:    {{Year: 2024, Value: 6.5}},
		IndicatorInflation:    {{Year: 2024, Value: 1.5}},
		IndicatorUnemployment: {{Year: 2024, Value: 3.5}},
	}})

	res := e.Calculate(context.Background(), "CO")

	assert.InDelta(t, 11.0, res.Score, 0.001)
}

func TestEconomic_UsesMostRecentYear(t *testing.T) {
	e := NewEconomic(&stubEconomicSource{indicators: map[string][]IndicatorValue{
		IndicatorGDPGrowth: {
			{Year: 2022, Value: 7.0},
			{Year: 2024, Value: -1.0},
			{Year: 2023, Value: 3.0},
		},
	}})

	res := e.Calculate(context.Background(), "NG")

	// Latest year is 2024 with negative growth → recession band 90.
	assert.InDelta(t, 90.0, res.GDPScore, 0.001)
}

func TestScoreInflation_Bands(t *testing.T) {
	cases := []struct {
		value float64
		want  float64
	}{
		{15, 85},
		{8, 65},
		{6, 45},
		{4, 25},
		{2.5, 15},
		{1, 5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, scoreInflation(tc.value, true), "inflation %v", tc.value)
	}
}
