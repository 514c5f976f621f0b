// Package sources provides signal data providers: an in-memory fixture store
// for demo mode and tests, and an HTTP client for the sentiment service.
//
// Production ingestion feeds live elsewhere; everything here satisfies the
// source interfaces the signal calculators consume.
package sources

import (
	"context"
	"sync"
	"time"

	"github.com/kautilya-labs/georisk/internal/signal"
)

// Fixture is an in-memory provider of all four signal feeds. Safe for
// concurrent use.
type Fixture struct {
	mu         sync.RWMutex
	articles   map[string][]signal.Article
	events     map[string][]signal.ConflictEvent
	indicators map[string]map[string][]signal.IndicatorValue
	reports    map[string][]signal.Report
}

// NewFixture creates an empty fixture provider.
func NewFixture() *Fixture {
	return &Fixture{
		articles:   make(map[string][]signal.Article),
		events:     make(map[string][]signal.ConflictEvent),
		indicators: make(map[string]map[string][]signal.IndicatorValue),
		reports:    make(map[string][]signal.Report),
	}
}

// AddArticles appends news articles for a country.
func (f *Fixture) AddArticles(countryCode string, articles ...signal.Article) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.articles[countryCode] = append(f.articles[countryCode], articles...)
}

// AddEvents appends conflict events for a country.
func (f *Fixture) AddEvents(countryCode string, events ...signal.ConflictEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[countryCode] = append(f.events[countryCode], events...)
}

// SetIndicator replaces one indicator series for a country.
func (f *Fixture) SetIndicator(countryCode, indicatorCode string, values ...signal.IndicatorValue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.indicators[countryCode] == nil {
		f.indicators[countryCode] = make(map[string][]signal.IndicatorValue)
	}
	f.indicators[countryCode][indicatorCode] = values
}

// AddReports appends government reports for a country.
func (f *Fixture) AddReports(countryCode string, reports ...signal.Report) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports[countryCode] = append(f.reports[countryCode], reports...)
}

// FetchNews returns articles published at or after since.
func (f *Fixture) FetchNews(ctx context.Context, countryCode string, since time.Time) ([]signal.Article, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var result []signal.Article
	for _, a := range f.articles[countryCode] {
		if !a.PublishedAt.Before(since) {
			result = append(result, a)
		}
	}
	return result, nil
}

// FetchRecentNews returns the most recent articles regardless of window, up
// to limit, newest first.
func (f *Fixture) FetchRecentNews(ctx context.Context, countryCode string, limit int) ([]signal.Article, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	all := f.articles[countryCode]
	sorted := make([]signal.Article, len(all))
	copy(sorted, all)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].PublishedAt.After(sorted[i].PublishedAt) {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

// FetchConflictEvents returns events that occurred at or after since.
func (f *Fixture) FetchConflictEvents(ctx context.Context, countryCode string, since time.Time) ([]signal.ConflictEvent, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var result []signal.ConflictEvent
	for _, ev := range f.events[countryCode] {
		if !ev.OccurredAt.Before(since) {
			result = append(result, ev)
		}
	}
	return result, nil
}

// FetchIndicators returns all indicator series for a country.
func (f *Fixture) FetchIndicators(ctx context.Context, countryCode string) (map[string][]signal.IndicatorValue, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	result := make(map[string][]signal.IndicatorValue, len(f.indicators[countryCode]))
	for code, values := range f.indicators[countryCode] {
		cp := make([]signal.IndicatorValue, len(values))
		copy(cp, values)
		result[code] = cp
	}
	return result, nil
}

// FetchReports returns government reports published at or after since.
func (f *Fixture) FetchReports(ctx context.Context, countryCode string, since time.Time) ([]signal.Report, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var result []signal.Report
	for _, r := range f.reports[countryCode] {
		if !r.PublishedAt.Before(since) {
			result = append(result, r)
		}
	}
	return result, nil
}
