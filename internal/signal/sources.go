package signal

import (
	"context"
	"time"
)

// Economic indicator codes, matching the World Bank-style feeds upstream.
const (
	IndicatorGDPGrowth       = "GDP_GROWTH"
	IndicatorInflation       = "INFLATION"
	IndicatorUnemployment    = "UNEMPLOYMENT"
	IndicatorForeignReserves = "FOREIGN_RESERVES"
	IndicatorGovtDebt        = "GOVT_DEBT"
)

// Article is one news item as delivered by the ingestion pipeline.
type Article struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	PublishedAt time.Time `json:"publishedAt"`
	Countries   []string  `json:"countries"`
}

// ConflictEvent is one normalized conflict record (ACLED-style).
type ConflictEvent struct {
	CountryCode string    `json:"countryCode"`
	EventType   string    `json:"eventType"`
	Fatalities  int       `json:"fatalities"`
	Actor1      string    `json:"actor1"`
	Actor2      string    `json:"actor2"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// IndicatorValue is one yearly observation for an economic indicator.
type IndicatorValue struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// Report is one government publication (press release, ministry statement).
type Report struct {
	CountryCode string    `json:"countryCode"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Category    string    `json:"category"`
	PublishedAt time.Time `json:"publishedAt"`
}

// NewsSource supplies articles for a country. FetchRecentNews is the widened
// fallback query: the most recent articles regardless of publish date, used
// when the windowed query comes back empty so that a date-field mismatch in
// the feed doesn't read as zero signal.
type NewsSource interface {
	FetchNews(ctx context.Context, countryCode string, since time.Time) ([]Article, error)
	FetchRecentNews(ctx context.Context, countryCode string, limit int) ([]Article, error)
}

// ConflictSource supplies conflict events for a country since a cutoff.
type ConflictSource interface {
	FetchConflictEvents(ctx context.Context, countryCode string, since time.Time) ([]ConflictEvent, error)
}

// EconomicSource supplies yearly indicator series keyed by indicator code,
// most recent year first.
type EconomicSource interface {
	FetchIndicators(ctx context.Context, countryCode string) (map[string][]IndicatorValue, error)
}

// GovernmentSource supplies government reports for a country since a cutoff.
// This feed is sparse or absent for most countries; absence yields score 0,
// not an error.
type GovernmentSource interface {
	FetchReports(ctx context.Context, countryCode string, since time.Time) ([]Report, error)
}
