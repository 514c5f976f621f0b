package sources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kautilya-labs/georisk/internal/signal"
)

func TestFixture_FetchNewsWindow(t *testing.T) {
	f := NewFixture()
	now := time.Now().UTC()
	f.AddArticles("UA",
		signal.Article{Title: "recent", PublishedAt: now.AddDate(0, 0, -2)},
		signal.Article{Title: "stale", PublishedAt: now.AddDate(0, 0, -30)},
	)

	articles, err := f.FetchNews(context.Background(), "UA", now.AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "recent", articles[0].Title)
}

func TestFixture_FetchRecentNewsOrderAndLimit(t *testing.T) {
	f := NewFixture()
	now := time.Now().UTC()
	f.AddArticles("UA",
		signal.Article{Title: "oldest", PublishedAt: now.AddDate(0, 0, -3)},
		signal.Article{Title: "newest", PublishedAt: now},
		signal.Article{Title: "middle", PublishedAt: now.AddDate(0, 0, -1)},
	)

	articles, err := f.FetchRecentNews(context.Background(), "UA", 2)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "newest", articles[0].Title)
	assert.Equal(t, "middle", articles[1].Title)
}

func TestFixture_IndicatorsAreCopied(t *testing.T) {
	f := NewFixture()
	f.SetIndicator("PK", signal.IndicatorInflation, signal.IndicatorValue{Year: 2024, Value: 23.1})

	got, err := f.FetchIndicators(context.Background(), "PK")
	require.NoError(t, err)
	got[signal.IndicatorInflation][0].Value = 0

	again, err := f.FetchIndicators(context.Background(), "PK")
	require.NoError(t, err)
	assert.Equal(t, 23.1, again[signal.IndicatorInflation][0].Value)
}

func TestFixture_UnknownCountryIsEmptyNotError(t *testing.T) {
	f := NewFixture()
	ctx := context.Background()

	articles, err := f.FetchNews(ctx, "ZZ", time.Now())
	require.NoError(t, err)
	assert.Empty(t, articles)

	events, err := f.FetchConflictEvents(ctx, "ZZ", time.Now())
	require.NoError(t, err)
	assert.Empty(t, events)

	reports, err := f.FetchReports(ctx, "ZZ", time.Now())
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestSeedDemo_CoversDefaultWatchlist(t *testing.T) {
	f := NewFixture()
	SeedDemo(f)
	ctx := context.Background()
	since := time.Now().UTC().AddDate(0, 0, -30)

	for _, country := range []string{"UA", "SY", "PK", "NG", "CO"} {
		articles, err := f.FetchNews(ctx, country, since)
		require.NoError(t, err)
		assert.NotEmpty(t, articles, country)
	}

	// UA is the active-conflict scenario.
	events, err := f.FetchConflictEvents(ctx, "UA", since)
	require.NoError(t, err)
	assert.NotEmpty(t, events)

	// SY deliberately has no economic data.
	indicators, err := f.FetchIndicators(ctx, "SY")
	require.NoError(t, err)
	assert.Empty(t, indicators)
}
