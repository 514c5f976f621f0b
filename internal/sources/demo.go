package sources

import (
	"fmt"
	"time"

	"github.com/kautilya-labs/georisk/internal/signal"
)

// SeedDemo loads a plausible mixed-risk dataset covering the default
// watchlist, so memory-backed servers and the one-shot scorer produce
// non-trivial output without any external feeds.
func SeedDemo(f *Fixture) {
	now := time.Now().UTC()

	// UA: active conflict, stressed economy, busy news cycle.
	for i := 0; i < 12; i++ {
		f.AddArticles("UA", signal.Article{
			Title:       fmt.Sprintf("Missile attack reported near frontline city %d", i+1),
			Content:     "Officials reported a military escalation with casualties after an overnight attack. The crisis continues amid warnings of further violence.",
			PublishedAt: now.AddDate(0, 0, -(i % 6)),
			Countries:   []string{"UA"},
		})
	}
	for i := 0; i < 18; i++ {
		eventType := "Battles"
		fatalities := 6
		switch i % 4 {
		case 1:
			eventType = "Explosions/Remote violence"
			fatalities = 3
		case 2:
			eventType = "Violence against civilians"
			fatalities = 2
		case 3:
			eventType = "Strategic developments"
			fatalities = 0
		}
		f.AddEvents("UA", signal.ConflictEvent{
			CountryCode: "UA",
			EventType:   eventType,
			Fatalities:  fatalities,
			Actor1:      "Military forces",
			Actor2:      "Armed group",
			OccurredAt:  now.AddDate(0, 0, -(i % 28)),
		})
	}
	f.SetIndicator("UA", signal.IndicatorGDPGrowth, signal.IndicatorValue{Year: now.Year() - 1, Value: -3.2})
	f.SetIndicator("UA", signal.IndicatorInflation, signal.IndicatorValue{Year: now.Year() - 1, Value: 12.8})
	f.SetIndicator("UA", signal.IndicatorUnemployment, signal.IndicatorValue{Year: now.Year() - 1, Value: 14.5})
	for i := 0; i < 8; i++ {
		f.AddReports("UA", signal.Report{
			CountryCode: "UA",
			Title:       "Ministry of Defence briefing on border security",
			Content:     "The ministry addressed the ongoing security threat and terrorism concerns along the border.",
			Category:    "security",
			PublishedAt: now.AddDate(0, 0, -(i % 20)),
		})
	}

	// SY: sparse news, persistent low-level conflict, no economic data.
	for i := 0; i < 4; i++ {
		f.AddArticles("SY", signal.Article{
			Title:       "Clashes flare in northern province",
			Content:     "Local sources described renewed unrest and protest activity in the region.",
			PublishedAt: now.AddDate(0, 0, -(i + 1)),
			Countries:   []string{"SY"},
		})
	}
	for i := 0; i < 9; i++ {
		f.AddEvents("SY", signal.ConflictEvent{
			CountryCode: "SY",
			EventType:   "Riots",
			Fatalities:  1,
			Actor1:      "Protesters",
			Actor2:      "Police forces",
			OccurredAt:  now.AddDate(0, 0, -(i * 3)),
		})
	}

	// PK: economic stress dominates, moderate unrest.
	f.AddArticles("PK",
		signal.Article{
			Title:       "Currency slides as inflation crisis deepens",
			Content:     "Economists warned of recession risk and rising unemployment amid political tension.",
			PublishedAt: now.AddDate(0, 0, -2),
			Countries:   []string{"PK"},
		},
		signal.Article{
			Title:       "Parliament debates new budget",
			Content:     "Lawmakers discussed spending plans for the coming fiscal year.",
			PublishedAt: now.AddDate(0, 0, -3),
			Countries:   []string{"PK"},
		},
	)
	for i := 0; i < 6; i++ {
		f.AddEvents("PK", signal.ConflictEvent{
			CountryCode: "PK",
			EventType:   "Protests",
			Fatalities:  0,
			Actor1:      "Demonstrators",
			OccurredAt:  now.AddDate(0, 0, -(i * 4)),
		})
	}
	f.SetIndicator("PK", signal.IndicatorGDPGrowth, signal.IndicatorValue{Year: now.Year() - 1, Value: 0.8})
	f.SetIndicator("PK", signal.IndicatorInflation, signal.IndicatorValue{Year: now.Year() - 1, Value: 23.1})
	f.SetIndicator("PK", signal.IndicatorUnemployment, signal.IndicatorValue{Year: now.Year() - 1, Value: 8.5})

	// NG: mixed picture.
	f.AddArticles("NG", signal.Article{
		Title:       "Kidnapping wave prompts security response",
		Content:     "Authorities pledged action after a string of attacks raised fears of instability.",
		PublishedAt: now.AddDate(0, 0, -1),
		Countries:   []string{"NG"},
	})
	for i := 0; i < 7; i++ {
		f.AddEvents("NG", signal.ConflictEvent{
			CountryCode: "NG",
			EventType:   "Violence against civilians",
			Fatalities:  4,
			Actor1:      "Armed group",
			OccurredAt:  now.AddDate(0, 0, -(i * 4)),
		})
	}
	f.SetIndicator("NG", signal.IndicatorGDPGrowth, signal.IndicatorValue{Year: now.Year() - 1, Value: 2.9})
	f.SetIndicator("NG", signal.IndicatorInflation, signal.IndicatorValue{Year: now.Year() - 1, Value: 24.7})

	// CO: calm baseline.
	f.AddArticles("CO", signal.Article{
		Title:       "Tourism numbers climb for third straight year",
		Content:     "Growth in the hospitality sector continues to outpace forecasts.",
		PublishedAt: now.AddDate(0, 0, -2),
		Countries:   []string{"CO"},
	})
	f.SetIndicator("CO", signal.IndicatorGDPGrowth, signal.IndicatorValue{Year: now.Year() - 1, Value: 3.4})
	f.SetIndicator("CO", signal.IndicatorInflation, signal.IndicatorValue{Year: now.Year() - 1, Value: 5.8})
	f.SetIndicator("CO", signal.IndicatorUnemployment, signal.IndicatorValue{Year: now.Year() - 1, Value: 9.3})
}
