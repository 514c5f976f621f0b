// One-shot scorer: runs the full pipeline for a set of countries against the
// seeded demo feeds and prints each assessment as JSON. Useful for smoke
// testing the scoring math without a database or HTTP server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"strings"

	"github.com/kautilya-labs/georisk/internal/alert"
	"github.com/kautilya-labs/georisk/internal/config"
	"github.com/kautilya-labs/georisk/internal/logging"
	"github.com/kautilya-labs/georisk/internal/risk"
	"github.com/kautilya-labs/georisk/internal/signal"
	"github.com/kautilya-labs/georisk/internal/sources"
)

func main() {
	countriesFlag := flag.String("countries", "", "comma-separated country codes (default: configured watchlist)")
	logLevel := flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	flag.Parse()

	logger := logging.New(*logLevel, "text")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	countries := cfg.Countries
	if *countriesFlag != "" {
		countries = nil
		for _, c := range strings.Split(*countriesFlag, ",") {
			if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
				countries = append(countries, c)
			}
		}
	}

	fixture := sources.NewFixture()
	sources.SeedDemo(fixture)

	riskStore := risk.NewMemoryStore()
	alertStore := alert.NewMemoryStore()

	news := signal.NewNews(fixture).WithLookback(cfg.NewsLookbackDays).WithLogger(logger)
	conflict := signal.NewConflict(fixture).WithLookback(cfg.ConflictLookbackDays).WithLogger(logger)
	economic := signal.NewEconomic(fixture).WithLogger(logger)
	government := signal.NewGovernment(fixture).WithLookback(cfg.GovernmentLookbackDays).WithLogger(logger)

	detector := alert.NewDetector(alertStore, riskStore).WithLogger(logger)

	engine := risk.NewEngine(news, conflict, economic, government, riskStore).
		WithAlertSink(detector).
		WithLogger(logger)

	ctx := context.Background()
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	exitCode := 0
	for _, country := range countries {
		assessment, err := engine.Compute(ctx, country)
		if err != nil {
			logger.Error("scoring failed", "country", country, "error", err)
			exitCode = 1
			continue
		}
		if err := enc.Encode(assessment); err != nil {
			logger.Error("failed to encode assessment", "error", err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}
