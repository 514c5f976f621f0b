package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kautilya-labs/georisk/internal/health"
	"github.com/kautilya-labs/georisk/internal/idgen"
	"github.com/kautilya-labs/georisk/internal/logging"
	"github.com/kautilya-labs/georisk/internal/risk"
)

const (
	defaultHistoryDays = 30
	maxHistoryDays     = 365
	defaultAlertLimit  = 50
	maxAlertLimit      = 500
)

// generateRequestID returns a short random hex token for request tracing.
func generateRequestID() string {
	return idgen.Hex(8)
}

// countryParamMiddleware validates the :code URL parameter where present.
// Codes are normalized to upper case.
func countryParamMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Param("code")
		if code == "" {
			c.Next()
			return
		}

		code = strings.ToUpper(code)
		if len(code) < 2 || len(code) > 3 || !isAlpha(code) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_country",
				"message": "country code must be a 2- or 3-letter ISO code",
			})
			return
		}

		c.Params = append(c.Params, gin.Param{Key: "countryCode", Value: code})
		c.Next()
	}
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// -----------------------------------------------------------------------------
// Health & info
// -----------------------------------------------------------------------------

// HealthResponse for health check endpoints
type HealthResponse struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Checks    []health.Status `json:"checks,omitempty"`
	Timestamp string          `json:"timestamp"`
}

func (s *Server) healthHandler(c *gin.Context) {
	healthy, statuses := s.checks.CheckAll(c.Request.Context())

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:    status,
		Version:   "0.1.0",
		Checks:    statuses,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) infoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "georisk",
		"description": "Geopolitical risk scoring and alerting engine",
		"version":     "0.1.0",
		"countries":   s.cfg.Countries,
		"interval":    s.cfg.ScoreInterval.String(),
	})
}

// -----------------------------------------------------------------------------
// Risk endpoints
// -----------------------------------------------------------------------------

// listCountries returns the watchlist with each country's latest score.
func (s *Server) listCountries(c *gin.Context) {
	ctx := c.Request.Context()

	type entry struct {
		CountryCode  string   `json:"countryCode"`
		OverallScore *float64 `json:"overallScore,omitempty"`
		RiskLevel    string   `json:"riskLevel,omitempty"`
		Trend        string   `json:"trend,omitempty"`
		LastScoredAt string   `json:"lastScoredAt,omitempty"`
	}

	entries := make([]entry, 0, len(s.cfg.Countries))
	for _, code := range s.cfg.Countries {
		e := entry{CountryCode: code}
		latest, err := s.riskStore.Latest(ctx, code)
		if err != nil {
			logging.L(ctx).Error("failed to load latest score", "country", code, "error", err)
		} else if latest != nil {
			score := latest.OverallScore
			e.OverallScore = &score
			e.RiskLevel = string(risk.LevelFor(latest.OverallScore))
			e.Trend = string(latest.Trend)
			e.LastScoredAt = latest.Date.Format(time.RFC3339)
		}
		entries = append(entries, e)
	}

	c.JSON(http.StatusOK, gin.H{
		"countries": entries,
		"count":     len(entries),
	})
}

// getLatestRisk returns the most recent risk score for a country.
func (s *Server) getLatestRisk(c *gin.Context) {
	ctx := c.Request.Context()
	code := c.Param("countryCode")

	latest, err := s.riskStore.Latest(ctx, code)
	if err != nil {
		logging.L(ctx).Error("failed to load latest score", "country", code, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to load risk score",
		})
		return
	}
	if latest == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_scored",
			"message": "No risk score recorded for this country yet",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"riskScore": latest,
		"riskLevel": risk.LevelFor(latest.OverallScore),
	})
}

// getRiskHistory returns a country's scores over the requested window,
// oldest first.
func (s *Server) getRiskHistory(c *gin.Context) {
	ctx := c.Request.Context()
	code := c.Param("countryCode")

	days := intQuery(c, "days", defaultHistoryDays, maxHistoryDays)
	since := time.Now().UTC().AddDate(0, 0, -days)

	scores, err := s.riskStore.History(ctx, code, since)
	if err != nil {
		logging.L(ctx).Error("failed to load history", "country", code, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to load risk history",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"countryCode": code,
		"days":        days,
		"scores":      scores,
		"count":       len(scores),
	})
}

// computeScore runs the full pipeline for a country on demand.
func (s *Server) computeScore(c *gin.Context) {
	ctx := c.Request.Context()
	code := c.Param("countryCode")

	assessment, err := s.engine.Compute(ctx, code)
	if err != nil {
		logging.L(ctx).Error("on-demand scoring failed", "country", code, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "scoring_failed",
			"message": "Failed to compute risk score",
		})
		return
	}

	s.realtimeHub.BroadcastScore(assessment)

	c.JSON(http.StatusCreated, gin.H{"assessment": assessment})
}

// -----------------------------------------------------------------------------
// Alert endpoints
// -----------------------------------------------------------------------------

func (s *Server) listAlerts(c *gin.Context) {
	ctx := c.Request.Context()
	limit := intQuery(c, "limit", defaultAlertLimit, maxAlertLimit)

	alerts, err := s.alertStore.List(ctx, limit)
	if err != nil {
		logging.L(ctx).Error("failed to list alerts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to load alerts",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

func (s *Server) listCountryAlerts(c *gin.Context) {
	ctx := c.Request.Context()
	code := c.Param("countryCode")
	limit := intQuery(c, "limit", defaultAlertLimit, maxAlertLimit)

	alerts, err := s.alertStore.ListByCountry(ctx, code, limit)
	if err != nil {
		logging.L(ctx).Error("failed to list alerts", "country", code, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to load alerts",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"countryCode": code,
		"alerts":      alerts,
		"count":       len(alerts),
	})
}

// streamStats exposes realtime hub counters.
func (s *Server) streamStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.realtimeHub.Stats())
}

// intQuery parses a positive int query param with a default and a cap.
func intQuery(c *gin.Context, name string, def, max int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
