// Package server sets up the HTTP server with all routes
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	ossignal "os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/kautilya-labs/georisk/internal/alert"
	"github.com/kautilya-labs/georisk/internal/config"
	"github.com/kautilya-labs/georisk/internal/health"
	"github.com/kautilya-labs/georisk/internal/logging"
	"github.com/kautilya-labs/georisk/internal/metrics"
	"github.com/kautilya-labs/georisk/internal/realtime"
	"github.com/kautilya-labs/georisk/internal/risk"
	"github.com/kautilya-labs/georisk/internal/scheduler"
	"github.com/kautilya-labs/georisk/internal/signal"
	"github.com/kautilya-labs/georisk/internal/sources"
	"github.com/kautilya-labs/georisk/internal/traces"
)

// Sources bundles the four signal feeds the calculators consume.
type Sources struct {
	News       signal.NewsSource
	Conflict   signal.ConflictSource
	Economic   signal.EconomicSource
	Government signal.GovernmentSource
}

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg         *config.Config
	riskStore   risk.Store
	alertStore  alert.Store
	engine      *risk.Engine
	scheduler   *scheduler.Scheduler
	realtimeHub *realtime.Hub
	checks      *health.Registry
	db          *sql.DB // nil if using in-memory
	router      *gin.Engine
	httpSrv     *http.Server
	logger      *slog.Logger

	srcs           Sources
	tracesShutdown func(context.Context) error
	cancelRunCtx   context.CancelFunc // cancels background goroutines started in Run

	// Health state
	ready   atomic.Bool
	healthy atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithSources injects custom signal feeds (for testing or real ingestion).
func WithSources(srcs Sources) Option {
	return func(s *Server) {
		s.srcs = srcs
	}
}

// New creates a new server instance
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logging.New(cfg.LogLevel, "json"),
	}

	// Apply options first (may set sources/logger)
	for _, opt := range opts {
		opt(s)
	}

	// Initialize storage (Postgres if DATABASE_URL set, otherwise in-memory)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}

		// Configure connection pool
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		// Test connection
		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		s.db = db
		s.riskStore = risk.NewPostgresStore(db)
		s.alertStore = alert.NewPostgresStore(db)
		s.logger.Info("using PostgreSQL storage", "url", maskDSN(cfg.DatabaseURL))
	} else {
		s.riskStore = risk.NewMemoryStore()
		s.alertStore = alert.NewMemoryStore()
		s.logger.Info("using in-memory storage (data will not persist)")
	}

	// Default to the seeded demo fixture when no feeds were injected.
	if s.srcs.News == nil {
		fixture := sources.NewFixture()
		sources.SeedDemo(fixture)
		s.srcs = Sources{
			News:       fixture,
			Conflict:   fixture,
			Economic:   fixture,
			Government: fixture,
		}
		s.logger.Info("using seeded demo signal feeds")
	}

	// Optional sentiment service; calculators fall back to keywords without it.
	var analyzer signal.SentimentAnalyzer
	if cfg.SentimentAPIURL != "" {
		analyzer = sources.NewSentimentClient(cfg.SentimentAPIURL)
		s.logger.Info("sentiment service enabled", "url", cfg.SentimentAPIURL)
	}

	news := signal.NewNews(s.srcs.News).
		WithAnalyzer(analyzer).
		WithLookback(cfg.NewsLookbackDays).
		WithLogger(s.logger)
	conflict := signal.NewConflict(s.srcs.Conflict).
		WithLookback(cfg.ConflictLookbackDays).
		WithLogger(s.logger)
	economic := signal.NewEconomic(s.srcs.Economic).
		WithLogger(s.logger)
	government := signal.NewGovernment(s.srcs.Government).
		WithAnalyzer(analyzer).
		WithLookback(cfg.GovernmentLookbackDays).
		WithLogger(s.logger)

	// Realtime hub for WebSocket streaming
	s.realtimeHub = realtime.NewHub(s.logger)

	detector := alert.NewDetector(s.alertStore, s.riskStore).
		WithLogger(s.logger).
		WithNotifier(s.realtimeHub.BroadcastAlert)

	s.engine = risk.NewEngine(news, conflict, economic, government, s.riskStore).
		WithAlertSink(detector).
		WithLogger(s.logger)

	s.scheduler = scheduler.New(s.engine, cfg.Countries, cfg.ScoreInterval, s.logger).
		WithScoreCallback(s.realtimeHub.BroadcastScore)

	// Health checks
	s.checks = health.NewRegistry()
	if s.db != nil {
		s.checks.Register("database", func(ctx context.Context) health.Status {
			ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			if err := s.db.PingContext(ctx); err != nil {
				return health.Status{Name: "database", Healthy: false, Detail: err.Error()}
			}
			return health.Status{Name: "database", Healthy: true}
		})
	}
	s.checks.Register("scheduler", func(ctx context.Context) health.Status {
		return health.Status{Name: "scheduler", Healthy: s.scheduler.Running()}
	})

	// Configure gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	s.healthy.Store(true)

	return s, nil
}

// maskDSN hides password in connection string for logging
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (s *Server) setupMiddleware() {
	// Recovery with logging
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	// Prometheus metrics
	s.router.Use(metrics.Middleware())

	// Request ID
	s.router.Use(s.requestIDMiddleware())

	// Logging
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check for existing request ID (from load balancer, etc.)
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}

		// Add to context
		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		// Set response header
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger := logging.L(c.Request.Context())

		// Log level based on status code
		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

// -----------------------------------------------------------------------------
// Routes
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	// Health & metrics endpoints
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/health/live", s.livenessHandler)
	s.router.GET("/health/ready", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	// WebSocket for real-time streaming
	s.router.GET("/ws", func(c *gin.Context) {
		s.realtimeHub.HandleWebSocket(c.Writer, c.Request)
	})

	// API info
	s.router.GET("/api", s.infoHandler)

	// V1 API group
	v1 := s.router.Group("/v1")
	v1.Use(countryParamMiddleware())

	v1.GET("/countries", s.listCountries)
	v1.GET("/countries/:code/risk", s.getLatestRisk)
	v1.GET("/countries/:code/history", s.getRiskHistory)
	v1.POST("/countries/:code/score", s.computeScore)
	v1.GET("/countries/:code/alerts", s.listCountryAlerts)
	v1.GET("/alerts", s.listAlerts)
	v1.GET("/stream/stats", s.streamStats)
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Run starts the HTTP server and background workers, then blocks until a
// shutdown signal arrives or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	// Create a cancellable context for background goroutines so Shutdown() can stop them.
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRunCtx = cancel

	// Tracing (no-op when no endpoint configured)
	shutdown, err := traces.Init(runCtx, s.cfg.OTLPEndpoint, s.logger)
	if err != nil {
		s.logger.Warn("failed to initialize tracing", "error", err)
	} else {
		s.tracesShutdown = shutdown
	}

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Channel to catch server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		s.logger.Info("starting server",
			"port", s.cfg.Port,
			"countries", len(s.cfg.Countries),
		)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Start realtime hub
	go s.realtimeHub.Run(runCtx)

	// Start the scoring loop
	go s.scheduler.Start(runCtx)

	// Start DB stats collector
	if s.db != nil {
		go metrics.StartDBStatsCollector(runCtx, s.db, 15*time.Second)
	}

	// Mark as ready after brief delay for startup
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	// Wait for shutdown signal or error
	sigChan := make(chan os.Signal, 1)
	ossignal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	// Cancel the context for all background goroutines (hub, scheduler)
	if s.cancelRunCtx != nil {
		s.cancelRunCtx()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Error("shutdown error", "error", err)
		return err
	}

	s.scheduler.Stop()

	if s.tracesShutdown != nil {
		if err := s.tracesShutdown(ctx); err != nil {
			s.logger.Warn("traces shutdown error", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Warn("database close error", "error", err)
		}
	}

	s.logger.Info("shutdown complete")
	return nil
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
