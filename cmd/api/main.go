// The api binary serves recommendation lists and the admin training
// endpoints. Authentication and TLS terminate at the API gateway in
// front of this service; the handlers trust the identifiers the
// gateway forwards.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"shop-reco/internal/config"
	pgRepo "shop-reco/internal/infra/adapter/persistence/postgres"
	"shop-reco/internal/infra/cache"
	"shop-reco/internal/infra/db"
	"shop-reco/internal/observability/logging"
	"shop-reco/internal/observability/slo"
	"shop-reco/internal/observability/tracing"
	"shop-reco/internal/repository"
	"shop-reco/internal/resilience/circuitbreaker"
	"shop-reco/internal/resilience/retry"
	pkgconfig "shop-reco/pkg/config"

	recUC "shop-reco/internal/usecase/recommend"
	"shop-reco/internal/usecase/training"

	hhttp "shop-reco/internal/handler/http"
	"shop-reco/internal/handler/http/middleware"
	hrecommend "shop-reco/internal/handler/http/recommend"
	"shop-reco/internal/handler/http/requestid"
	htraining "shop-reco/internal/handler/http/training"
)

func main() {
	logger := initLogger()
	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	version := getVersion()
	tracker := slo.NewTracker(0)
	handler := setupServer(logger, database, version, tracker)

	runServer(logger, handler, version, tracker)
}

// sloFlushInterval is how often the SLO gauges are recomputed from the
// in-process request window.
const sloFlushInterval = time.Minute

// initLogger initializes a structured JSON logger from LOG_LEVEL.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// initDatabase opens the connection pool and runs migrations. The ping
// is retried with backoff so the service survives starting before the
// database finishes booting.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()

	err := retry.WithBackoff(context.Background(), retry.StartupConfig(), func() error {
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return database.PingContext(pingCtx)
	})
	if err != nil {
		logger.Error("database unreachable", slog.Any("error", err))
		os.Exit(1)
	}

	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

// setupServer wires repositories, use cases, and routes into the final
// HTTP handler.
func setupServer(logger *slog.Logger, database *sql.DB, version string, tracker *slo.Tracker) http.Handler {
	// Serving reads go through the circuit breaker so a dead database
	// fails requests fast instead of piling up connections. Training
	// writes use the raw pool: a run should block on a slow database
	// rather than trip serving's breaker.
	readDB := circuitbreaker.NewDBCircuitBreaker(database)

	modelConfig, err := config.LoadRecommendConfig(os.Getenv("RECOMMEND_CONFIG_PATH"))
	if err != nil {
		logger.Error("failed to load model configuration", slog.Any("error", err))
		os.Exit(1)
	}

	svc := &recUC.Service{
		Products:        pgRepo.NewProductRepo(readDB),
		Users:           pgRepo.NewUserRepo(readDB),
		Interactions:    pgRepo.NewInteractionRepo(readDB),
		Similarities:    pgRepo.NewSimilarityRepo(readDB, database),
		Recommendations: pgRepo.NewUserRecommendationRepo(readDB, database),
		History:         pgRepo.NewTrainingHistoryRepo(readDB),
		Job:             setupTrainingJob(database, modelConfig),
	}

	// The response cache is optional; an unset REDIS_ADDR runs uncached.
	listCache, err := cache.FromEnv()
	if err != nil {
		logger.Warn("cache unavailable, serving uncached", slog.Any("error", err))
	} else if listCache != nil {
		svc.Cache = listCache
		logger.Info("response cache enabled")
	}

	limiter := middleware.NewIPRateLimiter(loadRateLimiterConfig(), logger)

	mux := setupRoutes(database, version, svc, limiter)
	return applyMiddleware(logger, mux, tracker)
}

// setupTrainingJob wires the training pipeline for manual admin runs.
// The wiring matches the worker's scheduled pipeline so both triggers
// produce identical results.
func setupTrainingJob(database *sql.DB, cfg *config.RecommendConfig) *training.Job {
	loader := training.NewDataLoader(pgRepo.NewInteractionRepo(database), cfg.Window())

	trainer := &training.SVDTrainer{
		Iterations: cfg.Recommend.Model.Iterations,
		Seed:       cfg.Recommend.Model.Seed,
	}

	var itemFactors repository.ItemFactorRepository
	if cfg.Recommend.SaveItemFactors {
		itemFactors = pgRepo.NewItemFactorRepo(database)
	}

	writer := training.NewResultWriter(
		pgRepo.NewSimilarityRepo(database, database),
		pgRepo.NewUserRecommendationRepo(database, database),
		itemFactors,
		cfg.Recommend.SimilarTopN,
		cfg.Recommend.RecommendTopN,
		cfg.Recommend.SimilarityThreshold,
	)

	return training.NewJob(
		loader,
		trainer,
		writer,
		pgRepo.NewTrainingHistoryRepo(database),
		pgRepo.NewTrainingLock(database),
		cfg.Recommend.Model.Rank,
	)
}

// loadRateLimiterConfig reads the public endpoint rate limit from the
// environment, falling back to defaults on absence.
func loadRateLimiterConfig() middleware.IPRateLimiterConfig {
	cfg := middleware.DefaultIPRateLimiterConfig()
	cfg.RequestsPerSecond = float64(pkgconfig.GetEnvInt("RATE_LIMIT_PER_MINUTE", 100)) / 60.0
	cfg.Burst = pkgconfig.GetEnvInt("RATE_LIMIT_BURST", cfg.Burst)
	cfg.Enabled = pkgconfig.GetEnvBool("RATE_LIMIT_ENABLED", true)
	return cfg
}

// setupRoutes registers all HTTP routes.
func setupRoutes(
	database *sql.DB,
	version string,
	svc *recUC.Service,
	limiter *middleware.IPRateLimiter,
) *http.ServeMux {
	mux := http.NewServeMux()

	// Operational endpoints.
	mux.Handle("/health", &hhttp.HealthHandler{DB: database, Version: version})
	mux.Handle("/ready", &hhttp.ReadyHandler{DB: database})
	mux.Handle("/live", &hhttp.LiveHandler{})
	mux.Handle("/metrics", hhttp.MetricsHandler())

	// Serving routes. The public similarity endpoint carries the IP
	// rate limiter; the personalized endpoint sits behind the gateway.
	hrecommend.Register(mux, svc, limiter)

	// Admin routes, authenticated upstream by the gateway.
	htraining.Register(mux, svc)

	return mux
}

// applyMiddleware wraps the handler with the middleware chain.
// Order (outermost first): tracing, request ID, recovery, logging,
// input validation, timeout, SLO tracking, metrics.
func applyMiddleware(logger *slog.Logger, handler http.Handler, tracker *slo.Tracker) http.Handler {
	chain := handler

	// Apply in reverse order (innermost to outermost).
	chain = hhttp.MetricsMiddleware(chain)
	chain = tracker.Middleware(chain)
	chain = trainAwareTimeout(30*time.Second, chain)
	chain = hhttp.InputValidation()(chain)
	chain = hhttp.Logging(logger)(chain)
	chain = hhttp.Recover(logger)(chain)
	chain = requestid.Middleware(chain)
	chain = tracing.Middleware(chain)

	return chain
}

// trainAwareTimeout applies the request timeout to every route except
// the synchronous training trigger, whose runs take minutes. The cron
// worker's TRAINING_TIMEOUT still bounds the pipeline itself.
func trainAwareTimeout(d time.Duration, next http.Handler) http.Handler {
	withTimeout := hhttp.Timeout(d)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/admin/recommendations/train" {
			next.ServeHTTP(w, r)
			return
		}
		withTimeout.ServeHTTP(w, r)
	})
}

// runServer starts the HTTP server and handles graceful shutdown.
func runServer(logger *slog.Logger, handler http.Handler, version string, tracker *slo.Tracker) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go tracker.Run(ctx, sloFlushInterval)

	srv := &http.Server{
		Addr:              ":8080",
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", ":8080"),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
