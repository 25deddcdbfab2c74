// The worker binary is the training daemon: it runs the offline
// recommendation pipeline on a cron schedule and exposes health and
// metrics endpoints for operations.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"shop-reco/internal/config"
	pgRepo "shop-reco/internal/infra/adapter/persistence/postgres"
	"shop-reco/internal/infra/db"
	"shop-reco/internal/infra/scheduler"
	workerPkg "shop-reco/internal/infra/worker"
	"shop-reco/internal/repository"
	"shop-reco/internal/usecase/training"
)

func waitForMigrations(logger *slog.Logger, db *sql.DB) {
	const probe = "SELECT 1 FROM training_history LIMIT 1"
	for i := 0; i < 10; i++ {
		if _, err := db.Exec(probe); err == nil {
			return
		}
		logger.Info("waiting for migrations, retrying in 3s", slog.Int("attempt", i+1))
		time.Sleep(3 * time.Second)
	}
	logger.Error("migrations did not complete in time")
	os.Exit(1)
}

func main() {
	logger := initLogger()
	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Worker runtime configuration (fail-open strategy).
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerMetrics.MustRegister()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("training_timeout", workerConfig.TrainingTimeout),
		slog.Int("health_port", workerConfig.HealthPort))

	// Model configuration (rank, window, top-N cutoffs).
	modelConfig, err := config.LoadRecommendConfig(os.Getenv("RECOMMEND_CONFIG_PATH"))
	if err != nil {
		logger.Error("failed to load model configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("model configuration loaded",
		slog.Int("rank", modelConfig.Recommend.Model.Rank),
		slog.Int("window_days", modelConfig.Recommend.WindowDays),
		slog.Int("similar_top_n", modelConfig.Recommend.SimilarTopN),
		slog.Int("recommend_top_n", modelConfig.Recommend.RecommendTopN),
		slog.Bool("save_item_factors", modelConfig.Recommend.SaveItemFactors))

	startMetricsServer(ctx, logger)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	job := setupTrainingJob(database, modelConfig)

	runScheduler(ctx, logger, job, workerConfig, workerMetrics, healthServer)
}

// initLogger initializes a JSON structured logger from LOG_LEVEL.
func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// initDatabase opens the database connection and waits for migrations.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	waitForMigrations(logger, database)
	return database
}

// setupTrainingJob wires the training pipeline: signal loading,
// factorization, and derived-table writing, guarded by the advisory
// training lock.
func setupTrainingJob(database *sql.DB, cfg *config.RecommendConfig) *training.Job {
	loader := training.NewDataLoader(pgRepo.NewInteractionRepo(database), cfg.Window())

	trainer := &training.SVDTrainer{
		Iterations: cfg.Recommend.Model.Iterations,
		Seed:       cfg.Recommend.Model.Seed,
	}

	// The artifact table is optional; serving never reads it.
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

// runScheduler registers the scheduled training run and blocks until
// SIGINT or SIGTERM, then drains the scheduler.
func runScheduler(
	ctx context.Context,
	logger *slog.Logger,
	job *training.Job,
	cfg *workerPkg.WorkerConfig,
	metrics *workerPkg.WorkerMetrics,
	healthServer *workerPkg.HealthServer,
) {
	sched := scheduler.New(cfg.Timezone)

	err := sched.Register(cfg.CronSchedule, func() {
		runTrainingJob(ctx, logger, job, cfg, metrics)
	})
	if err != nil {
		logger.Error("failed to register training schedule", slog.Any("error", err))
		os.Exit(1)
	}
	if err := sched.Start(); err != nil {
		logger.Error("failed to start scheduler", slog.Any("error", err))
		os.Exit(1)
	}

	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("schedule", cfg.CronSchedule),
		slog.String("timezone", cfg.Timezone))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	healthServer.SetReady(false)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := sched.Stop(stopCtx); err != nil {
		logger.Error("scheduler stop failed", slog.Any("error", err))
	}
	logger.Info("worker stopped")
}

// runTrainingJob executes one scheduled pipeline run under the
// configured timeout. The job itself never returns an error; the
// result carries the outcome.
func runTrainingJob(ctx context.Context, logger *slog.Logger, job *training.Job, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics) {
	startTime := time.Now()
	logger.Info("scheduled training run started")

	runCtx, cancel := context.WithTimeout(ctx, cfg.TrainingTimeout)
	defer cancel()

	result := job.RunScheduled(runCtx)

	metrics.RecordJobDuration(time.Since(startTime).Seconds())
	if result.Succeeded() {
		metrics.RecordJobRun("success")
		metrics.RecordLastSuccess()
		logger.Info("scheduled training run completed",
			slog.Int64("history_id", result.HistoryID),
			slog.String("message", result.Message),
			slog.Duration("duration", result.Duration))
		return
	}

	metrics.RecordJobRun("failure")
	logger.Error("scheduled training run failed",
		slog.Int64("history_id", result.HistoryID),
		slog.String("message", result.Message),
		slog.Any("error", result.Err))
}
