// Package db opens the PostgreSQL connection pool and manages schema
// migrations for the recommendation subsystem's own tables.
package db

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	pkgconfig "shop-reco/pkg/config"
)

// ConnectionConfig holds database connection pool configuration.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig returns the default connection pool settings.
// Training holds few connections for a long time; serving holds many
// for a short time. The defaults cover both.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// Open creates and configures a new database connection pool.
// It reads DATABASE_URL from the environment, applies pool settings
// and exits the process when the database is unreachable.
func Open() *sql.DB {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatal(err)
	}

	cfg := connectionConfigFromEnv()
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	slog.Info("database connection pool configured",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	slog.Info("database connection established")
	return db
}

// connectionConfigFromEnv reads pool settings from the environment,
// falling back to defaults for unset or invalid values.
func connectionConfigFromEnv() ConnectionConfig {
	def := DefaultConnectionConfig()
	cfg := ConnectionConfig{
		MaxOpenConns:    pkgconfig.GetEnvInt("DB_MAX_OPEN_CONNS", def.MaxOpenConns),
		MaxIdleConns:    pkgconfig.GetEnvInt("DB_MAX_IDLE_CONNS", def.MaxIdleConns),
		ConnMaxLifetime: pkgconfig.GetEnvDuration("DB_CONN_MAX_LIFETIME", def.ConnMaxLifetime),
		ConnMaxIdleTime: pkgconfig.GetEnvDuration("DB_CONN_MAX_IDLE_TIME", def.ConnMaxIdleTime),
	}
	if err := pkgconfig.ValidatePositiveDuration(cfg.ConnMaxLifetime); err != nil {
		slog.Warn("invalid DB_CONN_MAX_LIFETIME, using default",
			slog.String("error", err.Error()),
			slog.Duration("default", def.ConnMaxLifetime))
		cfg.ConnMaxLifetime = def.ConnMaxLifetime
	}
	if err := pkgconfig.ValidateNonNegativeDuration(cfg.ConnMaxIdleTime); err != nil {
		slog.Warn("invalid DB_CONN_MAX_IDLE_TIME, using default",
			slog.String("error", err.Error()),
			slog.Duration("default", def.ConnMaxIdleTime))
		cfg.ConnMaxIdleTime = def.ConnMaxIdleTime
	}
	return cfg
}
