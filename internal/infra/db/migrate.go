package db

import (
	"database/sql"
)

// MigrateUp creates the tables owned by the recommendation subsystem.
// The interaction and catalog tables (ratings, view_history, orders,
// products, users, ...) belong to the CRUD services and are only read
// here; this migration never touches them.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS product_similarity (
    product_id_a     BIGINT NOT NULL,
    product_id_b     BIGINT NOT NULL,
    similarity_score DOUBLE PRECISION NOT NULL,
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (product_id_a, product_id_b)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS user_recommendations (
    user_id              BIGINT NOT NULL,
    product_id           BIGINT NOT NULL,
    recommendation_score DOUBLE PRECISION NOT NULL,
    rank                 INT NOT NULL,
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (user_id, product_id)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS training_history (
    history_id   SERIAL PRIMARY KEY,
    start_time   TIMESTAMPTZ NOT NULL,
    end_time     TIMESTAMPTZ,
    status       VARCHAR(20) NOT NULL,
    triggered_by VARCHAR(100) NOT NULL,
    message      TEXT
)`); err != nil {
		return err
	}

	indexes := []string{
		// Serving reads: top rows for one product ordered by score.
		`CREATE INDEX IF NOT EXISTS idx_product_similarity_a_score
    ON product_similarity(product_id_a, similarity_score DESC)`,
		// Serving reads: rows for one user ordered by rank.
		`CREATE INDEX IF NOT EXISTS idx_user_recommendations_user_rank
    ON user_recommendations(user_id, rank)`,
		// Admin history listing.
		`CREATE INDEX IF NOT EXISTS idx_training_history_start_time
    ON training_history(start_time DESC)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	// Model artifact table. pgvector may be unavailable on stripped-down
	// environments; the artifact writer is optional, so the extension and
	// its table are created best-effort. The column is undimensioned
	// because the factor dimension is the per-run clamped rank, which
	// shrinks with the catalog.
	_, _ = db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`)
	_, _ = db.Exec(`
CREATE TABLE IF NOT EXISTS item_factors (
    product_id BIGINT PRIMARY KEY,
    factors    vector NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`)

	return nil
}

// MigrateDown removes the subsystem's tables. Derived data is rebuilt
// by the next training run, but training history is not recoverable.
func MigrateDown(db *sql.DB) error {
	drops := []string{
		`DROP TABLE IF EXISTS item_factors`,
		`DROP TABLE IF EXISTS user_recommendations`,
		`DROP TABLE IF EXISTS product_similarity`,
		`DROP TABLE IF EXISTS training_history`,
	}
	for _, stmt := range drops {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
