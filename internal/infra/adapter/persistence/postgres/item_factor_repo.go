package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"

	"shop-reco/internal/repository"
)

// ItemFactorRepo persists the per-product factor vectors produced by a
// training run. The table is a model artifact: written on every
// successful run, never read by the serving path.
type ItemFactorRepo struct {
	db *sql.DB
}

func NewItemFactorRepo(db *sql.DB) repository.ItemFactorRepository {
	return &ItemFactorRepo{db: db}
}

func (repo *ItemFactorRepo) ReplaceAll(ctx context.Context, factors []repository.ItemFactor) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ReplaceAll: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM item_factors`); err != nil {
		return fmt.Errorf("ReplaceAll: delete: %w", err)
	}

	for start := 0; start < len(factors); start += replaceBatchSize {
		end := start + replaceBatchSize
		if end > len(factors) {
			end = len(factors)
		}
		if err := insertFactorBatch(ctx, tx, factors[start:end]); err != nil {
			return fmt.Errorf("ReplaceAll: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ReplaceAll: commit: %w", err)
	}
	return nil
}

func insertFactorBatch(ctx context.Context, tx *sql.Tx, batch []repository.ItemFactor) error {
	if len(batch) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO item_factors (product_id, factors, updated_at) VALUES `)
	args := make([]interface{}, 0, len(batch)*2)
	for i, f := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 2
		sb.WriteString(fmt.Sprintf("($%d, $%d, NOW())", n+1, n+2))
		args = append(args, f.ProductID, pgvector.NewVector(f.Factors))
	}
	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}
