package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"shop-reco/internal/domain/entity"
	"shop-reco/internal/repository"
)

// replaceBatchSize bounds the number of rows per INSERT statement
// during table replacement. Postgres caps bind parameters at 65535.
const replaceBatchSize = 500

type SimilarityRepo struct {
	readDB DB
	db     *sql.DB
}

// NewSimilarityRepo creates a SimilarityRepository. readDB serves the
// lookup queries and may be circuit-breaker wrapped; db runs the
// transactional replacement and must be the raw pool.
func NewSimilarityRepo(readDB DB, db *sql.DB) repository.SimilarityRepository {
	return &SimilarityRepo{readDB: readDB, db: db}
}

func (repo *SimilarityRepo) ListForProduct(ctx context.Context, productID int64, limit int) ([]*entity.ProductSimilarity, error) {
	const query = `
SELECT product_id_a, product_id_b, similarity_score, updated_at
FROM product_similarity
WHERE product_id_a = $1
ORDER BY similarity_score DESC
LIMIT $2`
	rows, err := repo.readDB.QueryContext(ctx, query, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("ListForProduct: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]*entity.ProductSimilarity, 0, limit)
	for rows.Next() {
		var s entity.ProductSimilarity
		if err := rows.Scan(&s.ProductIDA, &s.ProductIDB, &s.Score, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ListForProduct: Scan: %w", err)
		}
		result = append(result, &s)
	}
	return result, rows.Err()
}

// ReplaceAll deletes and repopulates product_similarity inside a single
// transaction. Readers keep seeing the previous generation until commit.
func (repo *SimilarityRepo) ReplaceAll(ctx context.Context, rows []entity.ProductSimilarity) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ReplaceAll: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM product_similarity`); err != nil {
		return fmt.Errorf("ReplaceAll: delete: %w", err)
	}

	for start := 0; start < len(rows); start += replaceBatchSize {
		end := start + replaceBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := insertSimilarityBatch(ctx, tx, rows[start:end]); err != nil {
			return fmt.Errorf("ReplaceAll: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ReplaceAll: commit: %w", err)
	}
	return nil
}

func insertSimilarityBatch(ctx context.Context, tx *sql.Tx, batch []entity.ProductSimilarity) error {
	if len(batch) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO product_similarity (product_id_a, product_id_b, similarity_score, updated_at) VALUES `)
	args := make([]interface{}, 0, len(batch)*4)
	for i, row := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 4
		sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4))
		args = append(args, row.ProductIDA, row.ProductIDB, row.Score, row.UpdatedAt)
	}
	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}
