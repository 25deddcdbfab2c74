package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"shop-reco/internal/domain/entity"
	"shop-reco/internal/repository"
)

type UserRecommendationRepo struct {
	readDB DB
	db     *sql.DB
}

// NewUserRecommendationRepo creates a UserRecommendationRepository.
// readDB serves lookups and may be circuit-breaker wrapped; db runs the
// transactional replacement.
func NewUserRecommendationRepo(readDB DB, db *sql.DB) repository.UserRecommendationRepository {
	return &UserRecommendationRepo{readDB: readDB, db: db}
}

func (repo *UserRecommendationRepo) ListForUser(ctx context.Context, userID int64, limit int) ([]*entity.UserRecommendation, error) {
	const query = `
SELECT user_id, product_id, recommendation_score, rank, updated_at
FROM user_recommendations
WHERE user_id = $1
ORDER BY rank ASC
LIMIT $2`
	rows, err := repo.readDB.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ListForUser: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]*entity.UserRecommendation, 0, limit)
	for rows.Next() {
		var r entity.UserRecommendation
		if err := rows.Scan(&r.UserID, &r.ProductID, &r.Score, &r.Rank, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ListForUser: Scan: %w", err)
		}
		result = append(result, &r)
	}
	return result, rows.Err()
}

// ReplaceAll deletes and repopulates user_recommendations inside a
// single transaction.
func (repo *UserRecommendationRepo) ReplaceAll(ctx context.Context, rows []entity.UserRecommendation) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ReplaceAll: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_recommendations`); err != nil {
		return fmt.Errorf("ReplaceAll: delete: %w", err)
	}

	for start := 0; start < len(rows); start += replaceBatchSize {
		end := start + replaceBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := insertRecommendationBatch(ctx, tx, rows[start:end]); err != nil {
			return fmt.Errorf("ReplaceAll: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ReplaceAll: commit: %w", err)
	}
	return nil
}

func insertRecommendationBatch(ctx context.Context, tx *sql.Tx, batch []entity.UserRecommendation) error {
	if len(batch) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO user_recommendations (user_id, product_id, recommendation_score, rank, updated_at) VALUES `)
	args := make([]interface{}, 0, len(batch)*5)
	for i, row := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 5
		sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5))
		args = append(args, row.UserID, row.ProductID, row.Score, row.Rank, row.UpdatedAt)
	}
	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}
