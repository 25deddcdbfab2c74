package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"shop-reco/internal/domain/entity"
	"shop-reco/internal/repository"
)

type InteractionRepo struct {
	db DB
}

func NewInteractionRepo(db DB) repository.InteractionRepository {
	return &InteractionRepo{db: db}
}

func (repo *InteractionRepo) RatingsBetween(ctx context.Context, start, end time.Time) ([]entity.Rating, error) {
	const query = `
SELECT user_id, product_id, score, created_at
FROM ratings
WHERE created_at BETWEEN $1 AND $2`
	rows, err := repo.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("RatingsBetween: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ratings := make([]entity.Rating, 0, 100)
	for rows.Next() {
		var r entity.Rating
		if err := rows.Scan(&r.UserID, &r.ProductID, &r.Score, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("RatingsBetween: Scan: %w", err)
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

func (repo *InteractionRepo) ViewsBetween(ctx context.Context, start, end time.Time) ([]entity.View, error) {
	const query = `
SELECT user_id, product_id, view_timestamp
FROM view_history
WHERE view_timestamp BETWEEN $1 AND $2`
	rows, err := repo.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("ViewsBetween: %w", err)
	}
	defer func() { _ = rows.Close() }()

	views := make([]entity.View, 0, 100)
	for rows.Next() {
		var v entity.View
		if err := rows.Scan(&v.UserID, &v.ProductID, &v.ViewedAt); err != nil {
			return nil, fmt.Errorf("ViewsBetween: Scan: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

func (repo *InteractionRepo) PurchasesBetween(ctx context.Context, start, end time.Time) ([]entity.Purchase, error) {
	const query = `
SELECT o.user_id, oi.product_id, oi.quantity, o.order_date
FROM orders o
INNER JOIN order_items oi ON o.order_id = oi.order_id
WHERE o.order_date BETWEEN $1 AND $2
  AND o.status != 'CANCELLED'`
	rows, err := repo.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("PurchasesBetween: %w", err)
	}
	defer func() { _ = rows.Close() }()

	purchases := make([]entity.Purchase, 0, 100)
	for rows.Next() {
		var p entity.Purchase
		if err := rows.Scan(&p.UserID, &p.ProductID, &p.Quantity, &p.OrderedAt); err != nil {
			return nil, fmt.Errorf("PurchasesBetween: Scan: %w", err)
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

func (repo *InteractionRepo) LatestViewByUser(ctx context.Context, userID int64) (*entity.View, error) {
	const query = `
SELECT user_id, product_id, view_timestamp
FROM view_history
WHERE user_id = $1
ORDER BY view_timestamp DESC
LIMIT 1`
	var v entity.View
	err := repo.db.QueryRowContext(ctx, query, userID).
		Scan(&v.UserID, &v.ProductID, &v.ViewedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LatestViewByUser: %w", err)
	}
	return &v, nil
}
