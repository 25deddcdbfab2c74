package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"shop-reco/internal/domain/entity"
	"shop-reco/internal/repository"
)

// productColumns is the shared projection with category name and
// primary image (first image by display order when none is primary).
const productColumns = `
p.product_id, p.name, p.price, p.category_id, c.name AS category_name,
COALESCE((
    SELECT pi.image_url FROM product_images pi
    WHERE pi.product_id = p.product_id
    ORDER BY pi.is_primary DESC, pi.display_order ASC
    LIMIT 1
), '') AS image_url,
p.is_active, p.created_at`

type ProductRepo struct {
	db DB
}

func NewProductRepo(db DB) repository.ProductRepository {
	return &ProductRepo{db: db}
}

func scanProduct(rows interface{ Scan(...interface{}) error }) (*entity.Product, error) {
	var p entity.Product
	err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.CategoryID, &p.CategoryName,
		&p.ImageURL, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (repo *ProductRepo) Get(ctx context.Context, id int64) (*entity.Product, error) {
	query := `
SELECT ` + productColumns + `
FROM products p
INNER JOIN categories c ON p.category_id = c.category_id
WHERE p.product_id = $1
LIMIT 1`
	p, err := scanProduct(repo.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return p, nil
}

func (repo *ProductRepo) GetByIDs(ctx context.Context, ids []int64) ([]*entity.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
SELECT ` + productColumns + `
FROM products p
INNER JOIN categories c ON p.category_id = c.category_id
WHERE p.product_id = ANY($1) AND p.is_active = TRUE`
	rows, err := repo.db.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("GetByIDs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	products := make([]*entity.Product, 0, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByIDs: Scan: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (repo *ProductRepo) Latest(ctx context.Context, limit int) ([]*entity.Product, error) {
	query := `
SELECT ` + productColumns + `
FROM products p
INNER JOIN categories c ON p.category_id = c.category_id
WHERE p.is_active = TRUE
ORDER BY p.created_at DESC
LIMIT $1`
	rows, err := repo.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("Latest: %w", err)
	}
	defer func() { _ = rows.Close() }()

	products := make([]*entity.Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("Latest: Scan: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (repo *ProductRepo) ListActive(ctx context.Context) ([]*entity.Product, error) {
	query := `
SELECT ` + productColumns + `
FROM products p
INNER JOIN categories c ON p.category_id = c.category_id
WHERE p.is_active = TRUE`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	defer func() { _ = rows.Close() }()

	products := make([]*entity.Product, 0, 100)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("ListActive: Scan: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

type UserRepo struct {
	db DB
}

func NewUserRepo(db DB) repository.UserRepository {
	return &UserRepo{db: db}
}

func (repo *UserRepo) Exists(ctx context.Context, id int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE user_id = $1)`
	var exists bool
	if err := repo.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("Exists: %w", err)
	}
	return exists, nil
}
