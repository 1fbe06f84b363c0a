package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"reviewhub/internal/domain"
	"reviewhub/internal/port"
)

type productRepo struct {
	db *sqlx.DB
}

// NewProductRepo creates a new PostgreSQL-backed ProductRepository.
func NewProductRepo(db *sqlx.DB) port.ProductRepository {
	return &productRepo{db: db}
}

const productColumns = "product_id, product_name, brand, category_id, user_id, created_at, updated_at"

func (r *productRepo) Create(ctx context.Context, product *domain.Product) error {
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	query := `INSERT INTO products (product_name, brand, category_id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING product_id`

	err := r.db.QueryRowxContext(ctx, query,
		product.Name, product.Brand, product.CategoryID, product.UserID,
		product.CreatedAt, product.UpdatedAt).Scan(&product.ID)
	if err != nil {
		if hasCode(err, codeForeignKeyViolation) {
			return domain.ErrInvalidCategory
		}
		return fmt.Errorf("productRepo.Create: %w", err)
	}
	return nil
}

func (r *productRepo) GetByID(ctx context.Context, userID uuid.UUID, productID int64) (*domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p,
		"SELECT "+productColumns+" FROM products WHERE product_id = $1 AND user_id = $2", productID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("productRepo.GetByID: %w", err)
	}
	return &p, nil
}

func (r *productRepo) ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]domain.Product, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM products WHERE user_id = $1", userID)
	if err != nil {
		return nil, 0, fmt.Errorf("productRepo.ListByUser count: %w", err)
	}

	var products []domain.Product
	err = r.db.SelectContext(ctx, &products,
		"SELECT "+productColumns+" FROM products WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3",
		userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("productRepo.ListByUser: %w", err)
	}
	return products, total, nil
}

func (r *productRepo) Update(ctx context.Context, product *domain.Product) error {
	product.UpdatedAt = time.Now().UTC()
	query := `UPDATE products SET product_name = $1, brand = $2, category_id = $3, updated_at = $4
		WHERE product_id = $5 AND user_id = $6`
	result, err := r.db.ExecContext(ctx, query,
		product.Name, product.Brand, product.CategoryID, product.UpdatedAt, product.ID, product.UserID)
	if err != nil {
		if hasCode(err, codeForeignKeyViolation) {
			return domain.ErrInvalidCategory
		}
		return fmt.Errorf("productRepo.Update: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// Delete removes the product; reviews and stored file records cascade.
func (r *productRepo) Delete(ctx context.Context, userID uuid.UUID, productID int64) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM products WHERE product_id = $1 AND user_id = $2", productID, userID)
	if err != nil {
		return fmt.Errorf("productRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
