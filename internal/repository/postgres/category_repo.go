package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"reviewhub/internal/domain"
	"reviewhub/internal/port"
)

type categoryRepo struct {
	db *sqlx.DB
}

// NewCategoryRepo creates a new PostgreSQL-backed CategoryRepository.
func NewCategoryRepo(db *sqlx.DB) port.CategoryRepository {
	return &categoryRepo{db: db}
}

func (r *categoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	var cats []domain.Category
	if err := r.db.SelectContext(ctx, &cats,
		"SELECT category_id, category_name FROM categories ORDER BY category_id"); err != nil {
		return nil, fmt.Errorf("categoryRepo.List: %w", err)
	}
	return cats, nil
}

func (r *categoryRepo) Exists(ctx context.Context, categoryID int64) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		"SELECT EXISTS (SELECT 1 FROM categories WHERE category_id = $1)", categoryID); err != nil {
		return false, fmt.Errorf("categoryRepo.Exists: %w", err)
	}
	return exists, nil
}
