package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"reviewhub/internal/domain"
	"reviewhub/internal/port"
)

type reviewRepo struct {
	db *sqlx.DB
}

// NewReviewRepo creates a new PostgreSQL-backed ReviewRepository.
func NewReviewRepo(db *sqlx.DB) port.ReviewRepository {
	return &reviewRepo{db: db}
}

func (r *reviewRepo) Exists(ctx context.Context, productID int64, text string, day time.Time) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (
			SELECT 1 FROM reviews
			WHERE product_id = $1 AND review_text = $2 AND review_date::date = $3::date
		)`, productID, text, day.UTC().Format("2006-01-02"))
	if err != nil {
		return false, fmt.Errorf("reviewRepo.Exists: %w", err)
	}
	return exists, nil
}

func (r *reviewRepo) Create(ctx context.Context, review *domain.Review) error {
	review.CreatedAt = time.Now().UTC()
	query := `INSERT INTO reviews (product_id, file_id, review_text, review_date, rating, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING review_id`
	err := r.db.QueryRowxContext(ctx, query,
		review.ProductID, review.FileID, review.ReviewText, review.ReviewDate,
		review.Rating, review.CreatedAt).Scan(&review.ID)
	if err != nil {
		return fmt.Errorf("reviewRepo.Create: %w", err)
	}
	return nil
}

func (r *reviewRepo) ListByProduct(ctx context.Context, productID int64, offset, limit int) ([]domain.Review, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM reviews WHERE product_id = $1", productID)
	if err != nil {
		return nil, 0, fmt.Errorf("reviewRepo.ListByProduct count: %w", err)
	}

	var reviews []domain.Review
	err = r.db.SelectContext(ctx, &reviews,
		`SELECT review_id, product_id, file_id, review_text, review_date, rating, created_at
		 FROM reviews WHERE product_id = $1 ORDER BY review_date DESC, review_id DESC LIMIT $2 OFFSET $3`,
		productID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("reviewRepo.ListByProduct: %w", err)
	}
	return reviews, total, nil
}
