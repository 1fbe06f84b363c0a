package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"reviewhub/internal/domain"
	"reviewhub/internal/port"
)

type reviewFileRepo struct {
	db *sqlx.DB
}

// NewReviewFileRepo creates a new PostgreSQL-backed ReviewFileRepository.
func NewReviewFileRepo(db *sqlx.DB) port.ReviewFileRepository {
	return &reviewFileRepo{db: db}
}

func (r *reviewFileRepo) Create(ctx context.Context, f *domain.ReviewFile) error {
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now

	query := `INSERT INTO review_files
		(id, product_id, uploaded_by, task_id, original_name, file_type, file_size,
		 s3_bucket, s3_key, content_type, review_column, date_column, rating_column,
		 status, rows_inserted, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.ProductID, f.UploadedBy, f.TaskID, f.OriginalName, f.FileType, f.FileSize,
		f.S3Bucket, f.S3Key, f.ContentType, f.ReviewColumn, f.DateColumn, f.RatingColumn,
		f.Status, f.RowsInserted, f.ErrorMessage, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("reviewFileRepo.Create: %w", err)
	}
	return nil
}

func (r *reviewFileRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]domain.ReviewFile, error) {
	var files []domain.ReviewFile
	err := r.db.SelectContext(ctx, &files,
		"SELECT * FROM review_files WHERE task_id = $1 ORDER BY created_at, original_name", taskID)
	if err != nil {
		return nil, fmt.Errorf("reviewFileRepo.ListByTask: %w", err)
	}
	return files, nil
}

func (r *reviewFileRepo) ListByProduct(ctx context.Context, productID int64) ([]domain.ReviewFile, error) {
	var files []domain.ReviewFile
	err := r.db.SelectContext(ctx, &files,
		"SELECT * FROM review_files WHERE product_id = $1 ORDER BY created_at DESC", productID)
	if err != nil {
		return nil, fmt.Errorf("reviewFileRepo.ListByProduct: %w", err)
	}
	return files, nil
}

func (r *reviewFileRepo) UpdateStatus(ctx context.Context, fileID uuid.UUID, status domain.FileStatus, rowsInserted int, errMsg string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE review_files SET status = $1, rows_inserted = $2, error_message = $3, updated_at = NOW()
		 WHERE id = $4`,
		status, rowsInserted, errMsg, fileID)
	if err != nil {
		return fmt.Errorf("reviewFileRepo.UpdateStatus: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
