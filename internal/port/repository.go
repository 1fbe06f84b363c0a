package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"reviewhub/internal/domain"
)

// UserRepository defines the contract for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// CategoryRepository defines the contract for the fixed category list.
type CategoryRepository interface {
	List(ctx context.Context) ([]domain.Category, error)
	Exists(ctx context.Context, categoryID int64) (bool, error)
}

// ProductRepository defines the contract for product persistence.
// Query methods take the owner's id so users only see their own products.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, userID uuid.UUID, productID int64) (*domain.Product, error)
	ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]domain.Product, int, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, userID uuid.UUID, productID int64) error
}

// ReviewRepository defines the contract for ingested review rows.
type ReviewRepository interface {
	// Exists reports whether the product already has a review with the same
	// text on the same calendar day.
	Exists(ctx context.Context, productID int64, text string, day time.Time) (bool, error)
	Create(ctx context.Context, review *domain.Review) error
	ListByProduct(ctx context.Context, productID int64, offset, limit int) ([]domain.Review, int, error)
}

// ReviewFileRepository defines the contract for stored upload metadata.
type ReviewFileRepository interface {
	Create(ctx context.Context, file *domain.ReviewFile) error
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]domain.ReviewFile, error)
	ListByProduct(ctx context.Context, productID int64) ([]domain.ReviewFile, error)
	UpdateStatus(ctx context.Context, fileID uuid.UUID, status domain.FileStatus, rowsInserted int, errMsg string) error
}
