package service

import (
	"context"
	"log"

	"github.com/google/uuid"

	"reviewhub/internal/domain"
	"reviewhub/internal/port"
)

// ReviewFileView is a stored review file with a temporary download link.
type ReviewFileView struct {
	domain.ReviewFile
	DownloadURL string `json:"download_url,omitempty"`
}

// ReviewService exposes the reviews and source files stored for a product.
type ReviewService interface {
	List(ctx context.Context, userID uuid.UUID, productID int64, offset, limit int) ([]domain.Review, int, error)
	ListFiles(ctx context.Context, userID uuid.UUID, productID int64) ([]ReviewFileView, error)
}

type reviewService struct {
	productRepo   port.ProductRepository
	reviewRepo    port.ReviewRepository
	fileRepo      port.ReviewFileRepository
	storage       port.ObjectStorage
	presignExpiry int64
}

// NewReviewService creates a new ReviewService implementation.
func NewReviewService(
	productRepo port.ProductRepository,
	reviewRepo port.ReviewRepository,
	fileRepo port.ReviewFileRepository,
	storage port.ObjectStorage,
	presignExpiry int64,
) ReviewService {
	return &reviewService{
		productRepo:   productRepo,
		reviewRepo:    reviewRepo,
		fileRepo:      fileRepo,
		storage:       storage,
		presignExpiry: presignExpiry,
	}
}

func (s *reviewService) List(ctx context.Context, userID uuid.UUID, productID int64, offset, limit int) ([]domain.Review, int, error) {
	if _, err := s.productRepo.GetByID(ctx, userID, productID); err != nil {
		return nil, 0, err
	}
	return s.reviewRepo.ListByProduct(ctx, productID, offset, limit)
}

func (s *reviewService) ListFiles(ctx context.Context, userID uuid.UUID, productID int64) ([]ReviewFileView, error) {
	if _, err := s.productRepo.GetByID(ctx, userID, productID); err != nil {
		return nil, err
	}
	files, err := s.fileRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	views := make([]ReviewFileView, 0, len(files))
	for i := range files {
		v := ReviewFileView{ReviewFile: files[i]}
		url, err := s.storage.GetPresignedURL(ctx, files[i].S3Bucket, files[i].S3Key, s.presignExpiry)
		if err != nil {
			log.Printf("reviewService.ListFiles: presign %s: %v", files[i].S3Key, err)
		} else {
			v.DownloadURL = url
		}
		views = append(views, v)
	}
	return views, nil
}
