package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"reviewhub/internal/domain"
	"reviewhub/internal/service"
)

// MockReviewService is a mock implementation of service.ReviewService.
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) List(ctx context.Context, userID uuid.UUID, productID int64, offset, limit int) ([]domain.Review, int, error) {
	args := m.Called(ctx, userID, productID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *MockReviewService) ListFiles(ctx context.Context, userID uuid.UUID, productID int64) ([]service.ReviewFileView, error) {
	args := m.Called(ctx, userID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.ReviewFileView), args.Error(1)
}
