package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"reviewhub/internal/domain"
)

// MockReviewRepo is a mock implementation of port.ReviewRepository.
type MockReviewRepo struct {
	mock.Mock
}

func (m *MockReviewRepo) Exists(ctx context.Context, productID int64, text string, day time.Time) (bool, error) {
	args := m.Called(ctx, productID, text, day)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewRepo) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepo) ListByProduct(ctx context.Context, productID int64, offset, limit int) ([]domain.Review, int, error) {
	args := m.Called(ctx, productID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}
