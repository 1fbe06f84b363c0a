package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"reviewhub/internal/domain"
)

// MockReviewFileRepo is a mock implementation of port.ReviewFileRepository.
type MockReviewFileRepo struct {
	mock.Mock
}

func (m *MockReviewFileRepo) Create(ctx context.Context, file *domain.ReviewFile) error {
	args := m.Called(ctx, file)
	return args.Error(0)
}

func (m *MockReviewFileRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]domain.ReviewFile, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReviewFile), args.Error(1)
}

func (m *MockReviewFileRepo) ListByProduct(ctx context.Context, productID int64) ([]domain.ReviewFile, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReviewFile), args.Error(1)
}

func (m *MockReviewFileRepo) UpdateStatus(ctx context.Context, fileID uuid.UUID, status domain.FileStatus, rowsInserted int, errMsg string) error {
	args := m.Called(ctx, fileID, status, rowsInserted, errMsg)
	return args.Error(0)
}
