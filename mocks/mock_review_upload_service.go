package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"reviewhub/internal/domain"
	"reviewhub/internal/ingest"
	"reviewhub/internal/service"
)

// MockReviewUploadService is a mock implementation of service.ReviewUploadService.
type MockReviewUploadService struct {
	mock.Mock
}

func (m *MockReviewUploadService) Upload(ctx context.Context, userID uuid.UUID, productID int64, input service.ReviewUploadInput) (*ingest.UploadTicket, error) {
	args := m.Called(ctx, userID, productID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ingest.UploadTicket), args.Error(1)
}

func (m *MockReviewUploadService) Task(userID uuid.UUID, productID int64, taskID uuid.UUID) (domain.UploadTask, error) {
	args := m.Called(userID, productID, taskID)
	return args.Get(0).(domain.UploadTask), args.Error(1)
}
