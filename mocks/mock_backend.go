package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"reviewhub/internal/domain"
	"reviewhub/internal/ingest"
)

// MockBackend is a mock implementation of ingest.Backend.
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) CreateProduct(ctx context.Context, in ingest.ProductInput) (int64, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBackend) UploadReviewFiles(ctx context.Context, productID int64, files []ingest.MappedFile) (*ingest.UploadTicket, error) {
	args := m.Called(ctx, productID, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ingest.UploadTicket), args.Error(1)
}

func (m *MockBackend) WatchProgress(ctx context.Context, productID int64, taskID string, emit func(domain.ProgressEvent)) error {
	args := m.Called(ctx, productID, taskID, emit)
	return args.Error(0)
}

// EmitProgress returns a Run function that feeds events to the emit
// callback passed to WatchProgress.
func EmitProgress(events ...domain.ProgressEvent) func(mock.Arguments) {
	return func(args mock.Arguments) {
		emit := args.Get(3).(func(domain.ProgressEvent))
		for _, ev := range events {
			emit(ev)
		}
	}
}
