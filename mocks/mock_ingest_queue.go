package mocks

import (
	"github.com/stretchr/testify/mock"

	"reviewhub/internal/service"
)

// MockIngestQueue is a mock implementation of service.IngestQueue.
type MockIngestQueue struct {
	mock.Mock
}

func (m *MockIngestQueue) Enqueue(job service.IngestJob) error {
	args := m.Called(job)
	return args.Error(0)
}
