package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"reviewhub/internal/domain"
)

// MockEmailSender is a mock implementation of port.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	args := m.Called(ctx, toEmail, toName)
	return args.Error(0)
}

func (m *MockEmailSender) SendIngestionReport(ctx context.Context, toEmail, toName string, report *domain.IngestReport) error {
	args := m.Called(ctx, toEmail, toName, report)
	return args.Error(0)
}
