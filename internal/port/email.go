package port

import (
	"context"

	"reviewhub/internal/domain"
)

// EmailSender defines the contract for sending emails.
type EmailSender interface {
	SendWelcomeEmail(ctx context.Context, toEmail, toName string) error
	SendIngestionReport(ctx context.Context, toEmail, toName string, report *domain.IngestReport) error
}
