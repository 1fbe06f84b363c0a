package noop

import (
	"context"
	"log"

	"reviewhub/internal/domain"
	"reviewhub/internal/port"
)

type noopSender struct{}

// NewNoopSender creates an EmailSender that only logs what it would send.
func NewNoopSender() port.EmailSender {
	return &noopSender{}
}

func (s *noopSender) SendWelcomeEmail(_ context.Context, toEmail, toName string) error {
	log.Printf("[NOOP EMAIL] Welcome email for %s (%s)", toName, toEmail)
	return nil
}

func (s *noopSender) SendIngestionReport(_ context.Context, toEmail, toName string, report *domain.IngestReport) error {
	log.Printf("[NOOP EMAIL] Ingestion report for %s (%s): task=%s product=%d inserted=%d skipped=%d duplicates=%d errors=%d",
		toName, toEmail, report.TaskID, report.ProductID,
		report.Inserted, report.Skipped, report.Duplicates, len(report.FileErrors))
	return nil
}
