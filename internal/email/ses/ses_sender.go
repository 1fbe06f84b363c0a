package ses

import (
	"context"
	"fmt"
	"html"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"reviewhub/internal/domain"
	"reviewhub/internal/port"
)

type sesSender struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
	frontendURL string
}

// NewSESSender creates a new SES-backed EmailSender.
func NewSESSender(region, fromAddress, fromName, frontendURL string) (port.EmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	return &sesSender{
		client:      sesv2.NewFromConfig(cfg),
		fromAddress: fromAddress,
		fromName:    fromName,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}, nil
}

func (s *sesSender) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	subject := "Welcome to ReviewHub"
	htmlBody := buildWelcomeHTML(toName, s.frontendURL)
	textBody := fmt.Sprintf("Hi %s,\n\nYour ReviewHub account is ready. Sign in at %s to add products and upload review files.\n\nReviewHub Team", toName, s.frontendURL)
	return s.send(ctx, toEmail, subject, htmlBody, textBody)
}

func (s *sesSender) SendIngestionReport(ctx context.Context, toEmail, toName string, report *domain.IngestReport) error {
	subject := fmt.Sprintf("Review upload finished for %s", report.ProductName)
	productURL := fmt.Sprintf("%s/products/%d", s.frontendURL, report.ProductID)
	htmlBody := buildReportHTML(toName, productURL, report)
	textBody := buildReportText(toName, productURL, report)
	return s.send(ctx, toEmail, subject, htmlBody, textBody)
}

func (s *sesSender) send(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildWelcomeHTML(name, frontendURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Welcome to ReviewHub</h2>
  <p>Hi %s,</p>
  <p>Your account is ready. Add a product and upload CSV or Excel review exports to get started.</p>
  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Open ReviewHub</a>
  </p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">ReviewHub - Product Review Analytics</p>
</body>
</html>`, html.EscapeString(name), frontendURL)
}

func buildReportText(name, productURL string, r *domain.IngestReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nYour review upload for %s has finished.\n\n", name, r.ProductName)
	fmt.Fprintf(&b, "Files: %d\nReviews added: %d\nDuplicates skipped: %d\nRows skipped: %d\n", r.Files, r.Inserted, r.Duplicates, r.Skipped)
	if r.Inserted > 0 {
		fmt.Fprintf(&b, "Mean rating: %.2f\nMedian rating: %.2f\n", r.MeanRating, r.MedianRating)
	}
	if len(r.FileErrors) > 0 {
		b.WriteString("\nProblems:\n")
		for _, e := range r.FileErrors {
			fmt.Fprintf(&b, "  - %s\n", e)
		}
	}
	fmt.Fprintf(&b, "\nView the product: %s\n\nReviewHub Team", productURL)
	return b.String()
}

func buildReportHTML(name, productURL string, r *domain.IngestReport) string {
	var problems strings.Builder
	if len(r.FileErrors) > 0 {
		problems.WriteString(`<p>Some files had problems:</p><ul style="color: #b91c1c;">`)
		for _, e := range r.FileErrors {
			fmt.Fprintf(&problems, "<li>%s</li>", html.EscapeString(e))
		}
		problems.WriteString("</ul>")
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Review upload finished</h2>
  <p>Hi %s,</p>
  <p>Your review upload for <strong>%s</strong> has finished.</p>
  <table style="border-collapse: collapse; margin: 20px 0;">
    <tr><td style="padding: 4px 12px;">Files</td><td>%d</td></tr>
    <tr><td style="padding: 4px 12px;">Reviews added</td><td>%d</td></tr>
    <tr><td style="padding: 4px 12px;">Duplicates skipped</td><td>%d</td></tr>
    <tr><td style="padding: 4px 12px;">Rows skipped</td><td>%d</td></tr>
    <tr><td style="padding: 4px 12px;">Mean rating</td><td>%.2f</td></tr>
    <tr><td style="padding: 4px 12px;">Median rating</td><td>%.2f</td></tr>
  </table>
  %s
  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">View Product</a>
  </p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">ReviewHub - Product Review Analytics</p>
</body>
</html>`, html.EscapeString(name), html.EscapeString(r.ProductName),
		r.Files, r.Inserted, r.Duplicates, r.Skipped, r.MeanRating, r.MedianRating,
		problems.String(), productURL)
}
