package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// sendWithSendgrid delivers through the Sendgrid v3 API. The template name is
// attached as a category so deliveries can be grouped in Sendgrid's stats.
func (s *Service) sendWithSendgrid(ctx context.Context, data EmailData, htmlContent, textContent string) error {
	from := mail.NewEmail(data.FromName, data.From)
	to := mail.NewEmail("", data.To)
	message := mail.NewSingleEmail(from, data.Subject, to, textContent, htmlContent)
	if data.TemplateName != "" {
		message.AddCategories(data.TemplateName)
	}

	response, err := s.sendgridClient.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sending email via Sendgrid: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("unexpected Sendgrid status code: %d, body: %s", response.StatusCode, response.Body)
	}

	var messageID string
	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		messageID = ids[0]
	}
	s.logger.DebugContext(ctx, "email accepted by Sendgrid", "template", data.TemplateName, "messageID", messageID)

	return nil
}
