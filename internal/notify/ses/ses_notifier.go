// Package ses mirrors operator notifications to a mailing list through Amazon SES.
package ses

import (
	"context"
	"fmt"
	"html"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"payops/internal/config"
	"payops/internal/domain"
	"payops/internal/port"
)

// emailAPI is the part of the SES client the notifier uses.
type emailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type sesNotifier struct {
	client     emailAPI
	from       string
	recipients []string
}

// NewSESNotifier creates an SES-backed Notifier sending to cfg.Recipients.
func NewSESNotifier(cfg *config.NotifyConfig) (port.Notifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	return newNotifier(sesv2.NewFromConfig(awsCfg), cfg), nil
}

func newNotifier(client emailAPI, cfg *config.NotifyConfig) *sesNotifier {
	return &sesNotifier{
		client:     client,
		from:       fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress),
		recipients: append([]string(nil), cfg.Recipients...),
	}
}

func (s *sesNotifier) Notify(ctx context.Context, n domain.Notification) error {
	subject := n.Title
	if n.Variant == domain.NotificationDestructive {
		subject = "[Action failed] " + subject
	}
	textBody := n.Description
	htmlBody := buildNotificationHTML(n)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &s.from,
		Destination: &types.Destination{
			ToAddresses: s.recipients,
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

func buildNotificationHTML(n domain.Notification) string {
	color := "#333"
	switch n.Variant {
	case domain.NotificationSuccess:
		color = "#15803D"
	case domain.NotificationDestructive:
		color = "#B91C1C"
	}
	body := strings.ReplaceAll(html.EscapeString(n.Description), "\n", "<br>")
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: %s;">%s</h2>
  <p>%s</p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">PayOps - Invoice Operations</p>
</body>
</html>`, color, html.EscapeString(n.Title), body)
}
