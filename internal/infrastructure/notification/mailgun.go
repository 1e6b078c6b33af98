package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mailgun/mailgun-go/v3"
	donationapp "github.com/sharehub/backend/internal/application/donation"
	"github.com/sharehub/backend/internal/infrastructure/config"
)

// MailgunMailer sends email through the Mailgun HTTP API
type MailgunMailer struct {
	mg     mailgun.Mailgun
	sender string
}

// NewMailgunMailer creates a Mailgun-backed mailer
func NewMailgunMailer(cfg config.MailgunConfig, sender string) (*MailgunMailer, error) {
	if cfg.Domain == "" || cfg.APIKey == "" {
		return nil, errors.New("mailgun domain and api key are required")
	}
	if sender == "" {
		return nil, errors.New("mail sender is required")
	}

	mg := mailgun.NewMailgun(cfg.Domain, cfg.APIKey)
	if cfg.APIBase != "" {
		mg.SetAPIBase(mailgunAPIBase(cfg.APIBase))
	}
	return &MailgunMailer{mg: mg, sender: sender}, nil
}

// mailgunAPIBase appends the v3 API version unless base already names one.
// mailgun-go rejects bases without a /v2, /v3 or /v4 suffix at send time.
func mailgunAPIBase(base string) string {
	base = strings.TrimRight(base, "/")
	for _, version := range []string{"/v2", "/v3", "/v4"} {
		if strings.HasSuffix(base, version) {
			return base
		}
	}
	return base + "/v3"
}

// Send delivers msg as an HTML email with its plain text alternative
func (m *MailgunMailer) Send(ctx context.Context, msg donationapp.EmailMessage) error {
	message := m.mg.NewMessage(m.sender, msg.Subject, msg.Text, msg.To)
	message.SetHtml(msg.HTML)

	if _, _, err := m.mg.Send(ctx, message); err != nil {
		return fmt.Errorf("mailgun send to %s: %w", msg.To, err)
	}
	return nil
}
