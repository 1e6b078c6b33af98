package notification

import (
	"context"

	donationapp "github.com/sharehub/backend/internal/application/donation"
	"go.uber.org/zap"
)

// Mailer sends a single rendered email.
type Mailer interface {
	Send(ctx context.Context, msg donationapp.EmailMessage) error
}

// LogMailer writes messages to the log instead of sending them.
// Used in development when no mail provider is configured.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a LogMailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger.Named("mail")}
}

// Send logs the message
func (m *LogMailer) Send(_ context.Context, msg donationapp.EmailMessage) error {
	m.logger.Info("email not sent, log mailer active",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
	)
	return nil
}
