package notification

import (
	"context"
	"fmt"

	"github.com/sharehub/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewQueue creates the queue selected by cfg.Notification.Queue
func NewQueue(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Queue, error) {
	switch cfg.Notification.Queue {
	case "redis":
		q, err := NewRedisQueue(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		logger.Info("Using Redis notification queue",
			zap.String("addr", cfg.Redis.Addr()),
			zap.String("key", cfg.Redis.QueueKey),
		)
		return q, nil
	case "memory", "":
		logger.Info("Using in-memory notification queue",
			zap.Int("size", cfg.Notification.QueueSize),
		)
		return NewMemoryQueue(cfg.Notification.QueueSize), nil
	default:
		return nil, fmt.Errorf("unknown notification queue: %s", cfg.Notification.Queue)
	}
}

// NewMailer creates the mailer selected by cfg.Notification.Mailer
func NewMailer(cfg *config.Config, logger *zap.Logger) (Mailer, error) {
	switch cfg.Notification.Mailer {
	case "mailgun":
		return NewMailgunMailer(cfg.Mailgun, cfg.Notification.Sender)
	case "log", "":
		return NewLogMailer(logger), nil
	default:
		return nil, fmt.Errorf("unknown mailer: %s", cfg.Notification.Mailer)
	}
}
