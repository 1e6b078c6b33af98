package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	donationapp "github.com/sharehub/backend/internal/application/donation"
	"github.com/sharehub/backend/internal/infrastructure/config"
)

const defaultQueueKey = "donation:emails"

// RedisQueue keeps pending messages in a Redis list (LPUSH / BRPOP) so that
// several API instances can share one set of mail workers.
type RedisQueue struct {
	client      *redis.Client
	key         string
	pollTimeout time.Duration
}

// NewRedisQueue connects to Redis and verifies the connection
func NewRedisQueue(ctx context.Context, cfg config.RedisConfig) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisQueueWithClient(client, cfg.QueueKey), nil
}

// NewRedisQueueWithClient creates a queue on an existing client
func NewRedisQueueWithClient(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = defaultQueueKey
	}
	return &RedisQueue{
		client:      client,
		key:         key,
		pollTimeout: 5 * time.Second,
	}
}

// Enqueue pushes msg onto the list
func (q *RedisQueue) Enqueue(ctx context.Context, msg donationapp.EmailMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode email message: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue email message: %w", err)
	}
	return nil
}

// Dequeue pops the oldest message, waiting in pollTimeout slices until ctx is done
func (q *RedisQueue) Dequeue(ctx context.Context) (donationapp.EmailMessage, error) {
	for {
		if err := ctx.Err(); err != nil {
			return donationapp.EmailMessage{}, err
		}

		result, err := q.client.BRPop(ctx, q.pollTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return donationapp.EmailMessage{}, ctx.Err()
			}
			return donationapp.EmailMessage{}, fmt.Errorf("failed to dequeue email message: %w", err)
		}

		// result is [key, value]
		var msg donationapp.EmailMessage
		if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
			return donationapp.EmailMessage{}, fmt.Errorf("failed to decode email message: %w", err)
		}
		return msg, nil
	}
}

// Close closes the Redis client
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

var _ Queue = (*RedisQueue)(nil)
