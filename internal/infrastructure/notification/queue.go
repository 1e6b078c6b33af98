// Package notification delivers donation emails in the background.
//
// Request handlers enqueue rendered messages; a Dispatcher drains the queue
// with a small worker pool and hands each message to a Mailer. Delivery is
// at most once: a message that fails to send is logged and dropped.
package notification

import (
	"context"
	"errors"
	"sync"

	donationapp "github.com/sharehub/backend/internal/application/donation"
)

var (
	// ErrQueueFull is returned by Enqueue when the in-memory buffer is exhausted
	ErrQueueFull = errors.New("notification queue is full")
	// ErrQueueClosed is returned after Close
	ErrQueueClosed = errors.New("notification queue is closed")
)

// Queue buffers email messages between producers and the Dispatcher.
type Queue interface {
	donationapp.Notifier

	// Dequeue blocks until a message is available or ctx is done
	Dequeue(ctx context.Context) (donationapp.EmailMessage, error)

	Close() error
}

// MemoryQueue is a bounded in-process queue. Enqueue never blocks.
type MemoryQueue struct {
	messages chan donationapp.EmailMessage
	mu       sync.RWMutex
	closed   bool
}

// NewMemoryQueue creates a queue holding at most size pending messages
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 100
	}
	return &MemoryQueue{messages: make(chan donationapp.EmailMessage, size)}
}

// Enqueue adds msg without blocking
func (q *MemoryQueue) Enqueue(ctx context.Context, msg donationapp.EmailMessage) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Dequeue waits for the next message
func (q *MemoryQueue) Dequeue(ctx context.Context) (donationapp.EmailMessage, error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-ctx.Done():
		return donationapp.EmailMessage{}, ctx.Err()
	}
}

// Len returns the number of pending messages
func (q *MemoryQueue) Len() int {
	return len(q.messages)
}

// Close rejects further Enqueue calls. Pending messages can still be dequeued.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}

var _ Queue = (*MemoryQueue)(nil)
