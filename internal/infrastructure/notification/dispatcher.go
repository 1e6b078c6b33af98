package notification

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	donationapp "github.com/sharehub/backend/internal/application/donation"
	"go.uber.org/zap"
)

// DispatcherConfig holds worker pool settings
type DispatcherConfig struct {
	Workers     int
	SendTimeout time.Duration
}

// DefaultDispatcherConfig returns the default worker pool settings
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Workers:     2,
		SendTimeout: 10 * time.Second,
	}
}

// Dispatcher drains a Queue with a fixed pool of workers.
// Each message is attempted once; send failures are logged and dropped.
type Dispatcher struct {
	queue  Queue
	mailer Mailer
	logger *zap.Logger
	config DispatcherConfig

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher
func NewDispatcher(queue Queue, mailer Mailer, logger *zap.Logger, cfg DispatcherConfig) *Dispatcher {
	defaults := DefaultDispatcherConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaults.SendTimeout
	}
	return &Dispatcher{
		queue:  queue,
		mailer: mailer,
		logger: logger.Named("notification"),
		config: cfg,
	}
}

// Start launches the workers. It returns an error if already running.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return errors.New("dispatcher already running")
	}

	workerCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running = true

	for i := 0; i < d.config.Workers; i++ {
		d.wg.Add(1)
		go d.work(workerCtx, i)
	}

	d.logger.Info("Notification dispatcher started",
		zap.Int("workers", d.config.Workers),
		zap.Duration("send_timeout", d.config.SendTimeout),
	)
	return nil
}

// Stop signals the workers and waits for in-flight sends, bounded by ctx
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	d.cancel()
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("Notification dispatcher stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatcher stop: %w", ctx.Err())
	}
}

// IsRunning reports whether workers are active
func (d *Dispatcher) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

func (d *Dispatcher) work(ctx context.Context, id int) {
	defer d.wg.Done()
	log := d.logger.With(zap.Int("worker", id))

	for {
		msg, err := d.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("Failed to dequeue email", zap.Error(err))
			// avoid spinning on a broken backend
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		d.deliver(ctx, log, msg)
	}
}

// deliver sends one message. An in-flight send is not cut short by Stop,
// only by its own timeout.
func (d *Dispatcher) deliver(ctx context.Context, log *zap.Logger, msg donationapp.EmailMessage) {
	if msg.RequestID != "" {
		log = log.With(zap.String("request_id", msg.RequestID))
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("Mailer panicked",
				zap.Any("panic", r),
				zap.String("to", msg.To),
				zap.String("stack", string(debug.Stack())),
			)
		}
	}()

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.config.SendTimeout)
	defer cancel()

	start := time.Now()
	if err := d.mailer.Send(sendCtx, msg); err != nil {
		log.Error("Failed to send email",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
		return
	}
	log.Info("Email sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Duration("duration", time.Since(start)),
	)
}
