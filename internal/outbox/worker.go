// Package outbox drains the transactional outbox. Application services
// enqueue messages in the same database as their state changes; the worker
// polls for due messages and hands them to the broker publisher, so a broker
// outage never loses a notification.
package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/desk-booking/internal/logging"
	"github.com/example/desk-booking/internal/persistence"
)

const (
	baseRetryDelay = 30 * time.Second
	maxRetryDelay  = 30 * time.Minute
)

// Publisher delivers one message to the broker.
type Publisher interface {
	Publish(ctx context.Context, message persistence.OutboxMessage) error
}

// Worker polls the outbox and publishes due messages.
type Worker struct {
	outbox       persistence.OutboxRepository
	publisher    Publisher
	pollInterval time.Duration
	batchSize    int
	maxAttempts  int
	now          func() time.Time
	logger       *slog.Logger
}

// Options tunes the polling loop. Zero values fall back to safe defaults.
type Options struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	Now          func() time.Time
	Logger       *slog.Logger
}

func NewWorker(outbox persistence.OutboxRepository, publisher Publisher, opts Options) *Worker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 8
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Worker{
		outbox:       outbox,
		publisher:    publisher,
		pollInterval: opts.PollInterval,
		batchSize:    opts.BatchSize,
		maxAttempts:  opts.MaxAttempts,
		now:          opts.Now,
		logger:       logging.WithComponent(opts.Logger, "outbox_worker"),
	}
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.InfoContext(ctx, "outbox worker started",
		"poll_interval", w.pollInterval,
		"batch_size", w.batchSize,
		"max_attempts", w.maxAttempts,
	)

	for {
		if err := w.DrainOnce(ctx); err != nil {
			w.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
		}

		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "outbox worker stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// DrainOnce publishes every message that is currently due. Per-message
// failures are recorded on the message and do not stop the batch.
func (w *Worker) DrainOnce(ctx context.Context) error {
	now := w.now()
	messages, err := w.outbox.ListDue(ctx, now, w.batchSize)
	if err != nil {
		return err
	}

	for _, message := range messages {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.deliver(ctx, message)
	}
	return nil
}

func (w *Worker) deliver(ctx context.Context, message persistence.OutboxMessage) {
	logger := w.logger.With("message_id", message.ID, "topic", message.Topic, "attempts", message.Attempts)

	if err := w.publisher.Publish(ctx, message); err != nil {
		nextAttempt := w.now().Add(retryDelay(message.Attempts))
		logger.WarnContext(ctx, "outbox delivery failed",
			"error", err,
			"next_attempt_at", nextAttempt,
		)
		if markErr := w.outbox.MarkFailed(ctx, message.ID, err.Error(), nextAttempt, w.maxAttempts); markErr != nil {
			logger.ErrorContext(ctx, "failed to record delivery failure", "error", markErr)
		}
		return
	}

	if err := w.outbox.MarkSent(ctx, message.ID, w.now()); err != nil {
		// The message was published but not marked, so the next poll
		// may deliver it again. Consumers must tolerate duplicates.
		logger.ErrorContext(ctx, "failed to mark message as sent", "error", err)
		return
	}
	logger.InfoContext(ctx, "outbox message published")
}

// retryDelay doubles per attempt starting from baseRetryDelay, capped at
// maxRetryDelay.
func retryDelay(attempts int) time.Duration {
	delay := baseRetryDelay
	for i := 0; i < attempts; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return delay
}
