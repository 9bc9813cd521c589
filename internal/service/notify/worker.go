package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/heartmarshall/regpulse-backend/internal/config"
	"github.com/heartmarshall/regpulse-backend/internal/domain"
)

const (
	pruneInterval = time.Hour
	maxRetryDelay = time.Hour
)

type outboxStore interface {
	Claim(ctx context.Context, limit int, lease time.Duration) ([]domain.OutboxMessage, error)
	MarkDispatched(ctx context.Context, id int64, lastErr string) error
	Annotate(ctx context.Context, id int64, lastErr string) error
	Release(ctx context.Context, id int64, lastErr string, retryAfter time.Duration) error
	PruneDispatched(ctx context.Context, olderThan time.Duration) (int64, error)
}

type fanout interface {
	Recipients(ctx context.Context, k domain.Kind) ([]domain.Subscriber, error)
	Deliver(ctx context.Context, k domain.Kind, snap domain.Snapshot, subs []domain.Subscriber) Report
}

type outboxRecorder interface {
	IncOutbox(outcome string)
}

// Worker drains the notification outbox. It polls on an interval and can be
// woken early after a create commits.
type Worker struct {
	log     *slog.Logger
	store   outboxStore
	fanout  fanout
	cfg     config.NotifyConfig
	lease   time.Duration
	wake    chan struct{}
	metrics outboxRecorder
}

// NewWorker creates an outbox worker.
func NewWorker(logger *slog.Logger, store outboxStore, fanout fanout, cfg config.NotifyConfig, metrics outboxRecorder) *Worker {
	return &Worker{
		log:    logger.With("service", "notify_worker"),
		store:  store,
		fanout: fanout,
		cfg:    cfg,
		// A claimed message is only held while its recipients are looked up.
		lease:   time.Minute,
		wake:    make(chan struct{}, 1),
		metrics: metrics,
	}
}

// Wake asks the worker to poll now. It never blocks.
func (w *Worker) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Run processes the outbox until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	poll := time.NewTicker(w.cfg.PollInterval)
	defer poll.Stop()
	prune := time.NewTicker(pruneInterval)
	defer prune.Stop()

	w.log.InfoContext(ctx, "notification worker started",
		slog.Duration("poll_interval", w.cfg.PollInterval),
		slog.Int("batch_size", w.cfg.BatchSize))

	for {
		w.drain(ctx)

		select {
		case <-ctx.Done():
			w.log.Info("notification worker stopped")
			return nil
		case <-poll.C:
		case <-w.wake:
		case <-prune.C:
			w.Prune(ctx)
		}
	}
}

// drain processes batches until the outbox is empty, a batch makes no
// progress, or an error occurs.
func (w *Worker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		claimed, dispatched, err := w.processBatch(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				w.log.ErrorContext(ctx, "claim outbox messages", slog.String("error", err.Error()))
			}
			return
		}
		if claimed < w.cfg.BatchSize || dispatched == 0 {
			return
		}
	}
}

// ProcessBatch claims and processes one batch. It returns the number of
// messages claimed.
func (w *Worker) ProcessBatch(ctx context.Context) (int, error) {
	claimed, _, err := w.processBatch(ctx)
	return claimed, err
}

func (w *Worker) processBatch(ctx context.Context) (claimed, dispatched int, err error) {
	msgs, err := w.store.Claim(ctx, w.cfg.BatchSize, w.lease)
	if err != nil {
		return 0, 0, err
	}
	for _, msg := range msgs {
		if w.process(ctx, msg) {
			dispatched++
		}
	}
	return len(msgs), dispatched, nil
}

// process handles one message and reports whether it was closed.
func (w *Worker) process(ctx context.Context, msg domain.OutboxMessage) bool {
	log := w.log.With(
		slog.Int64("message_id", msg.ID),
		slog.String("kind", msg.Kind.String()),
		slog.Int64("record_id", msg.Snapshot.RecordID),
	)

	subs, err := w.fanout.Recipients(ctx, msg.Kind)
	if err != nil {
		if ctx.Err() != nil {
			// Shutting down; the lease expires and another run picks it up.
			return false
		}
		return w.fail(ctx, log, msg, err)
	}

	// Close the message before sending so a crash mid-delivery never mails a
	// subscriber twice.
	if err := w.store.MarkDispatched(ctx, msg.ID, ""); err != nil {
		log.ErrorContext(ctx, "mark outbox message dispatched", slog.String("error", err.Error()))
		return false
	}

	report := w.fanout.Deliver(ctx, msg.Kind, msg.Snapshot, subs)
	w.record("dispatched")

	if summary := report.Summary(); summary != "" {
		if err := w.store.Annotate(ctx, msg.ID, summary); err != nil {
			log.WarnContext(ctx, "annotate outbox message", slog.String("error", err.Error()))
		}
	}
	return true
}

// fail releases msg for another attempt, or gives up after MaxAttempts. It
// reports whether the message was closed.
func (w *Worker) fail(ctx context.Context, log *slog.Logger, msg domain.OutboxMessage, cause error) bool {
	if msg.Attempts+1 >= w.cfg.MaxAttempts {
		log.ErrorContext(ctx, "giving up on notification",
			slog.Int("attempts", msg.Attempts+1),
			slog.String("error", cause.Error()))
		if err := w.store.MarkDispatched(ctx, msg.ID, cause.Error()); err != nil {
			log.ErrorContext(ctx, "dead-letter outbox message", slog.String("error", err.Error()))
		}
		w.record("dead_letter")
		return true
	}

	delay := w.retryDelay(msg.Attempts)
	log.WarnContext(ctx, "notification attempt failed",
		slog.Int("attempts", msg.Attempts+1),
		slog.Duration("retry_after", delay),
		slog.String("error", cause.Error()))
	if err := w.store.Release(ctx, msg.ID, cause.Error(), delay); err != nil {
		log.ErrorContext(ctx, "release outbox message", slog.String("error", err.Error()))
	}
	w.record("retry")
	return false
}

// retryDelay doubles the poll interval for every attempt already made, capped
// at maxRetryDelay.
func (w *Worker) retryDelay(attempts int) time.Duration {
	delay := w.cfg.PollInterval
	for i := 0; i < attempts && delay < maxRetryDelay; i++ {
		delay *= 2
	}
	return min(delay, maxRetryDelay)
}

// Prune deletes dispatched messages older than the configured retention.
func (w *Worker) Prune(ctx context.Context) int64 {
	n, err := w.store.PruneDispatched(ctx, w.cfg.Retention)
	if err != nil {
		w.log.ErrorContext(ctx, "prune outbox", slog.String("error", err.Error()))
		return 0
	}
	if n > 0 {
		w.log.InfoContext(ctx, "outbox pruned", slog.Int64("deleted", n))
	}
	return n
}

func (w *Worker) record(outcome string) {
	if w.metrics != nil {
		w.metrics.IncOutbox(outcome)
	}
}
