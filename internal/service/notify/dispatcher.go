// Package notify fans "new content" emails out to subscribers and drains the
// notification outbox.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/regpulse-backend/internal/domain"
)

type subscriberSource interface {
	SubscribersFor(ctx context.Context, k domain.Kind) ([]domain.Subscriber, error)
}

type mailSender interface {
	Send(ctx context.Context, msg domain.Message) error
}

type notificationRecorder interface {
	AddNotifications(kind, outcome string, n int)
}

// RecipientFailure is one subscriber the notice could not be delivered to.
type RecipientFailure struct {
	UserID int64
	Email  string
	Err    error
}

// Report summarizes one fan-out.
type Report struct {
	Attempted int
	Sent      int
	Failures  []RecipientFailure
}

// Summary renders the failures for storage, or "" when every send succeeded.
func (r Report) Summary() string {
	if len(r.Failures) == 0 {
		return ""
	}
	return fmt.Sprintf("%d of %d recipients failed; first: %s: %v",
		len(r.Failures), r.Attempted, r.Failures[0].Email, r.Failures[0].Err)
}

// Dispatcher sends one message per subscriber with bounded concurrency.
type Dispatcher struct {
	log         *slog.Logger
	subs        subscriberSource
	mail        mailSender
	concurrency int
	sendTimeout time.Duration
	metrics     notificationRecorder
}

// NewDispatcher creates a dispatcher. concurrency bounds in-flight sends;
// sendTimeout bounds each individual send.
func NewDispatcher(
	logger *slog.Logger,
	subs subscriberSource,
	mail mailSender,
	concurrency int,
	sendTimeout time.Duration,
	metrics notificationRecorder,
) *Dispatcher {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Dispatcher{
		log:         logger.With("service", "notify"),
		subs:        subs,
		mail:        mail,
		concurrency: concurrency,
		sendTimeout: sendTimeout,
		metrics:     metrics,
	}
}

// NotifyCreated emails every subscriber of kind k about a new record. A failed
// send never stops the others. The only error is a failure to load the
// subscriber set.
func (d *Dispatcher) NotifyCreated(ctx context.Context, k domain.Kind, snap domain.Snapshot) (Report, error) {
	subs, err := d.Recipients(ctx, k)
	if err != nil {
		return Report{}, err
	}
	return d.Deliver(ctx, k, snap, subs), nil
}

// Recipients loads the subscribers opted in to kind k.
func (d *Dispatcher) Recipients(ctx context.Context, k domain.Kind) ([]domain.Subscriber, error) {
	if !k.IsValid() {
		return nil, domain.NewValidationError("kind", "unknown content kind")
	}
	subs, err := d.subs.SubscribersFor(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("load %s subscribers: %w", k, err)
	}
	return subs, nil
}

// Deliver sends the notice for snap to each subscriber and waits for every
// send to finish.
func (d *Dispatcher) Deliver(ctx context.Context, k domain.Kind, snap domain.Snapshot, subs []domain.Subscriber) Report {
	report := Report{Attempted: len(subs)}
	if len(subs) == 0 {
		return report
	}

	schema := domain.MustSchema(k)
	errs := make([]error, len(subs))

	// Plain Group: one failed recipient must not cancel the rest.
	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, sub := range subs {
		g.Go(func() error {
			sendCtx := ctx
			if d.sendTimeout > 0 {
				var cancel context.CancelFunc
				sendCtx, cancel = context.WithTimeout(ctx, d.sendTimeout)
				defer cancel()
			}
			errs[i] = d.mail.Send(sendCtx, domain.NoticeFor(schema, snap, sub.Email))
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err == nil {
			report.Sent++
			continue
		}
		report.Failures = append(report.Failures, RecipientFailure{UserID: subs[i].UserID, Email: subs[i].Email, Err: err})
		d.log.WarnContext(ctx, "notification not delivered",
			slog.String("kind", k.String()),
			slog.Int64("record_id", snap.RecordID),
			slog.Int64("user_id", subs[i].UserID),
			slog.String("error", err.Error()),
		)
	}

	if d.metrics != nil {
		d.metrics.AddNotifications(k.String(), "sent", report.Sent)
		d.metrics.AddNotifications(k.String(), "failed", len(report.Failures))
	}

	d.log.InfoContext(ctx, "notifications dispatched",
		slog.String("kind", k.String()),
		slog.Int64("record_id", snap.RecordID),
		slog.Int("attempted", report.Attempted),
		slog.Int("sent", report.Sent),
		slog.Int("failed", len(report.Failures)),
	)

	return report
}
