// Package delivery drains queued email deliveries.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/roomdesk/roomdesk/internal/services/notifications/render"
	"github.com/roomdesk/roomdesk/internal/services/notifications/storage"
)

// Delivery outcomes reported to the Recorder.
const (
	OutcomeDelivered = "delivered"
	OutcomeRetry     = "retry"
	OutcomeFailed    = "failed"
)

// Message is one rendered email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender hands a rendered email to a transport. Wrapping the error with
// backoff.Permanent marks the delivery failed without further attempts.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Recorder counts delivery outcomes.
type Recorder interface {
	EmailDelivery(outcome string)
}

// Config tunes the worker loop.
type Config struct {
	PollInterval   time.Duration
	BatchSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// Jitter is the randomization factor applied to retry delays.
	Jitter float64
}

// DefaultConfig returns the production worker tuning.
func DefaultConfig() Config {
	return Config{
		PollInterval:   5 * time.Second,
		BatchSize:      25,
		MaxAttempts:    6,
		InitialBackoff: 30 * time.Second,
		MaxBackoff:     30 * time.Minute,
		Jitter:         0.2,
	}
}

// Worker polls pending email deliveries and sends them.
type Worker struct {
	store    storage.DeliveryStore
	sender   Sender
	recorder Recorder
	cfg      Config
	clock    func() time.Time
}

// Option customizes a Worker.
type Option func(*Worker)

// WithRecorder sets the outcome recorder.
func WithRecorder(recorder Recorder) Option {
	return func(w *Worker) {
		w.recorder = recorder
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(w *Worker) {
		if clock != nil {
			w.clock = clock
		}
	}
}

// NewWorker builds an email delivery worker. Zero config fields fall back
// to DefaultConfig.
func NewWorker(store storage.DeliveryStore, sender Sender, cfg Config, opts ...Option) *Worker {
	defaults := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaults.PollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaults.InitialBackoff
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = max(defaults.MaxBackoff, cfg.InitialBackoff)
	}
	if cfg.Jitter < 0 || cfg.Jitter >= 1 {
		cfg.Jitter = 0
	}
	w := &Worker{
		store:  store,
		sender: sender,
		cfg:    cfg,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.store == nil || w.sender == nil {
		return fmt.Errorf("delivery worker is not configured")
	}
	log.Printf("mail worker started poll_interval=%s max_attempts=%d", w.cfg.PollInterval, w.cfg.MaxAttempts)
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	for {
		if _, err := w.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("mail worker poll failed err=%v", err)
		}
		select {
		case <-ctx.Done():
			log.Printf("mail worker stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce sends one batch of due deliveries and reports how many it handled.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	pending, err := w.store.ListPendingDeliveries(ctx, storage.DeliveryChannelEmail, w.cfg.BatchSize, w.now())
	if err != nil {
		return 0, fmt.Errorf("list pending deliveries: %w", err)
	}
	handled := 0
	for _, item := range pending {
		if err := ctx.Err(); err != nil {
			return handled, err
		}
		if err := w.deliver(ctx, item); err != nil {
			return handled, err
		}
		handled++
	}
	return handled, nil
}

func (w *Worker) deliver(ctx context.Context, item storage.PendingDelivery) error {
	notification := item.Notification
	attempt := item.Delivery.AttemptCount + 1

	out := render.Render(render.PrinterFor(notification.Locale), render.Input{
		Topic:       notification.Topic,
		PayloadJSON: notification.PayloadJSON,
		Channel:     render.ChannelEmail,
	})
	sendErr := w.sender.Send(ctx, Message{
		To:      notification.RecipientEmail,
		Subject: out.EmailSubject,
		Body:    out.BodyText,
	})
	now := w.now()
	if sendErr == nil {
		w.record(OutcomeDelivered)
		return w.store.MarkDeliverySucceeded(ctx, notification.ID, storage.DeliveryChannelEmail, attempt, now)
	}

	var permanent *backoff.PermanentError
	if errors.As(sendErr, &permanent) || attempt >= w.cfg.MaxAttempts {
		log.Printf("mail delivery failed notification_id=%s attempt=%d err=%v", notification.ID, attempt, sendErr)
		w.record(OutcomeFailed)
		return w.store.MarkDeliveryFailed(ctx, notification.ID, storage.DeliveryChannelEmail, attempt, now, sendErr.Error())
	}

	delay := w.RetryDelay(attempt)
	log.Printf("mail delivery retry notification_id=%s attempt=%d retry_in=%s err=%v", notification.ID, attempt, delay, sendErr)
	w.record(OutcomeRetry)
	return w.store.MarkDeliveryRetry(ctx, notification.ID, storage.DeliveryChannelEmail, attempt, now.Add(delay), sendErr.Error())
}

// RetryDelay returns the wait after the given failed attempt (1-based).
func (w *Worker) RetryDelay(attempt int) time.Duration {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     w.cfg.InitialBackoff,
		RandomizationFactor: w.cfg.Jitter,
		Multiplier:          2,
		MaxInterval:         w.cfg.MaxBackoff,
	}
	b.Reset()
	delay := b.NextBackOff()
	for i := 1; i < attempt; i++ {
		delay = b.NextBackOff()
	}
	return delay
}

func (w *Worker) record(outcome string) {
	if w.recorder != nil {
		w.recorder.EmailDelivery(outcome)
	}
}

func (w *Worker) now() time.Time {
	return w.clock().UTC().Truncate(time.Millisecond)
}
