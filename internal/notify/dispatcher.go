package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesrussell/webwatch/internal/config"
	"github.com/jonesrussell/webwatch/internal/domain"
	"github.com/jonesrussell/webwatch/internal/logger"
)

// AttemptRecorder appends one delivery attempt to the audit trail.
type AttemptRecorder interface {
	Insert(ctx context.Context, log *domain.NotificationLog) error
}

// HitMarker flips a hit's notified flag after delivery.
type HitMarker interface {
	MarkNotified(ctx context.Context, id string) error
}

// Dispatcher fans a per-crawl hit digest out to a task's channels. Each
// channel gets its own retry budget, and every attempt writes exactly
// one audit row regardless of outcome. Delivery failure after the budget
// is exhausted never fails the crawl job itself.
type Dispatcher struct {
	notifiers map[string]Notifier
	attempts  AttemptRecorder
	hits      HitMarker
	log       logger.Interface

	maxAttempts int
	backoff     time.Duration
}

// NewDispatcher creates a dispatcher over the given notifiers.
func NewDispatcher(
	notifiers []Notifier,
	attempts AttemptRecorder,
	hits HitMarker,
	cfg config.NotifyConfig,
	log logger.Interface,
) *Dispatcher {
	byChannel := make(map[string]Notifier, len(notifiers))
	for _, n := range notifiers {
		byChannel[n.Channel()] = n
	}
	return &Dispatcher{
		notifiers:   byChannel,
		attempts:    attempts,
		hits:        hits,
		log:         log.WithComponent("dispatcher"),
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.Backoff,
	}
}

// Dispatch delivers the digest on every channel the task configures and
// marks the hits notified once at least one channel delivered. The
// returned error reports total delivery failure only; partial delivery
// is recorded in the audit trail, not surfaced as an error.
func (d *Dispatcher) Dispatch(ctx context.Context, task *domain.Task, msg *Message) error {
	if len(msg.Hits) == 0 {
		return nil
	}

	delivered := 0
	for _, channel := range task.Channels {
		notifier, ok := d.notifiers[channel]
		if !ok {
			d.log.Warn("no notifier for channel",
				"task_id", task.ID,
				"channel", channel,
			)
			continue
		}

		if d.deliver(ctx, task, channel, notifier, msg) {
			delivered++
		}
	}

	if delivered == 0 {
		return fmt.Errorf("all channels failed for task %s", task.ID)
	}

	for _, hit := range msg.Hits {
		if err := d.hits.MarkNotified(ctx, hit.ID); err != nil {
			d.log.Error("failed to mark hit notified",
				"hit_id", hit.ID,
				"error", err.Error(),
			)
		}
	}
	return nil
}

// deliver runs one channel's retry loop, writing one audit row per
// attempt. Returns true when an attempt succeeded.
func (d *Dispatcher) deliver(
	ctx context.Context,
	task *domain.Task,
	channel string,
	notifier Notifier,
	msg *Message,
) bool {
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		sendErr := notifier.Send(ctx, task.Target, msg)
		d.record(ctx, task, channel, attempt, msg, sendErr)

		if sendErr == nil {
			d.log.Info("notification delivered",
				"task_id", task.ID,
				"channel", channel,
				"attempt", attempt,
				"hits", len(msg.Hits),
			)
			return true
		}

		d.log.Warn("notification attempt failed",
			"task_id", task.ID,
			"channel", channel,
			"attempt", attempt,
			"error", sendErr.Error(),
		)

		if attempt < d.maxAttempts {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(d.backoff):
			}
		}
	}
	return false
}

// record writes one audit row per hit covered by the attempt. A digest
// of n hits therefore produces n rows for each attempt, all sharing the
// attempt number and outcome.
func (d *Dispatcher) record(
	ctx context.Context,
	task *domain.Task,
	channel string,
	attempt int,
	msg *Message,
	sendErr error,
) {
	outcome := domain.NotifySuccess
	var errText *string
	if sendErr != nil {
		outcome = domain.NotifyFailure
		text := sendErr.Error()
		errText = &text
	}

	for _, hit := range msg.Hits {
		row := &domain.NotificationLog{
			HitID:   hit.ID,
			TaskID:  task.ID,
			Channel: channel,
			Target:  task.Target,
			Attempt: attempt,
			Outcome: outcome,
			Error:   errText,
		}
		if err := d.attempts.Insert(ctx, row); err != nil {
			d.log.Error("failed to record notification attempt",
				"task_id", task.ID,
				"hit_id", hit.ID,
				"channel", channel,
				"error", err.Error(),
			)
		}
	}
}
