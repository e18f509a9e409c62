package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/darshan-rambhia/poolwatch/internal/metrics"
	"github.com/darshan-rambhia/poolwatch/internal/model"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Result is the outcome of one Deliver call.
type Result struct {
	Provider  string
	Attempts  int
	Delivered bool
	// Err is the last failure; nil when delivered or when no attempt was
	// made.
	Err error
}

// Deliverer sends batches through a provider with a bounded number of
// attempts and a fixed delay between them.
type Deliverer struct {
	provider    Provider
	maxAttempts int
	delay       time.Duration
	sleep       SleepFunc
}

// NewDeliverer creates a Deliverer. A nil sleep uses Sleep. Zero
// maxAttempts disables delivery.
func NewDeliverer(p Provider, maxAttempts int, delay time.Duration, sleep SleepFunc) *Deliverer {
	if sleep == nil {
		sleep = Sleep
	}
	return &Deliverer{provider: p, maxAttempts: maxAttempts, delay: delay, sleep: sleep}
}

func (d *Deliverer) Name() string { return d.provider.Name() }

// Deliver sends the batch, retrying failed attempts. It never panics on
// provider failure and never returns an error; the outcome is in Result.
func (d *Deliverer) Deliver(ctx context.Context, batch model.Batch) Result {
	name := d.provider.Name()
	res := Result{Provider: name}
	if d.maxAttempts <= 0 {
		slog.Debug("notification delivery disabled", "provider", name)
		metrics.RecordNotificationSkipped(name)
		return res
	}

	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		res.Attempts = attempt
		metrics.RecordDeliveryAttempt(name)

		err := d.provider.Send(ctx, batch)
		if err == nil {
			res.Delivered = true
			res.Err = nil
			metrics.RecordNotification(name, true)
			slog.Debug("notification delivered", "provider", name, "attempt", attempt, "messages", len(batch))
			return res
		}
		res.Err = err
		slog.Warn("notification attempt failed",
			"provider", name, "attempt", attempt, "max_attempts", d.maxAttempts, "error", err)

		if attempt == d.maxAttempts {
			break
		}
		if err := d.sleep(ctx, d.delay); err != nil {
			slog.Warn("notification retry aborted", "provider", name, "error", err)
			break
		}
	}

	slog.Error("notification not delivered", "provider", name, "attempts", res.Attempts, "error", res.Err)
	metrics.RecordNotification(name, false)
	return res
}
