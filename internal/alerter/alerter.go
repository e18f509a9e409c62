// Package alerter detects snapshot changes and sends the resulting
// notifications.
package alerter

import (
	"context"
	"log/slog"
	"time"

	"github.com/darshan-rambhia/poolwatch/internal/cache"
	"github.com/darshan-rambhia/poolwatch/internal/model"
	"github.com/darshan-rambhia/poolwatch/internal/notify"
)

// Deliverer sends a batch and reports the outcome.
type Deliverer interface {
	Name() string
	Deliver(ctx context.Context, batch model.Batch) notify.Result
}

// Config controls message composition.
type Config struct {
	// Verbose sends one message per changed pool instead of one summary.
	Verbose bool
	// Extra is appended to every message description.
	Extra string
}

// Alerter compares each new snapshot with the stored one, publishes it and
// notifies on change.
type Alerter struct {
	cache      *cache.Cache
	deliverers []Deliverer
	verbose    bool
	renderer   *Renderer
	now        func() time.Time
}

// NewAlerter creates a new alerter.
func NewAlerter(c *cache.Cache, deliverers []Deliverer, cfg Config) *Alerter {
	return &Alerter{
		cache:      c,
		deliverers: deliverers,
		verbose:    cfg.Verbose,
		renderer:   NewRenderer(cfg.Extra),
		now:        time.Now,
	}
}

// Check handles one snapshot and returns the messages it sent. The cache
// is always updated, whether or not anything changed.
func (a *Alerter) Check(ctx context.Context, snap *model.Snapshot) model.Batch {
	prev, _ := a.cache.Latest()
	changed := !prev.Equal(snap)

	var batch model.Batch
	if changed {
		batch = a.compose(prev, snap)
		attrs := []any{"status", snap.Severity(), "online", snap.Online, "total", snap.Total}
		if prev != nil {
			attrs = append(attrs, "previous", prev.Severity())
		}
		slog.Info("pool status changed", attrs...)
	}

	a.cache.Replace(snap, a.now())

	if len(batch) == 0 {
		if changed {
			slog.Debug("no pool messages for change")
		}
		return nil
	}
	for _, d := range a.deliverers {
		d.Deliver(ctx, batch)
	}
	return batch
}

func (a *Alerter) compose(prev, snap *model.Snapshot) model.Batch {
	if !a.verbose {
		return model.Batch{a.renderer.Render("", snap.AsNode())}
	}

	var batch model.Batch
	for name, pool := range snap.Vdevs.All() {
		var old *model.Node
		if prev != nil {
			old, _ = prev.Pool(name)
		}
		if !old.Equal(pool) {
			batch = append(batch, a.renderer.Render(name, pool))
		}
	}
	return batch
}
