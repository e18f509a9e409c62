// Package collector polls pool status and turns it into summary snapshots.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// Collector is the interface for periodic data collectors.
type Collector interface {
	Name() string
	Collect(ctx context.Context) error
	Interval() time.Duration
}

// FatalError is returned by Run when a collection cycle panics. It is the
// only error that should terminate the process.
type FatalError struct {
	Collector string
	Panic     any
	Stack     []byte
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("collector %s panicked: %v", e.Collector, e.Panic)
}

// Run starts a collector loop. It collects immediately, then waits the
// configured interval after each cycle completes. It blocks until the
// context is cancelled or a cycle panics.
func Run(ctx context.Context, c Collector) error {
	name := c.Name()
	interval := c.Interval()
	slog.Info("collector started", "name", name, "interval", interval)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("collector stopped", "name", name)
			return ctx.Err()
		case <-timer.C:
			if err := collectOnce(ctx, c); err != nil {
				return err
			}
			timer.Reset(interval)
		}
	}
}

func collectOnce(ctx context.Context, c Collector) (fatal error) {
	defer func() {
		if r := recover(); r != nil {
			fatal = &FatalError{Collector: c.Name(), Panic: r, Stack: debug.Stack()}
		}
	}()
	if err := c.Collect(ctx); err != nil {
		slog.Error("collection failed", "collector", c.Name(), "error", err)
	}
	return nil
}
