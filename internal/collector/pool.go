package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/darshan-rambhia/poolwatch/internal/metrics"
	"github.com/darshan-rambhia/poolwatch/internal/model"
	"github.com/darshan-rambhia/poolwatch/internal/zpool"
)

// Checker receives every new snapshot. It owns change detection and
// publishing.
type Checker interface {
	Check(ctx context.Context, snap *model.Snapshot) model.Batch
}

// PoolCollector runs zpool status, classifies the result and hands the
// snapshot to a Checker.
type PoolCollector struct {
	source    zpool.Source
	checker   Checker
	pools     []string
	showSpace bool
	interval  time.Duration
	now       func() time.Time
}

// PoolCollectorConfig configures a PoolCollector.
type PoolCollectorConfig struct {
	Pools     []string
	ShowSpace bool
	Interval  time.Duration
}

// NewPoolCollector creates a collector for the given source.
func NewPoolCollector(source zpool.Source, checker Checker, cfg PoolCollectorConfig) *PoolCollector {
	return &PoolCollector{
		source:    source,
		checker:   checker,
		pools:     cfg.Pools,
		showSpace: cfg.ShowSpace,
		interval:  cfg.Interval,
		now:       time.Now,
	}
}

func (c *PoolCollector) Name() string            { return "zpool" }
func (c *PoolCollector) Interval() time.Duration { return c.interval }

// Collect runs one poll cycle. On error the previous snapshot is kept.
func (c *PoolCollector) Collect(ctx context.Context) error {
	snap, err := c.Snapshot(ctx)
	metrics.RecordPollCycle(err, c.now())
	if err != nil {
		return err
	}
	metrics.RecordSnapshot(snap)

	batch := c.checker.Check(ctx, snap)
	slog.Debug("poll cycle complete", "pools", snap.Vdevs.Len(), "messages", len(batch))
	return nil
}

// Snapshot fetches and classifies the current status without notifying.
func (c *PoolCollector) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	st, err := c.source.Status(ctx, c.pools)
	if err != nil {
		return nil, fmt.Errorf("fetching pool status: %w", err)
	}
	snap, err := Classify(st, c.showSpace)
	if err != nil {
		return nil, fmt.Errorf("classifying pool status: %w", err)
	}
	return snap, nil
}
