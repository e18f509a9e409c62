// Package cache holds the most recent pool snapshot.
package cache

import (
	"sync"
	"time"

	"github.com/darshan-rambhia/poolwatch/internal/model"
)

// Cache is a thread-safe holder for the latest snapshot. The poll loop is
// its only writer; snapshots are replaced wholesale and never mutated after
// publication, so readers may keep the pointer they get.
type Cache struct {
	mu sync.RWMutex

	snap     *model.Snapshot
	lastPoll time.Time
}

// New returns an empty Cache. Until the first Replace, Latest reports no
// snapshot and comparisons treat the previous state as absent.
func New() *Cache {
	return &Cache{}
}

// Latest returns the stored snapshot, if any.
func (c *Cache) Latest() (*model.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap, c.snap != nil
}

// Replace stores a new snapshot and records when it was taken.
func (c *Cache) Replace(snap *model.Snapshot, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = snap
	c.lastPoll = at
}

// LastPoll returns the time of the last Replace.
func (c *Cache) LastPoll() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastPoll
}
