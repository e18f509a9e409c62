package collector

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCollector counts calls and optionally fails or panics.
type mockCollector struct {
	name     string
	interval time.Duration
	err      error
	panicOn  int32
	calls    atomic.Int32
}

func (m *mockCollector) Name() string            { return m.name }
func (m *mockCollector) Interval() time.Duration { return m.interval }

func (m *mockCollector) Collect(_ context.Context) error {
	n := m.calls.Add(1)
	if m.panicOn > 0 && n == m.panicOn {
		panic("unexpected nil pool")
	}
	return m.err
}

func TestRun_ImmediateCollectThenInterval(t *testing.T) {
	mc := &mockCollector{
		name:     "test-collector",
		interval: 50 * time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Millisecond)
	defer cancel()

	err := Run(ctx, mc)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	got := int(mc.calls.Load())
	assert.GreaterOrEqual(t, got, 3, "expected at least 3 collections (immediate + 2 intervals), got %d", got)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	mc := &mockCollector{
		name:     "cancel-collector",
		interval: 1 * time.Hour,
	}

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, mc)
	}()

	require.Eventually(t, func() bool { return mc.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancel")
	}

	assert.Equal(t, int32(1), mc.calls.Load(), "should have collected exactly once (immediate)")
}

func TestRun_ContinuesOnCollectError(t *testing.T) {
	mc := &mockCollector{
		name:     "error-collector",
		interval: 30 * time.Millisecond,
		err:      errors.New("collection failed"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := Run(ctx, mc)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, int(mc.calls.Load()), 2)
}

func TestRun_PanicIsFatal(t *testing.T) {
	mc := &mockCollector{
		name:     "panic-collector",
		interval: 10 * time.Millisecond,
		panicOn:  2,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := Run(ctx, mc)
	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, "panic-collector", fatal.Collector)
	assert.Equal(t, "unexpected nil pool", fatal.Panic)
	assert.NotEmpty(t, fatal.Stack)
	assert.Contains(t, err.Error(), "panic-collector panicked")
	assert.Equal(t, int32(2), mc.calls.Load())
}
