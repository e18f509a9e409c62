package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/darshan-rambhia/poolwatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	errs  []error
	calls int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Send(_ context.Context, _ model.Batch) error {
	s.calls++
	if len(s.errs) == 0 {
		return nil
	}
	err := s.errs[0]
	if len(s.errs) > 1 {
		s.errs = s.errs[1:]
	}
	return err
}

type sleepRecorder struct {
	calls []time.Duration
	err   error
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.calls = append(r.calls, d)
	return r.err
}

func TestDeliverExhaustsAttempts(t *testing.T) {
	p := &stubProvider{errs: []error{errors.New("connection refused")}}
	sl := &sleepRecorder{}
	d := NewDeliverer(p, 3, 5*time.Second, sl.sleep)

	res := d.Deliver(context.Background(), model.Batch{offlineMessage()})

	assert.Equal(t, 3, p.calls)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, sl.calls)
	assert.Equal(t, "stub", res.Provider)
	assert.Equal(t, 3, res.Attempts)
	assert.False(t, res.Delivered)
	assert.EqualError(t, res.Err, "connection refused")
}

func TestDeliverZeroAttempts(t *testing.T) {
	p := &stubProvider{}
	sl := &sleepRecorder{}
	d := NewDeliverer(p, 0, time.Second, sl.sleep)

	res := d.Deliver(context.Background(), model.Batch{offlineMessage()})

	assert.Zero(t, p.calls)
	assert.Empty(t, sl.calls)
	assert.Zero(t, res.Attempts)
	assert.False(t, res.Delivered)
	assert.NoError(t, res.Err)
}

func TestDeliverStopsOnSuccess(t *testing.T) {
	p := &stubProvider{errs: []error{&StatusError{Provider: "stub", Code: 429}, nil}}
	sl := &sleepRecorder{}
	d := NewDeliverer(p, 5, time.Second, sl.sleep)

	res := d.Deliver(context.Background(), model.Batch{offlineMessage()})

	assert.Equal(t, 2, p.calls)
	assert.Len(t, sl.calls, 1)
	assert.Equal(t, 2, res.Attempts)
	assert.True(t, res.Delivered)
	assert.NoError(t, res.Err)
}

func TestDeliverFirstAttemptSucceeds(t *testing.T) {
	p := &stubProvider{}
	sl := &sleepRecorder{}
	res := NewDeliverer(p, 3, time.Second, sl.sleep).Deliver(context.Background(), nil)

	assert.Equal(t, 1, p.calls)
	assert.Empty(t, sl.calls)
	assert.True(t, res.Delivered)
}

func TestDeliverAbortsWhenSleepCancelled(t *testing.T) {
	p := &stubProvider{errs: []error{errors.New("timeout")}}
	sl := &sleepRecorder{err: context.Canceled}
	res := NewDeliverer(p, 3, time.Second, sl.sleep).Deliver(context.Background(), nil)

	assert.Equal(t, 1, p.calls)
	assert.Equal(t, 1, res.Attempts)
	assert.False(t, res.Delivered)
	assert.EqualError(t, res.Err, "timeout")
}

func TestDeliverAgainstWebhook(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sl := &sleepRecorder{}
	d := NewDeliverer(NewWebhook(srv.URL), 3, time.Millisecond, sl.sleep)
	assert.Equal(t, "discord", d.Name())

	res := d.Deliver(context.Background(), model.Batch{degradedMessage()})
	assert.True(t, res.Delivered)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, int32(3), hits.Load())
	assert.Len(t, sl.calls, 2)
}

func TestSleep(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
