// Package metrics exposes Prometheus metrics for the poll loop and
// notification delivery.
package metrics

import (
	"time"

	"github.com/darshan-rambhia/poolwatch/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Poll cycle results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Notification results.
const (
	ResultDelivered = "delivered"
	ResultExhausted = "exhausted"
	ResultSkipped   = "skipped"
)

// Device states used as gauge labels.
const (
	StateOnline   = "online"
	StateDegraded = "degraded"
	StateOffline  = "offline"
)

var (
	PollCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poolwatch_poll_cycles_total",
			Help: "Total number of poll cycles by result",
		},
		[]string{"result"},
	)

	LastPollTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "poolwatch_last_poll_timestamp_seconds",
			Help: "Unix time of the last successful poll cycle",
		},
	)

	// Delivery metrics
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poolwatch_notifications_total",
			Help: "Total number of notification batches by provider and result",
		},
		[]string{"provider", "result"},
	)

	DeliveryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poolwatch_delivery_attempts_total",
			Help: "Total number of delivery attempts by provider",
		},
		[]string{"provider"},
	)

	PoolDevices = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "poolwatch_pool_devices",
			Help: "Number of devices per pool by state",
		},
		[]string{"pool", "state"},
	)
)

// RecordPollCycle records the outcome of one poll cycle.
func RecordPollCycle(err error, at time.Time) {
	if err != nil {
		PollCyclesTotal.WithLabelValues(ResultError).Inc()
		return
	}
	PollCyclesTotal.WithLabelValues(ResultOK).Inc()
	LastPollTimestamp.Set(float64(at.Unix()))
}

// RecordDeliveryAttempt records one delivery attempt
func RecordDeliveryAttempt(provider string) {
	DeliveryAttemptsTotal.WithLabelValues(provider).Inc()
}

// RecordNotification records the final outcome of a batch delivery.
func RecordNotification(provider string, delivered bool) {
	result := ResultExhausted
	if delivered {
		result = ResultDelivered
	}
	NotificationsTotal.WithLabelValues(provider, result).Inc()
}

// RecordNotificationSkipped records a batch that was not sent, e.g. because
// no delivery attempts are configured.
func RecordNotificationSkipped(provider string) {
	NotificationsTotal.WithLabelValues(provider, ResultSkipped).Inc()
}

// RecordSnapshot replaces the per-pool device gauges. Pools that have
// disappeared since the last snapshot are dropped.
func RecordSnapshot(snap *model.Snapshot) {
	PoolDevices.Reset()
	if snap == nil {
		return
	}
	for name, pool := range snap.Vdevs.All() {
		PoolDevices.WithLabelValues(name, StateOnline).Set(float64(pool.Online))
		PoolDevices.WithLabelValues(name, StateDegraded).Set(float64(pool.Degraded))
		PoolDevices.WithLabelValues(name, StateOffline).Set(float64(pool.Offline()))
	}
}
