// Package prometheus provides the Prometheus implementations of the
// collectors declared in pkg/metrics. Importing it registers them.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/ordo/pkg/instance"
	"github.com/marmos91/ordo/pkg/metrics"
)

func init() {
	metrics.RegisterAdminMetricsConstructor(func() instance.Metrics {
		return NewAdminMetrics(metrics.GetRegistry())
	})
}

// adminMetrics is the Prometheus implementation of instance.Metrics.
type adminMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	leaderLive prometheus.Gauge
}

// NewAdminMetrics registers the admin collectors with reg.
func NewAdminMetrics(reg prometheus.Registerer) *adminMetrics {
	return &adminMetrics{
		operations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ordo_admin_operations_total",
				Help: "Total number of lifecycle operations by operation and result",
			},
			[]string{"operation", "result"}, // result: "ok" or an error code
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "ordo_admin_operation_duration_seconds",
				Help: "Duration of lifecycle operations in seconds",
				Buckets: []float64{
					0.001, // local backends
					0.005,
					0.01,
					0.05,
					0.1,
					0.5,
					1,
					5,  // slow coordination quorum
					30, // session timeouts
				},
			},
			[]string{"operation"},
		),
		leaderLive: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "ordo_leader_live",
				Help: "Whether the last check found a live oracle leader (1) or not (0)",
			},
		),
	}
}

func (m *adminMetrics) ObserveOperation(op, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, result).Inc()
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *adminMetrics) SetLeaderLive(live bool) {
	if m == nil {
		return
	}
	if live {
		m.leaderLive.Set(1)
	} else {
		m.leaderLive.Set(0)
	}
}
