package metrics

import (
	"github.com/marmos91/ordo/pkg/instance"
)

// NewAdminMetrics creates the Prometheus-backed instance.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called) or the
// prometheus package was not imported. Pass the result to
// instance.WithMetrics either way; a nil value disables recording.
//
//	metrics.InitRegistry()
//	admin, err := instance.Open(ctx, cfg, instance.WithMetrics(metrics.NewAdminMetrics()))
func NewAdminMetrics() instance.Metrics {
	if !IsEnabled() || newPrometheusAdminMetrics == nil {
		return nil
	}
	return newPrometheusAdminMetrics()
}

// newPrometheusAdminMetrics is set by pkg/metrics/prometheus, which imports
// this package for the registry.
var newPrometheusAdminMetrics func() instance.Metrics

// RegisterAdminMetricsConstructor registers the Prometheus admin metrics
// constructor. Called by pkg/metrics/prometheus during initialization.
func RegisterAdminMetricsConstructor(constructor func() instance.Metrics) {
	newPrometheusAdminMetrics = constructor
}
