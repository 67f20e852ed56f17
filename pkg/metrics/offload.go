package metrics

import (
	"github.com/marmos91/awsasync/pkg/offload"
)

// NewOffloadMetrics creates the Prometheus-backed offload.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called) or the
// Prometheus implementation is not linked in. Pass the result straight to
// offload.NewPool; nil disables collection.
//
//	metrics.InitRegistry()
//	pool, err := offload.NewPool(cfg, metrics.NewOffloadMetrics())
func NewOffloadMetrics() offload.Metrics {
	if !IsEnabled() || newPrometheusOffloadMetrics == nil {
		return nil
	}
	return newPrometheusOffloadMetrics()
}

// newPrometheusOffloadMetrics is set by pkg/metrics/prometheus during package
// initialization, which keeps this package free of the implementation import.
var newPrometheusOffloadMetrics func() offload.Metrics

// RegisterOffloadMetricsConstructor registers the Prometheus constructor.
func RegisterOffloadMetricsConstructor(constructor func() offload.Metrics) {
	newPrometheusOffloadMetrics = constructor
}
