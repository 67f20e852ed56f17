package metrics

import (
	"github.com/marmos91/awsasync/pkg/gateway"
)

// NewGatewayMetrics creates the Prometheus-backed gateway.Metrics.
//
// Returns nil if metrics are not enabled; pass the result to
// gateway.WithMetrics either way.
func NewGatewayMetrics() gateway.Metrics {
	if !IsEnabled() || newPrometheusGatewayMetrics == nil {
		return nil
	}
	return newPrometheusGatewayMetrics()
}

var newPrometheusGatewayMetrics func() gateway.Metrics

// RegisterGatewayMetricsConstructor registers the Prometheus constructor.
// Called by pkg/metrics/prometheus during package initialization.
func RegisterGatewayMetricsConstructor(constructor func() gateway.Metrics) {
	newPrometheusGatewayMetrics = constructor
}
