package gateway

import "time"

// Metrics receives one observation per invoke request. A nil Metrics
// disables collection.
//
// The Prometheus implementation lives in pkg/metrics/prometheus.
type Metrics interface {
	// ObserveInvoke records an invoke of counterpart on service that was
	// answered with status after d.
	ObserveInvoke(service, counterpart string, status int, d time.Duration)
}

// Option configures NewServer.
type Option func(*serverOptions)

type serverOptions struct {
	metrics Metrics
}

// WithMetrics records invoke requests in m.
func WithMetrics(m Metrics) Option {
	return func(o *serverOptions) { o.metrics = m }
}
