package prometheus

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/awsasync/pkg/gateway"
	"github.com/marmos91/awsasync/pkg/metrics"
)

func init() {
	metrics.RegisterGatewayMetricsConstructor(NewGatewayMetrics)
}

// gatewayMetrics is the Prometheus implementation of gateway.Metrics.
type gatewayMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var (
	gatewayMu     sync.Mutex
	sharedGateway = map[*prometheus.Registry]*gatewayMetrics{}
)

// NewGatewayMetrics returns the gateway metrics registered on the process
// registry, or nil if metrics are not enabled.
func NewGatewayMetrics() gateway.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}
	return newGatewayMetrics(metrics.GetRegistry())
}

func newGatewayMetrics(reg *prometheus.Registry) *gatewayMetrics {
	gatewayMu.Lock()
	defer gatewayMu.Unlock()

	if m, ok := sharedGateway[reg]; ok {
		return m
	}

	m := &gatewayMetrics{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "awsasync_gateway_invocations_total",
				Help: "Total number of gateway invocations by service, counterpart and HTTP status",
			},
			[]string{"service", "operation", "code"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "awsasync_gateway_invocation_duration_milliseconds",
				Help: "End-to-end duration of gateway invocations in milliseconds",
				Buckets: []float64{
					5,     // 5ms - simulated and cached calls
					25,    // 25ms
					100,   // 100ms - same-region API calls
					250,   // 250ms
					1000,  // 1s
					5000,  // 5s - large transfers
					30000, // 30s - request timeout
				},
			},
			[]string{"service", "operation"},
		),
	}

	sharedGateway[reg] = m
	return m
}

func (m *gatewayMetrics) ObserveInvoke(service, counterpart string, status int, d time.Duration) {
	if status == 0 {
		status = http.StatusOK
	}
	m.requestsTotal.WithLabelValues(service, counterpart, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(service, counterpart).Observe(float64(d.Microseconds()) / 1000.0)
}

var _ gateway.Metrics = (*gatewayMetrics)(nil)
