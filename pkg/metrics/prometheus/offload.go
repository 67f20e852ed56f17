package prometheus

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/awsasync/pkg/metrics"
	"github.com/marmos91/awsasync/pkg/offload"
)

// Status label values of awsasync_offload_calls_total.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusPanic   = "panic"
)

func init() {
	metrics.RegisterOffloadMetricsConstructor(NewOffloadMetrics)
}

// offloadMetrics is the Prometheus implementation of offload.Metrics.
type offloadMetrics struct {
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	queueWait    *prometheus.HistogramVec
	inFlight     *prometheus.GaugeVec
}

var (
	sharedMu      sync.Mutex
	sharedMetrics = map[*prometheus.Registry]*offloadMetrics{}
)

// NewOffloadMetrics returns the offload metrics registered on the process
// registry, or nil if metrics are not enabled. Collectors are created once per
// registry so several pools can share them.
func NewOffloadMetrics() offload.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}
	return newOffloadMetrics(metrics.GetRegistry())
}

func newOffloadMetrics(reg *prometheus.Registry) *offloadMetrics {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if m, ok := sharedMetrics[reg]; ok {
		return m
	}

	m := &offloadMetrics{
		callsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "awsasync_offload_calls_total",
				Help: "Total number of offloaded calls by operation and status",
			},
			[]string{"operation", "status"},
		),
		callDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "awsasync_offload_call_duration_milliseconds",
				Help: "Time spent running offloaded calls on a worker, in milliseconds",
				Buckets: []float64{
					1,     // 1ms - local calls
					10,    // 10ms
					50,    // 50ms - same-region API calls
					100,   // 100ms
					500,   // 500ms
					1000,  // 1s - large transfers
					5000,  // 5s
					30000, // 30s - very large operations
				},
			},
			[]string{"operation"},
		),
		queueWait: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "awsasync_offload_queue_wait_milliseconds",
				Help: "Time between submission and start of an offloaded call, in milliseconds",
				Buckets: []float64{
					0.1,  // goroutine start
					1,    // 1ms
					10,   // 10ms - pool saturated
					100,  // 100ms
					1000, // 1s
					10000,
				},
			},
			[]string{"operation"},
		),
		inFlight: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "awsasync_offload_in_flight",
				Help: "Number of offloaded calls currently running",
			},
			[]string{"operation"},
		),
	}

	sharedMetrics[reg] = m
	return m
}

func (m *offloadMetrics) ObserveCall(label string, d time.Duration, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
		var pe *offload.PanicError
		if errors.As(err, &pe) {
			status = StatusPanic
		}
	}

	m.callsTotal.WithLabelValues(label, status).Inc()
	m.callDuration.WithLabelValues(label).Observe(float64(d.Microseconds()) / 1000.0)
}

func (m *offloadMetrics) ObserveQueueWait(label string, d time.Duration) {
	m.queueWait.WithLabelValues(label).Observe(float64(d.Microseconds()) / 1000.0)
}

func (m *offloadMetrics) IncInFlight(label string) {
	m.inFlight.WithLabelValues(label).Inc()
}

func (m *offloadMetrics) DecInFlight(label string) {
	m.inFlight.WithLabelValues(label).Dec()
}

var _ offload.Metrics = (*offloadMetrics)(nil)
