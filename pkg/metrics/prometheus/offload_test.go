package prometheus

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/awsasync/pkg/metrics"
	"github.com/marmos91/awsasync/pkg/offload"
)

func TestOffloadMetricsDisabled(t *testing.T) {
	metrics.Reset()
	assert.Nil(t, NewOffloadMetrics())
	assert.Nil(t, metrics.NewOffloadMetrics())
	assert.Nil(t, metrics.Handler())
}

func TestOffloadMetricsRecordCalls(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newOffloadMetrics(reg)

	m.ObserveCall("ListBucketsAsync", 12*time.Millisecond, nil)
	m.ObserveCall("ListBucketsAsync", 3*time.Millisecond, errors.New("denied"))
	m.ObserveCall("PanicAsync", time.Millisecond, &offload.PanicError{Value: "x"})
	m.ObserveQueueWait("ListBucketsAsync", time.Millisecond)
	m.IncInFlight("GetObjectAsync")
	m.IncInFlight("GetObjectAsync")
	m.DecInFlight("GetObjectAsync")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.callsTotal.WithLabelValues("ListBucketsAsync", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.callsTotal.WithLabelValues("ListBucketsAsync", StatusError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.callsTotal.WithLabelValues("PanicAsync", StatusPanic)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inFlight.WithLabelValues("GetObjectAsync")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.callDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(m.queueWait))

	assert.Same(t, m, newOffloadMetrics(reg), "collectors are created once per registry")
}

func TestOffloadMetricsThroughPool(t *testing.T) {
	metrics.Reset()
	metrics.InitRegistry()
	t.Cleanup(metrics.Reset)

	m := metrics.NewOffloadMetrics()
	require.NotNil(t, m)

	pool, err := offload.NewPool(offload.Config{Workers: 2}, m)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = offload.Submit(ctx, pool, "EchoAsync", func() (int, error) { return 1, nil }).Await(ctx)
	require.NoError(t, err)
	require.NoError(t, pool.Close())

	srv := httptest.NewServer(metrics.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `awsasync_offload_calls_total{operation="EchoAsync",status="success"} 1`), text)
	assert.Contains(t, text, "awsasync_offload_queue_wait_milliseconds")
	assert.Contains(t, text, "go_goroutines")
}
