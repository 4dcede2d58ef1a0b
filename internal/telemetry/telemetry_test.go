package telemetry

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"codeberg.org/mutker/chatdash/internal/errors"
	"codeberg.org/mutker/chatdash/internal/logger"
	"codeberg.org/mutker/chatdash/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.Tick(metrics.Messages)
	r.Tick(metrics.Messages)
	r.WriteError(metrics.APICost, StoreHistory)
	r.Observe(metrics.RateLimit, 87)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.ticks.WithLabelValues("messages")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.writeErrors.WithLabelValues("api_cost", "history")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.writeErrors.WithLabelValues("api_cost", "snapshot")))
	assert.Equal(t, 87.0, testutil.ToFloat64(r.latest.WithLabelValues("rate_limit")))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.Tick(metrics.Messages)
		r.WriteError(metrics.Messages, StoreSnapshot)
		r.Observe(metrics.Messages, 1)
	})
}

func TestServeExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewRecorder(reg).Tick(metrics.ActiveUsers)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, lis, reg, logger.Component("telemetry")) }()

	url := "http://" + lis.Addr().String() + "/metrics"
	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		body = string(data)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)
	assert.Contains(t, body, `chatdash_collector_ticks_total{metric="active_users"} 1`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * shutdownTimeout):
		t.Fatal("server did not stop")
	}
}

func TestServeEmptyAddress(t *testing.T) {
	err := Serve(context.Background(), "", prometheus.NewRegistry(), logger.Component("telemetry"))
	assert.True(t, errors.HasCode(err, ErrInvalidConfig))
}
