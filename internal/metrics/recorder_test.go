package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorderCounters(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.IncCacheResult(true)
	r.IncCacheResult(true)
	r.IncCacheResult(false)
	r.IncStageResult("base-artifact", ResultSuccess)
	r.IncRunOutcome("success")
	r.ObserveStageDuration("base-artifact", 120*time.Millisecond)
	r.ObserveComponentBuildDuration("workflow-job", time.Second)

	assert.Equal(t, float64(2), testutil.ToFloat64(r.cacheResults.WithLabelValues("hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.cacheResults.WithLabelValues("miss")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.stageResults.WithLabelValues("base-artifact", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.runOutcome.WithLabelValues("success")))
}

func TestNoopRecorderIsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("x", time.Second)
	r.IncStageResult("x", ResultFatal)
	r.ObserveComponentBuildDuration("c", time.Second)
	r.IncCacheResult(false)
	r.IncRunOutcome("failed")
}

func TestHTTPHandler(t *testing.T) {
	r := NewPrometheusRecorder(nil)
	require.NotNil(t, r.HTTPHandler())
}
