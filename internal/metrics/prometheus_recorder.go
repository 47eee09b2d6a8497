package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry      *prom.Registry
	stageDuration *prom.HistogramVec
	stageResults  *prom.CounterVec
	buildDuration *prom.HistogramVec
	cacheResults  *prom.CounterVec
	runOutcome    *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "bundlepacker",
		Name:      "stage_duration_seconds",
		Help:      "Duration of individual pipeline stages",
		Buckets:   prom.DefBuckets,
	}, []string{"stage"})
	pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "bundlepacker",
		Name:      "stage_results_total",
		Help:      "Stage result counts by outcome",
	}, []string{"stage", "result"})
	pr.buildDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "bundlepacker",
		Name:      "component_build_duration_seconds",
		Help:      "Duration of individual component builds",
		Buckets:   prom.DefBuckets,
	}, []string{"component"})
	pr.cacheResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "bundlepacker",
		Name:      "artifact_cache_results_total",
		Help:      "Artifact store cache queries by hit/miss",
	}, []string{"result"})
	pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "bundlepacker",
		Name:      "run_outcomes_total",
		Help:      "Packaging run outcomes by final status",
	}, []string{"outcome"})

	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.buildDuration, pr.cacheResults, pr.runOutcome)
	return pr
}

// HTTPHandler serves the recorder's registry for a --metrics-listen endpoint.
func (p *PrometheusRecorder) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveComponentBuildDuration(component string, d time.Duration) {
	p.buildDuration.WithLabelValues(component).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCacheResult(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	p.cacheResults.WithLabelValues(result).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	p.runOutcome.WithLabelValues(outcome).Inc()
}
