package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFatal   ResultLabel = "fatal"
)

// Recorder defines observability hooks for pipeline and component metrics.
// The NoopRecorder is the default when metrics are not configured.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObserveComponentBuildDuration(component string, d time.Duration)
	IncCacheResult(hit bool)
	IncRunOutcome(outcome string) // outcome: success|failed
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)          {}
func (NoopRecorder) IncStageResult(string, ResultLabel)                  {}
func (NoopRecorder) ObserveComponentBuildDuration(string, time.Duration) {}
func (NoopRecorder) IncCacheResult(bool)                                 {}
func (NoopRecorder) IncRunOutcome(string)                                {}
