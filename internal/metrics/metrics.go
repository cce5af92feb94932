// Package metrics provides build observability for adocbuild.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection needs no nil checks and costs nothing
// when disabled. Swapping in PrometheusRecorder activates real collection
// without code changes at the call sites.
package metrics

import "time"

// ResultLabel classifies a task or resolution outcome.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines all metrics operations emitted by the build core.
type Recorder interface {
	// ObserveTaskDuration records how long a single task ran.
	ObserveTaskDuration(task string, d time.Duration)

	// IncTaskResult counts a task completion by outcome.
	IncTaskResult(task string, result ResultLabel)

	// ObserveRunDuration records the wall time of a whole task-graph run.
	ObserveRunDuration(d time.Duration)

	// IncResolveResult counts a resource-bundle resolution attempt by
	// repository kind ("http", "git") and outcome.
	IncResolveResult(kind string, result ResultLabel)
}

// NoopRecorder is the default Recorder; every method does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveTaskDuration(string, time.Duration) {}
func (NoopRecorder) IncTaskResult(string, ResultLabel)         {}
func (NoopRecorder) ObserveRunDuration(time.Duration)          {}
func (NoopRecorder) IncResolveResult(string, ResultLabel)      {}
