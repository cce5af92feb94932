package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	taskDuration   *prom.HistogramVec
	taskResults    *prom.CounterVec
	runDuration    prom.Histogram
	resolveResults *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
// A nil registry gets a fresh private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		taskDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "adocbuild",
			Name:      "task_duration_seconds",
			Help:      "Duration of individual build tasks",
			Buckets:   prom.DefBuckets,
		}, []string{"task"}),
		taskResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "adocbuild",
			Name:      "task_results_total",
			Help:      "Task completions by outcome",
		}, []string{"task", "result"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "adocbuild",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a full task-graph run",
			Buckets:   prom.DefBuckets,
		}),
		resolveResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "adocbuild",
			Name:      "resolve_results_total",
			Help:      "Resource bundle resolution attempts by repository kind and outcome",
		}, []string{"kind", "result"}),
	}
	reg.MustRegister(pr.taskDuration, pr.taskResults, pr.runDuration, pr.resolveResults)
	return pr
}

func (p *PrometheusRecorder) ObserveTaskDuration(task string, d time.Duration) {
	p.taskDuration.WithLabelValues(task).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTaskResult(task string, result ResultLabel) {
	p.taskResults.WithLabelValues(task, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncResolveResult(kind string, result ResultLabel) {
	p.resolveResults.WithLabelValues(kind, string(result)).Inc()
}
