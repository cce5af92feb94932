package taskgraph

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/adocbuild/internal/logfields"
	"git.home.luguber.info/inful/adocbuild/internal/metrics"
)

// Runner executes tasks from a registry in topological order.
type Runner struct {
	registry *Registry
	recorder metrics.Recorder
}

// NewRunner creates a runner over the given registry with no-op metrics.
func NewRunner(reg *Registry) *Runner {
	return &Runner{registry: reg, recorder: metrics.NoopRecorder{}}
}

// WithRecorder attaches a metrics recorder (fluent helper).
func (r *Runner) WithRecorder(rec metrics.Recorder) *Runner {
	if rec != nil {
		r.recorder = rec
	}
	return r
}

// RunReport summarizes one runner invocation.
type RunReport struct {
	RunID     string
	Executed  []string
	Durations map[string]time.Duration
}

// Run executes the named tasks and their transitive dependencies, each at
// most once, dependencies first. The first failing task aborts the run and
// is returned as a *TaskError; tasks in independent subtrees that already
// ran are unaffected.
func (r *Runner) Run(ctx context.Context, names ...string) (*RunReport, error) {
	report := &RunReport{
		RunID:     uuid.NewString(),
		Durations: make(map[string]time.Duration),
	}

	order, err := r.resolveOrder(names)
	if err != nil {
		return report, err
	}

	slog.Debug("Resolved task execution order",
		logfields.RunID(report.RunID), logfields.Count(len(order)))

	start := time.Now()
	for _, task := range order {
		select {
		case <-ctx.Done():
			r.recorder.IncTaskResult(task.name, metrics.ResultCanceled)
			return report, &TaskError{Task: task.name, Err: ctx.Err()}
		default:
		}
		if err := r.runTask(ctx, task, report); err != nil {
			return report, err
		}
	}
	r.recorder.ObserveRunDuration(time.Since(start))
	return report, nil
}

func (r *Runner) runTask(ctx context.Context, task *Task, report *RunReport) error {
	t0 := time.Now()
	var err error
	for _, hook := range task.preHooks {
		if err = hook(ctx); err != nil {
			err = fmt.Errorf("pre-execution hook: %w", err)
			break
		}
	}
	if err == nil && task.action != nil {
		err = task.action(ctx)
	}
	dur := time.Since(t0)
	report.Durations[task.name] = dur
	r.recorder.ObserveTaskDuration(task.name, dur)

	if err != nil {
		r.recorder.IncTaskResult(task.name, metrics.ResultFatal)
		slog.Error("Task failed",
			logfields.RunID(report.RunID), logfields.Task(task.name), logfields.Error(err))
		return &TaskError{Task: task.name, Err: err}
	}
	report.Executed = append(report.Executed, task.name)
	r.recorder.IncTaskResult(task.name, metrics.ResultSuccess)
	slog.Debug("Task completed",
		logfields.RunID(report.RunID), logfields.Task(task.name),
		logfields.DurationMS(float64(dur.Milliseconds())))
	return nil
}

// resolveOrder produces a dependency-first ordering of the requested tasks
// via depth-first traversal, detecting cycles.
func (r *Runner) resolveOrder(names []string) ([]*Task, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[*Task]int)
	var order []*Task

	var visit func(t *Task) error
	visit = func(t *Task) error {
		switch state[t] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w involving task %s", ErrCycle, t.name)
		}
		state[t] = visiting
		for _, dep := range t.deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[t] = done
		order = append(order, t)
		return nil
	}

	for _, name := range names {
		t, ok := r.registry.Get(name)
		if !ok {
			return nil, fmt.Errorf("task %s not found", name)
		}
		if err := visit(t); err != nil {
			return nil, err
		}
	}
	return order, nil
}
