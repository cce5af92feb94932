package taskgraph

import (
	"errors"
	"fmt"
)

// ErrCycle reports a dependency cycle among the requested tasks.
var ErrCycle = errors.New("task dependency cycle")

// TaskError wraps a failure with the name of the failing task. The first
// TaskError halts the run; dependents of the failed task never execute.
type TaskError struct {
	Task string
	Err  error
}

func (e *TaskError) Error() string { return fmt.Sprintf("task %s: %v", e.Task, e.Err) }
func (e *TaskError) Unwrap() error { return e.Err }
