// Package taskgraph is the execution harness the conventions are written
// against: named tasks with declared predecessor edges, run at most once per
// invocation in topological order. Configuration (creating tasks, adding
// edges and hooks) is single-threaded and happens entirely before Run.
package taskgraph

import (
	"context"
	"fmt"
	"sync"
)

// Action is a discrete unit of work executed by the runner.
type Action func(ctx context.Context) error

// Task is a named action with dependency edges and pre-execution hooks.
type Task struct {
	name     string
	action   Action
	deps     []*Task
	preHooks []Action
}

// Name returns the task's registered name.
func (t *Task) Name() string { return t.name }

// DependsOn declares predecessor edges; deps run before t.
func (t *Task) DependsOn(deps ...*Task) {
	t.deps = append(t.deps, deps...)
}

// Dependencies returns the declared predecessor tasks.
func (t *Task) Dependencies() []*Task { return t.deps }

// DoFirst registers a hook that runs immediately before the task's action,
// after all dependencies have completed.
func (t *Task) DoFirst(hook Action) {
	t.preHooks = append(t.preHooks, hook)
}

// Registry holds all tasks created for a build, keyed by name.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]*Task
	order []string
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*Task)}
}

// Create registers a new task under name. Duplicate names are an error:
// task names are the public contract of the build surface.
func (r *Registry) Create(name string, action Action) (*Task, error) {
	if name == "" {
		return nil, fmt.Errorf("task name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tasks[name]; exists {
		return nil, fmt.Errorf("task %s already registered", name)
	}
	t := &Task{name: name, action: action}
	r.tasks[name] = t
	r.order = append(r.order, name)
	return t, nil
}

// Get retrieves a task by name.
func (r *Registry) Get(name string) (*Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[name]
	return t, ok
}

// Names returns task names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
