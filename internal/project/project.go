// Package project models the build host surface the conventions configure:
// a project root with a build directory, artifact repositories, registered
// render jobs, a task registry, and named dependency configurations.
package project

import (
	"context"
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/adocbuild/internal/config"
	"git.home.luguber.info/inful/adocbuild/internal/render"
	"git.home.luguber.info/inful/adocbuild/internal/taskgraph"
)

// CapabilityAsciidoctor is registered when a render engine is present;
// conventions only activate against projects that have it.
const CapabilityAsciidoctor = "asciidoctor"

// Project is one documentation build unit.
type Project struct {
	name string
	root string

	repositories []config.Repository
	tasks        *taskgraph.Registry
	jobs         []*render.Job

	capabilities   map[string]bool
	configurations map[string]*Configuration

	engine    render.Engine
	extension *render.Extension
}

// New creates a project rooted at root.
func New(name, root string) *Project {
	return &Project{
		name:           name,
		root:           root,
		tasks:          taskgraph.NewRegistry(),
		capabilities:   make(map[string]bool),
		configurations: make(map[string]*Configuration),
		extension:      render.NewExtension(),
	}
}

func (p *Project) Name() string { return p.name }
func (p *Project) Root() string { return p.root }

// BuildDir returns the build output root.
func (p *Project) BuildDir() string { return filepath.Join(p.root, "build") }

// Tasks returns the project's task registry.
func (p *Project) Tasks() *taskgraph.Registry { return p.tasks }

// Repositories returns the configured artifact repositories.
func (p *Project) Repositories() []config.Repository { return p.repositories }

// AddRepository appends an artifact repository.
func (p *Project) AddRepository(r config.Repository) {
	p.repositories = append(p.repositories, r)
}

// RegisterEngine attaches the render engine and registers the asciidoctor
// capability that gates convention activation.
func (p *Project) RegisterEngine(e render.Engine) {
	p.engine = e
	p.capabilities[CapabilityAsciidoctor] = true
}

// Engine returns the registered render engine, nil when absent.
func (p *Project) Engine() render.Engine { return p.engine }

// HasCapability reports whether a named capability is registered.
func (p *Project) HasCapability(name string) bool { return p.capabilities[name] }

// Extension returns the project-level engine extension.
func (p *Project) Extension() *render.Extension { return p.extension }

// AddJob registers a render job and creates its render task. The job
// inherits the project extension, and defaults to one output directory at
// build/docs/<jobName>.
func (p *Project) AddJob(job *render.Job) (*taskgraph.Task, error) {
	if !job.Backend().IsValid() {
		return nil, fmt.Errorf("job %s: invalid backend %q", job.Name(), job.Backend())
	}
	job.SetExtension(p.extension)
	if len(job.OutputDirs()) == 0 {
		job.SetOutputDirs(filepath.Join(p.BuildDir(), "docs", job.Name()))
	}
	task, err := p.tasks.Create(job.Name(), func(ctx context.Context) error {
		if p.engine == nil {
			return render.ErrEngineNotFound
		}
		return p.engine.Render(ctx, job)
	})
	if err != nil {
		return nil, err
	}
	p.jobs = append(p.jobs, job)
	return task, nil
}

// Jobs returns the registered render jobs.
func (p *Project) Jobs() []*render.Job { return p.jobs }

// RelativePath returns path relative to the project root, or path unchanged
// when it cannot be made relative.
func (p *Project) RelativePath(path string) string {
	rel, err := filepath.Rel(p.root, path)
	if err != nil {
		return path
	}
	return rel
}

// Configuration returns the named dependency configuration, creating it on
// first use.
func (p *Project) Configuration(name string) *Configuration {
	if c, ok := p.configurations[name]; ok {
		return c
	}
	c := &Configuration{name: name}
	p.configurations[name] = c
	return c
}
