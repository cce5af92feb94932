// Package convention wires documentation build conventions around a
// project's render jobs: it resolves and extracts the documentation
// resource bundle, stages each job's sources merged with those assets,
// composes render attributes and options, and declares the task dependency
// edges. It activates only when the project has a render engine registered.
package convention

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"
	"unicode"

	"git.home.luguber.info/inful/adocbuild/internal/attributes"
	"git.home.luguber.info/inful/adocbuild/internal/config"
	"git.home.luguber.info/inful/adocbuild/internal/logfields"
	"git.home.luguber.info/inful/adocbuild/internal/metrics"
	"git.home.luguber.info/inful/adocbuild/internal/project"
	"git.home.luguber.info/inful/adocbuild/internal/render"
	"git.home.luguber.info/inful/adocbuild/internal/resources"
	"git.home.luguber.info/inful/adocbuild/internal/staging"
	"git.home.luguber.info/inful/adocbuild/internal/taskgraph"
)

// Task and configuration names are the public contract of the build surface.
const (
	TaskUnzipResources      = "unzipDocumentationResources"
	TaskSyncPrefix          = "syncDocumentationSourceFor"
	ConfigurationExtensions = "asciidoctorExtensions"
	ConfigurationResources  = "documentationResources"
)

// Pinned default coordinates and the repository used when a project
// configures none.
const (
	DefaultResourceBundle   = "io.doctools:doc-resources:0.1.3"
	DefaultExtensionLibrary = "io.doctools:asciidoctor-block-switch:0.3.0"
	DefaultRepositoryURL    = "https://repo.doctools.io/releases"
)

// All engine warnings are fatal, which escalates missing-attribute warnings
// from the per-job "warn" policy to build failures.
const fatalWarningsPattern = ".*"

// Conventions applies the documentation build conventions to a project.
type Conventions struct {
	now      func() time.Time
	recorder metrics.Recorder
}

// New creates a Conventions with the wall clock and no-op metrics.
func New() *Conventions {
	return &Conventions{now: time.Now, recorder: metrics.NoopRecorder{}}
}

// WithClock overrides the build-date source (fluent helper).
func (c *Conventions) WithClock(now func() time.Time) *Conventions {
	if now != nil {
		c.now = now
	}
	return c
}

// WithRecorder attaches a metrics recorder (fluent helper).
func (c *Conventions) WithRecorder(rec metrics.Recorder) *Conventions {
	if rec != nil {
		c.recorder = rec
	}
	return c
}

// Apply configures the project: once-per-build global setup, then per-job
// wiring for every registered render job. A project without the asciidoctor
// capability is left untouched. Apply is meant to run once per build
// invocation; every job present at the time of the call receives exactly
// one staging task and one attribute composition pass.
func (c *Conventions) Apply(p *project.Project) error {
	if !p.HasCapability(project.CapabilityAsciidoctor) {
		slog.Debug("Asciidoctor capability absent, conventions not applied")
		return nil
	}

	// Eager repository defaulting: a project with no repositories gets the
	// default release repository.
	if len(p.Repositories()) == 0 {
		p.AddRepository(config.Repository{Name: "default", Kind: "http", URL: DefaultRepositoryURL})
	}

	if err := p.Extension().FatalWarnings(fatalWarningsPattern); err != nil {
		return err
	}

	resCfg := p.Configuration(ConfigurationResources)
	resCfg.DefaultDependencies(DefaultResourceBundle)

	resourcesDir := filepath.Join(p.BuildDir(), "docs", "resources")
	locator := resources.NewLocator(p.Repositories()).WithRecorder(c.recorder)
	unzip, err := p.Tasks().Create(TaskUnzipResources, func(ctx context.Context) error {
		for _, dep := range resCfg.Dependencies() {
			coord, err := resources.ParseCoordinate(dep)
			if err != nil {
				return err
			}
			if err := locator.Resolve(ctx, coord, resourcesDir); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, job := range p.Jobs() {
		if err := c.configureJob(p, job, unzip, resourcesDir); err != nil {
			return fmt.Errorf("configure job %s: %w", job.Name(), err)
		}
	}
	slog.Info("Applied documentation conventions",
		logfields.Count(len(p.Jobs())), slog.String("project", p.Name()))
	return nil
}

func (c *Conventions) configureJob(p *project.Project, job *render.Job, unzip *taskgraph.Task, resourcesDir string) error {
	renderTask, ok := p.Tasks().Get(job.Name())
	if !ok {
		return fmt.Errorf("render task %s not registered", job.Name())
	}
	renderTask.DependsOn(unzip)

	if job.Backend() == render.BackendHTML {
		job.ApplyAttributes(attributes.HTMLOnly())
	}

	extCfg := p.Configuration(ConfigurationExtensions)
	extCfg.DefaultDependencies(DefaultExtensionLibrary)
	job.UseExtensionLibraries(extCfg.Dependencies()...)

	job.ApplyAttributes(attributes.Common(c.now()))
	job.ApplyOptions(attributes.Options())
	job.BaseDirFollowsSourceFile()

	// Stage the parent of the source directory so sibling files (docinfo,
	// shared includes) travel with it, then merge the extracted assets into
	// the subpath carrying the original source directory's name. Files from
	// the documentation tree win collisions.
	origSource := job.AbsSourceDir()
	srcName := filepath.Base(origSource)
	destRoot := filepath.Join(p.BuildDir(), "docs", "src", job.Name())
	plan := staging.Plan{
		SourceRoot: filepath.Dir(origSource),
		DestRoot:   destRoot,
		Merges: []staging.MergeDirective{
			{From: resourcesDir, Into: srcName, Policy: staging.PolicyExcludeDuplicates},
		},
	}
	syncTask, err := p.Tasks().Create(TaskSyncPrefix+capitalize(job.Name()), func(ctx context.Context) error {
		return staging.Run(plan)
	})
	if err != nil {
		return err
	}
	syncTask.DependsOn(unzip)
	renderTask.DependsOn(syncTask)

	job.SetSourceDir(p.RelativePath(filepath.Join(destRoot, srcName)))

	// Applying the HTML-only group a second time is value-stable; keeping
	// the write here preserves last-write-wins for future additions.
	if job.Backend() == render.BackendHTML {
		job.ApplyAttributes(attributes.HTMLOnly())
	}

	renderTask.DoFirst(func(ctx context.Context) error {
		for _, outDir := range job.OutputDirs() {
			if err := p.Copy(job.AbsSourceDir(), outDir, "css/**", "js/**"); err != nil {
				return fmt.Errorf("copy assets to %s: %w", outDir, err)
			}
		}
		return nil
	})
	return nil
}

func capitalize(value string) string {
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
