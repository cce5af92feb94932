package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/adocbuild/internal/config"
	"git.home.luguber.info/inful/adocbuild/internal/convention"
	"git.home.luguber.info/inful/adocbuild/internal/logfields"
	"git.home.luguber.info/inful/adocbuild/internal/metrics"
	"git.home.luguber.info/inful/adocbuild/internal/project"
	"git.home.luguber.info/inful/adocbuild/internal/render"
	"git.home.luguber.info/inful/adocbuild/internal/taskgraph"
)

// assembleProject builds a configured project from the config file: engine
// selection, repositories, render jobs, conventions, then project-level
// attribute overrides last so they win over convention defaults.
func assembleProject(cfg *config.Config, root string, recorder metrics.Recorder) (*project.Project, error) {
	p := project.New(cfg.Project, root)

	engine, err := render.SelectEngine(cfg.Engine)
	if err != nil {
		return nil, err
	}
	p.RegisterEngine(engine)
	slog.Debug("Selected render engine", "engine", engine.Name())

	for _, r := range cfg.Repositories {
		p.AddRepository(r)
	}
	if cfg.Resources.Coordinate != "" {
		p.Configuration(convention.ConfigurationResources).Add(cfg.Resources.Coordinate)
	}

	for _, jc := range cfg.Jobs {
		job := render.NewJob(jc.Name, render.Backend(jc.Backend), root, jc.SourceDir)
		if _, err := p.AddJob(job); err != nil {
			return nil, err
		}
	}

	if err := convention.New().WithRecorder(recorder).Apply(p); err != nil {
		return nil, err
	}

	if len(cfg.Attributes) > 0 {
		for _, job := range p.Jobs() {
			job.ApplyAttributes(cfg.Attributes)
		}
	}
	return p, nil
}

func loadAndAssemble(configPath string, recorder metrics.Recorder) (*project.Project, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	root, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		return nil, nil, err
	}
	p, err := assembleProject(cfg, root, recorder)
	if err != nil {
		return nil, nil, err
	}
	return p, cfg, nil
}

func runBuild(ctx context.Context, configPath string, only []string) error {
	p, cfg, err := loadAndAssemble(configPath, metrics.NoopRecorder{})
	if err != nil {
		return err
	}

	jobs := only
	if len(jobs) == 0 {
		for _, jc := range cfg.Jobs {
			jobs = append(jobs, jc.Name)
		}
	}

	report, err := taskgraph.NewRunner(p.Tasks()).Run(ctx, jobs...)
	if err != nil {
		return err
	}
	slog.Info("Build finished",
		logfields.RunID(report.RunID), logfields.Count(len(report.Executed)))
	return nil
}

func runPlan(configPath string) error {
	p, _, err := loadAndAssemble(configPath, metrics.NoopRecorder{})
	if err != nil {
		return err
	}
	for _, name := range p.Tasks().Names() {
		task, _ := p.Tasks().Get(name)
		fmt.Println(name)
		for _, dep := range task.Dependencies() {
			fmt.Printf("  <- %s\n", dep.Name())
		}
	}
	return nil
}

const starterConfig = `project: my-docs
jobs:
  - name: asciidoc
    backend: html
    source_dir: docs/asciidoc
  - name: asciidocPdf
    backend: pdf
    source_dir: docs/asciidoc
`

func runInit(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file %s already exists (use --force to overwrite)", configPath)
	}
	if err := os.WriteFile(configPath, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("write configuration: %w", err)
	}
	slog.Info("Wrote configuration", logfields.Path(configPath))
	return nil
}
