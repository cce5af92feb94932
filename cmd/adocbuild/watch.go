package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/adocbuild/internal/config"
	"git.home.luguber.info/inful/adocbuild/internal/logfields"
	"git.home.luguber.info/inful/adocbuild/internal/metrics"
	"git.home.luguber.info/inful/adocbuild/internal/taskgraph"
)

const rebuildDebounce = 300 * time.Millisecond

// runWatch rebuilds the documentation whenever a file under a configured
// source directory changes. Each rebuild assembles a fresh project, since
// task registration and source repointing are one-shot per build.
func runWatch(ctx context.Context, configPath string, metricsListen string) error {
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if metricsListen != "" {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		go serveMetrics(ctx, metricsListen, reg)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	root, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, jc := range cfg.Jobs {
		dir := filepath.Join(root, jc.SourceDir)
		if err := watchRecursive(watcher, dir); err != nil {
			return err
		}
	}

	rebuild := func() {
		if err := rebuildOnce(ctx, cfg, root, recorder); err != nil {
			slog.Error("Rebuild failed", logfields.Error(err))
		}
	}
	rebuild()

	var timer *time.Timer
	pending := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			slog.Debug("Source change detected", logfields.Path(event.Name))
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(rebuildDebounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		case <-pending:
			rebuild()
		}
	}
}

func rebuildOnce(ctx context.Context, cfg *config.Config, root string, recorder metrics.Recorder) error {
	p, err := assembleProject(cfg, root, recorder)
	if err != nil {
		return err
	}
	var jobs []string
	for _, jc := range cfg.Jobs {
		jobs = append(jobs, jc.Name)
	}
	report, err := taskgraph.NewRunner(p.Tasks()).WithRecorder(recorder).Run(ctx, jobs...)
	if err != nil {
		return err
	}
	slog.Info("Rebuild finished",
		logfields.RunID(report.RunID), logfields.Count(len(report.Executed)))
	return nil
}

// watchRecursive watches dir and every subdirectory beneath it, skipping
// hidden directories.
func watchRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if name := filepath.Base(path); strings.HasPrefix(name, ".") && path != dir {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func serveMetrics(ctx context.Context, addr string, reg *prom.Registry) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	slog.Info("Serving metrics", logfields.URL("http://"+addr+"/metrics"))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Warn("Metrics server stopped", logfields.Error(err))
	}
}
