package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/adocbuild/internal/logfields"
)

// ErrEngineNotFound indicates no usable render engine is available.
var ErrEngineNotFound = errors.New("render engine not found")

// Engine abstracts how a render job's documents are turned into output.
// This allows swapping the external asciidoctor binaries (ExecEngine) with
// alternative strategies (FallbackEngine for binary-less environments and
// tests) without changing task orchestration.
type Engine interface {
	// Name identifies the engine in logs.
	Name() string

	// Available reports whether the engine can run on this host.
	Available() bool

	// Render processes every document in the job's source directory into
	// the job's output directories.
	Render(ctx context.Context, job *Job) error
}

// ExecEngine invokes the asciidoctor binaries present on PATH:
// `asciidoctor` for HTML jobs, `asciidoctor-pdf` for PDF jobs.
type ExecEngine struct{}

func (e *ExecEngine) Name() string { return "exec" }

func (e *ExecEngine) Available() bool {
	_, err := exec.LookPath("asciidoctor")
	return err == nil
}

func (e *ExecEngine) binaryFor(backend Backend) (string, error) {
	name := "asciidoctor"
	if backend == BackendPDF {
		name = "asciidoctor-pdf"
	}
	bin, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEngineNotFound, err)
	}
	return bin, nil
}

func (e *ExecEngine) Render(ctx context.Context, job *Job) error {
	bin, err := e.binaryFor(job.Backend())
	if err != nil {
		return err
	}
	srcDir := job.AbsSourceDir()
	if stat, err := os.Stat(srcDir); err != nil || !stat.IsDir() {
		return fmt.Errorf("source directory not found: %s", srcDir)
	}

	args := []string{}
	for _, k := range sortedKeys(job.Options()) {
		args = append(args, "--"+k, fmt.Sprint(job.Options()[k]))
	}
	for _, k := range sortedKeys(job.Attributes()) {
		args = append(args, "-a", attributeFlag(k, job.Attributes()[k]))
	}
	if job.BaseDirFollowsSource() {
		args = append(args, "--base-dir", srcDir)
	}
	if job.Extension().HasFatalWarnings() {
		args = append(args, "--failure-level", "WARN")
	}

	docs, err := filepath.Glob(filepath.Join(srcDir, "*.adoc"))
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents found in %s", srcDir)
	}

	for _, outDir := range job.OutputDirs() {
		if err := os.MkdirAll(outDir, 0o750); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		cmdArgs := append(append([]string{}, args...), "--destination-dir", outDir)
		cmdArgs = append(cmdArgs, docs...)
		cmd := exec.CommandContext(ctx, bin, cmdArgs...)
		cmd.Dir = srcDir
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		slog.Debug("Invoking render binary",
			logfields.Job(job.Name()), logfields.Path(outDir), slog.String("binary", bin))

		err := cmd.Run()
		if out := stderr.String(); out != "" {
			slog.Warn("Render engine stderr", logfields.Job(job.Name()), slog.String("output", out))
		}
		if err != nil {
			output := stderr.String()
			if output == "" {
				output = stdout.String()
			}
			return fmt.Errorf("render failed for %s: %w: %s", job.Name(), err, output)
		}
	}
	return nil
}

// attributeFlag renders one attribute as an asciidoctor -a argument.
// Boolean true sets the attribute, false unsets it, anything else is key=value.
func attributeFlag(key string, value any) string {
	switch v := value.(type) {
	case bool:
		if v {
			return key
		}
		return "!" + key
	default:
		return fmt.Sprintf("%s=%v", key, v)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SelectEngine returns the exec engine when the asciidoctor binary is on
// PATH, otherwise the built-in fallback engine. name forces a specific
// engine ("exec", "fallback", "" for auto).
func SelectEngine(name string) (Engine, error) {
	switch name {
	case "exec":
		e := &ExecEngine{}
		if !e.Available() {
			return nil, fmt.Errorf("%w: asciidoctor binary not on PATH", ErrEngineNotFound)
		}
		return e, nil
	case "fallback":
		return &FallbackEngine{}, nil
	case "", "auto":
		if e := (&ExecEngine{}); e.Available() {
			return e, nil
		}
		slog.Debug("Asciidoctor binary not found, using fallback engine")
		return &FallbackEngine{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrEngineNotFound, name)
	}
}
