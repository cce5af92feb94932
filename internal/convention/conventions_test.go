package convention

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/adocbuild/internal/attributes"
	"git.home.luguber.info/inful/adocbuild/internal/config"
	"git.home.luguber.info/inful/adocbuild/internal/project"
	"git.home.luguber.info/inful/adocbuild/internal/render"
	"git.home.luguber.info/inful/adocbuild/internal/taskgraph"
)

var fixedClock = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }

// bundleServer serves the default doc-resources bundle and counts hits.
func bundleServer(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"css/site.css":              "/* bundle stylesheet */",
		"js/highlight/highlight.js": "hljs()",
	} {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	archive := buf.Bytes()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/io.doctools/doc-resources/0.1.3/doc-resources-0.1.3.zip" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		_, _ = w.Write(archive)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

type fixture struct {
	project *project.Project
	root    string
	hits    *atomic.Int64
}

// newFixture builds a project with a fallback engine, a test bundle
// repository and the given docs under docs/asciidoc.
func newFixture(t *testing.T, docs map[string]string) *fixture {
	t.Helper()
	root := t.TempDir()
	for name, content := range docs {
		writeFile(t, filepath.Join(root, "docs", "asciidoc", name), content)
	}
	p := project.New("widget-docs", root)
	p.RegisterEngine(&render.FallbackEngine{})
	srv, hits := bundleServer(t)
	p.AddRepository(config.Repository{Name: "test", Kind: "http", URL: srv.URL})
	return &fixture{project: p, root: root, hits: hits}
}

func (f *fixture) addJob(t *testing.T, name string, backend render.Backend) *render.Job {
	t.Helper()
	job := render.NewJob(name, backend, f.root, filepath.Join(f.root, "docs", "asciidoc"))
	_, err := f.project.AddJob(job)
	require.NoError(t, err)
	return job
}

func (f *fixture) apply(t *testing.T) {
	t.Helper()
	require.NoError(t, New().WithClock(fixedClock).Apply(f.project))
}

func (f *fixture) run(t *testing.T, tasks ...string) error {
	t.Helper()
	_, err := taskgraph.NewRunner(f.project.Tasks()).Run(context.Background(), tasks...)
	return err
}

func TestApplyNoopWithoutEngineCapability(t *testing.T) {
	p := project.New("widget-docs", t.TempDir())
	require.NoError(t, New().Apply(p))
	assert.Empty(t, p.Tasks().Names())
	assert.Empty(t, p.Repositories())
}

func TestApplyAddsDefaultRepositoryWhenNoneConfigured(t *testing.T) {
	p := project.New("widget-docs", t.TempDir())
	p.RegisterEngine(&render.FallbackEngine{})
	require.NoError(t, New().Apply(p))

	require.Len(t, p.Repositories(), 1)
	assert.Equal(t, DefaultRepositoryURL, p.Repositories()[0].URL)
}

func TestApplyKeepsExistingRepositories(t *testing.T) {
	p := project.New("widget-docs", t.TempDir())
	p.RegisterEngine(&render.FallbackEngine{})
	p.AddRepository(config.Repository{Name: "mine", Kind: "http", URL: "https://repo.example.com"})
	require.NoError(t, New().Apply(p))

	require.Len(t, p.Repositories(), 1)
	assert.Equal(t, "mine", p.Repositories()[0].Name)
}

func TestHTMLJobReceivesCommonAndHTMLAttributes(t *testing.T) {
	f := newFixture(t, map[string]string{"index.adoc": "= Guide\n"})
	job := f.addJob(t, "asciidoc", render.BackendHTML)
	f.apply(t)

	attrs := job.Attributes()
	for k, v := range attributes.Common(fixedClock()) {
		assert.Equal(t, v, attrs[k], "common key %s", k)
	}
	for k, v := range attributes.HTMLOnly() {
		assert.Equal(t, v, attrs[k], "html key %s", k)
	}
	assert.Equal(t, 2026, attrs["today-year"])
	assert.Equal(t, "book", job.Options()["doctype"])
	assert.True(t, job.BaseDirFollowsSource())
}

func TestNonHTMLJobReceivesOnlyCommonAttributes(t *testing.T) {
	f := newFixture(t, map[string]string{"index.adoc": "= Guide\n"})
	job := f.addJob(t, "asciidocPdf", render.BackendPDF)
	f.apply(t)

	attrs := job.Attributes()
	assert.Equal(t, "warn", attrs["attribute-missing"])
	for _, k := range []string{"source-highlighter", "highlightjsdir", "highlightjs-theme", "linkcss", "stylesheet"} {
		assert.NotContains(t, attrs, k, "html-only key %s must be absent", k)
	}
	assert.Equal(t, "book", job.Options()["doctype"])
}

func TestTaskWiringAndNames(t *testing.T) {
	f := newFixture(t, map[string]string{"index.adoc": "= Guide\n"})
	f.addJob(t, "asciidoc", render.BackendHTML)
	f.addJob(t, "asciidocPdf", render.BackendPDF)
	f.apply(t)

	names := f.project.Tasks().Names()
	assert.Contains(t, names, TaskUnzipResources)
	assert.Contains(t, names, "syncDocumentationSourceForAsciidoc")
	assert.Contains(t, names, "syncDocumentationSourceForAsciidocPdf")

	renderTask, ok := f.project.Tasks().Get("asciidoc")
	require.True(t, ok)
	var depNames []string
	for _, d := range renderTask.Dependencies() {
		depNames = append(depNames, d.Name())
	}
	assert.Contains(t, depNames, TaskUnzipResources)
	assert.Contains(t, depNames, "syncDocumentationSourceForAsciidoc")
}

func TestSourceDirRepointedToStagedCopy(t *testing.T) {
	f := newFixture(t, map[string]string{"index.adoc": "= Guide\n"})
	job := f.addJob(t, "asciidoc", render.BackendHTML)
	f.apply(t)

	want := filepath.Join("build", "docs", "src", "asciidoc", "asciidoc")
	assert.Equal(t, want, job.SourceDir())
}

func TestExtensionConfigurationDefaults(t *testing.T) {
	f := newFixture(t, map[string]string{"index.adoc": "= Guide\n"})
	job := f.addJob(t, "asciidoc", render.BackendHTML)
	f.apply(t)

	assert.Equal(t, []string{DefaultExtensionLibrary}, job.ExtensionLibraries())
	assert.True(t, f.project.Extension().IsFatal("any warning at all"))
}

// Scenario: a minimal document renders and the output directory contains
// the rendered file plus css and js subdirectories from the staged source.
func TestScenarioSimpleDocument(t *testing.T) {
	f := newFixture(t, map[string]string{"index.adoc": "= Guide\n\nHello.\n"})
	job := f.addJob(t, "asciidoc", render.BackendHTML)
	f.apply(t)

	require.NoError(t, f.run(t, "asciidoc"))

	outDir := job.OutputDirs()[0]
	assert.FileExists(t, filepath.Join(outDir, "index.html"))
	assert.FileExists(t, filepath.Join(outDir, "css", "site.css"))
	assert.FileExists(t, filepath.Join(outDir, "js", "highlight", "highlight.js"))
}

// Scenario: HTML and PDF jobs both succeed, each with its own staging task
// and output directory; the bundle is fetched once for the whole run.
func TestScenarioMultipleBackends(t *testing.T) {
	f := newFixture(t, map[string]string{"index.adoc": "= Guide\n\nHello.\n"})
	htmlJob := f.addJob(t, "asciidoc", render.BackendHTML)
	pdfJob := f.addJob(t, "asciidocPdf", render.BackendPDF)
	f.apply(t)

	require.NoError(t, f.run(t, "asciidoc", "asciidocPdf"))

	assert.FileExists(t, filepath.Join(htmlJob.OutputDirs()[0], "index.html"))
	assert.FileExists(t, filepath.Join(pdfJob.OutputDirs()[0], "index.pdf"))
	assert.NotEqual(t, htmlJob.OutputDirs()[0], pdfJob.OutputDirs()[0])
	assert.DirExists(t, filepath.Join(f.root, "build", "docs", "src", "asciidoc"))
	assert.DirExists(t, filepath.Join(f.root, "build", "docs", "src", "asciidocPdf"))
	assert.Equal(t, int64(1), f.hits.Load(), "bundle must be fetched once per build")
}

// Scenario: a document using the block-switch extension renders with the
// extension's marker class in the output.
func TestScenarioBlockSwitchExtension(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.adoc": "= Guide\n\n[.switch]\n----\nexample\n----\n",
	})
	job := f.addJob(t, "asciidoc", render.BackendHTML)
	f.apply(t)

	require.NoError(t, f.run(t, "asciidoc"))

	out, err := os.ReadFile(filepath.Join(job.OutputDirs()[0], "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(out), `class="switch"`)
}

// Scenario: a reference to an undefined attribute fails the build because
// the fatal-warnings policy escalates the missing-attribute warning.
func TestScenarioMissingAttributeFailsBuild(t *testing.T) {
	f := newFixture(t, map[string]string{"index.adoc": "= Guide\n\nSee {undefined-attr}.\n"})
	f.addJob(t, "asciidoc", render.BackendHTML)
	f.apply(t)

	err := f.run(t, "asciidoc")
	require.Error(t, err)
	var te *taskgraph.TaskError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "asciidoc", te.Task)
	assert.Contains(t, err.Error(), "missing attribute")
}

// Scenario: an overridden stylesheet is present at the staged path and in
// the output directory after the asset copy hook.
func TestScenarioCustomStylesheet(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.adoc":     "= Guide\n",
		"css/custom.css": "/* custom */",
	})
	job := f.addJob(t, "asciidoc", render.BackendHTML)
	f.apply(t)
	job.ApplyAttributes(attributes.Set{"stylesheet": "css/custom.css"})

	require.NoError(t, f.run(t, "asciidoc"))

	staged := filepath.Join(f.root, "build", "docs", "src", "asciidoc", "asciidoc")
	assert.FileExists(t, filepath.Join(staged, "css", "custom.css"))
	assert.FileExists(t, filepath.Join(job.OutputDirs()[0], "css", "custom.css"))

	out, err := os.ReadFile(filepath.Join(job.OutputDirs()[0], "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(out), `href="css/custom.css"`)
}

// Merge collision law: a file present in both the docs tree and the bundle
// keeps the docs tree's version after staging.
func TestStagedMergeKeepsDocsVersionOnCollision(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.adoc":   "= Guide\n",
		"css/site.css": "/* docs override */",
	})
	f.addJob(t, "asciidoc", render.BackendHTML)
	f.apply(t)

	require.NoError(t, f.run(t, "asciidoc"))

	staged := filepath.Join(f.root, "build", "docs", "src", "asciidoc", "asciidoc")
	content, err := os.ReadFile(filepath.Join(staged, "css", "site.css"))
	require.NoError(t, err)
	assert.Equal(t, "/* docs override */", string(content))
}

func TestResolutionFailureIsFatalForDependents(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "docs", "asciidoc", "index.adoc"), "= Guide\n")
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	p := project.New("widget-docs", root)
	p.RegisterEngine(&render.FallbackEngine{})
	p.AddRepository(config.Repository{Name: "broken", Kind: "http", URL: srv.URL})
	job := render.NewJob("asciidoc", render.BackendHTML, root, filepath.Join(root, "docs", "asciidoc"))
	_, err := p.AddJob(job)
	require.NoError(t, err)
	require.NoError(t, New().WithClock(fixedClock).Apply(p))

	err = f2run(p, "asciidoc")
	require.Error(t, err)
	var te *taskgraph.TaskError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, TaskUnzipResources, te.Task)
}

func f2run(p *project.Project, tasks ...string) error {
	_, err := taskgraph.NewRunner(p.Tasks()).Run(context.Background(), tasks...)
	return err
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Asciidoc", capitalize("asciidoc"))
	assert.Equal(t, "AsciidocPdf", capitalize("asciidocPdf"))
	assert.Equal(t, "", capitalize(""))
}
