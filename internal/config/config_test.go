package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "adocbuild.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
project: widget-docs
jobs:
  - name: asciidoc
`))
	require.NoError(t, err)

	assert.Equal(t, "widget-docs", cfg.Project)
	assert.Equal(t, "auto", cfg.Engine)
	require.Len(t, cfg.Jobs, 1)
	assert.Equal(t, "html", cfg.Jobs[0].Backend)
	assert.Equal(t, "docs/asciidoc", cfg.Jobs[0].SourceDir)
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
project: widget-docs
engine: fallback
repositories:
  - name: releases
    kind: http
    url: https://repo.example.com/releases
jobs:
  - name: asciidoc
    backend: html
    source_dir: docs/asciidoc
  - name: asciidocPdf
    backend: pdf
    source_dir: docs/asciidoc
resources:
  coordinate: io.doctools:doc-resources:0.1.3
attributes:
  stylesheet: css/custom.css
`))
	require.NoError(t, err)

	assert.Len(t, cfg.Jobs, 2)
	assert.Equal(t, "fallback", cfg.Engine)
	assert.Equal(t, "io.doctools:doc-resources:0.1.3", cfg.Resources.Coordinate)
	assert.Equal(t, "css/custom.css", cfg.Attributes["stylesheet"])
	require.Len(t, cfg.Repositories, 1)
	assert.Equal(t, "http", cfg.Repositories[0].Kind)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("DOCS_REPO_URL", "https://repo.example.com/releases")
	cfg, err := Load(writeConfig(t, `
project: widget-docs
repositories:
  - name: releases
    kind: http
    url: ${DOCS_REPO_URL}
jobs:
  - name: asciidoc
`))
	require.NoError(t, err)
	assert.Equal(t, "https://repo.example.com/releases", cfg.Repositories[0].URL)
}

func TestValidateRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing project", "jobs:\n  - name: asciidoc\n"},
		{"no jobs", "project: p\n"},
		{"duplicate job", "project: p\njobs:\n  - name: a\n  - name: a\n"},
		{"bad backend", "project: p\njobs:\n  - name: a\n    backend: docx\n"},
		{"bad repo kind", "project: p\nrepositories:\n  - name: r\n    kind: ftp\n    url: x\njobs:\n  - name: a\n"},
		{"repo missing url", "project: p\nrepositories:\n  - name: r\n    kind: http\njobs:\n  - name: a\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
