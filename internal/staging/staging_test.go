package staging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func read(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestCopyTreeRecursive(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")
	write(t, filepath.Join(src, "index.adoc"), "= Guide")
	write(t, filepath.Join(src, "css", "site.css"), "body{}")

	require.NoError(t, CopyTree(src, dst))
	assert.Equal(t, "= Guide", read(t, filepath.Join(dst, "index.adoc")))
	assert.Equal(t, "body{}", read(t, filepath.Join(dst, "css", "site.css")))
}

func TestSyncTreeClearsStaleFiles(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	write(t, filepath.Join(src, "index.adoc"), "= Guide")
	write(t, filepath.Join(dst, "stale.adoc"), "old")

	require.NoError(t, SyncTree(src, dst))
	assert.FileExists(t, filepath.Join(dst, "index.adoc"))
	assert.NoFileExists(t, filepath.Join(dst, "stale.adoc"))
}

func TestMergeExcludeDuplicatesKeepsDocsVersion(t *testing.T) {
	bundle := t.TempDir()
	staged := t.TempDir()
	write(t, filepath.Join(bundle, "css", "site.css"), "bundle version")
	write(t, filepath.Join(bundle, "js", "app.js"), "bundle js")
	write(t, filepath.Join(staged, "css", "site.css"), "docs version")

	require.NoError(t, MergeTree(bundle, staged, PolicyExcludeDuplicates))

	// Collision law: the documentation tree's file wins.
	assert.Equal(t, "docs version", read(t, filepath.Join(staged, "css", "site.css")))
	assert.Equal(t, "bundle js", read(t, filepath.Join(staged, "js", "app.js")))
}

func TestMergeOverwrite(t *testing.T) {
	bundle := t.TempDir()
	staged := t.TempDir()
	write(t, filepath.Join(bundle, "css", "site.css"), "bundle version")
	write(t, filepath.Join(staged, "css", "site.css"), "docs version")

	require.NoError(t, MergeTree(bundle, staged, PolicyOverwrite))
	assert.Equal(t, "bundle version", read(t, filepath.Join(staged, "css", "site.css")))
}

func TestRunStagesParentTreeAndMergesAssets(t *testing.T) {
	root := t.TempDir()
	docs := filepath.Join(root, "docs")
	write(t, filepath.Join(docs, "asciidoc", "index.adoc"), "= Guide")
	write(t, filepath.Join(docs, "asciidoc", "css", "custom.css"), "docs css")

	resources := filepath.Join(root, "resources")
	write(t, filepath.Join(resources, "css", "site.css"), "bundle css")
	write(t, filepath.Join(resources, "css", "custom.css"), "bundle custom")

	dest := filepath.Join(root, "build", "docs", "src", "asciidoc")
	plan := Plan{
		SourceRoot: docs,
		DestRoot:   dest,
		Merges: []MergeDirective{
			{From: resources, Into: "asciidoc", Policy: PolicyExcludeDuplicates},
		},
	}
	require.NoError(t, Run(plan))

	assert.Equal(t, "= Guide", read(t, filepath.Join(dest, "asciidoc", "index.adoc")))
	assert.Equal(t, "bundle css", read(t, filepath.Join(dest, "asciidoc", "css", "site.css")))
	// The docs tree's file survives the exclude-duplicates merge.
	assert.Equal(t, "docs css", read(t, filepath.Join(dest, "asciidoc", "css", "custom.css")))
}

func TestRunMissingSourceFails(t *testing.T) {
	err := Run(Plan{SourceRoot: filepath.Join(t.TempDir(), "nope"), DestRoot: t.TempDir()})
	assert.Error(t, err)
}

func TestRunIdempotent(t *testing.T) {
	root := t.TempDir()
	docs := filepath.Join(root, "docs")
	write(t, filepath.Join(docs, "asciidoc", "index.adoc"), "= Guide")
	dest := filepath.Join(root, "staged")

	plan := Plan{SourceRoot: docs, DestRoot: dest}
	require.NoError(t, Run(plan))
	require.NoError(t, Run(plan))
	assert.FileExists(t, filepath.Join(dest, "asciidoc", "index.adoc"))
}
