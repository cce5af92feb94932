// Package staging copies documentation sources into a build-scoped working
// directory and merges externally-resolved assets into it before rendering.
// Staging decouples where docs are authored from where docs plus assets must
// jointly live, so the render engine resolves relative includes and asset
// links against one tree.
package staging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/adocbuild/internal/logfields"
)

// Policy controls filename-collision handling during a merge pass.
type Policy string

const (
	// PolicyExcludeDuplicates keeps the destination file when the source
	// has a file at the same relative path (first writer wins).
	PolicyExcludeDuplicates Policy = "exclude"

	// PolicyOverwrite replaces destination files unconditionally.
	PolicyOverwrite Policy = "overwrite"
)

// MergeDirective names a source tree to merge into a subpath of the staged
// destination.
type MergeDirective struct {
	From   string // directory whose contents are merged
	Into   string // subpath under the plan's DestRoot
	Policy Policy
}

// Plan pairs a source root with a destination root and the merges to apply
// after the copy. Created per render job, consumed once.
type Plan struct {
	SourceRoot string
	DestRoot   string
	Merges     []MergeDirective
}

// Run executes the plan: a clear-first sync of SourceRoot into DestRoot,
// then each merge directive in order.
func Run(plan Plan) error {
	if _, err := os.Stat(plan.SourceRoot); err != nil {
		return fmt.Errorf("staging source missing: %w", err)
	}
	if err := SyncTree(plan.SourceRoot, plan.DestRoot); err != nil {
		return fmt.Errorf("sync %s: %w", plan.SourceRoot, err)
	}
	for _, m := range plan.Merges {
		dest := filepath.Join(plan.DestRoot, m.Into)
		if err := MergeTree(m.From, dest, m.Policy); err != nil {
			return fmt.Errorf("merge %s into %s: %w", m.From, m.Into, err)
		}
	}
	slog.Debug("Staged documentation source",
		logfields.Path(plan.DestRoot), logfields.Count(len(plan.Merges)))
	return nil
}

// SyncTree replaces dst with an exact copy of src. The destination is
// cleared first, so repeated syncs are deterministic rather than additive.
func SyncTree(src, dst string) error {
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("clear destination: %w", err)
	}
	return CopyTree(src, dst)
}

// CopyTree recursively copies the contents of src into dst, creating
// directories as needed and overwriting existing files.
func CopyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		return copyFile(path, target)
	})
}

// MergeTree copies the contents of src into dst following the collision
// policy. With PolicyExcludeDuplicates an existing destination file is kept.
func MergeTree(src, dst string, policy Policy) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if policy == PolicyExcludeDuplicates {
			if _, err := os.Stat(target); err == nil {
				slog.Debug("Keeping existing file over merged asset", logfields.Path(target))
				return nil
			}
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
