package project

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Copy copies files from the `from` tree into the `into` directory,
// restricted to the include patterns when any are given. A pattern ending
// in "/**" matches everything under that subdirectory; other patterns use
// path.Match semantics against the slash-separated relative path.
func (p *Project) Copy(from, into string, includes ...string) error {
	return filepath.Walk(from, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(from, path)
		if err != nil {
			return err
		}
		if !matchesAny(filepath.ToSlash(rel), includes) {
			return nil
		}
		target := filepath.Join(into, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		out, err := os.Create(target)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, in); err != nil {
			out.Close()
			return fmt.Errorf("copy %s: %w", rel, err)
		}
		return out.Close()
	})
}

func matchesAny(rel string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
			if rel == prefix || strings.HasPrefix(rel, prefix+"/") {
				return true
			}
			continue
		}
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
