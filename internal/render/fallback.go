package render

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"git.home.luguber.info/inful/adocbuild/internal/attributes"
	"git.home.luguber.info/inful/adocbuild/internal/logfields"
)

var attrRefPattern = regexp.MustCompile(`\{([a-z0-9_][a-z0-9_-]*)\}`)

// FallbackEngine is a minimal built-in renderer used when no asciidoctor
// binary is present. It handles document titles, section headings,
// paragraphs, single-level includes, attribute substitution with the
// attribute-missing policy, and the block-switch extension marker. It is
// not an Asciidoctor implementation; anything beyond that subset passes
// through as escaped text.
type FallbackEngine struct{}

func (e *FallbackEngine) Name() string    { return "fallback" }
func (e *FallbackEngine) Available() bool { return true }

func (e *FallbackEngine) Render(ctx context.Context, job *Job) error {
	srcDir := job.AbsSourceDir()
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return fmt.Errorf("source directory not found: %w", err)
	}

	var docs []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".adoc") {
			docs = append(docs, entry.Name())
		}
	}
	sort.Strings(docs)

	for _, name := range docs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		body, err := e.renderDocument(job, filepath.Join(srcDir, name))
		if err != nil {
			return fmt.Errorf("render %s: %w", name, err)
		}
		base := strings.TrimSuffix(name, ".adoc")
		for _, outDir := range job.OutputDirs() {
			if err := os.MkdirAll(outDir, 0o750); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			outName := base + outputSuffix(job.Backend())
			if err := os.WriteFile(filepath.Join(outDir, outName), []byte(body), 0o644); err != nil {
				return fmt.Errorf("write output %s: %w", outName, err)
			}
		}
	}
	slog.Info("Rendered documents",
		logfields.Job(job.Name()), logfields.Backend(string(job.Backend())), logfields.Count(len(docs)))
	return nil
}

func outputSuffix(b Backend) string {
	if b == BackendPDF {
		return ".pdf"
	}
	return ".html"
}

func (e *FallbackEngine) renderDocument(job *Job, path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	lines, err := e.expandIncludes(strings.Split(string(raw), "\n"), filepath.Dir(path), 0)
	if err != nil {
		return "", err
	}

	attrs := job.Attributes().Clone()
	blockSwitch := e.blockSwitchEnabled(job)

	var out strings.Builder
	if job.Backend() == BackendHTML {
		out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
		if linked, ok := attrs["linkcss"].(bool); ok && linked {
			if sheet, ok := attrs["stylesheet"].(string); ok && sheet != "" {
				fmt.Fprintf(&out, "<link rel=\"stylesheet\" href=\"%s\">\n", sheet)
			}
		}
		out.WriteString("</head>\n")
		doctype, _ := job.Options()["doctype"].(string)
		fmt.Fprintf(&out, "<body class=%q>\n", doctype)
	}

	inListing := false
	pendingSwitch := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "----":
			if inListing {
				out.WriteString("</pre>\n")
				if pendingSwitch {
					out.WriteString("</div>\n")
					pendingSwitch = false
				}
				inListing = false
			} else {
				if pendingSwitch {
					out.WriteString("<div class=\"switch\">\n")
				}
				out.WriteString("<pre>\n")
				inListing = true
			}
			continue
		case inListing:
			// Listing content is verbatim; attribute references stay literal.
			out.WriteString(html.EscapeString(line) + "\n")
			continue
		case trimmed == "[.switch]" || trimmed == "[role=switch]":
			if blockSwitch {
				pendingSwitch = true
			}
			continue
		case strings.HasPrefix(trimmed, ":") && strings.Count(trimmed, ":") >= 2:
			// Header attribute entry, e.g. ":project-version: 1.2".
			rest := trimmed[1:]
			if idx := strings.Index(rest, ":"); idx > 0 {
				attrs[rest[:idx]] = strings.TrimSpace(rest[idx+1:])
			}
			continue
		case trimmed == "":
			continue
		}

		resolved, err := e.substitute(job, attrs, trimmed)
		if err != nil {
			return "", err
		}
		switch {
		case strings.HasPrefix(resolved, "=== "):
			fmt.Fprintf(&out, "<h3>%s</h3>\n", html.EscapeString(resolved[4:]))
		case strings.HasPrefix(resolved, "== "):
			fmt.Fprintf(&out, "<h2>%s</h2>\n", html.EscapeString(resolved[3:]))
		case strings.HasPrefix(resolved, "= "):
			fmt.Fprintf(&out, "<h1>%s</h1>\n", html.EscapeString(resolved[2:]))
		default:
			fmt.Fprintf(&out, "<p>%s</p>\n", html.EscapeString(resolved))
		}
	}

	if job.Backend() == BackendHTML {
		out.WriteString("</body>\n</html>\n")
	}
	return out.String(), nil
}

// expandIncludes inlines include::target[] directives one file at a time,
// bounded to avoid include loops.
func (e *FallbackEngine) expandIncludes(lines []string, baseDir string, depth int) ([]string, error) {
	if depth > 8 {
		return nil, fmt.Errorf("include nesting too deep in %s", baseDir)
	}
	var out []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "include::") || !strings.HasSuffix(trimmed, "[]") {
			out = append(out, line)
			continue
		}
		target := strings.TrimSuffix(strings.TrimPrefix(trimmed, "include::"), "[]")
		path := target
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, target)
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("include %s: %w", target, err)
		}
		nested, err := e.expandIncludes(strings.Split(string(raw), "\n"), filepath.Dir(path), depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	return out, nil
}

// substitute resolves {attr} references. A missing attribute follows the
// attribute-missing policy; the resulting warning becomes an error when it
// matches the extension's fatal-warnings patterns.
func (e *FallbackEngine) substitute(job *Job, attrs attributes.Set, line string) (string, error) {
	var firstErr error
	resolved := attrRefPattern.ReplaceAllStringFunc(line, func(ref string) string {
		key := ref[1 : len(ref)-1]
		if v, ok := attrs[key]; ok {
			return fmt.Sprint(v)
		}
		msg := fmt.Sprintf("skipping reference to missing attribute: %s", key)
		policy, _ := attrs["attribute-missing"].(string)
		if policy == "warn" || policy == "" {
			if job.Extension().IsFatal(msg) && firstErr == nil {
				firstErr = fmt.Errorf("fatal warning: %s", msg)
				return ref
			}
			slog.Warn("Missing attribute reference",
				logfields.Job(job.Name()), slog.String("attribute", key))
		}
		return ref
	})
	if firstErr != nil {
		return "", firstErr
	}
	return resolved, nil
}

func (e *FallbackEngine) blockSwitchEnabled(job *Job) bool {
	for _, coord := range job.ExtensionLibraries() {
		if strings.Contains(coord, "block-switch") {
			return true
		}
	}
	return false
}
