// Package attributes composes the Asciidoctor attribute and option sets
// applied to every render job. Values are scalars (string, bool, int);
// composition is a last-write-wins union so later groups can override
// earlier ones without hidden ordering rules.
package attributes

import "time"

// Set is a string-keyed mapping of scalar attribute values.
type Set map[string]any

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Merge writes every entry of src into s, overwriting existing keys
// (last write wins). Returns s for chaining.
func (s Set) Merge(src Set) Set {
	for k, v := range src {
		s[k] = v
	}
	return s
}

// Common returns the attributes applied to every render job regardless of
// backend. References to missing attributes produce a warning here; the
// engine-level fatal-warnings pattern escalates those warnings to errors.
func Common(now time.Time) Set {
	return Set{
		"attribute-missing": "warn",
		"icons":             "font",
		"idprefix":          "",
		"idseparator":       "-",
		"docinfo":           "shared",
		"sectanchors":       "",
		"sectnums":          "",
		"today-year":        now.Year(),
	}
}

// HTMLOnly returns the attributes applied only to HTML-backend jobs.
// The stylesheet and highlighter paths are relative to the staged asset
// subdirectory merged in by the source stager.
func HTMLOnly() Set {
	return Set{
		"source-highlighter": "highlight.js",
		"highlightjsdir":     "js/highlight",
		"highlightjs-theme":  "github",
		"linkcss":            true,
		"icons":              "font",
		"stylesheet":         "css/site.css",
	}
}

// Options returns the options applied to every render job.
func Options() Set {
	return Set{
		"doctype": "book",
	}
}
