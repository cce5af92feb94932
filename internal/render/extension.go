package render

import (
	"fmt"
	"regexp"
)

// Extension is the engine-level configuration surface shared by all jobs of
// a project. Its only policy today is the fatal-warnings pattern set: any
// engine warning matching a registered pattern fails the render.
type Extension struct {
	fatalWarnings []*regexp.Regexp
}

// NewExtension creates an extension with no fatal-warning patterns.
func NewExtension() *Extension { return &Extension{} }

// FatalWarnings registers a pattern; engine warnings matching it become
// fatal errors.
func (e *Extension) FatalWarnings(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("fatal warnings pattern %q: %w", pattern, err)
	}
	e.fatalWarnings = append(e.fatalWarnings, re)
	return nil
}

// IsFatal reports whether a warning message matches a fatal pattern.
func (e *Extension) IsFatal(msg string) bool {
	for _, re := range e.fatalWarnings {
		if re.MatchString(msg) {
			return true
		}
	}
	return false
}

// HasFatalWarnings reports whether any fatal pattern is registered.
func (e *Extension) HasFatalWarnings() bool { return len(e.fatalWarnings) > 0 }
