// Package render models documentation render jobs and the engines that
// execute them. A Job is one configured rendering unit (one backend, one
// source directory, one or more output directories); conventions mutate its
// attributes and options during the configuration phase, before any task
// executes.
package render

import (
	"path/filepath"

	"git.home.luguber.info/inful/adocbuild/internal/attributes"
)

// Backend identifies the render output format of a job.
type Backend string

const (
	BackendHTML Backend = "html"
	BackendPDF  Backend = "pdf"
)

// IsValid returns true if the backend is recognized.
func (b Backend) IsValid() bool {
	switch b {
	case BackendHTML, BackendPDF:
		return true
	default:
		return false
	}
}

// Job is one documentation-rendering unit.
type Job struct {
	name    string
	backend Backend
	root    string // project root; relative source dirs resolve against it

	sourceDir  string
	outputDirs []string

	attrs attributes.Set
	opts  attributes.Set

	baseDirFollowsSourceFile bool

	extension     *Extension
	extensionLibs []string
}

// NewJob creates a job rooted at the project root. sourceDir may be relative
// to root.
func NewJob(name string, backend Backend, root, sourceDir string) *Job {
	return &Job{
		name:      name,
		backend:   backend,
		root:      root,
		sourceDir: sourceDir,
		attrs:     attributes.Set{},
		opts:      attributes.Set{},
	}
}

func (j *Job) Name() string     { return j.name }
func (j *Job) Backend() Backend { return j.backend }

// SourceDir returns the configured source directory as set, which may be
// relative to the project root.
func (j *Job) SourceDir() string { return j.sourceDir }

// SetSourceDir repoints the job's source directory. The stager calls this
// after staging so subsequent path-relative operations use the staged copy.
func (j *Job) SetSourceDir(dir string) { j.sourceDir = dir }

// AbsSourceDir resolves the source directory against the project root.
func (j *Job) AbsSourceDir() string {
	if filepath.IsAbs(j.sourceDir) {
		return j.sourceDir
	}
	return filepath.Join(j.root, j.sourceDir)
}

// OutputDirs returns the per-backend output directories.
func (j *Job) OutputDirs() []string { return j.outputDirs }

// SetOutputDirs replaces the output directory list.
func (j *Job) SetOutputDirs(dirs ...string) { j.outputDirs = dirs }

// ApplyAttributes merges attrs into the job's attribute set, last write wins.
func (j *Job) ApplyAttributes(attrs attributes.Set) { j.attrs.Merge(attrs) }

// Attributes returns the composed attribute set.
func (j *Job) Attributes() attributes.Set { return j.attrs }

// ApplyOptions merges opts into the job's option set, last write wins.
func (j *Job) ApplyOptions(opts attributes.Set) { j.opts.Merge(opts) }

// Options returns the composed option set.
func (j *Job) Options() attributes.Set { return j.opts }

// BaseDirFollowsSourceFile makes the engine resolve the document base
// directory relative to each source file's location.
func (j *Job) BaseDirFollowsSourceFile() { j.baseDirFollowsSourceFile = true }

// BaseDirFollowsSource reports whether base-dir-follows-source-file is set.
func (j *Job) BaseDirFollowsSource() bool { return j.baseDirFollowsSourceFile }

// SetExtension attaches the engine extension the job inherits policy from.
func (j *Job) SetExtension(ext *Extension) { j.extension = ext }

// Extension returns the attached engine extension, never nil.
func (j *Job) Extension() *Extension {
	if j.extension == nil {
		j.extension = NewExtension()
	}
	return j.extension
}

// UseExtensionLibraries records the extension library coordinates supplied
// to the engine for this job.
func (j *Job) UseExtensionLibraries(coords ...string) { j.extensionLibs = coords }

// ExtensionLibraries returns the configured extension library coordinates.
func (j *Job) ExtensionLibraries() []string { return j.extensionLibs }
