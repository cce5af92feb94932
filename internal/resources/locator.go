package resources

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/adocbuild/internal/config"
	"git.home.luguber.info/inful/adocbuild/internal/logfields"
	"git.home.luguber.info/inful/adocbuild/internal/metrics"
	"git.home.luguber.info/inful/adocbuild/internal/staging"
)

// ErrCoordinateNotFound indicates no configured repository could provide
// the requested coordinate.
var ErrCoordinateNotFound = errors.New("coordinate not found")

// Locator resolves artifact coordinates against an ordered repository list.
// Repositories are tried in order; the first that provides the artifact
// wins. There is no retry: resolution failures are fatal and the host's
// task machinery decides what happens next.
type Locator struct {
	repos    []config.Repository
	client   *http.Client
	recorder metrics.Recorder
}

// NewLocator creates a locator over the given repositories.
func NewLocator(repos []config.Repository) *Locator {
	return &Locator{
		repos:    repos,
		client:   http.DefaultClient,
		recorder: metrics.NoopRecorder{},
	}
}

// WithClient overrides the HTTP client (fluent helper).
func (l *Locator) WithClient(c *http.Client) *Locator {
	if c != nil {
		l.client = c
	}
	return l
}

// WithRecorder attaches a metrics recorder (fluent helper).
func (l *Locator) WithRecorder(rec metrics.Recorder) *Locator {
	if rec != nil {
		l.recorder = rec
	}
	return l
}

// Resolve fetches the coordinate's archive and extracts it into destDir.
// The destination is cleared first, so repeated resolution yields identical
// contents (sync semantics, not additive).
func (l *Locator) Resolve(ctx context.Context, coord Coordinate, destDir string) error {
	if len(l.repos) == 0 {
		return fmt.Errorf("%w: %s: no repositories configured", ErrCoordinateNotFound, coord)
	}
	var lastErr error
	for _, repo := range l.repos {
		var err error
		switch repo.Kind {
		case "git":
			err = l.resolveGit(ctx, repo, coord, destDir)
		default:
			err = l.resolveHTTP(ctx, repo, coord, destDir)
		}
		if err == nil {
			l.recorder.IncResolveResult(repo.Kind, metrics.ResultSuccess)
			slog.Info("Resolved documentation resources",
				logfields.Coordinate(coord.String()), logfields.Repository(repo.Name), logfields.Path(destDir))
			return nil
		}
		l.recorder.IncResolveResult(repo.Kind, metrics.ResultFatal)
		slog.Debug("Repository could not provide coordinate",
			logfields.Coordinate(coord.String()), logfields.Repository(repo.Name), logfields.Error(err))
		lastErr = err
	}
	return fmt.Errorf("%w: %s: %w", ErrCoordinateNotFound, coord, lastErr)
}

// resolveHTTP downloads <base>/<group>/<name>/<version>/<name>-<version>.zip
// and extracts it into destDir.
func (l *Locator) resolveHTTP(ctx context.Context, repo config.Repository, coord Coordinate, destDir string) error {
	url := fmt.Sprintf("%s/%s/%s/%s/%s-%s.zip",
		strings.TrimRight(repo.URL, "/"), coord.Group, coord.Name, coord.Version, coord.Name, coord.Version)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp("", "adocbuild-bundle-*.zip")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("download %s: %w", url, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return extractZip(tmp.Name(), destDir)
}

// resolveGit clones the repository at the version tag (v<version> or
// <version>) and takes its worktree as the bundle contents.
func (l *Locator) resolveGit(ctx context.Context, repo config.Repository, coord Coordinate, destDir string) error {
	tmp, err := os.MkdirTemp("", "adocbuild-bundle-git-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	var cloneErr error
	for _, tag := range []string{"v" + coord.Version, coord.Version} {
		opts := &git.CloneOptions{
			URL:           repo.URL,
			ReferenceName: plumbing.NewTagReferenceName(tag),
			SingleBranch:  true,
			Depth:         1,
		}
		if _, cloneErr = git.PlainCloneContext(ctx, tmp, false, opts); cloneErr == nil {
			break
		}
		// A failed attempt may leave a partial clone behind.
		if err := os.RemoveAll(tmp); err != nil {
			return err
		}
		if err := os.MkdirAll(tmp, 0o750); err != nil {
			return err
		}
	}
	if cloneErr != nil {
		return fmt.Errorf("clone %s at %s: %w", repo.URL, coord.Version, cloneErr)
	}

	if err := staging.SyncTree(tmp, destDir); err != nil {
		return err
	}
	return os.RemoveAll(filepath.Join(destDir, ".git"))
}

// extractZip unpacks the archive into destDir, clearing it first.
func extractZip(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	if err := os.RemoveAll(destDir); err != nil {
		return err
	}
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return err
	}

	for _, f := range r.File {
		target := filepath.Join(destDir, filepath.Clean(f.Name))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry escapes destination: %s", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		in, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.Create(target)
		if err != nil {
			in.Close()
			return err
		}
		if _, err := io.Copy(out, in); err != nil {
			in.Close()
			out.Close()
			return err
		}
		in.Close()
		if err := out.Close(); err != nil {
			return err
		}
	}
	return nil
}
