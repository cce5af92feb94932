package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyTask       = "task"
	KeyJob        = "job"
	KeyBackend    = "backend"
	KeyCoordinate = "coordinate"
	KeyRepo       = "repository"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyRunID      = "run_id"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Task(name string) slog.Attr      { return slog.String(KeyTask, name) }
func Job(name string) slog.Attr       { return slog.String(KeyJob, name) }
func Backend(b string) slog.Attr      { return slog.String(KeyBackend, b) }
func Coordinate(c string) slog.Attr   { return slog.String(KeyCoordinate, c) }
func Repository(r string) slog.Attr   { return slog.String(KeyRepo, r) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
