package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyComponent  = "component"
	KeyVersion    = "version"
	KeyPackaging  = "packaging"
	KeyStage      = "stage"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyRef        = "ref"
	KeyCommit     = "commit"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Component(id string) slog.Attr   { return slog.String(KeyComponent, id) }
func Version(v string) slog.Attr      { return slog.String(KeyVersion, v) }
func Packaging(p string) slog.Attr    { return slog.String(KeyPackaging, p) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Ref(r string) slog.Attr          { return slog.String(KeyRef, r) }
func Commit(c string) slog.Attr       { return slog.String(KeyCommit, c) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
