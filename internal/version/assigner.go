// Package version derives snapshot version strings for freshly built
// components. Versions double as cache keys in the local artifact store, so
// assignment for version-control sources must be a pure function of the
// resolved source.
package version

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/bundlepacker/internal/config"
)

// BaseMajor is a placeholder major version. It is chosen high enough that
// the assigned snapshot sorts above any real release, which keeps dependency
// range checks in the consuming ecosystem from rejecting the override.
const BaseMajor = "256.0"

// Assigner computes component versions. The clock only feeds filesystem
// sources; git-sourced versions never consult it.
type Assigner struct {
	now func() time.Time
}

// NewAssigner returns an assigner using the wall clock for filesystem sources.
func NewAssigner() *Assigner {
	return &Assigner{now: time.Now}
}

// NewAssignerWithClock returns an assigner with an injected clock.
func NewAssignerWithClock(now func() time.Time) *Assigner {
	return &Assigner{now: now}
}

// Assign returns the snapshot version for a component about to be built.
//
// Git sources yield "{BaseMajor}-{refOrDefault}-{commit}-SNAPSHOT": identical
// remote, ref and commit always produce the identical string, and different
// commits of the same ref never collide. Filesystem sources yield a
// date-stamped version; local trees are assumed to change on every
// invocation, so no caching benefit is expected there.
func (a *Assigner) Assign(src *config.Source, resolvedCommit string) (string, error) {
	switch src.Kind() {
	case config.SourceGit:
		ref := src.Ref
		if ref == "" {
			ref = "default"
		}
		return fmt.Sprintf("%s-%s-%s-SNAPSHOT", BaseMajor, ref, resolvedCommit), nil
	case config.SourceFilesystem:
		return fmt.Sprintf("%s-%s-SNAPSHOT", BaseMajor, a.now().Format("2006-01-02")), nil
	default:
		return "", fmt.Errorf("cannot assign a version for source kind: %s", src)
	}
}
