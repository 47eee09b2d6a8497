package builder

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/bundlepacker/internal/bom"
	"git.home.luguber.info/inful/bundlepacker/internal/config"
	pkgerrors "git.home.luguber.info/inful/bundlepacker/internal/errors"
	"git.home.luguber.info/inful/bundlepacker/internal/logfields"
)

// buildIfNeeded runs the per-component half of the pipeline: resolve the
// source pin, assign the deterministic version, consult the artifact-store
// cache, and only then check out and build. The assigned version is recorded
// in the override map in every non-skip path, cached or built.
func (b *Builder) buildIfNeeded(ctx context.Context, dep *config.Dependency, packaging string) error {
	if !dep.NeedsBuild() {
		slog.Info("Component: no build required", logfields.Component(dep.ArtifactID))
		if dep.Source != nil && dep.Source.Version != "" {
			b.statuses[dep.ArtifactID] = bom.StatusPinned
		}
		return nil
	}

	workDir, err := b.ws.ComponentDir(dep.ArtifactID)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CategoryFileSystem, pkgerrors.SeverityFatal, "failed to create the component build directory")
	}

	src := dep.Source
	switch src.Kind() {
	case config.SourceGit:
		commit, err := b.resolver.ResolveCommit(ctx, src)
		if err != nil {
			return pkgerrors.SourceError(err, "failed to resolve the commit for "+dep.ArtifactID)
		}

		newVersion, err := b.assigner.Assign(src, commit)
		if err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CategoryInternal, pkgerrors.SeverityFatal, "version assignment failed")
		}
		if err := b.overrides.Put(dep.ArtifactID, newVersion); err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CategoryInternal, pkgerrors.SeverityFatal, "duplicate component in the pipeline")
		}

		if b.store.Exists(dep, newVersion, packaging) {
			b.recorder.IncCacheResult(true)
			b.statuses[dep.ArtifactID] = bom.StatusCached
			slog.Info("Snapshot version exists, skipping the build",
				logfields.Component(dep.ArtifactID), logfields.Version(newVersion))
			return nil
		}
		b.recorder.IncCacheResult(false)
		slog.Info("Snapshot is missing, will run the build",
			logfields.Component(dep.ArtifactID), logfields.Version(newVersion))

		// The checkout pins the hash the version was computed from, so a ref
		// moving between the tip query and the clone cannot desynchronize
		// the cache key from the built tree.
		pinned := *src
		pinned.Commit = commit
		resolved, err := b.resolver.Resolve(ctx, dep.ArtifactID, &pinned, workDir, true)
		if err != nil {
			return pkgerrors.SourceError(err, "failed to check out "+dep.ArtifactID)
		}
		return b.install(ctx, dep, resolved.Dir, newVersion)

	case config.SourceFilesystem:
		// Local trees are assumed dirty on every invocation; the date-based
		// version gives no cache benefit, so the build always runs.
		newVersion, err := b.assigner.Assign(src, "")
		if err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CategoryInternal, pkgerrors.SeverityFatal, "version assignment failed")
		}
		if err := b.overrides.Put(dep.ArtifactID, newVersion); err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CategoryInternal, pkgerrors.SeverityFatal, "duplicate component in the pipeline")
		}

		resolved, err := b.resolver.Resolve(ctx, dep.ArtifactID, src, workDir, true)
		if err != nil {
			return pkgerrors.SourceError(err, "failed to copy the source tree for "+dep.ArtifactID)
		}
		return b.install(ctx, dep, resolved.Dir, newVersion)

	default:
		return pkgerrors.SourceError(nil, "unsupported checkout source for "+dep.ArtifactID)
	}
}

// install re-versions the workspace and publishes the component into the
// artifact store. The publish lock serializes concurrent installs of the
// same (artifact, version) pair.
func (b *Builder) install(ctx context.Context, dep *config.Dependency, dir, newVersion string) error {
	lock := b.store.PublishLock(dep.ArtifactID, newVersion)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()

	if dep.BuildOriginalVersion() {
		if err := b.tc.InstallSkipTests(ctx, dir); err != nil {
			return pkgerrors.BuildError(err, "failed to install "+dep.ArtifactID+" at its original version")
		}
	}

	slog.Info("Set new version", logfields.Component(dep.ArtifactID), logfields.Version(newVersion))
	if err := b.tc.SetVersion(ctx, dir, newVersion); err != nil {
		return pkgerrors.BuildError(err, "failed to re-version "+dep.ArtifactID)
	}
	if err := b.tc.InstallSkipTests(ctx, dir); err != nil {
		return pkgerrors.BuildError(err, "failed to install "+dep.ArtifactID)
	}

	b.statuses[dep.ArtifactID] = bom.StatusBuilt
	b.recorder.ObserveComponentBuildDuration(dep.ArtifactID, time.Since(start))
	return nil
}

// checkoutIfNeeded materializes an extra resource tree. Filesystem sources
// are used in place; git sources are cloned into the resource's workspace
// directory.
func (b *Builder) checkoutIfNeeded(ctx context.Context, id string, src *config.Source) (string, error) {
	workDir, err := b.ws.ComponentDir(id)
	if err != nil {
		return "", pkgerrors.Wrap(err, pkgerrors.CategoryFileSystem, pkgerrors.SeverityFatal, "failed to create the resource directory")
	}
	resolved, err := b.resolver.Resolve(ctx, id, src, workDir, false)
	if err != nil {
		return "", pkgerrors.SourceError(err, "failed to check out resource "+id)
	}
	if resolved.Commit != "" {
		slog.Info("Checked out resource", logfields.Component(id), logfields.Commit(resolved.Commit))
	}
	return resolved.Dir, nil
}
