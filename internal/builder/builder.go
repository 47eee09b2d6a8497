// Package builder sequences the packaging pipeline: component builds with
// artifact-store caching, descriptor generation, archive assembly, archive
// patching and BOM emission. Every stage gates on the previous one; any
// failure aborts the run with no partial output.
package builder

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/bundlepacker/internal/archive"
	"git.home.luguber.info/inful/bundlepacker/internal/bom"
	"git.home.luguber.info/inful/bundlepacker/internal/config"
	"git.home.luguber.info/inful/bundlepacker/internal/descriptor"
	pkgerrors "git.home.luguber.info/inful/bundlepacker/internal/errors"
	"git.home.luguber.info/inful/bundlepacker/internal/logfields"
	"git.home.luguber.info/inful/bundlepacker/internal/metrics"
	"git.home.luguber.info/inful/bundlepacker/internal/source"
	"git.home.luguber.info/inful/bundlepacker/internal/store"
	"git.home.luguber.info/inful/bundlepacker/internal/toolchain"
	"git.home.luguber.info/inful/bundlepacker/internal/version"
	"git.home.luguber.info/inful/bundlepacker/internal/workspace"
)

// Pipeline stage names, in execution order.
const (
	StageVerifyConfig    = "verify-config"
	StageBaseArtifact    = "base-artifact"
	StagePlugins         = "plugins"
	StageLibPatches      = "lib-patches"
	StageResources       = "resources"
	StageBaseDescriptor  = "base-descriptor"
	StageBaseArchive     = "base-archive"
	StagePatchArchive    = "patch-archive"
	StageFinalDescriptor = "final-descriptor"
	StageFinalArchive    = "final-archive"
	StageBOM             = "bom"
)

// SourceResolver is the version-control/filesystem port of the pipeline.
type SourceResolver interface {
	ResolveCommit(ctx context.Context, src *config.Source) (string, error)
	Resolve(ctx context.Context, id string, src *config.Source, workDir string, isolate bool) (*source.Resolved, error)
}

// Builder drives a single packaging run.
type Builder struct {
	cfg      *config.Config
	ws       *workspace.Manager
	resolver SourceResolver
	assigner *version.Assigner
	store    *store.Store
	tc       toolchain.Toolchain
	recorder metrics.Recorder

	overrides    *OverrideMap
	statuses     map[string]bom.Status
	resourceDirs map[string]string
}

// Option customizes a Builder; primarily used to inject fakes in tests.
type Option func(*Builder)

func WithResolver(r SourceResolver) Option        { return func(b *Builder) { b.resolver = r } }
func WithToolchain(tc toolchain.Toolchain) Option { return func(b *Builder) { b.tc = tc } }
func WithStore(s *store.Store) Option             { return func(b *Builder) { b.store = s } }
func WithAssigner(a *version.Assigner) Option     { return func(b *Builder) { b.assigner = a } }
func WithRecorder(r metrics.Recorder) Option      { return func(b *Builder) { b.recorder = r } }

// New creates a builder for the given bundle description.
func New(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:          cfg,
		ws:           workspace.NewManager(cfg.BuildSettings.TmpDir),
		resolver:     source.NewResolver(),
		assigner:     version.NewAssigner(),
		store:        store.New(cfg.BuildSettings.ArtifactStore),
		tc:           toolchain.NewMaven(),
		recorder:     metrics.NoopRecorder{},
		overrides:    NewOverrideMap(),
		statuses:     make(map[string]bom.Status),
		resourceDirs: make(map[string]string),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Overrides exposes the accumulated version-override map.
func (b *Builder) Overrides() map[string]string { return b.overrides.Snapshot() }

// OutputBOMPath is where the run's BOM is written.
func (b *Builder) OutputBOMPath() string {
	return filepath.Join(b.cfg.BuildSettings.OutputDir, "bom.yml")
}

// runStage times a stage and translates its result into metrics. The first
// failing stage aborts the run.
func (b *Builder) runStage(name string, fn func() error) error {
	start := time.Now()
	slog.Info("Pipeline stage starting", logfields.Stage(name))
	err := fn()
	elapsed := time.Since(start)
	b.recorder.ObserveStageDuration(name, elapsed)
	if err != nil {
		b.recorder.IncStageResult(name, metrics.ResultFatal)
		slog.Error("Pipeline stage failed", logfields.Stage(name), logfields.Error(err), logfields.DurationMS(float64(elapsed.Milliseconds())))
		return err
	}
	b.recorder.IncStageResult(name, metrics.ResultSuccess)
	slog.Info("Pipeline stage finished", logfields.Stage(name), logfields.DurationMS(float64(elapsed.Milliseconds())))
	return nil
}

// Build executes the whole pipeline.
func (b *Builder) Build(ctx context.Context) error {
	if err := b.run(ctx); err != nil {
		b.recorder.IncRunOutcome("failed")
		return err
	}
	b.recorder.IncRunOutcome("success")
	return nil
}

func (b *Builder) run(ctx context.Context) error {
	// Seeding from a prior BOM happens before verification: the BOM may pin
	// components the declarative config wants built.
	if path := b.cfg.BuildSettings.BOM; path != "" {
		seed, err := bom.Load(path)
		if err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CategoryConfig, pkgerrors.SeverityFatal, "failed to load the input BOM")
		}
		slog.Info("Overriding settings by BOM file", logfields.Path(path))
		b.cfg.OverrideVersions(seed.PinnedVersions())
	}

	// Verification precedes every side effect, the workspace included.
	if err := b.runStage(StageVerifyConfig, b.cfg.Verify); err != nil {
		return err
	}

	if err := b.ws.Create(); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CategoryFileSystem, pkgerrors.SeverityFatal, "failed to prepare the workspace")
	}

	if err := b.runStage(StageBaseArtifact, func() error {
		return b.buildIfNeeded(ctx, b.cfg.War, "war")
	}); err != nil {
		return err
	}

	if err := b.runStage(StagePlugins, func() error {
		for i := range b.cfg.Plugins {
			if err := b.buildIfNeeded(ctx, &b.cfg.Plugins[i], "hpi"); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := b.runStage(StageLibPatches, func() error {
		for i := range b.cfg.LibPatches {
			if err := b.buildIfNeeded(ctx, &b.cfg.LibPatches[i], "jar"); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := b.runStage(StageResources, func() error {
		for _, res := range b.cfg.AllExtraResources() {
			dir, err := b.checkoutIfNeeded(ctx, res.ID, &res.Source)
			if err != nil {
				return err
			}
			b.resourceDirs[res.ID] = dir
		}
		return nil
	}); err != nil {
		return err
	}

	gen := descriptor.NewGenerator(b.cfg)
	prebuildDir, err := b.ws.Subdir("prebuild")
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CategoryFileSystem, pkgerrors.SeverityFatal, "failed to create the prebuild directory")
	}

	if err := b.runStage(StageBaseDescriptor, func() error {
		d, err := gen.Prebuild(b.overrides.Snapshot())
		if err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CategoryConfig, pkgerrors.SeverityFatal, "failed to generate the prebuild descriptor")
		}
		return descriptor.Write(d, prebuildDir)
	}); err != nil {
		return err
	}

	if err := b.runStage(StageBaseArchive, func() error {
		if err := b.tc.Assemble(ctx, prebuildDir, false); err != nil {
			return pkgerrors.BuildError(err, "failed to assemble the unpatched archive")
		}
		return nil
	}); err != nil {
		return err
	}

	srcWar := filepath.Join(prebuildDir, "target", b.cfg.Bundle.ArtifactID+"-prebuild.war")
	explodedDir := filepath.Join(prebuildDir, "exploded-war")
	var warManifest archive.Manifest

	if err := b.runStage(StagePatchArchive, func() error {
		m, err := archive.ReadManifest(srcWar)
		if err != nil {
			return pkgerrors.PatchError(err, "failed to read the unpatched archive manifest")
		}
		warManifest = m

		patcher, err := archive.NewPatcher(b.cfg, b.store, srcWar, explodedDir)
		if err != nil {
			return err
		}
		return patcher.
			StripMetadata().
			InjectProperties(b.cfg.SystemProperties).
			ReplaceLibs(b.overrides.Snapshot()).
			ExcludeLibs().
			AddResources(b.resourceDirs).
			Err()
	}); err != nil {
		return err
	}

	outputDir := b.cfg.BuildSettings.OutputDir
	if err := b.runStage(StageFinalDescriptor, func() error {
		d, err := gen.Final(explodedDir, warManifest)
		if err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CategoryConfig, pkgerrors.SeverityFatal, "failed to generate the final descriptor")
		}
		return descriptor.Write(d, outputDir)
	}); err != nil {
		return err
	}

	if err := b.runStage(StageFinalArchive, func() error {
		if err := b.tc.Assemble(ctx, outputDir, b.cfg.BuildSettings.InstallArtifacts); err != nil {
			return pkgerrors.BuildError(err, "failed to assemble the final archive")
		}
		return nil
	}); err != nil {
		return err
	}

	return b.runStage(StageBOM, func() error {
		emitter := bom.NewEmitter(b.cfg.Bundle)
		result, err := emitter.Emit(filepath.Join(explodedDir, "WEB-INF", "plugins"), b.overrides.Snapshot(), b.statuses)
		if err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CategoryInternal, pkgerrors.SeverityFatal, "failed to compute the BOM")
		}
		if err := result.Write(b.OutputBOMPath()); err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CategoryFileSystem, pkgerrors.SeverityFatal, "failed to write the BOM")
		}
		slog.Info("BOM written", logfields.Path(b.OutputBOMPath()), slog.Int("components", len(result.Components)))
		return nil
	})
}
