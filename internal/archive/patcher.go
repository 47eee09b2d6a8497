// Package archive performs the in-place surgery on the exploded, unpatched
// archive: metadata stripping, property injection, embedded-library
// replacement and exclusion, and resource layering. Step order is fixed;
// each step's postcondition is the next step's precondition.
package archive

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/bundlepacker/internal/config"
	pkgerrors "git.home.luguber.info/inful/bundlepacker/internal/errors"
	"git.home.luguber.info/inful/bundlepacker/internal/logfields"
	"git.home.luguber.info/inful/bundlepacker/internal/store"
)

const (
	libDir = "WEB-INF/lib"
	// systemPropertiesEntry is the runtime-configuration entry point the
	// bundle's runtime reads at startup.
	systemPropertiesEntry = "WEB-INF/classes/bundlepacker-system.properties"
)

// Patcher mutates an exploded archive tree through an ordered step chain.
// The first failing step poisons the chain; later steps become no-ops and
// Err returns the failure.
type Patcher struct {
	cfg   *config.Config
	store *store.Store
	root  string
	err   error
}

// NewPatcher explodes srcArchive into explodedDir and returns a patcher over
// the tree.
func NewPatcher(cfg *config.Config, st *store.Store, srcArchive, explodedDir string) (*Patcher, error) {
	if err := Explode(srcArchive, explodedDir); err != nil {
		return nil, pkgerrors.PatchError(err, "failed to explode the unpatched archive")
	}
	return &Patcher{cfg: cfg, store: st, root: explodedDir}, nil
}

// Root returns the exploded tree the patcher operates on.
func (p *Patcher) Root() string { return p.root }

// Err returns the first step failure, if any.
func (p *Patcher) Err() error { return p.err }

func (p *Patcher) fail(err error, msg string) *Patcher {
	p.err = pkgerrors.PatchError(err, msg)
	return p
}

// StripMetadata removes stale packaging metadata from the unpatched build.
// It must run before any new content is added: the repackaged archive must
// not retain signing residue that no longer matches its contents.
func (p *Patcher) StripMetadata() *Patcher {
	if p.err != nil {
		return p
	}
	metaInf := filepath.Join(p.root, "META-INF")
	if _, err := os.Stat(metaInf); os.IsNotExist(err) {
		return p.fail(err, "unpatched archive has no META-INF entry")
	}
	if err := os.RemoveAll(metaInf); err != nil {
		return p.fail(err, "failed to strip packaging metadata")
	}
	slog.Debug("Stripped packaging metadata", logfields.Path(metaInf))
	return p
}

// InjectProperties writes the configured key/value properties into the
// archive's runtime-configuration entry point, merging over any existing
// entries. Keys are emitted sorted so repeated runs produce identical bytes.
func (p *Patcher) InjectProperties(props map[string]string) *Patcher {
	if p.err != nil || len(props) == 0 {
		return p
	}
	target := filepath.Join(p.root, filepath.FromSlash(systemPropertiesEntry))

	merged := make(map[string]string)
	if data, err := os.ReadFile(target); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if k, v, ok := strings.Cut(line, "="); ok {
				merged[k] = v
			}
		}
	}
	for k, v := range props {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, merged[k])
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return p.fail(err, "failed to create the properties entry directory")
	}
	if err := os.WriteFile(target, []byte(b.String()), 0o640); err != nil {
		return p.fail(err, "failed to write system properties")
	}
	slog.Info("Injected system properties", slog.Int("count", len(props)))
	return p
}

// ReplaceLibs swaps embedded libraries for the freshly built artifacts named
// in the version-override map. An override with no matching embedded library
// is expected (the component is not embedded as a library) and only logged.
func (p *Patcher) ReplaceLibs(overrides map[string]string) *Patcher {
	if p.err != nil {
		return p
	}
	libs := filepath.Join(p.root, filepath.FromSlash(libDir))

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		matches, err := filepath.Glob(filepath.Join(libs, name+"-*"))
		if err != nil {
			return p.fail(err, "failed to scan the library directory")
		}
		if len(matches) == 0 {
			slog.Info("No embedded library to replace", logfields.Component(name))
			continue
		}

		newVersion := overrides[name]
		dep := p.findDependency(name)
		if dep == nil {
			return p.fail(nil, fmt.Sprintf("override for %s has no declared component", name))
		}
		replacement := p.store.ArtifactPath(dep.GroupID, dep.ArtifactID, newVersion, "jar")
		if _, err := os.Stat(replacement); err != nil {
			return p.fail(err, fmt.Sprintf("replacement artifact missing in the store for %s:%s", name, newVersion))
		}

		for _, old := range matches {
			if err := os.Remove(old); err != nil {
				return p.fail(err, fmt.Sprintf("failed to remove embedded library %s", filepath.Base(old)))
			}
		}
		target := filepath.Join(libs, fmt.Sprintf("%s-%s.jar", name, newVersion))
		if err := copyFile(replacement, target); err != nil {
			return p.fail(err, fmt.Sprintf("failed to install replacement library %s", name))
		}
		slog.Info("Replaced embedded library", logfields.Component(name), logfields.Version(newVersion))
	}
	return p
}

// ExcludeLibs removes the named embedded libraries entirely. It runs after
// replacement so that an excluded name cannot be resurrected by a later
// replace step.
func (p *Patcher) ExcludeLibs() *Patcher {
	if p.err != nil {
		return p
	}
	libs := filepath.Join(p.root, filepath.FromSlash(libDir))
	for _, name := range p.cfg.LibExcludes {
		matches, err := filepath.Glob(filepath.Join(libs, name+"-*"))
		if err != nil {
			return p.fail(err, "failed to scan the library directory")
		}
		for _, match := range matches {
			if err := os.Remove(match); err != nil {
				return p.fail(err, fmt.Sprintf("failed to exclude library %s", filepath.Base(match)))
			}
			slog.Info("Excluded embedded library", logfields.Component(name), logfields.Path(filepath.Base(match)))
		}
	}
	return p
}

// AddResources layers the resolved resource trees into the archive, last, so
// earlier structural changes cannot be overwritten. A resource colliding
// with an existing archive file is a patch error.
func (p *Patcher) AddResources(resolved map[string]string) *Patcher {
	if p.err != nil {
		return p
	}
	for _, res := range p.cfg.AllExtraResources() {
		srcDir, ok := resolved[res.ID]
		if !ok {
			return p.fail(nil, fmt.Sprintf("resource %s was never resolved", res.ID))
		}
		target := filepath.Join(p.root, filepath.FromSlash(res.TargetPath()))
		if err := copyTreeNoOverwrite(srcDir, target); err != nil {
			return p.fail(err, fmt.Sprintf("failed to add resource %s", res.ID))
		}
		slog.Info("Added resource tree", logfields.Component(res.ID), logfields.Path(res.TargetPath()))
	}
	return p
}

// findDependency locates the declared component for an artifact name across
// the lib patches, plugins and the base war.
func (p *Patcher) findDependency(artifactID string) *config.Dependency {
	for i := range p.cfg.LibPatches {
		if p.cfg.LibPatches[i].ArtifactID == artifactID {
			return &p.cfg.LibPatches[i]
		}
	}
	if plugin := p.cfg.FindPlugin(artifactID); plugin != nil {
		return plugin
	}
	if p.cfg.War != nil && p.cfg.War.ArtifactID == artifactID {
		return p.cfg.War
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o640)
}

// copyTreeNoOverwrite copies src into dst, failing on any existing file.
func copyTreeNoOverwrite(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o750)
		}
		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("target path collision: %s", target)
		}
		return copyFile(path, target)
	})
}
