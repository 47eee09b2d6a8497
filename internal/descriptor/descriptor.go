// Package descriptor generates the build descriptors handed to the external
// build toolchain: one for the unpatched (prebuild) archive assembly and one
// for repackaging the patched tree into the final archive.
package descriptor

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/bundlepacker/internal/config"
	"gopkg.in/yaml.v3"
)

// Kind distinguishes the two toolchain passes.
type Kind string

const (
	KindPrebuild Kind = "prebuild" // assemble the unpatched archive
	KindBundle   Kind = "bundle"   // repackage the patched exploded tree
)

// FileName is the descriptor file the toolchain consumes in its work dir.
const FileName = "descriptor.yaml"

// Artifact is a fully resolved component reference.
type Artifact struct {
	GroupID    string `yaml:"groupId"`
	ArtifactID string `yaml:"artifactId"`
	Version    string `yaml:"version"`
	Packaging  string `yaml:"packaging,omitempty"`
}

// Descriptor is the toolchain input. Its schema is owned by the toolchain
// collaborator; this struct encodes the minimum the packager must convey.
type Descriptor struct {
	Kind               Kind              `yaml:"kind"`
	Bundle             Artifact          `yaml:"bundle"`
	Suffix             string            `yaml:"suffix,omitempty"` // appended to the output artifact name
	Plugins            []Artifact        `yaml:"plugins,omitempty"`
	VersionOverrides   map[string]string `yaml:"versionOverrides,omitempty"`
	LibExcludes        []string          `yaml:"libExcludes,omitempty"`
	ExplodedDir        string            `yaml:"explodedDir,omitempty"`
	ManifestAttributes map[string]string `yaml:"manifestAttributes,omitempty"`

	// Extra carries pass-through keys from an input descriptor template.
	Extra map[string]any `yaml:",inline"`
}

// Generator derives descriptors from the bundle configuration and the run's
// version-override map.
type Generator struct {
	cfg *config.Config
}

// NewGenerator creates a descriptor generator.
func NewGenerator(cfg *config.Config) *Generator {
	return &Generator{cfg: cfg}
}

func (g *Generator) bundleArtifact() Artifact {
	version := g.cfg.Bundle.Version
	if version == "" {
		version = "1.0-SNAPSHOT"
	}
	return Artifact{
		GroupID:    g.cfg.Bundle.GroupID,
		ArtifactID: g.cfg.Bundle.ArtifactID,
		Version:    version,
		Packaging:  "war",
	}
}

// Prebuild generates the descriptor assembling the unpatched archive. The
// override map must be complete: all component builds finish before this
// descriptor is emitted.
func (g *Generator) Prebuild(overrides map[string]string) (*Descriptor, error) {
	plugins := make([]Artifact, 0, len(g.cfg.Plugins))
	for i := range g.cfg.Plugins {
		dep := &g.cfg.Plugins[i]
		version, err := resolvedVersion(dep, overrides)
		if err != nil {
			return nil, err
		}
		plugins = append(plugins, Artifact{
			GroupID:    dep.GroupID,
			ArtifactID: dep.ArtifactID,
			Version:    version,
			Packaging:  "hpi",
		})
	}

	d := &Descriptor{
		Kind:             KindPrebuild,
		Bundle:           g.bundleArtifact(),
		Suffix:           "-prebuild",
		Plugins:          plugins,
		VersionOverrides: overrides,
	}
	return g.mergeInput(d)
}

// Final generates the descriptor repackaging the patched tree, carrying the
// unpatched archive's manifest attributes forward.
func (g *Generator) Final(explodedDir string, manifest map[string]string) (*Descriptor, error) {
	d := &Descriptor{
		Kind:               KindBundle,
		Bundle:             g.bundleArtifact(),
		LibExcludes:        g.cfg.LibExcludes,
		ExplodedDir:        explodedDir,
		ManifestAttributes: manifest,
	}
	return g.mergeInput(d)
}

// mergeInput layers pass-through keys from an optional input descriptor
// template under the generated fields.
func (g *Generator) mergeInput(d *Descriptor) (*Descriptor, error) {
	path := g.cfg.BuildSettings.Descriptor
	if path == "" {
		return d, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input descriptor: %w", err)
	}
	extra := make(map[string]any)
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("failed to unmarshal input descriptor: %w", err)
	}
	// Generated fields always win over template keys.
	for _, owned := range []string{"kind", "bundle", "suffix", "plugins", "versionOverrides", "libExcludes", "explodedDir", "manifestAttributes"} {
		delete(extra, owned)
	}
	d.Extra = extra
	return d, nil
}

// Write serializes the descriptor into the toolchain work directory.
func Write(d *Descriptor, dir string) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal descriptor: %w", err)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create descriptor directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), data, 0o644); err != nil {
		return fmt.Errorf("failed to write descriptor: %w", err)
	}
	return nil
}

// resolvedVersion returns the version the descriptor must reference: the
// override when the component was built this run, else its pinned release.
func resolvedVersion(dep *config.Dependency, overrides map[string]string) (string, error) {
	if v, ok := overrides[dep.ArtifactID]; ok {
		return v, nil
	}
	if dep.Source != nil && dep.Source.Version != "" {
		return dep.Source.Version, nil
	}
	return "", fmt.Errorf("no resolved version for %s", dep.ArtifactID)
}
