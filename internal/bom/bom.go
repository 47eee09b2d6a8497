// Package bom models the bill of materials: the manifest of resolved
// component versions and their build status, written at the end of a run and
// loadable to seed version overrides before one.
package bom

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Status classifies how a component's version was obtained.
type Status string

const (
	StatusBuilt  Status = "built"  // freshly built this run
	StatusCached Status = "cached" // found in the artifact store, build skipped
	StatusPinned Status = "pinned" // pinned release, never built
)

// Entry is one component's resolved version.
type Entry struct {
	Version string `yaml:"version"`
	Status  Status `yaml:"status,omitempty"`
}

// Metadata describes the run that produced the BOM.
type Metadata struct {
	RunID       string    `yaml:"runId,omitempty"`
	GeneratedAt time.Time `yaml:"generatedAt,omitempty"`
	GroupID     string    `yaml:"groupId,omitempty"`
	ArtifactID  string    `yaml:"artifactId,omitempty"`
	Version     string    `yaml:"version,omitempty"`
}

// BOM maps component artifact names to resolved versions.
type BOM struct {
	Metadata   Metadata         `yaml:"metadata"`
	Components map[string]Entry `yaml:"components"`
}

// Load reads a BOM file.
func Load(path string) (*BOM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read BOM file: %w", err)
	}
	var b BOM
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to unmarshal BOM: %w", err)
	}
	return &b, nil
}

// Write serializes the BOM to path.
func (b *BOM) Write(path string) error {
	data, err := yaml.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal BOM: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write BOM file: %w", err)
	}
	return nil
}

// PinnedVersions returns the artifact-name to version mapping for seeding a
// configuration before a run.
func (b *BOM) PinnedVersions() map[string]string {
	versions := make(map[string]string, len(b.Components))
	for name, entry := range b.Components {
		versions[name] = entry.Version
	}
	return versions
}
