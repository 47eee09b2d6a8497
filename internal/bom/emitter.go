package bom

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/bundlepacker/internal/archive"
	"git.home.luguber.info/inful/bundlepacker/internal/config"
	"git.home.luguber.info/inful/bundlepacker/internal/logfields"
	"github.com/google/uuid"
)

// Emitter produces the output BOM from the patched archive's component
// directory and the run's version-override map.
type Emitter struct {
	bundle config.Bundle
}

// NewEmitter creates an emitter stamping the given bundle identity.
func NewEmitter(bundle config.Bundle) *Emitter {
	return &Emitter{bundle: bundle}
}

// Emit scans every installed component archive under pluginsDir for its
// manifest version and merges in the version-override map. Where both exist
// the override wins: it reflects what was actually built, while a manifest
// may lag. statuses classifies each override (built vs cached); components
// known only from their manifest are pinned releases.
func (e *Emitter) Emit(pluginsDir string, overrides map[string]string, statuses map[string]Status) (*BOM, error) {
	components := make(map[string]Entry)

	entries, err := os.ReadDir(pluginsDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to scan component directory: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".hpi") && !strings.HasSuffix(name, ".jpi")) {
			continue
		}
		artifactID, manifestVersion, err := componentIdentity(filepath.Join(pluginsDir, name))
		if err != nil {
			return nil, err
		}
		components[artifactID] = Entry{Version: manifestVersion, Status: StatusPinned}
	}

	for name, version := range overrides {
		status := statuses[name]
		if status == "" {
			status = StatusBuilt
		}
		if existing, ok := components[name]; ok && existing.Version != version {
			slog.Debug("Override wins over manifest version",
				logfields.Component(name),
				slog.String("manifest", existing.Version),
				logfields.Version(version))
		}
		components[name] = Entry{Version: version, Status: status}
	}

	return &BOM{
		Metadata: Metadata{
			RunID:       uuid.NewString(),
			GeneratedAt: time.Now().UTC(),
			GroupID:     e.bundle.GroupID,
			ArtifactID:  e.bundle.ArtifactID,
			Version:     e.bundle.Version,
		},
		Components: components,
	}, nil
}

// componentIdentity reads a component archive's identity from its manifest,
// falling back to the file name when attributes are absent.
func componentIdentity(path string) (artifactID, version string, err error) {
	manifest, err := archive.ReadManifest(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read component manifest: %w", err)
	}
	artifactID = manifest["Short-Name"]
	if artifactID == "" {
		artifactID = strings.TrimSuffix(strings.TrimSuffix(filepath.Base(path), ".hpi"), ".jpi")
	}
	version = manifest["Plugin-Version"]
	if version == "" {
		version = manifest["Implementation-Version"]
	}
	return artifactID, version, nil
}
