package bom

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"git.home.luguber.info/inful/bundlepacker/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bom.yaml")
	original := &BOM{
		Metadata: Metadata{GroupID: "g", ArtifactID: "a", Version: "1.0"},
		Components: map[string]Entry{
			"workflow-job": {Version: "256.0-master-abc-SNAPSHOT", Status: StatusBuilt},
			"jenkins-war":  {Version: "2.462.3", Status: StatusPinned},
		},
	}
	require.NoError(t, original.Write(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, original.Components, loaded.Components)
	assert.Equal(t, "a", loaded.Metadata.ArtifactID)
}

func TestPinnedVersions(t *testing.T) {
	b := &BOM{Components: map[string]Entry{
		"workflow-job": {Version: "2.40"},
		"remoting":     {Version: "3.14"},
	}}
	assert.Equal(t, map[string]string{"workflow-job": "2.40", "remoting": "3.14"}, b.PinnedVersions())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

// writePlugin creates a plugin archive with manifest identity attributes.
func writePlugin(t *testing.T, dir, fileName, shortName, version string) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, fileName))
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	entry, err := w.Create("META-INF/MANIFEST.MF")
	require.NoError(t, err)
	manifest := "Manifest-Version: 1.0\n"
	if shortName != "" {
		manifest += "Short-Name: " + shortName + "\n"
	}
	if version != "" {
		manifest += "Plugin-Version: " + version + "\n"
	}
	manifest += "\n"
	_, err = entry.Write([]byte(manifest))
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestEmitScansComponentDirectory(t *testing.T) {
	pluginsDir := t.TempDir()
	writePlugin(t, pluginsDir, "workflow-job.hpi", "workflow-job", "2.40")
	writePlugin(t, pluginsDir, "credentials.jpi", "credentials", "1191.v")

	emitter := NewEmitter(config.Bundle{GroupID: "g", ArtifactID: "my-bundle", Version: "1.0"})
	b, err := emitter.Emit(pluginsDir, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, Entry{Version: "2.40", Status: StatusPinned}, b.Components["workflow-job"])
	assert.Equal(t, Entry{Version: "1191.v", Status: StatusPinned}, b.Components["credentials"])
	assert.NotEmpty(t, b.Metadata.RunID)
	assert.Equal(t, "my-bundle", b.Metadata.ArtifactID)
}

func TestEmitOverrideWinsOverManifest(t *testing.T) {
	pluginsDir := t.TempDir()
	// The installed manifest lags behind what was actually built.
	writePlugin(t, pluginsDir, "workflow-job.hpi", "workflow-job", "2.40")

	emitter := NewEmitter(config.Bundle{ArtifactID: "my-bundle"})
	overrides := map[string]string{"workflow-job": "256.0-master-abc-SNAPSHOT"}
	statuses := map[string]Status{"workflow-job": StatusBuilt}

	b, err := emitter.Emit(pluginsDir, overrides, statuses)
	require.NoError(t, err)
	assert.Equal(t, Entry{Version: "256.0-master-abc-SNAPSHOT", Status: StatusBuilt}, b.Components["workflow-job"])
}

func TestEmitIncludesOverridesWithoutArchive(t *testing.T) {
	emitter := NewEmitter(config.Bundle{ArtifactID: "my-bundle"})
	overrides := map[string]string{"remoting": "256.0-2024-05-01-SNAPSHOT"}
	statuses := map[string]Status{"remoting": StatusCached}

	b, err := emitter.Emit(filepath.Join(t.TempDir(), "no-such-dir"), overrides, statuses)
	require.NoError(t, err)
	assert.Equal(t, Entry{Version: "256.0-2024-05-01-SNAPSHOT", Status: StatusCached}, b.Components["remoting"])
}

func TestEmitFallsBackToFileName(t *testing.T) {
	pluginsDir := t.TempDir()
	writePlugin(t, pluginsDir, "mystery.hpi", "", "")

	emitter := NewEmitter(config.Bundle{ArtifactID: "my-bundle"})
	b, err := emitter.Emit(pluginsDir, nil, nil)
	require.NoError(t, err)
	_, ok := b.Components["mystery"]
	assert.True(t, ok)
}
