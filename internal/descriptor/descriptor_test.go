package descriptor

import (
	"os"
	"path/filepath"
	"testing"

	"git.home.luguber.info/inful/bundlepacker/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func testConfig() *config.Config {
	return &config.Config{
		Bundle: config.Bundle{GroupID: "io.github.inful.bundles", ArtifactID: "my-bundle", Version: "1.1"},
		War: &config.Dependency{
			GroupID:    "org.jenkins-ci.main",
			ArtifactID: "jenkins-war",
			Source:     &config.Source{Version: "2.462.3"},
		},
		Plugins: []config.Dependency{
			{GroupID: "org.jenkins-ci.plugins.workflow", ArtifactID: "workflow-job",
				Source: &config.Source{Git: "https://example.com/r.git", Ref: "master"}},
			{GroupID: "io.jenkins.plugins", ArtifactID: "configuration-as-code",
				Source: &config.Source{Version: "1.55"}},
		},
		LibExcludes: []string{"foo"},
	}
}

func TestPrebuildDescriptor(t *testing.T) {
	overrides := map[string]string{"workflow-job": "256.0-master-abc-SNAPSHOT"}
	d, err := NewGenerator(testConfig()).Prebuild(overrides)
	require.NoError(t, err)

	assert.Equal(t, KindPrebuild, d.Kind)
	assert.Equal(t, "-prebuild", d.Suffix)
	assert.Equal(t, "my-bundle", d.Bundle.ArtifactID)
	assert.Equal(t, "1.1", d.Bundle.Version)

	require.Len(t, d.Plugins, 2)
	assert.Equal(t, "256.0-master-abc-SNAPSHOT", d.Plugins[0].Version, "built plugin uses the override")
	assert.Equal(t, "1.55", d.Plugins[1].Version, "pinned plugin uses its release version")
}

func TestPrebuildFailsWithoutResolvedVersion(t *testing.T) {
	cfg := testConfig()
	// workflow-job is a git source with no override: the override map is incomplete.
	_, err := NewGenerator(cfg).Prebuild(nil)
	require.Error(t, err)
}

func TestFinalDescriptor(t *testing.T) {
	d, err := NewGenerator(testConfig()).Final("/tmp/exploded", map[string]string{"Implementation-Version": "2.462.3"})
	require.NoError(t, err)

	assert.Equal(t, KindBundle, d.Kind)
	assert.Equal(t, "/tmp/exploded", d.ExplodedDir)
	assert.Equal(t, []string{"foo"}, d.LibExcludes)
	assert.Equal(t, "2.462.3", d.ManifestAttributes["Implementation-Version"])
}

func TestBundleVersionDefault(t *testing.T) {
	cfg := testConfig()
	cfg.Bundle.Version = ""
	cfg.Plugins = nil

	d, err := NewGenerator(cfg).Prebuild(nil)
	require.NoError(t, err)
	assert.Equal(t, "1.0-SNAPSHOT", d.Bundle.Version)
}

func TestInputDescriptorPassThrough(t *testing.T) {
	input := filepath.Join(t.TempDir(), "template.yaml")
	require.NoError(t, os.WriteFile(input, []byte("repositories:\n  - id: jenkins\n    url: https://repo.jenkins-ci.org/public/\nkind: hijacked\n"), 0o640))

	cfg := testConfig()
	cfg.Plugins = nil
	cfg.BuildSettings.Descriptor = input

	d, err := NewGenerator(cfg).Prebuild(nil)
	require.NoError(t, err)
	assert.Equal(t, KindPrebuild, d.Kind, "generated fields win over template keys")
	assert.Contains(t, d.Extra, "repositories")
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prebuild")
	cfg := testConfig()
	cfg.Plugins = nil

	d, err := NewGenerator(cfg).Prebuild(nil)
	require.NoError(t, err)
	require.NoError(t, Write(d, dir))

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)

	var loaded Descriptor
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	assert.Equal(t, d.Bundle, loaded.Bundle)
	assert.Equal(t, KindPrebuild, loaded.Kind)
}
