package config

import (
	"os"
	"path/filepath"
	"testing"

	pkgerrors "git.home.luguber.info/inful/bundlepacker/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
bundle:
  groupId: io.github.inful.bundles
  artifactId: my-bundle
buildSettings:
  tmpDir: /tmp/bp
war:
  groupId: org.jenkins-ci.main
  artifactId: jenkins-war
  source:
    version: 2.462.3
plugins:
  - groupId: org.jenkins-ci.plugins.workflow
    artifactId: workflow-job
    source:
      git: https://github.com/jenkinsci/workflow-job-plugin.git
      ref: master
libPatches:
  - groupId: org.jenkins-ci.main
    artifactId: remoting
    source:
      dir: /src/remoting
systemProperties:
  jenkins.model.Jenkins.slaveAgentPort: "50000"
resources:
  - id: init-scripts
    source:
      dir: /src/init
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "packager.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o640))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "my-bundle", cfg.Bundle.ArtifactID)
	assert.Equal(t, "/tmp/bp", cfg.BuildSettings.TmpDir)
	assert.Equal(t, "output", cfg.BuildSettings.OutputDir, "output dir default applies")

	require.NotNil(t, cfg.War)
	assert.Equal(t, SourceRelease, cfg.War.Source.Kind())
	assert.False(t, cfg.War.NeedsBuild())

	require.Len(t, cfg.Plugins, 1)
	assert.Equal(t, SourceGit, cfg.Plugins[0].Source.Kind())
	assert.True(t, cfg.Plugins[0].NeedsBuild())

	require.Len(t, cfg.LibPatches, 1)
	assert.Equal(t, SourceFilesystem, cfg.LibPatches[0].Source.Kind())

	require.Len(t, cfg.Resources, 1)
	assert.Equal(t, "WEB-INF/init-scripts", cfg.Resources[0].TargetPath())
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("BP_TEST_REMOTE", "https://example.com/repo.git")
	content := `
bundle:
  groupId: g
  artifactId: a
war:
  groupId: g
  artifactId: w
  source:
    git: ${BP_TEST_REMOTE}
`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/repo.git", cfg.War.Source.Git)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestVerifyCascRequiresPlugin(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	cfg.Casc = []CascEntry{{ID: "casc", Source: Source{Dir: "/src/casc"}}}

	err = cfg.Verify()
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCategory(err, pkgerrors.CategoryConfig))

	cfg.Plugins = append(cfg.Plugins, Dependency{
		GroupID:    "io.jenkins",
		ArtifactID: CascPluginArtifactID,
		Source:     &Source{Version: "1.55"},
	})
	require.NoError(t, cfg.Verify())
}

func TestVerifyRejectsMissingBundle(t *testing.T) {
	cfg := &Config{War: &Dependency{ArtifactID: "w", Source: &Source{Version: "1"}}}
	err := cfg.Verify()
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCategory(err, pkgerrors.CategoryConfig))
}

func TestVerifyRejectsAmbiguousSource(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	cfg.Plugins[0].Source.Dir = "/also/a/dir"

	err = cfg.Verify()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one")
}

func TestVerifyRejectsRefOnFilesystemSource(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	cfg.LibPatches[0].Source.Ref = "main"

	require.Error(t, cfg.Verify())
}

func TestOverrideVersions(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	cfg.OverrideVersions(map[string]string{
		"workflow-job": "256.0-master-abc-SNAPSHOT",
		"unrelated":    "1.0",
	})

	assert.Equal(t, SourceRelease, cfg.Plugins[0].Source.Kind())
	assert.Equal(t, "256.0-master-abc-SNAPSHOT", cfg.Plugins[0].Source.Version)
	assert.False(t, cfg.Plugins[0].NeedsBuild())
	// Untouched components keep their source.
	assert.Equal(t, SourceFilesystem, cfg.LibPatches[0].Source.Kind())
}

func TestInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packager.yaml")
	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Verify())
}
