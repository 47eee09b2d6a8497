// Package config defines the declarative bundle description and its loader.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// CascPluginArtifactID is the plugin that must be declared whenever a
// configuration-as-code payload is present in the bundle description.
const CascPluginArtifactID = "configuration-as-code"

// Config represents the full bundle description.
type Config struct {
	Bundle           Bundle            `yaml:"bundle"`
	BuildSettings    BuildSettings     `yaml:"buildSettings"`
	War              *Dependency       `yaml:"war"`
	Plugins          []Dependency      `yaml:"plugins,omitempty"`
	LibPatches       []Dependency      `yaml:"libPatches,omitempty"`
	LibExcludes      []string          `yaml:"libExcludes,omitempty"`
	SystemProperties map[string]string `yaml:"systemProperties,omitempty"`
	Casc             []CascEntry       `yaml:"casc,omitempty"`
	Resources        []Resource        `yaml:"resources,omitempty"`
}

// Bundle identifies the output artifact.
type Bundle struct {
	GroupID     string `yaml:"groupId"`
	ArtifactID  string `yaml:"artifactId"`
	Version     string `yaml:"version,omitempty"`
	Description string `yaml:"description,omitempty"`
	Vendor      string `yaml:"vendor,omitempty"`
}

// BuildSettings holds run-level build options.
type BuildSettings struct {
	TmpDir           string `yaml:"tmpDir,omitempty"`
	OutputDir        string `yaml:"outputDir,omitempty"`
	BOM              string `yaml:"bom,omitempty"`        // optional BOM input seeding version overrides
	Descriptor       string `yaml:"descriptor,omitempty"` // optional build-descriptor input merged into generated descriptors
	InstallArtifacts bool   `yaml:"installArtifacts,omitempty"`
	ArtifactStore    string `yaml:"artifactStore,omitempty"` // local store root, defaults to ~/.m2/repository
}

// Dependency describes a component to include: the base war, a plugin, or a
// library patch.
type Dependency struct {
	GroupID    string                 `yaml:"groupId"`
	ArtifactID string                 `yaml:"artifactId"`
	Source     *Source                `yaml:"source,omitempty"`
	Build      *ComponentBuildOptions `yaml:"build,omitempty"`
}

// ComponentBuildOptions carries per-component build flags.
type ComponentBuildOptions struct {
	// BuildOriginalVersion installs the component at its unmodified version
	// before the re-versioned install.
	BuildOriginalVersion bool `yaml:"buildOriginalVersion,omitempty"`
}

// NeedsBuild reports whether the component requires a fresh build. A source
// carrying a pinned release version is consumed as-is.
func (d *Dependency) NeedsBuild() bool {
	return d.Source != nil && d.Source.Version == ""
}

// BuildOriginalVersion reports the per-component original-version install flag.
func (d *Dependency) BuildOriginalVersion() bool {
	return d.Build != nil && d.Build.BuildOriginalVersion
}

func (d *Dependency) String() string {
	return fmt.Sprintf("%s:%s", d.GroupID, d.ArtifactID)
}

// SourceKind tags the source variant of a component.
type SourceKind int

const (
	SourceUnknown SourceKind = iota
	SourceFilesystem
	SourceGit
	SourceRelease
)

// Source is the tagged component source: exactly one of Dir (filesystem),
// Git (version control), or Version (pinned release) is set.
type Source struct {
	Git     string `yaml:"git,omitempty"`
	Ref     string `yaml:"ref,omitempty"`
	Commit  string `yaml:"commit,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
	Version string `yaml:"version,omitempty"`
}

// Kind returns the source variant.
func (s *Source) Kind() SourceKind {
	switch {
	case s == nil:
		return SourceUnknown
	case s.Git != "":
		return SourceGit
	case s.Dir != "":
		return SourceFilesystem
	case s.Version != "":
		return SourceRelease
	default:
		return SourceUnknown
	}
}

func (s *Source) String() string {
	switch s.Kind() {
	case SourceGit:
		if s.Commit != "" {
			return fmt.Sprintf("git: %s, commit: %s", s.Git, s.Commit)
		}
		if s.Ref != "" {
			return fmt.Sprintf("git: %s, ref: %s", s.Git, s.Ref)
		}
		return fmt.Sprintf("git: %s", s.Git)
	case SourceFilesystem:
		return fmt.Sprintf("dir: %s", s.Dir)
	case SourceRelease:
		return fmt.Sprintf("version: %s", s.Version)
	default:
		return "unknown"
	}
}

// CascEntry is a configuration-as-code payload reference. Only its presence
// matters to the packager core; payload wiring is a collaborator concern.
type CascEntry struct {
	ID     string `yaml:"id"`
	Source Source `yaml:"source"`
}

// Resource is an extra file tree layered into the archive.
type Resource struct {
	ID     string `yaml:"id"`
	Source Source `yaml:"source"`
	Target string `yaml:"target,omitempty"` // path inside the archive, defaults to WEB-INF/<id>
}

// TargetPath returns the in-archive destination for the resource tree.
func (r *Resource) TargetPath() string {
	if r.Target != "" {
		return r.Target
	}
	return "WEB-INF/" + r.ID
}

// Load loads a bundle description from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env file if present; variables feed ${VAR} expansion below.
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

// loadEnvFiles loads environment variables from the first .env file found.
// Existing environment variables are never overridden.
func loadEnvFiles() {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err == nil {
			fmt.Fprintf(os.Stderr, "Loaded environment variables from %s\n", envPath)
			return
		}
	}
}

func (c *Config) applyDefaults() {
	if c.BuildSettings.TmpDir == "" {
		c.BuildSettings.TmpDir = "tmp"
	}
	if c.BuildSettings.OutputDir == "" {
		c.BuildSettings.OutputDir = "output"
	}
}

// FindPlugin returns the declared plugin with the given artifact id, or nil.
func (c *Config) FindPlugin(artifactID string) *Dependency {
	for i := range c.Plugins {
		if c.Plugins[i].ArtifactID == artifactID {
			return &c.Plugins[i]
		}
	}
	return nil
}

// AllExtraResources returns the resource trees to layer into the archive.
func (c *Config) AllExtraResources() []Resource {
	return c.Resources
}

// OverrideVersions pins declared components to the versions from a prior
// BOM. Entries without a matching declared component are ignored; matched
// components lose their build source and are consumed at the pinned version.
func (c *Config) OverrideVersions(versions map[string]string) {
	override := func(dep *Dependency) {
		if v, ok := versions[dep.ArtifactID]; ok {
			dep.Source = &Source{Version: v}
		}
	}
	if c.War != nil {
		override(c.War)
	}
	for i := range c.Plugins {
		override(&c.Plugins[i])
	}
	for i := range c.LibPatches {
		override(&c.LibPatches[i])
	}
}
