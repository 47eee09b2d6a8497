package config

import (
	"fmt"

	pkgerrors "git.home.luguber.info/inful/bundlepacker/internal/errors"
)

// Verify performs a spot-check of the bundle description before any build
// side effects. It does not guarantee that the configuration is fully correct.
func (c *Config) Verify() error {
	if c.Bundle.GroupID == "" || c.Bundle.ArtifactID == "" {
		return pkgerrors.ConfigError("bundle identity (groupId, artifactId) must be defined by the configuration file or BOM")
	}

	if c.War == nil {
		return pkgerrors.ConfigError("the base war component must be defined")
	}

	if len(c.Casc) > 0 && c.FindPlugin(CascPluginArtifactID) == nil {
		return pkgerrors.ConfigError("casc section is declared, but the configuration-as-code plugin is not declared in the plugins list")
	}

	if err := c.verifyDependency("war", c.War); err != nil {
		return err
	}
	for i := range c.Plugins {
		if err := c.verifyDependency("plugin", &c.Plugins[i]); err != nil {
			return err
		}
	}
	for i := range c.LibPatches {
		if err := c.verifyDependency("libPatch", &c.LibPatches[i]); err != nil {
			return err
		}
	}

	for _, res := range c.Resources {
		if res.ID == "" {
			return pkgerrors.ConfigError("resource entries must declare an id")
		}
		if res.Source.Kind() == SourceUnknown {
			return pkgerrors.ConfigError(fmt.Sprintf("resource %s: source must declare git or dir", res.ID))
		}
	}

	return nil
}

func (c *Config) verifyDependency(section string, dep *Dependency) error {
	if dep.ArtifactID == "" {
		return pkgerrors.ConfigError(fmt.Sprintf("%s section: artifactId is required", section))
	}
	if dep.Source == nil {
		return pkgerrors.ConfigError(fmt.Sprintf("%s %s: source is not defined", section, dep.ArtifactID))
	}
	src := dep.Source

	// Exactly one source variant may be set.
	variants := 0
	if src.Git != "" {
		variants++
	}
	if src.Dir != "" {
		variants++
	}
	if src.Version != "" {
		variants++
	}
	if variants != 1 {
		return pkgerrors.ConfigError(fmt.Sprintf("%s %s: exactly one of git, dir or version must be set", section, dep.ArtifactID))
	}
	if src.Kind() != SourceGit && (src.Ref != "" || src.Commit != "") {
		return pkgerrors.ConfigError(fmt.Sprintf("%s %s: ref and commit are only valid for git sources", section, dep.ArtifactID))
	}
	return nil
}
