package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Demo returns the self-contained example configuration written by Init.
func Demo() *Config {
	return &Config{
		Bundle: Bundle{
			GroupID:     "io.github.inful.bundles",
			ArtifactID:  "demo-bundle",
			Description: "Demo bundle with a plugin built from a git branch",
			Vendor:      "bundlepacker demo",
		},
		BuildSettings: BuildSettings{
			TmpDir:    "tmp",
			OutputDir: "output",
		},
		War: &Dependency{
			GroupID:    "org.jenkins-ci.main",
			ArtifactID: "jenkins-war",
			Source:     &Source{Version: "2.462.3"},
		},
		Plugins: []Dependency{
			{
				GroupID:    "org.jenkins-ci.plugins.workflow",
				ArtifactID: "workflow-job",
				Source: &Source{
					Git: "https://github.com/jenkinsci/workflow-job-plugin.git",
					Ref: "master",
				},
			},
		},
		SystemProperties: map[string]string{
			"jenkins.model.Jenkins.slaveAgentPort": "50000",
		},
	}
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	data, err := yaml.Marshal(Demo())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
