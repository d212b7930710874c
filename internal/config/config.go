// Package config loads the distribution cleanup configuration.
package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/ralt/distroclean/internal/models"
	"gopkg.in/yaml.v3"
)

const defaultKeepVersions = 3

// Version is a distribution version. It accepts both quoted and bare
// numeric YAML scalars.
type Version string

// UnmarshalYAML implements yaml.Unmarshaler
func (v *Version) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("version must be a scalar, got %v", value.Kind)
	}
	*v = Version(value.Value)
	return nil
}

// KeepVersions configures how many versions to retain per channel.
// Absent values default to 3; an explicit zero keeps nothing.
type KeepVersions struct {
	Stable *int `yaml:"stable"`
	Beta   *int `yaml:"beta"`
}

// StableCount returns the number of stable versions to keep
func (k KeepVersions) StableCount() int {
	if k.Stable == nil {
		return defaultKeepVersions
	}
	return *k.Stable
}

// BetaCount returns the number of beta versions to keep
func (k KeepVersions) BetaCount() int {
	if k.Beta == nil {
		return defaultKeepVersions
	}
	return *k.Beta
}

// Repository configures one repository of a distribution. Path maps
// each architecture to the repository directory.
type Repository struct {
	Name     string            `yaml:"name"`
	Channel  string            `yaml:"channel"`
	Readonly bool              `yaml:"readonly"`
	Path     map[string]string `yaml:"path"`
}

// Distro configures cleanup for one distribution version
type Distro struct {
	Name         string       `yaml:"name"`
	Version      Version      `yaml:"version"`
	KeepVersions KeepVersions `yaml:"keep_versions"`
	// Exclude is a regular expression matched against source RPM
	// filenames; matching packages are never removed.
	Exclude      string       `yaml:"exclude"`
	Repositories []Repository `yaml:"repositories"`
}

// Load reads and validates a list of distribution descriptors from a
// YAML file.
func Load(path string) ([]Distro, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.CleanError{Type: models.ErrConfig, Err: err}
	}
	var distros []Distro
	if err := yaml.Unmarshal(data, &distros); err != nil {
		return nil, &models.CleanError{Type: models.ErrConfig, Err: fmt.Errorf("cannot parse %s: %w", path, err)}
	}
	for i := range distros {
		if err := validate(&distros[i]); err != nil {
			return nil, &models.CleanError{Type: models.ErrConfig, Err: err}
		}
	}
	return distros, nil
}

func validate(d *Distro) error {
	if d.Name == "" {
		return fmt.Errorf("distribution without a name")
	}
	if len(d.Repositories) == 0 {
		return fmt.Errorf("distribution %s has no repositories", d.Name)
	}
	if d.Exclude != "" {
		if _, err := regexp.Compile(d.Exclude); err != nil {
			return fmt.Errorf("distribution %s has an invalid exclude pattern: %w", d.Name, err)
		}
	}
	for _, repo := range d.Repositories {
		if repo.Name == "" {
			return fmt.Errorf("distribution %s has a repository without a name", d.Name)
		}
		if _, err := models.ChannelFromString(repo.Channel); err != nil {
			return fmt.Errorf("repository %s: %w", repo.Name, err)
		}
		if len(repo.Path) == 0 {
			return fmt.Errorf("repository %s has no paths", repo.Name)
		}
	}
	return nil
}
