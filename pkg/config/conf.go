// Package config reads and writes the app configuration file holding
// scan defaults and dataset column mappings.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fairlens/fairscan/pkg/mdss"
)

const (
	configFileName = "config.yaml"
	dirMode        = 0700
	fileMode       = 0600
)

// Dataset maps CSV columns to their roles.
type Dataset struct {
	// Outcome is the observed binary outcome column.
	Outcome string `yaml:"outcome"`

	// Probability is the predicted probability column.
	Probability string `yaml:"probability"`

	// Features optionally restricts the feature columns; empty means
	// every other column.
	Features []string `yaml:"features,omitempty"`
}

// Scan holds scan defaults, overridable per run via CLI flags.
type Scan struct {
	Direction string  `yaml:"direction"`
	Penalty   float64 `yaml:"penalty"`
	Restarts  int     `yaml:"restarts"`
	MaxPasses int     `yaml:"max_passes"`
	Seed      int64   `yaml:"seed"`
}

// Config represents the app config object.
type Config struct {
	Dataset Dataset `yaml:"dataset"`
	Scan    Scan    `yaml:"scan"`
}

func getDefaultConfig() *Config {
	return &Config{
		Dataset: Dataset{
			Outcome:     "outcome",
			Probability: "probability",
		},
		Scan: Scan{
			Direction: mdss.UnderPrediction.String(),
			Penalty:   mdss.DefaultPenalty,
			Restarts:  mdss.DefaultRestarts,
			MaxPasses: mdss.DefaultMaxPasses,
			Seed:      mdss.DefaultSeed,
		},
	}
}

// Save writes the config into the given directory.
func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	path := filepath.Join(dirPath, configFileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return errors.Wrapf(err, "failed to write config file: %s", configFileName)
	}
	return nil
}

// ReadOrCreate reads the app config from a directory, creating the
// directory and a default config when absent.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		if err := os.Mkdir(dirPath, dirMode); err != nil {
			return nil, errors.Wrapf(err, "failed to create dir: %s", dirPath)
		}
	}

	path := filepath.Join(dirPath, configFileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(dirPath, getDefaultConfig()); err != nil {
			return nil, errors.Wrap(err, "failed to create default config")
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading config file: %s", path)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, errors.Wrapf(err, "error unmarshalling config file: %s", path)
	}
	return &c, nil
}

// GetOrCreateHomeDir returns the app home directory for the current
// user, creating it when needed.
func GetOrCreateHomeDir(name string) (string, error) {
	if name == "" {
		return "", errors.New("name cannot be empty")
	}
	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user home dir")
	}

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating app home dir", "path", dir)
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", errors.Wrapf(err, "failed to create dir: %s", dir)
		}
	}
	return dir, nil
}
