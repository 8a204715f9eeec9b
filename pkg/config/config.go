// Package config implements doug configuration loading.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// ProjectFile is looked up in the project directory.
	ProjectFile = ".doug.yaml"
	// DefaultPrompt is printed before each REPL turn.
	DefaultPrompt = "> "
)

// Config holds the settings shared by the REPL and the CLI.
type Config struct {
	Prompt  string             `yaml:"prompt"`
	Pretty  bool               `yaml:"pretty"`
	Prelude map[string]float64 `yaml:"prelude"`
	Log     LogConfig          `yaml:"log"`

	// Path is the file the config was read from, empty for defaults.
	Path string `yaml:"-"`
}

// LogConfig selects the logger built by the CLI.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Prompt:  DefaultPrompt,
		Prelude: map[string]float64{},
		Log:     LogConfig{Level: "info"},
	}
}

// UserPath returns ~/.doug/config.yaml, or "" when the home directory is unknown.
func UserPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".doug", "config.yaml")
}

// Load reads configuration with precedence:
// project (.doug.yaml) → user (~/.doug/config.yaml) → defaults.
// A missing file falls through to the next source; a malformed one is an error.
func Load(projectDir string) (*Config, error) {
	candidates := []string{filepath.Join(projectDir, ProjectFile)}
	if userPath := UserPath(); userPath != "" {
		candidates = append(candidates, userPath)
	}

	for _, path := range candidates {
		cfg, err := LoadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return cfg, nil
	}

	return Default(), nil
}

// LoadFile reads a single config file. Unknown keys are rejected.
func LoadFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Decode parses YAML from r on top of the defaults.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if c.Prompt == "" {
		c.Prompt = DefaultPrompt
	}
	if c.Prelude == nil {
		c.Prelude = map[string]float64{}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
