// Package config loads ~/.nixsay/config.yaml.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/nixsay/assets"
	"github.com/doeshing/nixsay/internal/domain"
	"github.com/doeshing/nixsay/internal/pkg/filesystem"
	"github.com/doeshing/nixsay/internal/ports"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "NIXSAY_CONFIG"

// FileLoader loads YAML configuration from ~/.nixsay/config.yaml (overridable via NIXSAY_CONFIG).
type FileLoader struct {
	overridePath string
	homeDir      string
}

// NewFileLoader builds a new loader. An empty path uses the environment or
// the default location.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path, homeDir: filesystem.UserHomeDir()}
}

// Path returns the file Load reads.
func (l *FileLoader) Path() string {
	if l.overridePath != "" {
		return l.expand(l.overridePath)
	}
	if custom := os.Getenv(EnvConfigPath); custom != "" {
		return l.expand(custom)
	}
	return filepath.Join(filesystem.ConfigDir(l.homeDir), "config.yaml")
}

// Load implements ports.ConfigProvider. The embedded defaults are written on
// first run.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.Path()
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return domain.Config{}, fmt.Errorf("create config dir: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return domain.Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := os.WriteFile(path, assets.DefaultConfigYAML, domain.SecureFilePermissions); err != nil {
			return domain.Config{}, fmt.Errorf("write default config: %w", err)
		}
		data = assets.DefaultConfigYAML
	}

	cfg, err := Parse(data)
	if err != nil {
		return domain.Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return l.hydrateDefaults(cfg), nil
}

// Parse decodes config YAML without filling defaults.
func Parse(data []byte) (domain.Config, error) {
	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// Defaults returns the embedded configuration with paths expanded.
func (l *FileLoader) Defaults() (domain.Config, error) {
	cfg, err := Parse(assets.DefaultConfigYAML)
	if err != nil {
		return domain.Config{}, err
	}
	return l.hydrateDefaults(cfg), nil
}

func (l *FileLoader) hydrateDefaults(cfg domain.Config) domain.Config {
	dir := filesystem.ConfigDir(l.homeDir)
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = "1"
	}
	if cfg.Preferences.PreferredMethod == "" {
		cfg.Preferences.PreferredMethod = string(domain.DefaultPreferredMethod)
	}
	if cfg.Preferences.ConfidenceThreshold == 0 {
		cfg.Preferences.ConfidenceThreshold = domain.DefaultConfidenceThreshold
	}
	if cfg.Preferences.Personality == "" {
		cfg.Preferences.Personality = "friendly"
	}
	if cfg.Knowledge.OverridesFile == "" {
		cfg.Knowledge.OverridesFile = filepath.Join(dir, "knowledge.yaml")
	}
	if cfg.Security.RulesFile == "" {
		cfg.Security.RulesFile = filepath.Join(dir, "guardrail.yaml")
	}
	if cfg.Feedback.Database == "" {
		cfg.Feedback.Database = filepath.Join(dir, "feedback.db")
	}
	cfg.Knowledge.OverridesFile = l.expand(cfg.Knowledge.OverridesFile)
	cfg.Security.RulesFile = l.expand(cfg.Security.RulesFile)
	if cfg.Feedback.Database != ":memory:" {
		cfg.Feedback.Database = l.expand(cfg.Feedback.Database)
	}
	return cfg
}

func (l *FileLoader) expand(path string) string {
	switch {
	case path == "~":
		return l.homeDir
	case strings.HasPrefix(path, "~/"):
		return filepath.Join(l.homeDir, path[2:])
	case filepath.IsAbs(path):
		return path
	default:
		return filepath.Clean(path)
	}
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
