// Package config resolves palprune settings from defaults, a YAML file and
// the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"
)

// Environment variables read by WithEnvConfig.
const (
	EnvHostPlugin    = "PALPRUNE_HOST_PLUGIN"
	EnvHostProcesses = "PALPRUNE_HOST_PROCESSES"
	EnvLogLevel      = "PALPRUNE_LOG_LEVEL"
	EnvStrict        = "PALPRUNE_STRICT"
	EnvScene         = "PALPRUNE_SCENE"
)

// Config holds palprune settings.
type Config struct {
	// Scene is the default scene document when --scene is not given.
	Scene string `yaml:"scene,omitempty"`

	// HostPlugin is a host bridge binary to use instead of opening the scene directly.
	HostPlugin string `yaml:"host_plugin,omitempty"`

	// HostProcesses are the executable names that block direct scene edits.
	// Empty means the built-in host names.
	HostProcesses []string `yaml:"host_processes,omitempty"`

	// LogLevel is an hclog level name.
	LogLevel string `yaml:"log_level,omitempty"`

	// Strict refuses to prune when some drawing content could not be read.
	Strict bool `yaml:"strict,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{LogLevel: "warn"}
}

// DefaultPath returns $XDG_CONFIG_HOME/palprune/config.yaml, or the platform
// equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "palprune", "config.yaml")
}

// Builder assembles a Config. Later sources override earlier ones:
// defaults, then the file, then the environment.
type Builder struct {
	config       Config
	path         string
	pathRequired bool
	useEnv       bool
}

// NewBuilder returns a Builder starting from Default.
func NewBuilder() *Builder {
	return &Builder{config: Default()}
}

// WithFile loads the YAML file at path, which must exist.
func (b *Builder) WithFile(path string) *Builder {
	b.path = path
	b.pathRequired = true
	return b
}

// WithDefaultFile loads DefaultPath if it exists.
func (b *Builder) WithDefaultFile() *Builder {
	b.path = DefaultPath()
	b.pathRequired = false
	return b
}

// WithEnvConfig applies the PALPRUNE_* environment variables.
func (b *Builder) WithEnvConfig() *Builder {
	b.useEnv = true
	return b
}

// Build resolves the configuration.
func (b *Builder) Build() (Config, error) {
	config := b.config

	if b.path != "" {
		if err := loadFile(b.path, &config); err != nil {
			if b.pathRequired || !errors.Is(err, os.ErrNotExist) {
				return Config{}, err
			}
		}
	}

	if b.useEnv {
		if err := applyEnv(&config); err != nil {
			return Config{}, err
		}
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	if c.LogLevel != "" && hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return nil
}

func loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path) // #nosec G304 - config path is supplied by the user
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(config *Config) error {
	if v := os.Getenv(EnvScene); v != "" {
		config.Scene = v
	}
	if v := os.Getenv(EnvHostPlugin); v != "" {
		config.HostPlugin = v
	}
	if v := os.Getenv(EnvHostProcesses); v != "" {
		config.HostProcesses = parseList(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.LogLevel = v
	}
	if v := os.Getenv(EnvStrict); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvStrict, err)
		}
		config.Strict = strict
	}
	return nil
}

func parseList(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
