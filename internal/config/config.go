// Package config loads the prefill configuration file.
//
// Config file locations (priority order):
//  1. $PREFILL_CONFIG
//  2. ./prefill.yaml
//  3. $XDG_CONFIG_HOME/prefill/config.yaml
//  4. ~/.config/prefill/config.yaml
//
// Command-line flags override values read from the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Benny93/prefill-go/internal/prefill"
	"github.com/Benny93/prefill-go/internal/storage"
)

// Graph source kinds.
const (
	SourceFile = "file"
	SourceDir  = "dir"
	SourceHTTP = "http"
)

// SourceKinds lists every supported graph source kind.
var SourceKinds = []string{SourceFile, SourceDir, SourceHTTP}

var (
	// ErrUnknownBackend is returned for a storage backend kind that does not exist.
	ErrUnknownBackend = errors.New("unknown storage backend")

	// ErrUnknownSource is returned for a graph source kind that does not exist.
	ErrUnknownSource = errors.New("unknown graph source")
)

// Config is the root configuration.
type Config struct {
	TenantID    string         `yaml:"tenant_id"`
	BlueprintID string         `yaml:"blueprint_id"`
	Source      SourceConfig   `yaml:"source"`
	Storage     StorageConfig  `yaml:"storage"`
	Globals     []GlobalConfig `yaml:"globals,omitempty"`
}

// SourceConfig selects where the blueprint graph is read from.
type SourceConfig struct {
	Kind    string   `yaml:"kind"`
	Path    string   `yaml:"path,omitempty"`
	BaseURL string   `yaml:"base_url,omitempty"`
	Timeout Duration `yaml:"timeout,omitempty"`
	Watch   bool     `yaml:"watch,omitempty"`
}

// StorageConfig selects the mapping persistence backend.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path,omitempty"`
}

// GlobalConfig declares a global field source. When any are configured they
// replace the built-in ones.
type GlobalConfig struct {
	ID     string              `yaml:"id"`
	Name   string              `yaml:"name"`
	Fields []GlobalFieldConfig `yaml:"fields"`
}

// GlobalFieldConfig is one field of a configured global source.
type GlobalFieldConfig struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
	Type  string `yaml:"type,omitempty"`
}

// Load finds and loads the config file, or returns defaults if none found.
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, path, nil
}

// Save writes config to the specified path.
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// DefaultConfig reads the graph from ./blueprint.json and keeps mappings in memory.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Complete fills in defaults for values left empty, for instance after
// command-line overrides cleared them.
func (c *Config) Complete() {
	c.applyDefaults()
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	if c.Source.Kind == "" {
		c.Source.Kind = SourceFile
	}
	if c.Source.Kind == SourceFile && c.Source.Path == "" {
		c.Source.Path = "blueprint.json"
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = Duration(10 * time.Second)
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = storage.KindMemory
	}
	if c.Storage.Path == "" {
		switch c.Storage.Backend {
		case storage.KindBadger:
			c.Storage.Path = ".prefill/mappings"
		case storage.KindSQLite:
			c.Storage.Path = ".prefill/mappings.db"
		}
	}
}

// Validate reports the first configuration error.
func (c *Config) Validate() error {
	if !slices.Contains(SourceKinds, c.Source.Kind) {
		return fmt.Errorf("%w: %q", ErrUnknownSource, c.Source.Kind)
	}
	if !slices.Contains(storage.Kinds, c.Storage.Backend) {
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Storage.Backend)
	}

	switch c.Source.Kind {
	case SourceFile, SourceDir:
		if c.Source.Path == "" {
			return fmt.Errorf("source path is required for %s source", c.Source.Kind)
		}
	case SourceHTTP:
		if c.Source.BaseURL == "" {
			return errors.New("source base_url is required for http source")
		}
	}

	if c.Source.Kind != SourceFile && (c.TenantID == "" || c.BlueprintID == "") {
		return fmt.Errorf("tenant_id and blueprint_id are required for %s source", c.Source.Kind)
	}

	seen := make(map[string]bool, len(c.Globals))
	for _, g := range c.Globals {
		if g.ID == "" {
			return errors.New("global source id is required")
		}
		if seen[g.ID] {
			return fmt.Errorf("duplicate global source id %q", g.ID)
		}
		seen[g.ID] = true

		if len(g.Fields) == 0 {
			return fmt.Errorf("global source %q has no fields", g.ID)
		}
		fieldIDs := make(map[string]bool, len(g.Fields))
		for _, f := range g.Fields {
			if f.ID == "" {
				return fmt.Errorf("global source %q: field id is required", g.ID)
			}
			if fieldIDs[f.ID] {
				return fmt.Errorf("global source %q: duplicate field id %q", g.ID, f.ID)
			}
			fieldIDs[f.ID] = true
		}
	}

	return nil
}

// GlobalSources converts the configured global sources, or returns nil when
// none are configured.
func (c *Config) GlobalSources() []prefill.GlobalSource {
	if len(c.Globals) == 0 {
		return nil
	}

	out := make([]prefill.GlobalSource, 0, len(c.Globals))
	for _, g := range c.Globals {
		src := prefill.GlobalSource{ID: g.ID, Name: g.Name}
		if src.Name == "" {
			src.Name = g.ID
		}
		for _, f := range g.Fields {
			field := prefill.GlobalField{ID: f.ID, Label: f.Label, Type: f.Type}
			if field.Label == "" {
				field.Label = f.ID
			}
			if field.Type == "" {
				field.Type = "string"
			}
			src.Fields = append(src.Fields, field)
		}
		out = append(out, src)
	}
	return out
}

// Duration wraps time.Duration for YAML unmarshaling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
