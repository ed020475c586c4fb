package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/pageview/internal/logging"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// nested keys: PAGEVIEW_SERVER__PORT sets server.port.
const EnvPrefix = "PAGEVIEW_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (PAGEVIEW_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey maps PAGEVIEW_VIEWER__MAX_SCALE to viewer.max_scale.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.DocumentsDir == "" {
		return fmt.Errorf("documents_dir is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	for _, pattern := range append(append([]string{}, c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid glob pattern %q", pattern)
		}
	}

	v := c.Viewer
	if v.MinScale <= 0 {
		return fmt.Errorf("viewer.min_scale must be positive")
	}
	if v.MaxScale < v.MinScale {
		return fmt.Errorf("viewer.max_scale must not be below viewer.min_scale")
	}
	if v.ScaleStep <= 0 {
		return fmt.Errorf("viewer.scale_step must be positive")
	}
	if v.InitialScale < 0 {
		return fmt.Errorf("viewer.initial_scale must be non-negative")
	}
	if v.Debounce < 0 {
		return fmt.Errorf("viewer.debounce must be non-negative")
	}
	if v.PageGap < 0 || v.Padding < 0 || v.FitMargin < 0 {
		return fmt.Errorf("viewer.page_gap, viewer.padding and viewer.fit_margin must be non-negative")
	}
	if v.ReadAhead < 0 {
		return fmt.Errorf("viewer.read_ahead must be non-negative")
	}
	if v.CachePages < 0 {
		return fmt.Errorf("viewer.cache_pages must be non-negative")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log.format %q: must be text or json", c.Log.Format)
	}

	return nil
}
