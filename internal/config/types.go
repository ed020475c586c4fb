package config

import "time"

// ConfigFile is the default configuration file name.
const ConfigFile = ".pageview.yml"

// Config is the top-level pageview configuration, corresponding to .pageview.yml.
type Config struct {
	DocumentsDir string       `yaml:"documents_dir" koanf:"documents_dir"`
	Include      []string     `yaml:"include" koanf:"include"`
	Exclude      []string     `yaml:"exclude" koanf:"exclude"`
	DataDir      string       `yaml:"data_dir" koanf:"data_dir"`
	Viewer       ViewerConfig `yaml:"viewer" koanf:"viewer"`
	Server       ServerConfig `yaml:"server" koanf:"server"`
	Log          LogConfig    `yaml:"log" koanf:"log"`
}

// ViewerConfig holds renderer tuning shared by every frontend.
type ViewerConfig struct {
	MinScale  float64 `yaml:"min_scale" koanf:"min_scale"`
	MaxScale  float64 `yaml:"max_scale" koanf:"max_scale"`
	ScaleStep float64 `yaml:"scale_step" koanf:"scale_step"`
	// InitialScale of 0 means fit the first page to the container.
	InitialScale float64       `yaml:"initial_scale" koanf:"initial_scale"`
	Debounce     time.Duration `yaml:"debounce" koanf:"debounce"`
	PageGap      float64       `yaml:"page_gap" koanf:"page_gap"`
	Padding      float64       `yaml:"padding" koanf:"padding"`
	FitMargin    float64       `yaml:"fit_margin" koanf:"fit_margin"`
	ReadAhead    int           `yaml:"read_ahead" koanf:"read_ahead"`
	// CachePages bounds the rendered bitmap cache per open document.
	CachePages int `yaml:"cache_pages" koanf:"cache_pages"`
}

// ServerConfig holds settings for the HTTP viewer server.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	OpenBrowser     bool `yaml:"open_browser" koanf:"open_browser"`
}

// LogConfig selects the structured log level and format.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}
