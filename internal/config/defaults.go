package config

import (
	"path/filepath"
	"time"

	"github.com/ziadkadry99/pageview/internal/viewer"
)

// DefaultIncludes match every document kind pageview can open.
var DefaultIncludes = []string{
	"**/*.pdf",
	"**/*.png",
	"**/*.jpg",
	"**/*.jpeg",
	"**/*.gif",
	"**/*.webp",
	"**/*.bmp",
}

// DefaultExcludes are glob patterns skipped when scanning for documents.
var DefaultExcludes = []string{
	".git/**",
	".pageview/**",
	"node_modules/**",
	"**/.*",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DocumentsDir: ".",
		Include:      DefaultIncludes,
		Exclude:      DefaultExcludes,
		DataDir:      ".pageview",
		Viewer: ViewerConfig{
			MinScale:   0.25,
			MaxScale:   5.0,
			ScaleStep:  0.25,
			Debounce:   100 * time.Millisecond,
			PageGap:    10,
			Padding:    20,
			FitMargin:  20,
			CachePages: 64,
		},
		Server: ServerConfig{
			Port:            8080,
			AllowAllOrigins: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DBPath returns the location of the viewer state database.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "pageview.db")
}

// Renderer converts the viewer section into renderer settings.
func (v ViewerConfig) Renderer() viewer.Config {
	return viewer.Config{
		MinScale:     v.MinScale,
		MaxScale:     v.MaxScale,
		ScaleStep:    v.ScaleStep,
		InitialScale: v.InitialScale,
		Debounce:     v.Debounce,
		PageGap:      v.PageGap,
		Padding:      v.Padding,
		FitMargin:    v.FitMargin,
		ReadAhead:    v.ReadAhead,
	}
}
