package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/ziadkadry99/pageview/internal/catalog"
	"github.com/ziadkadry99/pageview/internal/config"
	"github.com/ziadkadry99/pageview/internal/db"
	"github.com/ziadkadry99/pageview/internal/document"
	"github.com/ziadkadry99/pageview/internal/logging"
	"github.com/ziadkadry99/pageview/internal/prefs"
)

// loadConfig loads and validates the config and installs the logger it
// describes. A missing config file yields the defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `pageview init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(os.Stderr, level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	logging.SetLogger(logger)
	return cfg, nil
}

// openCatalog scans the configured documents directory.
func openCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	cat, err := catalog.New(catalog.Config{
		Root:       cfg.DocumentsDir,
		Include:    cfg.Include,
		Exclude:    cfg.Exclude,
		CachePages: cfg.Viewer.CachePages,
	})
	if err != nil {
		return nil, fmt.Errorf("scanning documents: %w", err)
	}
	return cat, nil
}

// openPrefs opens the state database under the data directory.
func openPrefs(cfg *config.Config) (*db.DB, *prefs.Store, error) {
	database, err := db.Open(cfg.DBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return database, prefs.NewStore(database), nil
}

// openDocument opens ref from the catalog, or directly from disk when it
// names a file outside the library. The returned ID keys saved state.
func openDocument(cfg *config.Config, ref string) (document.Document, string, error) {
	cat, err := openCatalog(cfg)
	if err != nil {
		return nil, "", err
	}
	if _, ok := cat.Resolve(ref); ok {
		doc, entry, err := cat.Open(ref)
		if err != nil {
			return nil, "", err
		}
		return doc, entry.ID, nil
	}

	if _, err := os.Stat(ref); err != nil {
		return nil, "", fmt.Errorf("%s: %w", ref, catalog.ErrNotFound)
	}
	abs, err := filepath.Abs(ref)
	if err != nil {
		return nil, "", err
	}
	doc, err := catalog.OpenPath(abs, cfg.Viewer.CachePages)
	if err != nil {
		return nil, "", err
	}
	return doc, catalog.IDFor(abs), nil
}

// openBrowser opens the given URL in the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}
