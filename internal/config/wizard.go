package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// zoomChoices are the initial zoom options offered by the wizard.
var zoomChoices = []struct {
	Label string
	Scale float64
}{
	{"fit page to window", 0},
	{"100%", 1},
	{"150%", 1.5},
	{"200%", 2},
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .pageview.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to pageview! Let's configure your document library.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Documents directory.
	docsPrompt := promptui.Prompt{
		Label:   "Directory containing your documents",
		Default: cfg.DocumentsDir,
	}
	docsDir, err := docsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("documents dir: %w", err)
	}
	cfg.DocumentsDir = docsDir

	// 2. Initial zoom.
	labels := make([]string, len(zoomChoices))
	for i, z := range zoomChoices {
		labels[i] = z.Label
	}
	zoomPrompt := promptui.Select{
		Label: "Initial zoom",
		Items: labels,
	}
	zoomIdx, _, err := zoomPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("zoom selection: %w", err)
	}
	cfg.Viewer.InitialScale = zoomChoices[zoomIdx].Scale

	// 3. Server port.
	portPrompt := promptui.Prompt{
		Label:   "Viewer server port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			p, err := strconv.Atoi(s)
			if err != nil || p < 1 || p > 65535 {
				return fmt.Errorf("port must be a number between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 4. Extra exclude patterns.
	excludePrompt := promptui.Prompt{
		Label:   "Extra exclude patterns (comma-separated, leave blank for defaults)",
		Default: "",
	}
	excludeStr, err := excludePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}
	if excludeStr != "" {
		cfg.Exclude = append(append([]string{}, DefaultExcludes...), splitAndTrim(excludeStr)...)
	}

	// 5. Log level.
	levelPrompt := promptui.Select{
		Label: "Log level",
		Items: []string{"info", "debug", "warn", "error"},
	}
	_, level, err := levelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg.Log.Level = level

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Save(ConfigFile); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", ConfigFile)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
