package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ziadkadry99/pageview/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .pageview.yml with an interactive wizard",
	Long: `Asks for the settings pageview needs and writes them to .pageview.yml:

  documents directory   the library root scanned for PDFs, images and .deck folders
  initial zoom          fit the first page to the window, or a fixed 100/150/200%
  server port           where "pageview serve" listens
  exclude patterns      globs added to the default excludes (.git, dot files, ...)
  log level             info, debug, warn or error

Every other setting keeps its default and can be edited in the file or
overridden with PAGEVIEW_* environment variables. An existing file is only
replaced with --force.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite an existing "+config.ConfigFile)
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(config.ConfigFile); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to replace it)", config.ConfigFile)
	}

	cfg, err := config.RunWizard()
	if err != nil {
		return err
	}
	zoom := "fit to window"
	if cfg.Viewer.InitialScale > 0 {
		zoom = fmt.Sprintf("%.0f%%", cfg.Viewer.InitialScale*100)
	}
	fmt.Printf("  Documents: %s\n", cfg.DocumentsDir)
	fmt.Printf("  Zoom:      %s\n", zoom)
	fmt.Printf("  Server:    http://localhost:%d\n", cfg.Server.Port)
	fmt.Println("\nRun 'pageview docs' to list your library or 'pageview serve' to open it in a browser.")
	return nil
}
