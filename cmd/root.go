package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "pageview",
	Short: "Continuous-scroll document viewer for PDFs and slide decks",
	Long: `pageview renders PDFs and slide decks as one continuous vertical
stack of pages, rendering each page only when it scrolls into view.
Documents can be viewed in the terminal, in a browser through the
built-in server, exported to PNG, or handed to AI agents via MCP.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".pageview.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
