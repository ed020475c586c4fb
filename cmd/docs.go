package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List the documents in the library",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cat, err := openCatalog(cfg)
		if err != nil {
			return err
		}

		entries := cat.List()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		if len(entries) == 0 {
			fmt.Printf("No documents found under %s.\n", cat.Root())
			return nil
		}
		fmt.Printf("%d document(s) under %s:\n\n", len(entries), cat.Root())
		for _, e := range entries {
			fmt.Printf("  %-40s  %-5s  %s\n", e.RelPath, e.Kind, e.Title)
			if verbose {
				fmt.Printf("  %-40s  id %s\n", "", e.ID)
			}
		}
		return nil
	},
}

func init() {
	docsCmd.Flags().Bool("json", false, "print entries as JSON")
	rootCmd.AddCommand(docsCmd)
}
