package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pageview/internal/document"
	"github.com/ziadkadry99/pageview/internal/logging"
	"github.com/ziadkadry99/pageview/internal/prefs"
	"github.com/ziadkadry99/pageview/internal/tui"
)

var viewCmd = &cobra.Command{
	Use:   "view [document]",
	Short: "View a document in the terminal",
	Long: `Opens a document in the terminal viewer. The document is a library ID,
a path relative to the documents directory, or any PDF, image or .deck
directory on disk.

Keys: arrows/hjkl scroll, PgUp/PgDn/space page, Home/End, n/p next and
previous page, +/- zoom, 0 fit, g<number>Enter go to page, r refresh,
q or Esc quit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runView,
}

func init() {
	viewCmd.Flags().Int("pattern", 0, "view N generated test pages instead of a document")
	viewCmd.Flags().Int("cell-pixels", tui.DefaultCellPixels, "document pixels per half-cell")
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// The terminal owns stdout and stderr while the viewer runs.
	logging.SetLogger(nil)

	var (
		doc   document.Document
		docID string
	)
	if n, _ := cmd.Flags().GetInt("pattern"); n > 0 {
		doc = document.Cached(document.NewPattern(n, document.Letter), cfg.Viewer.CachePages)
	} else {
		if len(args) == 0 {
			return fmt.Errorf("a document is required (or --pattern N)")
		}
		doc, docID, err = openDocument(cfg, args[0])
		if err != nil {
			return err
		}
	}
	defer doc.Close()

	opts := tui.Options{}
	opts.CellPixels, _ = cmd.Flags().GetInt("cell-pixels")
	vcfg := cfg.Viewer.Renderer()

	if docID != "" {
		database, store, err := openPrefs(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		ctx := context.Background()
		var problems []string
		if scale, ok, err := store.LastScale(ctx, docID); err != nil {
			problems = append(problems, "restoring zoom: "+err.Error())
		} else if ok {
			vcfg.InitialScale = scale
		}
		if page, ok, err := store.LastPage(ctx, docID); err != nil {
			problems = append(problems, "restoring page: "+err.Error())
		} else if ok {
			opts.InitialPage = page
		}
		if err := store.RecordOpen(ctx, docID, prefs.FrontendTUI); err != nil {
			problems = append(problems, "recording open: "+err.Error())
		}
		opts.Status = strings.Join(problems, "; ")
		opts.OnPageChanged = func(page int) error { return store.SavePage(context.Background(), docID, page) }
		opts.OnScaleChanged = func(scale float64) error { return store.SaveScale(context.Background(), docID, scale) }
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("opening terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := tui.New(ctx, screen, doc, vcfg, opts)
	if err != nil {
		return err
	}
	if err := app.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
