package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pageview/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the browser viewer server",
	Long:  `Starts the HTTP server with the document library API, live viewer sessions over WebSocket and a browser viewer at /.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "port to listen on (defaults to server.port from config)")
	serveCmd.Flags().Bool("open", false, "open the viewer in the default browser")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Server.Port = port
	}
	if open, _ := cmd.Flags().GetBool("open"); open {
		cfg.Server.OpenBrowser = true
	}

	cat, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	database, _, err := openPrefs(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	srv := server.New(server.Config{
		Port:     cfg.Server.Port,
		AllowAll: cfg.Server.AllowAllOrigins,
		Viewer:   cfg.Viewer.Renderer(),
	}, database, cat)

	// Graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nShutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	fmt.Fprintf(os.Stderr, "pageview server %s starting on %s\n", Version, url)
	fmt.Fprintf(os.Stderr, "  Documents: %s (%d found)\n", cat.Root(), len(cat.List()))
	fmt.Fprintf(os.Stderr, "  Database:  %s\n", database.Path())

	if cfg.Server.OpenBrowser {
		go openBrowser(url)
	}

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
