// Package server exposes the document catalog and live viewer sessions over
// HTTP and WebSocket.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/pageview/internal/catalog"
	"github.com/ziadkadry99/pageview/internal/db"
	"github.com/ziadkadry99/pageview/internal/logging"
	"github.com/ziadkadry99/pageview/internal/prefs"
	"github.com/ziadkadry99/pageview/internal/viewer"
)

// DefaultSessionIdle is how long a session survives without a WebSocket
// client before it is closed.
const DefaultSessionIdle = 30 * time.Second

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
	Viewer   viewer.Config
	// SessionIdle of 0 means DefaultSessionIdle.
	SessionIdle time.Duration
}

// Server serves the catalog and viewer sessions.
type Server struct {
	cfg        Config
	db         *db.DB
	catalog    *catalog.Catalog
	prefs      *prefs.Store
	sessions   *sessionManager
	router     chi.Router
	httpServer *http.Server
}

// New creates a server over an already scanned catalog.
func New(cfg Config, database *db.DB, cat *catalog.Catalog) *Server {
	s := &Server{
		cfg:      cfg,
		db:       database,
		catalog:  cat,
		prefs:    prefs.NewStore(database),
	}
	idle := cfg.SessionIdle
	if idle <= 0 {
		idle = DefaultSessionIdle
	}
	s.sessions = newSessionManager(idle)

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", s.serveIndex)

	// WebSocket connections outlive the request timeout.
	r.Get("/ws/sessions/{sid}", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/api/documents", s.handleListDocuments)
		r.Post("/api/documents/refresh", s.handleRefreshDocuments)
		r.Get("/api/documents/{id}", s.handleGetDocument)

		r.Route("/api/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleCreateSession)
			r.Get("/{sid}", s.handleGetSession)
			r.Delete("/{sid}", s.handleDeleteSession)
			r.Post("/{sid}/actions", s.handleAction)
			r.Get("/{sid}/pages/{file}", s.handlePageImage)
		})

		prefs.RegisterRoutes(r, s.prefs)
	})

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logging.Logger().Info("pageview server listening", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown closes every session and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.sessions.closeAll()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
