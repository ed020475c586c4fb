package mcp

import (
	"context"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/pageview/internal/catalog"
	"github.com/ziadkadry99/pageview/internal/document"
	"github.com/ziadkadry99/pageview/internal/logging"
	"github.com/ziadkadry99/pageview/internal/prefs"
)

// Version is set via ldflags at build time.
var Version = "dev"

// MaxScale bounds render_page so a single call cannot ask for a huge bitmap.
const MaxScale = 5.0

// Server wraps an MCP server that exposes the document catalog.
type Server struct {
	catalog *catalog.Catalog
	prefs   *prefs.Store
	mcp     *server.MCPServer

	mu   sync.Mutex
	open map[string]document.Document // by catalog ID
}

// NewServer creates a new MCP server over the given catalog.
func NewServer(cat *catalog.Catalog) *Server {
	s := &Server{
		catalog: cat,
		open:    make(map[string]document.Document),
	}

	s.mcp = server.NewMCPServer(
		"pageview",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(listDocumentsTool, s.handleListDocuments)
	s.mcp.AddTool(documentInfoTool, s.handleDocumentInfo)
	s.mcp.AddTool(renderPageTool, s.handleRenderPage)
	s.mcp.AddTool(pageTextTool, s.handlePageText)
}

// SetPrefs records document opens in store and registers the
// recent_documents tool.
func (s *Server) SetPrefs(store *prefs.Store) {
	s.prefs = store
	s.mcp.AddTool(recentDocumentsTool, s.handleRecentDocuments)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	defer s.Close()
	return server.ServeStdio(s.mcp)
}

// Close closes every document opened by tool calls.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, doc := range s.open {
		if err := doc.Close(); err != nil {
			logging.Logger().Warn("closing document", "document", id, "error", err)
		}
	}
	s.open = make(map[string]document.Document)
	return nil
}

// document returns the open document behind ref, opening it on first use.
func (s *Server) document(ctx context.Context, ref string) (document.Document, catalog.Entry, error) {
	entry, ok := s.catalog.Resolve(ref)
	if !ok {
		return nil, catalog.Entry{}, catalog.ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.open[entry.ID]; ok {
		return doc, entry, nil
	}
	doc, _, err := s.catalog.Open(entry.ID)
	if err != nil {
		return nil, entry, err
	}
	s.open[entry.ID] = doc

	if s.prefs != nil {
		if err := s.prefs.RecordOpen(ctx, entry.ID, prefs.FrontendMCP); err != nil {
			logging.Logger().Warn("recording open", "document", entry.ID, "error", err)
		}
	}
	return doc, entry, nil
}
