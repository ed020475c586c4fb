package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/pageview/internal/catalog"
	"github.com/ziadkadry99/pageview/internal/document"
)

// handleListDocuments lists catalog entries.
func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := request.GetString("kind", "")

	var sb strings.Builder
	count := 0
	for _, e := range s.catalog.List() {
		if kind != "" && string(e.Kind) != kind {
			continue
		}
		count++
		sb.WriteString(fmt.Sprintf("- %s  %s  [%s]  %s\n", e.ID, e.RelPath, e.Kind, e.Title))
	}
	if count == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No documents found under %s.", s.catalog.Root())), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Found %d document(s):\n%s", count, sb.String())), nil
}

// handleDocumentInfo describes one document.
func (s *Server) handleDocumentInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := request.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: document"), nil
	}
	doc, entry, err := s.document(ctx, ref)
	if err != nil {
		return documentError(ref, err), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title: %s\n", entry.Title))
	sb.WriteString(fmt.Sprintf("ID: %s\n", entry.ID))
	sb.WriteString(fmt.Sprintf("Path: %s\n", entry.RelPath))
	sb.WriteString(fmt.Sprintf("Kind: %s\n", entry.Kind))
	sb.WriteString(fmt.Sprintf("Pages: %d\n", doc.PageCount()))
	if page, err := doc.Page(ctx, 1); err == nil {
		w, h := page.Size()
		sb.WriteString(fmt.Sprintf("Page 1 size: %.0fx%.0f\n", w, h))
	}
	if document.HasText(doc) {
		sb.WriteString("Text layer: yes\n")
	}
	if entry.DescriptionHTML != "" {
		sb.WriteString("\n")
		sb.WriteString(entry.DescriptionHTML)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleRenderPage renders a page to a base64 PNG image result.
func (s *Server) handleRenderPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := request.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: document"), nil
	}
	index, err := request.RequireInt("page")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: page"), nil
	}
	scale := request.GetFloat("scale", 1)
	if scale <= 0 || scale > MaxScale {
		return mcp.NewToolResultError(fmt.Sprintf("scale must be in (0, %g]", MaxScale)), nil
	}

	doc, entry, err := s.document(ctx, ref)
	if err != nil {
		return documentError(ref, err), nil
	}
	page, err := doc.Page(ctx, index)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading page: %v", err)), nil
	}
	bmp, err := page.Render(ctx, scale)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rendering page: %v", err)), nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, bmp.Image); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding page: %v", err)), nil
	}
	caption := fmt.Sprintf("%s, page %d of %d at %g× (%dx%d)", entry.Title, index, doc.PageCount(), scale, bmp.Width, bmp.Height)
	return mcp.NewToolResultImage(caption, base64.StdEncoding.EncodeToString(buf.Bytes()), "image/png"), nil
}

// handlePageText returns the text of a PDF page.
func (s *Server) handlePageText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := request.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: document"), nil
	}
	index, err := request.RequireInt("page")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: page"), nil
	}

	doc, _, err := s.document(ctx, ref)
	if err != nil {
		return documentError(ref, err), nil
	}
	texter, ok := doc.(document.Texter)
	if !ok || !document.HasText(doc) {
		return mcp.NewToolResultError(fmt.Sprintf("%q has no text layer", ref)), nil
	}
	text, err := texter.PageText(ctx, index)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("extracting text: %v", err)), nil
	}
	if strings.TrimSpace(text) == "" {
		return mcp.NewToolResultText(fmt.Sprintf("Page %d has no text.", index)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// handleRecentDocuments lists recent opens with saved viewer state.
func (s *Server) handleRecentDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}
	opens, err := s.prefs.RecentOpens(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing recent documents: %v", err)), nil
	}
	if len(opens) == 0 {
		return mcp.NewToolResultText("No documents have been opened yet."), nil
	}

	var sb strings.Builder
	for _, o := range opens {
		name := o.DocumentID
		if e, ok := s.catalog.Get(o.DocumentID); ok {
			name = e.RelPath
		}
		sb.WriteString(fmt.Sprintf("- %s  via %s at %s", name, o.Frontend, o.OpenedAt.Format("2006-01-02 15:04")))
		if page, ok, _ := s.prefs.LastPage(ctx, o.DocumentID); ok {
			sb.WriteString(fmt.Sprintf("  page %d", page))
		}
		if scale, ok, _ := s.prefs.LastScale(ctx, o.DocumentID); ok {
			sb.WriteString(fmt.Sprintf("  zoom %.0f%%", scale*100))
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func documentError(ref string, err error) *mcp.CallToolResult {
	if errors.Is(err, catalog.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("No document %q in the library. Use list_documents to see what is available.", ref))
	}
	return mcp.NewToolResultError(fmt.Sprintf("opening %q: %v", ref, err))
}
