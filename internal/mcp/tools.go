package mcp

import "github.com/mark3labs/mcp-go/mcp"

// listDocumentsTool defines the list_documents MCP tool.
var listDocumentsTool = mcp.NewTool("list_documents",
	mcp.WithDescription("List the documents in the library with their IDs, paths and kinds."),
	mcp.WithString("kind",
		mcp.Description("Only list documents of this kind"),
		mcp.Enum("pdf", "deck"),
	),
)

// documentInfoTool defines the document_info MCP tool.
var documentInfoTool = mcp.NewTool("document_info",
	mcp.WithDescription("Get the title, page count, page size and description of a document."),
	mcp.WithString("document",
		mcp.Required(),
		mcp.Description("Document ID or path relative to the library root"),
	),
)

// renderPageTool defines the render_page MCP tool.
var renderPageTool = mcp.NewTool("render_page",
	mcp.WithDescription("Render one page of a document to a PNG image."),
	mcp.WithString("document",
		mcp.Required(),
		mcp.Description("Document ID or path relative to the library root"),
	),
	mcp.WithNumber("page",
		mcp.Required(),
		mcp.Description("1-based page number"),
	),
	mcp.WithNumber("scale",
		mcp.Description("Zoom factor (default 1, at most 5)"),
	),
)

// pageTextTool defines the page_text MCP tool.
var pageTextTool = mcp.NewTool("page_text",
	mcp.WithDescription("Extract the text of one page of a PDF document."),
	mcp.WithString("document",
		mcp.Required(),
		mcp.Description("Document ID or path relative to the library root"),
	),
	mcp.WithNumber("page",
		mcp.Required(),
		mcp.Description("1-based page number"),
	),
)

// recentDocumentsTool defines the recent_documents MCP tool.
var recentDocumentsTool = mcp.NewTool("recent_documents",
	mcp.WithDescription("List recently opened documents, newest first, with their last page and zoom."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of entries to return (default 10)"),
	),
)
