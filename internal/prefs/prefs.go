// Package prefs persists per-document viewer state such as the last zoom
// level and page, plus a log of which frontend opened which document.
package prefs

import (
	"errors"
	"time"
)

// Well-known state keys.
const (
	KeyScale = "scale"
	KeyPage  = "page"
)

// Frontend identifies what opened a document.
type Frontend string

const (
	FrontendWeb    Frontend = "web"
	FrontendTUI    Frontend = "tui"
	FrontendMCP    Frontend = "mcp"
	FrontendExport Frontend = "export"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("no stored value")

// Entry is one stored key/value pair.
type Entry struct {
	DocumentID string    `json:"document_id"`
	Key        string    `json:"key"`
	Value      string    `json:"value"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Open is one recorded document open.
type Open struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Frontend   Frontend  `json:"frontend"`
	OpenedAt   time.Time `json:"opened_at"`
}
