// Package document defines the paginated-document abstraction the viewer
// renders from, plus the concrete backends: PDF files, slide-image decks
// and synthetic pattern documents.
//
// A Document is immutable for the lifetime of a viewing session. Pages are
// addressed with 1-based indices.
package document

import (
	"context"
	"image"
)

// Document is an opened, paginated artifact.
type Document interface {
	// PageCount returns the number of pages.
	PageCount() int
	// Page returns a handle for the page at index (1-based). Errors are
	// *PageLoadError.
	Page(ctx context.Context, index int) (PageHandle, error)
	// Title is a human-readable name for the document.
	Title() string
	Close() error
}

// PageHandle produces bitmaps for a single page.
type PageHandle interface {
	Index() int
	// Size returns the natural page size at scale 1.
	Size() (width, height float64)
	// Render rasterizes the page at scale. Errors are *RenderError.
	Render(ctx context.Context, scale float64) (*Bitmap, error)
}

// Bitmap is a rendered page surface.
type Bitmap struct {
	Width  int
	Height int
	Image  *image.RGBA
}

// NewBitmap wraps img as a bitmap.
func NewBitmap(img *image.RGBA) *Bitmap {
	b := img.Bounds()
	return &Bitmap{Width: b.Dx(), Height: b.Dy(), Image: img}
}

// Texter is implemented by documents that can extract page text.
type Texter interface {
	PageText(ctx context.Context, index int) (string, error)
}

// HasText reports whether doc, or the document it caches, extracts text.
func HasText(doc Document) bool {
	if c, ok := doc.(*CachedDocument); ok {
		doc = c.Unwrap()
	}
	_, ok := doc.(Texter)
	return ok
}

// Kind names a backend.
type Kind string

const (
	KindPDF     Kind = "pdf"
	KindDeck    Kind = "deck"
	KindPattern Kind = "pattern"
)

func checkIndex(index, count int) error {
	if index < 1 || index > count {
		return &PageLoadError{Index: index, Err: ErrNoSuchPage}
	}
	return nil
}
