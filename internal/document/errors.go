package document

import (
	"errors"
	"fmt"
)

var (
	// ErrPageLoad matches every *PageLoadError.
	ErrPageLoad = errors.New("page load failed")
	// ErrRender matches every *RenderError.
	ErrRender = errors.New("page render failed")
	// ErrNoSuchPage is wrapped when a page index is outside the document.
	ErrNoSuchPage = errors.New("no such page")
	// ErrUnsupported is returned by Open for unknown file types.
	ErrUnsupported = errors.New("unsupported document type")
)

// PageLoadError reports that a page handle could not be obtained.
type PageLoadError struct {
	Index int
	Err   error
}

func (e *PageLoadError) Error() string {
	return fmt.Sprintf("loading page %d: %v", e.Index, e.Err)
}

func (e *PageLoadError) Unwrap() error { return e.Err }

func (e *PageLoadError) Is(target error) bool { return target == ErrPageLoad }

// RenderError reports that rasterizing a page failed.
type RenderError struct {
	Index int
	Scale float64
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering page %d at scale %.2f: %v", e.Index, e.Scale, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func (e *RenderError) Is(target error) bool { return target == ErrRender }
