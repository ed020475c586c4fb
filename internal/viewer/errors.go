package viewer

import (
	"errors"
	"fmt"
)

var (
	// ErrDocumentLoad matches every *DocumentLoadError.
	ErrDocumentLoad = errors.New("document load failed")
	// ErrOutOfRange matches every *OutOfRangeError.
	ErrOutOfRange = errors.New("page index out of range")
	// ErrClosed is returned by operations on a closed renderer.
	ErrClosed = errors.New("renderer closed")
	// ErrScaleLimit matches every *ScaleLimitError.
	ErrScaleLimit = errors.New("zoom limit reached")
)

// DocumentLoadError reports that the document cannot be viewed at all.
type DocumentLoadError struct {
	Err error
}

func (e *DocumentLoadError) Error() string {
	return fmt.Sprintf("loading document: %v", e.Err)
}

func (e *DocumentLoadError) Unwrap() error { return e.Err }

func (e *DocumentLoadError) Is(target error) bool { return target == ErrDocumentLoad }

// OutOfRangeError reports a page index outside [1, PageCount].
type OutOfRangeError struct {
	Index     int
	PageCount int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("page %d out of range [1, %d]", e.Index, e.PageCount)
}

func (e *OutOfRangeError) Is(target error) bool { return target == ErrOutOfRange }

// ScaleLimitError is returned by ZoomIn and ZoomOut when the scale already
// sits at the bound they step towards.
type ScaleLimitError struct {
	Limit float64
	Max   bool
}

func (e *ScaleLimitError) Error() string {
	bound := "minimum"
	if e.Max {
		bound = "maximum"
	}
	return fmt.Sprintf("already at %s zoom (%.0f%%)", bound, e.Limit*100)
}

func (e *ScaleLimitError) Is(target error) bool { return target == ErrScaleLimit }
