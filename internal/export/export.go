// Package export writes document pages to PNG files.
package export

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/ziadkadry99/pageview/internal/document"
	"github.com/ziadkadry99/pageview/internal/logging"
)

// ErrInvalidRange is returned when the requested pages do not exist.
var ErrInvalidRange = errors.New("invalid page range")

// ProgressFunc is called after each page, written or failed.
type ProgressFunc func(processed, total int, page int)

// Options controls an export.
type Options struct {
	OutDir string
	// First and Last bound the pages written, inclusive. Zero means the
	// first and last page of the document.
	First, Last int
	// Scale defaults to 1.
	Scale       float64
	Concurrency int
	OnProgress  ProgressFunc
}

// PageError is a page that could not be written.
type PageError struct {
	Page int
	Err  error
}

func (e PageError) Error() string { return fmt.Sprintf("page %d: %v", e.Page, e.Err) }

func (e PageError) Unwrap() error { return e.Err }

// Result lists written files and failed pages, both in page order.
type Result struct {
	Files  []string
	Failed []PageError
}

// FileName returns the output file name for page.
func FileName(page int) string { return fmt.Sprintf("page-%03d.png", page) }

// Run renders the requested pages of doc. Per-page failures are collected
// in the result and do not stop the export.
func Run(ctx context.Context, doc document.Document, opts Options) (*Result, error) {
	n := doc.PageCount()
	first, last := opts.First, opts.Last
	if first == 0 {
		first = 1
	}
	if last == 0 {
		last = n
	}
	if first < 1 || last > n || first > last {
		return nil, fmt.Errorf("%w: %d-%d of %d pages", ErrInvalidRange, first, last, n)
	}
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}
	if scale < 0 {
		return nil, fmt.Errorf("scale must be positive, got %v", scale)
	}
	concurrency := max(opts.Concurrency, 1)

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	total := last - first + 1
	sem := make(chan struct{}, concurrency)
	var mu sync.Mutex
	var processed int64
	result := &Result{}
	// written[i] is the file of page first+i, empty when it failed.
	written := make([]string, total)

	done := func(page int) {
		count := atomic.AddInt64(&processed, 1)
		if opts.OnProgress != nil {
			opts.OnProgress(int(count), total, page)
		}
	}

	var wg sync.WaitGroup
	for page := first; page <= last; page++ {
		select {
		case <-ctx.Done():
			mu.Lock()
			result.Failed = append(result.Failed, PageError{Page: page, Err: ctx.Err()})
			mu.Unlock()
			done(page)
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			defer func() { <-sem }()

			path := filepath.Join(opts.OutDir, FileName(page))
			err := writePage(ctx, doc, page, scale, path)
			mu.Lock()
			if err != nil {
				logging.Logger().Warn("export page failed", "page", page, "error", err)
				result.Failed = append(result.Failed, PageError{Page: page, Err: err})
			} else {
				written[page-first] = path
			}
			mu.Unlock()
			done(page)
		}(page)
	}
	wg.Wait()

	for _, path := range written {
		if path != "" {
			result.Files = append(result.Files, path)
		}
	}
	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i].Page < result.Failed[j].Page })
	return result, ctx.Err()
}

func writePage(ctx context.Context, doc document.Document, index int, scale float64, path string) error {
	page, err := doc.Page(ctx, index)
	if err != nil {
		return err
	}
	bmp, err := page.Render(ctx, scale)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := png.Encode(f, bmp.Image); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
