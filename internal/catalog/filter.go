package catalog

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ziadkadry99/pageview/internal/document"
)

// skipDirs are directory names never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	".pageview":    true,
	"node_modules": true,
}

// filter decides which documents a scan admits. Patterns are doublestar
// globs matched against the slash-separated path relative to the root, and
// against the base name so "*.pdf" works at any depth.
type filter struct {
	include []string
	exclude []string
}

func newFilter(include, exclude []string) (filter, error) {
	f := filter{}
	for _, p := range include {
		p = filepath.ToSlash(p)
		if !doublestar.ValidatePattern(p) {
			return filter{}, fmt.Errorf("invalid include pattern %q", p)
		}
		f.include = append(f.include, p)
	}
	for _, p := range exclude {
		p = filepath.ToSlash(p)
		if !doublestar.ValidatePattern(p) {
			return filter{}, fmt.Errorf("invalid exclude pattern %q", p)
		}
		f.exclude = append(f.exclude, p)
	}
	return f, nil
}

// pruneDir reports whether the walk should not descend into dir.
func (f filter) pruneDir(relPath string) bool {
	if skipDirs[strings.ToLower(filepath.Base(relPath))] {
		return true
	}
	return matchAny(f.exclude, relPath)
}

// admitFile reports whether a single-file document (a PDF or a lone image)
// is listed.
func (f filter) admitFile(relPath string) bool {
	if matchAny(f.exclude, relPath) {
		return false
	}
	return len(f.include) == 0 || matchAny(f.include, relPath)
}

// admitDeck reports whether the deck directory at dir is listed. Include
// patterns select a deck either by the directory path ("**/*.deck") or by
// the slides inside it ("**/*.png"); a deck with no included slide is
// skipped.
func (f filter) admitDeck(dir, relPath string) bool {
	if matchAny(f.exclude, relPath) {
		return false
	}
	if len(f.include) == 0 || matchAny(f.include, relPath) {
		return true
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	rel := filepath.ToSlash(relPath)
	for _, e := range entries {
		if e.IsDir() || !document.IsSlideImage(e.Name()) {
			continue
		}
		slide := path.Join(rel, e.Name())
		if matchAny(f.include, slide) && !matchAny(f.exclude, slide) {
			return true
		}
	}
	return false
}

func matchAny(patterns []string, relPath string) bool {
	rel := filepath.ToSlash(relPath)
	base := path.Base(rel)
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, base); ok {
			return true
		}
	}
	return false
}
