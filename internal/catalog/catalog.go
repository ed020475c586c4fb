// Package catalog discovers viewable documents under a root directory.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ziadkadry99/pageview/internal/document"
	"github.com/ziadkadry99/pageview/internal/logging"
)

// DeckSuffix marks a directory of slide images as a single document.
const DeckSuffix = ".deck"

// ErrNotFound is returned for unknown document references.
var ErrNotFound = errors.New("document not found")

// Entry describes one discovered document.
type Entry struct {
	ID              string        `json:"id"`
	Path            string        `json:"-"`
	RelPath         string        `json:"path"`
	Kind            document.Kind `json:"kind"`
	Title           string        `json:"title"`
	Size            int64         `json:"size"`
	ModTime         time.Time     `json:"modified"`
	DescriptionHTML string        `json:"description_html,omitempty"`
}

// Config controls scanning and opening.
type Config struct {
	Root    string
	Include []string
	Exclude []string
	// CachePages sizes the bitmap cache wrapped around opened documents.
	// Zero disables caching.
	CachePages int
}

// Catalog is a scanned set of documents. It is safe for concurrent use.
type Catalog struct {
	cfg    Config
	root   string
	filter filter

	mu      sync.RWMutex
	entries []Entry
	byID    map[string]int
}

// New scans cfg.Root and returns the resulting catalog.
func New(cfg Config) (*Catalog, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving documents root: %w", err)
	}
	f, err := newFilter(cfg.Include, cfg.Exclude)
	if err != nil {
		return nil, err
	}
	c := &Catalog{cfg: cfg, root: root, filter: f}
	if err := c.Refresh(); err != nil {
		return nil, err
	}
	return c, nil
}

// Root returns the absolute documents directory.
func (c *Catalog) Root() string { return c.root }

// IDFor returns the stable identifier of a document at relPath.
func IDFor(relPath string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("pageview:"+filepath.ToSlash(relPath))).String()
}

// Refresh rescans the documents root.
func (c *Catalog) Refresh() error {
	entries, err := scan(c.root, c.filter)
	if err != nil {
		return err
	}
	byID := make(map[string]int, len(entries))
	for i, e := range entries {
		byID[e.ID] = i
	}

	c.mu.Lock()
	c.entries, c.byID = entries, byID
	c.mu.Unlock()

	logging.Logger().Info("catalog scanned", "root", c.root, "documents", len(entries))
	return nil
}

// List returns every entry ordered by path.
func (c *Catalog) List() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Entry(nil), c.entries...)
}

// Get looks up an entry by ID.
func (c *Catalog) Get(id string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Resolve looks up an entry by ID or by path relative to the root.
func (c *Catalog) Resolve(ref string) (Entry, bool) {
	if e, ok := c.Get(ref); ok {
		return e, true
	}
	rel := filepath.ToSlash(filepath.Clean(ref))
	if filepath.IsAbs(ref) {
		r, err := filepath.Rel(c.root, ref)
		if err != nil {
			return Entry{}, false
		}
		rel = filepath.ToSlash(r)
	}
	return c.Get(IDFor(rel))
}

// Open opens the document behind ref (an ID or relative path).
func (c *Catalog) Open(ref string) (document.Document, Entry, error) {
	e, ok := c.Resolve(ref)
	if !ok {
		return nil, Entry{}, fmt.Errorf("%s: %w", ref, ErrNotFound)
	}
	doc, err := OpenPath(e.Path, c.cfg.CachePages)
	if err != nil {
		return nil, Entry{}, err
	}
	return doc, e, nil
}

// OpenPath opens a document from disk, wrapping it in a bitmap cache when
// cachePages is positive.
func OpenPath(path string, cachePages int) (document.Document, error) {
	doc, err := document.Open(path)
	if err != nil {
		return nil, err
	}
	if cachePages > 0 {
		return document.Cached(doc, cachePages), nil
	}
	return doc, nil
}

func scan(root string, f filter) ([]Entry, error) {
	var entries []Entry

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip entries we cannot read instead of aborting.
			return nil
		}
		if path == root {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		name := d.Name()

		if d.IsDir() {
			if f.pruneDir(relPath) {
				return filepath.SkipDir
			}
			if strings.HasSuffix(strings.ToLower(name), DeckSuffix) {
				if !f.admitDeck(path, relPath) {
					return filepath.SkipDir
				}
				if e, ok := newEntry(path, relPath, document.KindDeck, d); ok {
					entries = append(entries, e)
				}
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if !f.admitFile(relPath) {
			return nil
		}

		var kind document.Kind
		switch {
		case strings.EqualFold(filepath.Ext(name), ".pdf"):
			kind = document.KindPDF
		case document.IsSlideImage(name):
			kind = document.KindDeck
		default:
			return nil
		}
		if e, ok := newEntry(path, relPath, kind, d); ok {
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].RelPath < entries[j].RelPath })
	return entries, nil
}

func newEntry(path, relPath string, kind document.Kind, d fs.DirEntry) (Entry, bool) {
	info, err := d.Info()
	if err != nil {
		return Entry{}, false
	}
	rel := filepath.ToSlash(relPath)
	base := filepath.Base(path)
	e := Entry{
		ID:      IDFor(rel),
		Path:    path,
		RelPath: rel,
		Kind:    kind,
		Title:   strings.TrimSuffix(base, filepath.Ext(base)),
		ModTime: info.ModTime(),
	}
	if !d.IsDir() {
		e.Size = info.Size()
	}

	for _, side := range sidecars(path, d.IsDir()) {
		desc, err := readDescription(side)
		if err != nil {
			continue
		}
		e.DescriptionHTML = desc.HTML
		if desc.Title != "" {
			e.Title = desc.Title
		}
		break
	}
	return e, true
}

// sidecars lists candidate description files for a document.
func sidecars(path string, isDir bool) []string {
	trimmed := strings.TrimSuffix(path, filepath.Ext(path))
	if isDir {
		return []string{filepath.Join(path, "README.md"), trimmed + ".md"}
	}
	return []string{trimmed + ".md"}
}
