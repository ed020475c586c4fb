package catalog

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ziadkadry99/pageview/internal/document"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

// setupLibrary creates:
//
//	reports/q1.pdf       (+ q1.md sidecar)
//	talks/intro.deck/    (two slides, README.md)
//	photos/cover.png
//	drafts/old.pdf       (excluded)
//	notes.txt            (not a document)
//	.hidden/secret.pdf   (hidden)
func setupLibrary(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "reports", "q1.pdf"), "%PDF-1.4")
	writeFile(t, filepath.Join(root, "reports", "q1.md"), "# First Quarter\n\nRevenue **up**.\n")
	writePNG(t, filepath.Join(root, "talks", "intro.deck", "01.png"), 8, 6)
	writePNG(t, filepath.Join(root, "talks", "intro.deck", "02.png"), 8, 6)
	writeFile(t, filepath.Join(root, "talks", "intro.deck", "README.md"), "Opening talk.\n")
	writePNG(t, filepath.Join(root, "photos", "cover.png"), 4, 4)
	writeFile(t, filepath.Join(root, "drafts", "old.pdf"), "%PDF-1.4")
	writeFile(t, filepath.Join(root, "notes.txt"), "not a document")
	writeFile(t, filepath.Join(root, ".hidden", "secret.pdf"), "%PDF-1.4")
	return root
}

func newTestCatalog(t *testing.T, root string) *Catalog {
	t.Helper()
	c, err := New(Config{
		Root:    root,
		Include: []string{"**/*.pdf", "**/*.png"},
		Exclude: []string{"drafts/**", "**/.*"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestScan(t *testing.T) {
	c := newTestCatalog(t, setupLibrary(t))

	var paths []string
	for _, e := range c.List() {
		paths = append(paths, e.RelPath+":"+string(e.Kind))
	}
	want := "photos/cover.png:deck,reports/q1.pdf:pdf,talks/intro.deck:deck"
	if got := strings.Join(paths, ","); got != want {
		t.Errorf("entries = %s\nwant      %s", got, want)
	}
}

func TestSidecarDescription(t *testing.T) {
	c := newTestCatalog(t, setupLibrary(t))

	e, ok := c.Resolve("reports/q1.pdf")
	if !ok {
		t.Fatal("q1.pdf not found")
	}
	if e.Title != "First Quarter" {
		t.Errorf("title = %q, want %q", e.Title, "First Quarter")
	}
	if !strings.Contains(e.DescriptionHTML, "<strong>up</strong>") {
		t.Errorf("description not rendered: %q", e.DescriptionHTML)
	}

	deck, ok := c.Resolve("talks/intro.deck")
	if !ok {
		t.Fatal("deck not found")
	}
	if deck.Title != "intro" || !strings.Contains(deck.DescriptionHTML, "Opening talk.") {
		t.Errorf("deck entry = %+v", deck)
	}
}

func TestStableIDs(t *testing.T) {
	root := setupLibrary(t)
	a := newTestCatalog(t, root)
	b := newTestCatalog(t, root)

	ea, _ := a.Resolve("photos/cover.png")
	eb, _ := b.Resolve("photos/cover.png")
	if ea.ID == "" || ea.ID != eb.ID {
		t.Errorf("IDs differ across scans: %q vs %q", ea.ID, eb.ID)
	}
	if got, ok := a.Get(ea.ID); !ok || got.RelPath != "photos/cover.png" {
		t.Errorf("Get(%q) = %+v, %v", ea.ID, got, ok)
	}
	if _, ok := a.Resolve(filepath.Join(root, "photos", "cover.png")); !ok {
		t.Error("absolute path did not resolve")
	}
}

func TestOpen(t *testing.T) {
	root := setupLibrary(t)
	c, err := New(Config{Root: root, Include: []string{"**/*.png"}, CachePages: 8})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	doc, e, err := c.Open("talks/intro.deck")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer doc.Close()
	if doc.PageCount() != 2 {
		t.Errorf("PageCount = %d, want 2", doc.PageCount())
	}
	if e.Kind != document.KindDeck {
		t.Errorf("kind = %q", e.Kind)
	}
	if _, ok := doc.(*document.CachedDocument); !ok {
		t.Errorf("expected a cached document, got %T", doc)
	}

	if _, _, err := c.Open("missing.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRefreshPicksUpNewFiles(t *testing.T) {
	root := setupLibrary(t)
	c := newTestCatalog(t, root)
	before := len(c.List())

	writePNG(t, filepath.Join(root, "photos", "back.png"), 4, 4)
	if err := c.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := len(c.List()); got != before+1 {
		t.Errorf("entries = %d, want %d", got, before+1)
	}
}

func TestIncludeSelectsDecks(t *testing.T) {
	tests := []struct {
		name    string
		include []string
		want    string
	}{
		{"pdf only", []string{"**/*.pdf"}, "reports/q1.pdf:pdf"},
		{"deck directories", []string{"**/*.deck"}, "talks/intro.deck:deck"},
		{"slides select their deck", []string{"talks/**/*.png"}, "talks/intro.deck:deck"},
		{"everything", nil, "photos/cover.png:deck,reports/q1.pdf:pdf,talks/intro.deck:deck"},
	}
	root := setupLibrary(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(Config{Root: root, Include: tt.include, Exclude: []string{"drafts/**", "**/.*"}})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			var paths []string
			for _, e := range c.List() {
				paths = append(paths, e.RelPath+":"+string(e.Kind))
			}
			if got := strings.Join(paths, ","); got != tt.want {
				t.Errorf("entries = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExcludedSlidesDropDeck(t *testing.T) {
	c, err := New(Config{
		Root:    setupLibrary(t),
		Include: []string{"**/*.png"},
		Exclude: []string{"talks/**/*.png"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := c.Resolve("talks/intro.deck"); ok {
		t.Error("deck listed although every slide is excluded")
	}
	if _, ok := c.Resolve("photos/cover.png"); !ok {
		t.Error("cover.png missing")
	}
}

func TestInvalidPattern(t *testing.T) {
	if _, err := New(Config{Root: t.TempDir(), Include: []string{"[unclosed"}}); err == nil {
		t.Error("expected an error for a malformed include pattern")
	}
}

func TestFilterMatching(t *testing.T) {
	f, err := newFilter([]string{"**/*.pdf", "*.png"}, []string{"drafts/**"})
	if err != nil {
		t.Fatalf("newFilter: %v", err)
	}
	tests := []struct {
		path string
		want bool
	}{
		{"a/b/c.pdf", true},
		{"c.pdf", true},
		{"a/b/c.png", true},
		{"a/b/c.gif", false},
		{"drafts/old.pdf", false},
	}
	for _, tt := range tests {
		if got := f.admitFile(tt.path); got != tt.want {
			t.Errorf("admitFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
	if !f.pruneDir("x/node_modules") || f.pruneDir("reports") {
		t.Error("pruneDir mismatch")
	}
}
