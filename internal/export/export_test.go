package export

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/ziadkadry99/pageview/internal/document"
)

// flakyDoc fails to load the pages in bad.
type flakyDoc struct {
	*document.Pattern
	bad map[int]bool
}

func (d *flakyDoc) Page(ctx context.Context, index int) (document.PageHandle, error) {
	if d.bad[index] {
		return nil, &document.PageLoadError{Index: index, Err: fmt.Errorf("corrupt page")}
	}
	return d.Pattern.Page(ctx, index)
}

func TestRunWritesPages(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	doc := document.NewPattern(4, document.Size{Width: 50, Height: 40})

	var calls int64
	res, err := Run(context.Background(), doc, Options{
		OutDir:      out,
		First:       2,
		Scale:       2,
		Concurrency: 2,
		OnProgress:  func(processed, total, page int) { atomic.AddInt64(&calls, 1) },
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Files) != 3 || len(res.Failed) != 0 {
		t.Fatalf("files = %v, failed = %v", res.Files, res.Failed)
	}
	if want := filepath.Join(out, "page-002.png"); res.Files[0] != want {
		t.Errorf("first file = %s, want %s", res.Files[0], want)
	}
	if calls != 3 {
		t.Errorf("progress calls = %d, want 3", calls)
	}

	f, err := os.Open(res.Files[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 80 {
		t.Errorf("size = %dx%d, want 100x80", b.Dx(), b.Dy())
	}
}

func TestRunCollectsFailures(t *testing.T) {
	out := t.TempDir()
	doc := &flakyDoc{Pattern: document.NewPattern(3, document.Size{Width: 10, Height: 10}), bad: map[int]bool{2: true}}

	res, err := Run(context.Background(), doc, Options{OutDir: out})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Files) != 2 {
		t.Errorf("files = %v", res.Files)
	}
	if len(res.Failed) != 1 || res.Failed[0].Page != 2 {
		t.Fatalf("failed = %v", res.Failed)
	}
	if !errors.Is(res.Failed[0], document.ErrPageLoad) {
		t.Errorf("failure %v should wrap ErrPageLoad", res.Failed[0])
	}
	if _, err := os.Stat(filepath.Join(out, FileName(2))); !os.IsNotExist(err) {
		t.Error("failed page should not leave a file")
	}
}

func TestRunInvalidRange(t *testing.T) {
	doc := document.NewPattern(3, document.Size{Width: 10, Height: 10})
	tests := []struct{ first, last int }{{0, 4}, {3, 2}, {-1, 0}}
	for _, tt := range tests {
		_, err := Run(context.Background(), doc, Options{OutDir: t.TempDir(), First: tt.first, Last: tt.last})
		if !errors.Is(err, ErrInvalidRange) {
			t.Errorf("range %d-%d: err = %v, want ErrInvalidRange", tt.first, tt.last, err)
		}
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc := document.NewPattern(2, document.Size{Width: 10, Height: 10})

	res, err := Run(ctx, doc, Options{OutDir: t.TempDir()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if res == nil || len(res.Files) != 0 || len(res.Failed) != 2 {
		t.Errorf("result = %+v", res)
	}
}

func TestFilesInPageOrderPastThreeDigits(t *testing.T) {
	out := t.TempDir()
	doc := document.NewPattern(1001, document.Size{Width: 20, Height: 20})

	res, err := Run(context.Background(), doc, Options{OutDir: out, First: 998, Concurrency: 4})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"page-998.png", "page-999.png", "page-1000.png", "page-1001.png"}
	if len(res.Files) != len(want) {
		t.Fatalf("files = %v", res.Files)
	}
	for i, name := range want {
		if got := filepath.Base(res.Files[i]); got != name {
			t.Errorf("files[%d] = %s, want %s", i, got, name)
		}
	}
}
