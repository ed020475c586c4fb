package viewer

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/ziadkadry99/pageview/internal/document"
)

// fakeDoc is a document of equally sized pages whose renders can be gated,
// failed and counted.
type fakeDoc struct {
	n    int
	w, h float64

	// fail reports whether rendering index at scale should fail.
	fail func(index int, scale float64) bool
	// gate, when set, blocks every render until a value is received.
	gate chan struct{}
	// started receives the index of each render as it begins.
	started chan int
	// pageErr, when set, fails Page for that index.
	pageErr map[int]error

	mu       sync.Mutex
	renders  map[renderKey]int
	inflight map[int]int
	overlap  bool
}

type renderKey struct {
	index int
	scale float64
}

func newFakeDoc(n int, w, h float64) *fakeDoc {
	return &fakeDoc{
		n: n, w: w, h: h,
		renders:  make(map[renderKey]int),
		inflight: make(map[int]int),
	}
}

func (d *fakeDoc) PageCount() int { return d.n }
func (d *fakeDoc) Title() string  { return "fake" }
func (d *fakeDoc) Close() error   { return nil }

func (d *fakeDoc) Page(ctx context.Context, index int) (document.PageHandle, error) {
	if err, ok := d.pageErr[index]; ok {
		return nil, &document.PageLoadError{Index: index, Err: err}
	}
	return &fakePage{doc: d, index: index}, nil
}

func (d *fakeDoc) count(index int, scale float64) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.renders[renderKey{index, scale}]
}

func (d *fakeDoc) total() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.renders {
		n += c
	}
	return n
}

type fakePage struct {
	doc   *fakeDoc
	index int
}

func (p *fakePage) Index() int                { return p.index }
func (p *fakePage) Size() (float64, float64) { return p.doc.w, p.doc.h }

func (p *fakePage) Render(ctx context.Context, scale float64) (*document.Bitmap, error) {
	d := p.doc
	d.mu.Lock()
	d.renders[renderKey{p.index, scale}]++
	d.inflight[p.index]++
	if d.inflight[p.index] > 1 {
		d.overlap = true
	}
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.inflight[p.index]--
		d.mu.Unlock()
	}()

	if d.started != nil {
		d.started <- p.index
	}
	if d.gate != nil {
		select {
		case <-d.gate:
		case <-ctx.Done():
			return nil, &document.RenderError{Index: p.index, Scale: scale, Err: ctx.Err()}
		}
	}
	if d.fail != nil && d.fail(p.index, scale) {
		return nil, &document.RenderError{Index: p.index, Scale: scale, Err: errors.New("boom")}
	}
	w, h := document.Scaled(d.w, d.h, scale)
	return document.NewBitmap(image.NewRGBA(image.Rect(0, 0, w, h))), nil
}

// testConfig uses unit scale and a debounce window long enough that
// scheduled passes never fire during a test unless asked to.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.InitialScale = 1
	cfg.Debounce = time.Hour
	return cfg
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func renderedSet(r *Renderer) map[int]bool {
	out := make(map[int]bool)
	for _, s := range r.Snapshot().Slots {
		if s.Rendered() {
			out[s.Index] = true
		}
	}
	return out
}

func idle(r *Renderer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.draining && r.queue.Len() == 0
}
