package document

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gogpu/gg"
	"github.com/tsawler/tabula/core"
	"github.com/tsawler/tabula/pages"
	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/text"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PDF is a Document backed by a PDF file. Pages are rasterized as a
// text-layout preview: the page area with every extracted text fragment
// drawn at its position.
type PDF struct {
	path  string
	title string
	count int

	mu sync.Mutex // guards r; the reader is not safe for concurrent use
	r  *reader.Reader
}

// OpenPDF opens the PDF at path and reads its page tree.
func OpenPDF(path string) (*PDF, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	count, err := r.PageCount()
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("reading page tree: %w", err)
	}
	return &PDF{
		path:  path,
		title: pdfTitle(r, path),
		count: count,
		r:     r,
	}, nil
}

func pdfTitle(r *reader.Reader, path string) string {
	info, err := r.GetInfo()
	if err == nil && info != nil {
		if s, ok := info.Get("Title").(core.String); ok && strings.TrimSpace(string(s)) != "" {
			return strings.TrimSpace(string(s))
		}
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func (d *PDF) PageCount() int { return d.count }
func (d *PDF) Title() string  { return d.title }

func (d *PDF) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.r == nil {
		return nil
	}
	err := d.r.Close()
	d.r = nil
	return err
}

func (d *PDF) Page(ctx context.Context, index int) (PageHandle, error) {
	if err := checkIndex(index, d.count); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &PageLoadError{Index: index, Err: err}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.r == nil {
		return nil, &PageLoadError{Index: index, Err: fmt.Errorf("document closed")}
	}
	p, err := d.r.GetPage(index - 1)
	if err != nil {
		return nil, &PageLoadError{Index: index, Err: err}
	}
	box, err := p.MediaBox()
	if err != nil {
		return nil, &PageLoadError{Index: index, Err: fmt.Errorf("reading media box: %w", err)}
	}
	if len(box) != 4 || box[2]-box[0] <= 0 || box[3]-box[1] <= 0 {
		return nil, &PageLoadError{Index: index, Err: fmt.Errorf("invalid media box %v", box)}
	}
	return &pdfPage{doc: d, page: p, index: index, box: box, rotate: p.Rotate()}, nil
}

// PageText returns the text fragments of a page joined in content order.
func (d *PDF) PageText(ctx context.Context, index int) (string, error) {
	h, err := d.Page(ctx, index)
	if err != nil {
		return "", err
	}
	frags, err := h.(*pdfPage).fragments()
	if err != nil {
		return "", fmt.Errorf("extracting text: %w", err)
	}
	var sb strings.Builder
	lastY := 0.0
	for i, f := range frags {
		if i > 0 {
			if f.Y != lastY {
				sb.WriteByte('\n')
			} else {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(f.Text)
		lastY = f.Y
	}
	return sb.String(), nil
}

type pdfPage struct {
	doc    *PDF
	page   *pages.Page
	index  int
	box    []float64
	rotate int

	once sync.Once
	base *image.RGBA
	err  error
}

func (p *pdfPage) Index() int { return p.index }

func (p *pdfPage) Size() (float64, float64) {
	w, h := p.box[2]-p.box[0], p.box[3]-p.box[1]
	if r := ((p.rotate % 360) + 360) % 360; r == 90 || r == 270 {
		return h, w
	}
	return w, h
}

func (p *pdfPage) fragments() ([]text.TextFragment, error) {
	p.doc.mu.Lock()
	defer p.doc.mu.Unlock()
	if p.doc.r == nil {
		return nil, fmt.Errorf("document closed")
	}
	return p.doc.r.ExtractTextFragments(p.page)
}

func (p *pdfPage) Render(ctx context.Context, scale float64) (*Bitmap, error) {
	if scale <= 0 {
		return nil, &RenderError{Index: p.index, Scale: scale, Err: fmt.Errorf("non-positive scale")}
	}
	p.once.Do(func() { p.base, p.err = p.compose() })
	if p.err != nil {
		return nil, &RenderError{Index: p.index, Scale: scale, Err: p.err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &RenderError{Index: p.index, Scale: scale, Err: err}
	}
	w, h := p.Size()
	sw, sh := Scaled(w, h, scale)
	return NewBitmap(Resample(p.base, sw, sh)), nil
}

// compose draws the page at scale 1 in unrotated page space, then applies
// the page rotation.
func (p *pdfPage) compose() (*image.RGBA, error) {
	frags, err := p.fragments()
	if err != nil {
		return nil, fmt.Errorf("extracting text: %w", err)
	}
	pw, ph := p.box[2]-p.box[0], p.box[3]-p.box[1]
	w, h := Scaled(pw, ph, 1)

	dc := gg.NewContext(w, h)
	defer dc.Close()
	dc.ClearWithColor(gg.White)
	dc.SetRGB(0.85, 0.85, 0.85)
	dc.SetLineWidth(1)
	dc.DrawRectangle(0.5, 0.5, float64(w)-1, float64(h)-1)
	if err := dc.Stroke(); err != nil {
		return nil, fmt.Errorf("drawing page frame: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), dc.Image(), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
	}
	for _, f := range frags {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		x := f.X - p.box[0]
		y := ph - (f.Y - p.box[1])
		d.Dot = fixed.P(int(x), int(y))
		d.DrawString(f.Text)
	}
	return rotate(img, p.rotate), nil
}
