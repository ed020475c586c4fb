package document

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Size is a page size in points at scale 1.
type Size struct {
	Width  float64
	Height float64
}

// Letter and A4 are common portrait page sizes.
var (
	Letter = Size{Width: 612, Height: 792}
	A4     = Size{Width: 595, Height: 842}
)

// palette cycles the card background per page.
var palette = []gg.RGBA{
	gg.Hex("#f5f7fa"),
	gg.Hex("#fff7e6"),
	gg.Hex("#eef9f0"),
	gg.Hex("#f3eefc"),
}

// Pattern is a synthetic Document of numbered test cards drawn with gg.
type Pattern struct {
	title string
	sizes []Size
}

// NewPattern returns a pattern document with count pages of size s.
func NewPattern(count int, s Size) *Pattern {
	sizes := make([]Size, count)
	for i := range sizes {
		sizes[i] = s
	}
	return &Pattern{title: fmt.Sprintf("pattern-%d", count), sizes: sizes}
}

// NewPatternSizes returns a pattern document with one page per size.
func NewPatternSizes(sizes ...Size) *Pattern {
	return &Pattern{title: fmt.Sprintf("pattern-%d", len(sizes)), sizes: append([]Size(nil), sizes...)}
}

func (d *Pattern) PageCount() int { return len(d.sizes) }
func (d *Pattern) Title() string  { return d.title }
func (d *Pattern) Close() error   { return nil }

func (d *Pattern) Page(ctx context.Context, index int) (PageHandle, error) {
	if err := checkIndex(index, len(d.sizes)); err != nil {
		return nil, err
	}
	s := d.sizes[index-1]
	if s.Width <= 0 || s.Height <= 0 {
		return nil, &PageLoadError{Index: index, Err: fmt.Errorf("invalid page size %vx%v", s.Width, s.Height)}
	}
	return &patternPage{index: index, size: s}, nil
}

type patternPage struct {
	index int
	size  Size
}

func (p *patternPage) Index() int                { return p.index }
func (p *patternPage) Size() (float64, float64) { return p.size.Width, p.size.Height }

func (p *patternPage) Render(ctx context.Context, scale float64) (*Bitmap, error) {
	if scale <= 0 {
		return nil, &RenderError{Index: p.index, Scale: scale, Err: fmt.Errorf("non-positive scale")}
	}
	if err := ctx.Err(); err != nil {
		return nil, &RenderError{Index: p.index, Scale: scale, Err: err}
	}
	w, h := Scaled(p.size.Width, p.size.Height, scale)
	fw, fh := float64(w), float64(h)

	dc := gg.NewContext(w, h)
	defer dc.Close()
	dc.ClearWithColor(palette[(p.index-1)%len(palette)])

	dc.SetRGB(0.2, 0.3, 0.5)
	dc.SetLineWidth(max(1, 2*scale))
	dc.DrawRectangle(4*scale, 4*scale, fw-8*scale, fh-8*scale)
	if err := dc.Stroke(); err != nil {
		return nil, &RenderError{Index: p.index, Scale: scale, Err: err}
	}

	dc.SetRGBA(0.2, 0.3, 0.5, 0.35)
	dc.SetLineWidth(max(1, scale))
	dc.DrawLine(0, 0, fw, fh)
	dc.DrawLine(fw, 0, 0, fh)
	if err := dc.Stroke(); err != nil {
		return nil, &RenderError{Index: p.index, Scale: scale, Err: err}
	}

	dc.SetRGB(0.85, 0.35, 0.25)
	dc.DrawCircle(fw/2, fh/2, min(fw, fh)/8)
	if err := dc.Fill(); err != nil {
		return nil, &RenderError{Index: p.index, Scale: scale, Err: err}
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), dc.Image(), image.Point{}, draw.Src)

	label := "page " + strconv.Itoa(p.index)
	fd := &font.Drawer{Dst: img, Src: image.NewUniform(color.Black), Face: basicfont.Face7x13}
	lw := fd.MeasureString(label).Ceil()
	fd.Dot = fixed.P((w-lw)/2, h-int(16*scale)-4)
	fd.DrawString(label)

	return NewBitmap(img), nil
}
