package viewer

import "math"

// Size is a width and height in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is an axis-aligned rectangle in content space.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func (r Rect) Bottom() float64 { return r.Y + r.H }
func (r Rect) Right() float64  { return r.X + r.W }

// Intersects reports whether r and o overlap with positive area. Rectangles
// that only share an edge do not intersect.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.Right() && o.X < r.Right() &&
		r.Y < o.Bottom() && o.Y < r.Bottom()
}

// clampScale bounds s to [lo, hi].
func clampScale(s, lo, hi float64) float64 {
	return math.Min(math.Max(s, lo), hi)
}

// fitScale returns the scale at which a page of natural size page fits the
// container less margin on every side: height first, then width if the
// height fit overflows horizontally.
func fitScale(page, container Size, margin float64) float64 {
	availW := container.Width - 2*margin
	availH := container.Height - 2*margin
	if page.Width <= 0 || page.Height <= 0 || availW <= 0 || availH <= 0 {
		return 1
	}
	s := availH / page.Height
	if page.Width*s > availW {
		s = availW / page.Width
	}
	return s
}

// layout positions slots in a vertical stack. Each slot is centred
// horizontally within max(viewport width, widest slot + 2*padding). It
// returns the content extent.
func layout(slots []slot, viewportWidth, gap, padding float64) Size {
	widest := 0.0
	for i := range slots {
		widest = math.Max(widest, slots[i].w)
	}
	contentW := math.Max(viewportWidth, widest+2*padding)

	y := padding
	for i := range slots {
		s := &slots[i]
		s.bounds = Rect{X: (contentW - s.w) / 2, Y: y, W: s.w, H: s.h}
		y += s.h
		if i < len(slots)-1 {
			y += gap
		}
	}
	return Size{Width: contentW, Height: y + padding}
}

// clampOffset bounds a scroll offset to [0, extent - view].
func clampOffset(offset, extent, view float64) float64 {
	return math.Max(0, math.Min(offset, extent-view))
}
