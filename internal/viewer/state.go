package viewer

import "github.com/ziadkadry99/pageview/internal/document"

// SlotState is the render state of one page slot.
type SlotState int

const (
	Unrendered SlotState = iota
	Rendering
	Rendered
)

func (s SlotState) String() string {
	switch s {
	case Unrendered:
		return "unrendered"
	case Rendering:
		return "rendering"
	case Rendered:
		return "rendered"
	}
	return "unknown"
}

// PageSlot is the public view of a page's placeholder.
type PageSlot struct {
	Index int       `json:"index"`
	State SlotState `json:"state"`
	// Bounds is the content-space rectangle reserved for the page.
	Bounds Rect `json:"bounds"`
	// Measured is true when Bounds is the rendered size rather than an
	// estimate.
	Measured bool             `json:"measured"`
	Surface  *document.Bitmap `json:"-"`
}

func (s PageSlot) Rendered() bool { return s.State == Rendered }

type slot struct {
	state    SlotState
	inflight bool // a render is running, possibly from an older epoch
	w, h     float64
	measured bool
	bounds   Rect
	surface  *document.Bitmap
}

// Viewport is the scroll container's geometry.
type Viewport struct {
	ScrollTop  float64 `json:"scroll_top"`
	ScrollLeft float64 `json:"scroll_left"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	// ContentWidth and ContentHeight are the scroll extents.
	ContentWidth  float64 `json:"content_width"`
	ContentHeight float64 `json:"content_height"`
}

func (v Viewport) Rect() Rect {
	return Rect{X: v.ScrollLeft, Y: v.ScrollTop, W: v.Width, H: v.Height}
}

// Snapshot is an immutable copy of renderer state.
type Snapshot struct {
	Title       string     `json:"title"`
	PageCount   int        `json:"page_count"`
	Scale       float64    `json:"scale"`
	Epoch       uint64     `json:"epoch"`
	CurrentPage int        `json:"current_page"`
	Visible     []int      `json:"visible"`
	Queue       []int      `json:"queue"`
	Viewport    Viewport   `json:"viewport"`
	Slots       []PageSlot `json:"slots"`
}

// ScrollChange is a scroll position set by the renderer itself, either to
// show a requested page or to restore the anchor after a zoom.
type ScrollChange struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Smooth bool    `json:"smooth"`
}

// Callbacks receive renderer events. They run outside the renderer lock on
// the goroutine that produced the event and may call back into the
// Renderer.
type Callbacks struct {
	OnCurrentPageChanged func(page int)
	OnRenderError        func(index int, err error)
	OnScaleChanged       func(scale float64)
	OnPageRendered       func(index int, bmp *document.Bitmap)
	OnScroll             func(ScrollChange)
}

// Option configures New.
type Option func(*Renderer)

// WithCallbacks sets the event callbacks.
func WithCallbacks(cb Callbacks) Option {
	return func(r *Renderer) { r.cb = cb }
}

func (s SlotState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
