// Package viewer implements the continuous-scroll page renderer: a vertical
// stack of page slots inside a scrollable viewport, rendered lazily as they
// become visible.
//
// All state is guarded by one mutex. A single worker goroutine drains the
// render queue one page at a time and renders without holding the lock.
// Each scale change starts a new epoch; renders that complete in an older
// epoch are discarded.
package viewer

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/ziadkadry99/pageview/internal/document"
	"github.com/ziadkadry99/pageview/internal/logging"
)

// Renderer is an IncrementalPageRenderer over one document.
type Renderer struct {
	doc     document.Document
	cfg     Config
	cb      Callbacks
	natural Size // page 1 at scale 1

	ctx      context.Context
	cancel   context.CancelFunc
	debounce *debouncer
	wg       sync.WaitGroup

	mu       sync.Mutex
	closed   bool
	scale    float64
	epoch    uint64
	slots    []slot
	view     Viewport
	visible  []int
	current  int
	queue    renderQueue
	draining bool
	anchor   *anchor
}

// anchor is a scroll position to restore once the pages that were visible
// when the scale changed have rendered at the new scale.
type anchor struct {
	epoch   uint64
	fx, fy  float64
	pending map[int]bool
}

// New creates placeholders for every page of doc inside a container of the
// given size and runs the first visibility pass. It does not wait for any
// page to render. The renderer does not take ownership of doc.
func New(ctx context.Context, doc document.Document, size Size, cfg Config, opts ...Option) (*Renderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := doc.PageCount()
	if n <= 0 {
		return nil, &DocumentLoadError{Err: errors.New("document has no pages")}
	}
	first, err := doc.Page(ctx, 1)
	if err != nil {
		return nil, &DocumentLoadError{Err: err}
	}
	pw, ph := first.Size()
	if pw <= 0 || ph <= 0 {
		return nil, &DocumentLoadError{Err: errors.New("first page has no area")}
	}

	rctx, cancel := context.WithCancel(ctx)
	r := &Renderer{
		doc:     doc,
		cfg:     cfg,
		natural: Size{Width: pw, Height: ph},
		ctx:     rctx,
		cancel:  cancel,
		current: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.debounce = newDebouncer(cfg.Debounce, r.Recompute)

	r.scale = cfg.InitialScale
	if r.scale <= 0 {
		r.scale = fitScale(r.natural, size, cfg.FitMargin)
	}
	r.scale = clampScale(r.scale, cfg.MinScale, cfg.MaxScale)

	r.slots = make([]slot, n)
	for i := range r.slots {
		r.slots[i] = slot{w: pw * r.scale, h: ph * r.scale}
	}
	r.view.Width, r.view.Height = size.Width, size.Height
	r.relayoutLocked()

	logging.Logger().Debug("viewer opened", "title", doc.Title(), "pages", n, "scale", r.scale)

	r.Recompute()
	return r, nil
}

// PageCount returns the number of page slots.
func (r *Renderer) PageCount() int { return len(r.slots) }

// Document returns the document being viewed.
func (r *Renderer) Document() document.Document { return r.doc }

// OnScroll schedules a debounced visibility pass.
func (r *Renderer) OnScroll() { r.debounce.Call() }

// OnResize schedules a debounced visibility pass.
func (r *Renderer) OnResize() { r.debounce.Call() }

// Recompute runs a visibility pass immediately.
func (r *Renderer) Recompute() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	evs := r.recomputeLocked()
	r.kickLocked()
	r.mu.Unlock()
	fire(evs)
}

// Refresh re-queues every visible page that is not rendered. It is the
// retry path for pages that failed.
func (r *Renderer) Refresh() {
	logging.Logger().Debug("manual refresh")
	r.Recompute()
}

// ScrollTo moves the viewport and schedules a visibility pass.
func (r *Renderer) ScrollTo(top, left float64) {
	r.mu.Lock()
	r.setScrollLocked(top, left)
	r.anchor = nil
	r.mu.Unlock()
	r.OnScroll()
}

// ScrollBy moves the viewport by a delta.
func (r *Renderer) ScrollBy(dy, dx float64) {
	r.mu.Lock()
	r.setScrollLocked(r.view.ScrollTop+dy, r.view.ScrollLeft+dx)
	r.anchor = nil
	r.mu.Unlock()
	r.OnScroll()
}

// Resize changes the container size and schedules a visibility pass.
func (r *Renderer) Resize(width, height float64) {
	r.mu.Lock()
	r.view.Width, r.view.Height = width, height
	r.relayoutLocked()
	r.mu.Unlock()
	r.OnResize()
}

// RenderPage renders one page at the current scale unless it is already
// rendered or rendering in this epoch. Per-page failures are reported
// through OnRenderError and never returned.
func (r *Renderer) RenderPage(ctx context.Context, index int) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if index < 1 || index > len(r.slots) {
		r.mu.Unlock()
		return &OutOfRangeError{Index: index, PageCount: len(r.slots)}
	}
	if sl := &r.slots[index-1]; sl.state != Unrendered || sl.inflight {
		r.mu.Unlock()
		return nil
	}
	r.queue.Remove(index)
	r.slots[index-1].state = Rendering
	r.slots[index-1].inflight = true
	epoch, scale := r.epoch, r.scale
	r.mu.Unlock()

	bmp, err := r.render(ctx, index, scale)
	fire(r.finish(index, epoch, bmp, err))
	return nil
}

// SetScale changes the zoom level. The new scale is clamped; setting the
// current scale is a no-op. With preserveCenter the point at the centre of
// the viewport stays centred once the pages visible now have rendered at
// the new scale.
func (r *Renderer) SetScale(scale float64, preserveCenter bool) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	s := clampScale(scale, r.cfg.MinScale, r.cfg.MaxScale)
	if s == r.scale {
		r.mu.Unlock()
		return nil
	}
	old := r.scale

	// A zoom that arrives before the previous anchor was restored keeps
	// that anchor: the scroll position has not caught up with the layout.
	var fx, fy float64
	chained := preserveCenter && r.anchor != nil
	switch {
	case chained:
		fx, fy = r.anchor.fx, r.anchor.fy
	case preserveCenter:
		fx, fy = r.centerFractionLocked()
	}

	r.scale = s
	r.epoch++
	ratio := s / old
	for i := range r.slots {
		sl := &r.slots[i]
		sl.state = Unrendered
		sl.surface = nil
		sl.measured = false
		sl.w *= ratio
		sl.h *= ratio
	}
	r.queue.Clear()
	r.relayoutLocked()

	anchorPages := slices.Clone(r.visible)
	if chained {
		anchorPages = r.pagesInLocked(r.anchorRectLocked(fx, fy))
	}
	for _, idx := range anchorPages {
		r.queue.Push(idx)
	}

	var evs []func()
	r.anchor = nil
	if preserveCenter {
		r.anchor = &anchor{epoch: r.epoch, fx: fx, fy: fy, pending: make(map[int]bool, len(anchorPages))}
		for _, idx := range anchorPages {
			r.anchor.pending[idx] = true
		}
		if len(anchorPages) == 0 {
			evs = append(evs, r.restoreAnchorLocked()...)
		}
	} else {
		evs = append(evs, r.recomputeLocked()...)
	}
	r.kickLocked()
	epoch := r.epoch
	r.mu.Unlock()

	logging.Logger().Debug("scale changed", "from", old, "to", s, "epoch", epoch, "preserve_center", preserveCenter)
	if r.cb.OnScaleChanged != nil {
		r.cb.OnScaleChanged(s)
	}
	fire(evs)
	return nil
}

// ZoomIn raises the scale by one step, keeping the centre. At MaxScale it
// returns a *ScaleLimitError and changes nothing.
func (r *Renderer) ZoomIn() error {
	return r.zoomStep(r.cfg.ScaleStep)
}

// ZoomOut lowers the scale by one step, keeping the centre. At MinScale it
// returns a *ScaleLimitError and changes nothing.
func (r *Renderer) ZoomOut() error {
	return r.zoomStep(-r.cfg.ScaleStep)
}

func (r *Renderer) zoomStep(delta float64) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	cur := r.scale
	r.mu.Unlock()

	switch {
	case delta > 0 && cur >= r.cfg.MaxScale:
		return &ScaleLimitError{Limit: r.cfg.MaxScale, Max: true}
	case delta < 0 && cur <= r.cfg.MinScale:
		return &ScaleLimitError{Limit: r.cfg.MinScale}
	}
	return r.SetScale(cur+delta, true)
}

// FitToPage sets the scale at which the first page fits the container.
func (r *Renderer) FitToPage() error {
	r.mu.Lock()
	s := fitScale(r.natural, Size{Width: r.view.Width, Height: r.view.Height}, r.cfg.FitMargin)
	r.mu.Unlock()
	return r.SetScale(s, true)
}

// GoToPage scrolls so the top of page index meets the top of the viewport
// and renders it ahead of anything else queued.
func (r *Renderer) GoToPage(index int) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if index < 1 || index > len(r.slots) {
		r.mu.Unlock()
		return &OutOfRangeError{Index: index, PageCount: len(r.slots)}
	}
	sl := &r.slots[index-1]
	r.anchor = nil
	r.setScrollLocked(sl.bounds.Y, r.view.ScrollLeft)
	if sl.state == Unrendered {
		r.queue.PushFront(index)
	}
	change := ScrollChange{Top: r.view.ScrollTop, Left: r.view.ScrollLeft, Smooth: true}
	evs := r.recomputeLocked()
	r.kickLocked()
	r.mu.Unlock()

	if r.cb.OnScroll != nil {
		r.cb.OnScroll(change)
	}
	fire(evs)
	return nil
}

// NextPage goes to the page after the current one. It is a no-op on the
// last page.
func (r *Renderer) NextPage() error {
	cur := r.CurrentPage()
	if cur >= r.PageCount() {
		return nil
	}
	return r.GoToPage(cur + 1)
}

// PrevPage goes to the page before the current one. It is a no-op on the
// first page.
func (r *Renderer) PrevPage() error {
	cur := r.CurrentPage()
	if cur <= 1 {
		return nil
	}
	return r.GoToPage(cur - 1)
}

func (r *Renderer) Scale() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scale
}

func (r *Renderer) CurrentPage() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Surface returns the bitmap of page index if it is rendered in the current
// epoch.
func (r *Renderer) Surface(index int) (*document.Bitmap, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 1 || index > len(r.slots) {
		return nil, false
	}
	sl := r.slots[index-1]
	return sl.surface, sl.state == Rendered
}

// Snapshot copies the current state.
func (r *Renderer) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := Snapshot{
		Title:       r.doc.Title(),
		PageCount:   len(r.slots),
		Scale:       r.scale,
		Epoch:       r.epoch,
		CurrentPage: r.current,
		Visible:     slices.Clone(r.visible),
		Queue:       r.queue.Items(),
		Viewport:    r.view,
		Slots:       make([]PageSlot, len(r.slots)),
	}
	for i, sl := range r.slots {
		snap.Slots[i] = PageSlot{
			Index:    i + 1,
			State:    sl.state,
			Bounds:   sl.bounds,
			Measured: sl.measured,
			Surface:  sl.surface,
		}
	}
	return snap
}

// Close stops the debouncer and waits for the worker to exit. In-flight
// renders are cancelled through the renderer context.
func (r *Renderer) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.queue.Clear()
	r.anchor = nil
	r.mu.Unlock()

	r.debounce.Stop()
	r.cancel()
	r.wg.Wait()
	return nil
}

// drain renders queued pages one at a time until the queue is empty.
func (r *Renderer) drain() {
	defer r.wg.Done()
	for {
		r.mu.Lock()
		index, ok := r.nextLocked()
		if !ok {
			r.draining = false
			r.mu.Unlock()
			return
		}
		r.slots[index-1].state = Rendering
		r.slots[index-1].inflight = true
		epoch, scale := r.epoch, r.scale
		r.mu.Unlock()

		bmp, err := r.render(r.ctx, index, scale)
		fire(r.finish(index, epoch, bmp, err))
	}
}

// nextLocked takes the next page to render: the first queued visible page,
// else the head of the queue. Entries no longer unrendered are dropped;
// pages still rendering from an older epoch wait in the queue.
func (r *Renderer) nextLocked() (int, bool) {
	if r.closed {
		return 0, false
	}
	preferred := make(map[int]bool, len(r.visible))
	for _, idx := range r.visible {
		preferred[idx] = true
	}
	for _, visibleOnly := range []bool{true, false} {
		for _, idx := range r.queue.Items() {
			sl := &r.slots[idx-1]
			if sl.state != Unrendered {
				r.queue.Remove(idx)
				continue
			}
			if sl.inflight || (visibleOnly && !preferred[idx]) {
				continue
			}
			r.queue.Remove(idx)
			return idx, true
		}
	}
	return 0, false
}

func (r *Renderer) kickLocked() {
	if r.draining || r.closed || r.queue.Len() == 0 {
		return
	}
	r.draining = true
	r.wg.Add(1)
	go r.drain()
}

func (r *Renderer) render(ctx context.Context, index int, scale float64) (*document.Bitmap, error) {
	h, err := r.doc.Page(ctx, index)
	if err != nil {
		if !errors.Is(err, document.ErrPageLoad) {
			err = &document.PageLoadError{Index: index, Err: err}
		}
		return nil, err
	}
	bmp, err := h.Render(ctx, scale)
	if err != nil {
		if !errors.Is(err, document.ErrRender) {
			err = &document.RenderError{Index: index, Scale: scale, Err: err}
		}
		return nil, err
	}
	if bmp == nil || bmp.Width <= 0 || bmp.Height <= 0 {
		return nil, &document.RenderError{Index: index, Scale: scale, Err: errors.New("empty bitmap")}
	}
	return bmp, nil
}

// finish records the outcome of a render started in epoch and returns the
// events to fire.
func (r *Renderer) finish(index int, epoch uint64, bmp *document.Bitmap, err error) []func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := logging.Logger()
	r.slots[index-1].inflight = false
	if !r.closed && epoch != r.epoch {
		r.kickLocked()
	}
	if r.closed || epoch != r.epoch {
		log.Debug("discarding stale render", "page", index, "epoch", epoch, "current_epoch", r.epoch)
		return nil
	}

	sl := &r.slots[index-1]
	var evs []func()
	if err != nil {
		sl.state = Unrendered
		log.Warn("page render failed", "page", index, "error", err)
		if cb := r.cb.OnRenderError; cb != nil {
			evs = append(evs, func() { cb(index, err) })
		}
		if r.anchor != nil && r.anchor.pending[index] {
			log.Debug("abandoning scroll anchor", "page", index)
			r.anchor = nil
			evs = append(evs, r.recomputeLocked()...)
		}
		return evs
	}

	resized := sl.w != float64(bmp.Width) || sl.h != float64(bmp.Height)
	sl.state = Rendered
	sl.surface = bmp
	sl.measured = true
	sl.w, sl.h = float64(bmp.Width), float64(bmp.Height)
	if resized {
		r.relayoutLocked()
	}
	log.Debug("page rendered", "page", index, "scale", r.scale, "width", bmp.Width, "height", bmp.Height)
	if cb := r.cb.OnPageRendered; cb != nil {
		evs = append(evs, func() { cb(index, bmp) })
	}

	if r.anchor != nil && r.anchor.pending[index] {
		delete(r.anchor.pending, index)
		if len(r.anchor.pending) == 0 {
			evs = append(evs, r.restoreAnchorLocked()...)
		}
	} else if resized && r.anchor == nil {
		r.debounce.Call()
	}
	return evs
}

// restoreAnchorLocked scrolls to the captured centre fraction of the new
// extent and runs a visibility pass.
func (r *Renderer) restoreAnchorLocked() []func() {
	a := r.anchor
	r.anchor = nil
	if a == nil {
		return nil
	}
	target := r.anchorRectLocked(a.fx, a.fy)
	r.setScrollLocked(target.Y, target.X)
	change := ScrollChange{Top: r.view.ScrollTop, Left: r.view.ScrollLeft}

	var evs []func()
	if cb := r.cb.OnScroll; cb != nil {
		evs = append(evs, func() { cb(change) })
	}
	evs = append(evs, r.recomputeLocked()...)
	r.kickLocked()
	return evs
}

// centerFractionLocked returns the viewport centre as a fraction of the
// scroll extent on each axis.
func (r *Renderer) centerFractionLocked() (fx, fy float64) {
	v := r.view
	if v.ContentWidth > 0 {
		fx = (v.ScrollLeft + v.Width/2) / v.ContentWidth
	}
	if v.ContentHeight > 0 {
		fy = (v.ScrollTop + v.Height/2) / v.ContentHeight
	}
	return fx, fy
}

// anchorRectLocked returns the viewport rectangle centred on the content
// fraction (fx, fy), clamped to the scroll extent.
func (r *Renderer) anchorRectLocked(fx, fy float64) Rect {
	v := r.view
	return Rect{
		X: clampOffset(fx*v.ContentWidth-v.Width/2, v.ContentWidth, v.Width),
		Y: clampOffset(fy*v.ContentHeight-v.Height/2, v.ContentHeight, v.Height),
		W: v.Width,
		H: v.Height,
	}
}

func (r *Renderer) pagesInLocked(rect Rect) []int {
	var out []int
	for i := range r.slots {
		if r.slots[i].bounds.Intersects(rect) {
			out = append(out, i+1)
		}
	}
	return out
}

// recomputeLocked updates the visible set and current page and queues
// visible unrendered pages followed by read-ahead pages.
func (r *Renderer) recomputeLocked() []func() {
	visible := r.pagesInLocked(r.view.Rect())
	r.visible = visible

	for _, idx := range visible {
		if r.slots[idx-1].state == Unrendered {
			r.queue.Push(idx)
		}
	}
	if ahead := r.cfg.ReadAhead; ahead > 0 && len(visible) > 0 {
		first, last := visible[0], visible[len(visible)-1]
		for d := 1; d <= ahead; d++ {
			for _, idx := range []int{last + d, first - d} {
				if idx >= 1 && idx <= len(r.slots) && r.slots[idx-1].state == Unrendered {
					r.queue.Push(idx)
				}
			}
		}
	}

	var evs []func()
	if len(visible) > 0 && visible[0] != r.current {
		r.current = visible[0]
		page := r.current
		if cb := r.cb.OnCurrentPageChanged; cb != nil {
			evs = append(evs, func() { cb(page) })
		}
	}
	return evs
}

func (r *Renderer) relayoutLocked() {
	ext := layout(r.slots, r.view.Width, r.cfg.PageGap, r.cfg.Padding)
	r.view.ContentWidth, r.view.ContentHeight = ext.Width, ext.Height
	r.setScrollLocked(r.view.ScrollTop, r.view.ScrollLeft)
}

func (r *Renderer) setScrollLocked(top, left float64) {
	r.view.ScrollTop = clampOffset(top, r.view.ContentHeight, r.view.Height)
	r.view.ScrollLeft = clampOffset(left, r.view.ContentWidth, r.view.Width)
}

func fire(evs []func()) {
	for _, ev := range evs {
		ev()
	}
}
