// Package tui is a terminal frontend for the viewer. The terminal grid is
// the scroll container: each cell shows two vertically stacked pixels with
// an upper half-block glyph, and each of those pixels covers a square of
// CellPixels document pixels.
package tui

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/ziadkadry99/pageview/internal/document"
	"github.com/ziadkadry99/pageview/internal/logging"
	"github.com/ziadkadry99/pageview/internal/viewer"
)

// DefaultCellPixels is the side of the document-pixel square behind one
// half-cell.
const DefaultCellPixels = 8

const halfBlock = '▀'

var (
	backgroundColor  = tcell.NewRGBColor(32, 34, 38)
	placeholderColor = tcell.NewRGBColor(90, 92, 96)
	statusStyle      = tcell.StyleDefault.Reverse(true)
)

// Options configures an App.
type Options struct {
	Title      string
	CellPixels int
	// InitialPage is shown once the viewer is open, when greater than 1.
	InitialPage int
	// OnPageChanged and OnScaleChanged let callers persist viewer state. A
	// returned error is shown on the status line.
	OnPageChanged  func(page int) error
	OnScaleChanged func(scale float64) error
	// Status is shown on the status line until the next message.
	Status string
}

// App drives a viewer.Renderer from terminal events.
type App struct {
	screen   tcell.Screen
	renderer *viewer.Renderer
	opts     Options
	k        float64

	gotoMode bool
	gotoBuf  []rune

	mu     sync.Mutex
	status string
}

type quitSignal struct{}

// New opens doc in a renderer sized to the screen. The screen must already
// be initialized.
func New(ctx context.Context, screen tcell.Screen, doc document.Document, cfg viewer.Config, opts Options) (*App, error) {
	if opts.CellPixels <= 0 {
		opts.CellPixels = DefaultCellPixels
	}
	if opts.Title == "" {
		opts.Title = doc.Title()
	}
	a := &App{screen: screen, opts: opts, k: float64(opts.CellPixels), status: opts.Status}

	r, err := viewer.New(ctx, doc, a.containerSize(), cfg, viewer.WithCallbacks(viewer.Callbacks{
		OnCurrentPageChanged: func(page int) {
			if opts.OnPageChanged != nil {
				if err := opts.OnPageChanged(page); err != nil {
					a.setStatus("saving page: " + err.Error())
				}
			}
			a.redraw()
		},
		OnScaleChanged: func(scale float64) {
			if opts.OnScaleChanged != nil {
				if err := opts.OnScaleChanged(scale); err != nil {
					a.setStatus("saving zoom: " + err.Error())
				}
			}
			a.redraw()
		},
		OnRenderError: func(index int, err error) {
			a.setStatus(fmt.Sprintf("page %d: %v", index, err))
			a.redraw()
		},
		OnPageRendered: func(int, *document.Bitmap) { a.redraw() },
		OnScroll:       func(viewer.ScrollChange) { a.redraw() },
	}))
	if err != nil {
		return nil, err
	}
	a.renderer = r

	if p := opts.InitialPage; p > 1 && p <= r.PageCount() {
		if err := r.GoToPage(p); err != nil {
			logging.Logger().Warn("restoring page", "page", p, "error", err)
		}
	}
	return a, nil
}

// Renderer returns the underlying renderer.
func (a *App) Renderer() *viewer.Renderer { return a.renderer }

// Run processes terminal events until the user quits or ctx is done. It
// closes the renderer before returning.
func (a *App) Run(ctx context.Context) error {
	defer a.renderer.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			a.screen.PostEvent(tcell.NewEventInterrupt(quitSignal{}))
		case <-done:
		}
	}()

	a.draw()
	for {
		ev := a.screen.PollEvent()
		if ev == nil {
			return nil
		}
		switch ev := ev.(type) {
		case *tcell.EventResize:
			a.renderer.Resize(a.containerSize().Width, a.containerSize().Height)
			a.screen.Sync()
		case *tcell.EventKey:
			if a.handleKey(ev) {
				return nil
			}
		case *tcell.EventMouse:
			a.handleMouse(ev)
		case *tcell.EventInterrupt:
			if _, ok := ev.Data().(quitSignal); ok {
				return ctx.Err()
			}
		}
		a.draw()
	}
}

// containerSize converts the screen, less the status line, to document
// pixels.
func (a *App) containerSize() viewer.Size {
	cols, rows := a.screen.Size()
	rows = max(rows-1, 0)
	return viewer.Size{Width: float64(cols) * a.k, Height: float64(rows) * 2 * a.k}
}

func (a *App) redraw() {
	_ = a.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

func (a *App) setStatus(s string) {
	a.mu.Lock()
	a.status = s
	a.mu.Unlock()
}

func (a *App) statusMessage() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// handleKey applies a key press and reports whether the app should quit.
func (a *App) handleKey(ev *tcell.EventKey) bool {
	if a.gotoMode {
		a.handleGotoKey(ev)
		return false
	}

	r := a.renderer
	view := r.Snapshot().Viewport
	line := 2 * a.k
	page := math.Max(view.Height-line, line)

	var err error
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		r.ScrollBy(-line, 0)
	case tcell.KeyDown:
		r.ScrollBy(line, 0)
	case tcell.KeyLeft:
		r.ScrollBy(0, -a.k)
	case tcell.KeyRight:
		r.ScrollBy(0, a.k)
	case tcell.KeyPgUp:
		r.ScrollBy(-page, 0)
	case tcell.KeyPgDn:
		r.ScrollBy(page, 0)
	case tcell.KeyHome:
		r.ScrollTo(0, view.ScrollLeft)
	case tcell.KeyEnd:
		r.ScrollTo(view.ContentHeight, view.ScrollLeft)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case 'k':
			r.ScrollBy(-line, 0)
		case 'j':
			r.ScrollBy(line, 0)
		case 'h':
			r.ScrollBy(0, -a.k)
		case 'l':
			r.ScrollBy(0, a.k)
		case ' ':
			r.ScrollBy(page, 0)
		case 'n':
			err = r.NextPage()
		case 'p':
			err = r.PrevPage()
		case '+', '=':
			err = r.ZoomIn()
		case '-':
			err = r.ZoomOut()
		case '0':
			err = r.FitToPage()
		case 'r':
			a.setStatus("")
			r.Refresh()
		case 'g':
			a.gotoMode = true
			a.gotoBuf = a.gotoBuf[:0]
		}
	}
	if err != nil {
		a.setStatus(err.Error())
	}
	return false
}

func (a *App) handleGotoKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		a.gotoMode = false
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(a.gotoBuf) > 0 {
			a.gotoBuf = a.gotoBuf[:len(a.gotoBuf)-1]
		}
	case tcell.KeyEnter:
		a.gotoMode = false
		n, err := strconv.Atoi(string(a.gotoBuf))
		if err != nil {
			a.setStatus("not a page number")
			return
		}
		if err := a.renderer.GoToPage(n); err != nil {
			a.setStatus(err.Error())
			return
		}
		a.setStatus("")
	case tcell.KeyRune:
		if r := ev.Rune(); r >= '0' && r <= '9' {
			a.gotoBuf = append(a.gotoBuf, r)
		}
	}
}

func (a *App) handleMouse(ev *tcell.EventMouse) {
	line := 2 * a.k
	switch {
	case ev.Buttons()&tcell.WheelUp != 0:
		a.renderer.ScrollBy(-3*line, 0)
	case ev.Buttons()&tcell.WheelDown != 0:
		a.renderer.ScrollBy(3*line, 0)
	}
}
