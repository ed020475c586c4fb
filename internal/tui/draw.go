package tui

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/ziadkadry99/pageview/internal/viewer"
)

// draw paints the viewport and status line from a renderer snapshot.
func (a *App) draw() {
	snap := a.renderer.Snapshot()
	vp := snap.Viewport
	cols, rows := a.screen.Size()
	viewRows := max(rows-1, 0)

	// Only slots overlapping the viewport can be sampled.
	var onScreen []viewer.PageSlot
	for _, sl := range snap.Slots {
		if sl.Bounds.Intersects(vp.Rect()) {
			onScreen = append(onScreen, sl)
		}
	}

	for row := 0; row < viewRows; row++ {
		for col := 0; col < cols; col++ {
			x := vp.ScrollLeft + (float64(col)+0.5)*a.k
			top := sample(onScreen, x, vp.ScrollTop+(2*float64(row)+0.5)*a.k)
			bottom := sample(onScreen, x, vp.ScrollTop+(2*float64(row)+1.5)*a.k)
			a.screen.SetContent(col, row, halfBlock, nil, tcell.StyleDefault.Foreground(top).Background(bottom))
		}
	}

	if rows > 0 {
		a.drawStatus(snap, cols, rows-1)
	}
	a.screen.Show()
}

// sample returns the colour at content point (x, y).
func sample(slots []viewer.PageSlot, x, y float64) tcell.Color {
	for _, sl := range slots {
		b := sl.Bounds
		if x < b.X || x >= b.Right() || y < b.Y || y >= b.Bottom() {
			continue
		}
		bmp := sl.Surface
		if sl.State != viewer.Rendered || bmp == nil || b.W <= 0 || b.H <= 0 {
			return placeholderColor
		}
		px := min(int((x-b.X)*float64(bmp.Width)/b.W), bmp.Width-1)
		py := min(int((y-b.Y)*float64(bmp.Height)/b.H), bmp.Height-1)
		c := bmp.Image.RGBAAt(bmp.Image.Rect.Min.X+px, bmp.Image.Rect.Min.Y+py)
		return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
	}
	return backgroundColor
}

func (a *App) statusLine(snap viewer.Snapshot) string {
	line := fmt.Sprintf(" %s  page %d/%d  %d%%", a.opts.Title, snap.CurrentPage, snap.PageCount, int(math.Round(snap.Scale*100)))
	if a.gotoMode {
		return line + "  go to page: " + string(a.gotoBuf) + "_"
	}
	if msg := a.statusMessage(); msg != "" {
		return line + "  " + msg
	}
	return line
}

func (a *App) drawStatus(snap viewer.Snapshot, cols, row int) {
	text := []rune(a.statusLine(snap))
	for col := 0; col < cols; col++ {
		r := ' '
		if col < len(text) {
			r = text[col]
		}
		a.screen.SetContent(col, row, r, nil, statusStyle)
	}
}
