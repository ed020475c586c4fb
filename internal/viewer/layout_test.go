package viewer

import (
	"math"
	"testing"
)

func TestRectIntersects(t *testing.T) {
	view := Rect{X: 0, Y: 100, W: 200, H: 100}
	tests := []struct {
		name string
		r    Rect
		want bool
	}{
		{"inside", Rect{X: 10, Y: 120, W: 50, H: 50}, true},
		{"partial top", Rect{X: 10, Y: 50, W: 50, H: 51}, true},
		{"touching top edge", Rect{X: 10, Y: 50, W: 50, H: 50}, false},
		{"touching bottom edge", Rect{X: 10, Y: 200, W: 50, H: 50}, false},
		{"left of view", Rect{X: -60, Y: 120, W: 60, H: 50}, false},
		{"covering", Rect{X: -10, Y: 0, W: 500, H: 500}, true},
	}
	for _, tt := range tests {
		if got := tt.r.Intersects(view); got != tt.want {
			t.Errorf("%s: Intersects = %v, want %v", tt.name, got, tt.want)
		}
		if got := view.Intersects(tt.r); got != tt.want {
			t.Errorf("%s: symmetric Intersects = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestLayoutCentresSlots(t *testing.T) {
	slots := []slot{{w: 100, h: 50}, {w: 300, h: 80}, {w: 100, h: 50}}
	ext := layout(slots, 200, 10, 20)

	if ext.Width != 340 {
		t.Errorf("content width = %v, want 340", ext.Width)
	}
	if ext.Height != 20+50+10+80+10+50+20 {
		t.Errorf("content height = %v", ext.Height)
	}
	want := []Rect{
		{X: 120, Y: 20, W: 100, H: 50},
		{X: 20, Y: 80, W: 300, H: 80},
		{X: 120, Y: 170, W: 100, H: 50},
	}
	for i, w := range want {
		if slots[i].bounds != w {
			t.Errorf("slot %d bounds = %+v, want %+v", i+1, slots[i].bounds, w)
		}
	}

	// A wide viewport determines the content width.
	ext = layout(slots, 1000, 10, 20)
	if ext.Width != 1000 || slots[0].bounds.X != 450 {
		t.Errorf("width = %v, x = %v", ext.Width, slots[0].bounds.X)
	}
}

func TestFitScale(t *testing.T) {
	tests := []struct {
		page, container Size
		want            float64
	}{
		{Size{Width: 612, Height: 792}, Size{Width: 1000, Height: 832}, 1},
		{Size{Width: 800, Height: 100}, Size{Width: 440, Height: 1000}, 0.5},
		{Size{Width: 100, Height: 100}, Size{Width: 30, Height: 30}, 1},
	}
	for _, tt := range tests {
		if got := fitScale(tt.page, tt.container, 20); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("fitScale(%v, %v) = %v, want %v", tt.page, tt.container, got, tt.want)
		}
	}
}

func TestClampOffset(t *testing.T) {
	tests := []struct{ offset, extent, view, want float64 }{
		{50, 1000, 300, 50},
		{-5, 1000, 300, 0},
		{900, 1000, 300, 700},
		{10, 200, 300, 0},
	}
	for _, tt := range tests {
		if got := clampOffset(tt.offset, tt.extent, tt.view); got != tt.want {
			t.Errorf("clampOffset(%v, %v, %v) = %v, want %v", tt.offset, tt.extent, tt.view, got, tt.want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	bad := []func(*Config){
		func(c *Config) { c.MinScale = 0 },
		func(c *Config) { c.MaxScale = 0.1 },
		func(c *Config) { c.ScaleStep = 0 },
		func(c *Config) { c.Debounce = -1 },
		func(c *Config) { c.PageGap = -1 },
		func(c *Config) { c.ReadAhead = -2 },
	}
	for i, mutate := range bad {
		cfg := DefaultConfig()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}
