package document

import (
	"context"
	"errors"
	"testing"
)

func TestPatternRender(t *testing.T) {
	doc := NewPatternSizes(Letter, Size{Width: 100, Height: 50})
	if doc.PageCount() != 2 {
		t.Fatalf("PageCount = %d, want 2", doc.PageCount())
	}

	ctx := context.Background()
	p, err := doc.Page(ctx, 2)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	bmp, err := p.Render(ctx, 2)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if bmp.Width != 200 || bmp.Height != 100 {
		t.Errorf("bitmap = %dx%d, want 200x100", bmp.Width, bmp.Height)
	}
	if bmp.Image.Bounds().Dx() != bmp.Width {
		t.Error("image bounds disagree with bitmap width")
	}
}

func TestPatternRenderInvalidScale(t *testing.T) {
	p, _ := NewPattern(1, A4).Page(context.Background(), 1)
	_, err := p.Render(context.Background(), 0)
	if !errors.Is(err, ErrRender) {
		t.Errorf("err = %v, want ErrRender", err)
	}
}

func TestPatternInvalidSize(t *testing.T) {
	doc := NewPatternSizes(Size{Width: 0, Height: 10})
	if _, err := doc.Page(context.Background(), 1); !errors.Is(err, ErrPageLoad) {
		t.Errorf("err = %v, want ErrPageLoad", err)
	}
}

func TestScaled(t *testing.T) {
	tests := []struct {
		w, h, s    float64
		wantW, wantH int
	}{
		{612, 792, 1, 612, 792},
		{612, 792, 0.5, 306, 396},
		{10, 10, 0.01, 1, 1},
		{100, 50, 1.25, 125, 63},
	}
	for _, tt := range tests {
		w, h := Scaled(tt.w, tt.h, tt.s)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("Scaled(%v, %v, %v) = %d, %d; want %d, %d", tt.w, tt.h, tt.s, w, h, tt.wantW, tt.wantH)
		}
	}
}
