package document

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Scaled returns the pixel dimensions of a w×h page at scale. Both sides are
// at least one pixel.
func Scaled(w, h, scale float64) (int, int) {
	sw := int(math.Round(w * scale))
	sh := int(math.Round(h * scale))
	return max(sw, 1), max(sh, 1)
}

// Resample scales src to exactly w×h pixels. Downscaling uses
// ApproxBiLinear, upscaling CatmullRom.
func Resample(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	sb := src.Bounds()
	if sb.Dx() == w && sb.Dy() == h {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Src)
		return dst
	}
	var interp draw.Interpolator = draw.CatmullRom
	if w < sb.Dx() && h < sb.Dy() {
		interp = draw.ApproxBiLinear
	}
	interp.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
	return dst
}

// rotate turns img clockwise by a multiple of 90 degrees.
func rotate(img *image.RGBA, degrees int) *image.RGBA {
	degrees = ((degrees % 360) + 360) % 360
	if degrees == 0 || degrees%90 != 0 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	var out *image.RGBA
	if degrees == 180 {
		out = image.NewRGBA(image.Rect(0, 0, w, h))
	} else {
		out = image.NewRGBA(image.Rect(0, 0, h, w))
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.RGBAAt(b.Min.X+x, b.Min.Y+y)
			switch degrees {
			case 90:
				out.SetRGBA(h-1-y, x, c)
			case 180:
				out.SetRGBA(w-1-x, h-1-y, c)
			case 270:
				out.SetRGBA(y, w-1-x, c)
			}
		}
	}
	return out
}
