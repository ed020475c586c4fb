package document

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// deckExts lists the slide image formats a deck directory may contain.
var deckExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// IsSlideImage reports whether name has a slide image extension.
func IsSlideImage(name string) bool {
	return deckExts[strings.ToLower(filepath.Ext(name))]
}

// Deck is a Document made of one image file per page.
type Deck struct {
	dir    string
	title  string
	slides []string
}

// OpenDeck lists the slide images in dir. Slides are ordered naturally by
// file name, so slide2.png precedes slide10.png.
func OpenDeck(dir string) (*Deck, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading deck directory: %w", err)
	}
	var slides []string
	for _, e := range entries {
		if e.IsDir() || !IsSlideImage(e.Name()) {
			continue
		}
		slides = append(slides, filepath.Join(dir, e.Name()))
	}
	sort.Slice(slides, func(i, j int) bool {
		return naturalLess(filepath.Base(slides[i]), filepath.Base(slides[j]))
	})
	return &Deck{dir: dir, title: filepath.Base(dir), slides: slides}, nil
}

// OpenImage returns a one-page deck showing a single image file.
func OpenImage(path string) (*Deck, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &Deck{dir: filepath.Dir(path), title: title, slides: []string{path}}, nil
}

func (d *Deck) PageCount() int { return len(d.slides) }
func (d *Deck) Title() string  { return d.title }
func (d *Deck) Close() error   { return nil }

func (d *Deck) Page(ctx context.Context, index int) (PageHandle, error) {
	if err := checkIndex(index, len(d.slides)); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &PageLoadError{Index: index, Err: err}
	}
	path := d.slides[index-1]
	f, err := os.Open(path)
	if err != nil {
		return nil, &PageLoadError{Index: index, Err: err}
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, &PageLoadError{Index: index, Err: fmt.Errorf("decoding %s: %w", filepath.Base(path), err)}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, &PageLoadError{Index: index, Err: fmt.Errorf("%s has empty dimensions", filepath.Base(path))}
	}
	return &deckPage{path: path, index: index, w: cfg.Width, h: cfg.Height}, nil
}

type deckPage struct {
	path  string
	index int
	w, h  int
}

func (p *deckPage) Index() int                { return p.index }
func (p *deckPage) Size() (float64, float64) { return float64(p.w), float64(p.h) }

func (p *deckPage) Render(ctx context.Context, scale float64) (*Bitmap, error) {
	if scale <= 0 {
		return nil, &RenderError{Index: p.index, Scale: scale, Err: fmt.Errorf("non-positive scale")}
	}
	f, err := os.Open(p.path)
	if err != nil {
		return nil, &RenderError{Index: p.index, Scale: scale, Err: err}
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, &RenderError{Index: p.index, Scale: scale, Err: fmt.Errorf("decoding image: %w", err)}
	}
	if err := ctx.Err(); err != nil {
		return nil, &RenderError{Index: p.index, Scale: scale, Err: err}
	}
	w, h := Scaled(float64(p.w), float64(p.h), scale)
	return NewBitmap(Resample(src, w, h)), nil
}

// naturalLess compares strings treating runs of digits as numbers.
func naturalLess(a, b string) bool {
	ra, rb := []rune(strings.ToLower(a)), []rune(strings.ToLower(b))
	i, j := 0, 0
	for i < len(ra) && j < len(rb) {
		if unicode.IsDigit(ra[i]) && unicode.IsDigit(rb[j]) {
			si := i
			for i < len(ra) && unicode.IsDigit(ra[i]) {
				i++
			}
			sj := j
			for j < len(rb) && unicode.IsDigit(rb[j]) {
				j++
			}
			na := strings.TrimLeft(string(ra[si:i]), "0")
			nb := strings.TrimLeft(string(rb[sj:j]), "0")
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			if na != nb {
				return na < nb
			}
			continue
		}
		if ra[i] != rb[j] {
			return ra[i] < rb[j]
		}
		i++
		j++
	}
	if len(ra)-i != len(rb)-j {
		return len(ra)-i < len(rb)-j
	}
	return a < b
}
