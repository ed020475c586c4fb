package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// KindOf reports which backend handles path: directories and single slide
// images are decks, .pdf files are PDFs.
func KindOf(path string) (Kind, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return KindDeck, nil
	}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return KindPDF, nil
	}
	if IsSlideImage(path) {
		return KindDeck, nil
	}
	return "", fmt.Errorf("%s: %w", path, ErrUnsupported)
}

// Open opens path with the backend matching its kind.
func Open(path string) (Document, error) {
	kind, err := KindOf(path)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindDeck:
		if IsSlideImage(path) {
			return OpenImage(path)
		}
		return OpenDeck(path)
	case KindPDF:
		return OpenPDF(path)
	}
	return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
}
