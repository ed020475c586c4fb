package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// buildPDF assembles a PDF with one page per media box, computing xref
// offsets as it writes.
func buildPDF(title string, boxes [][4]int, rotate map[int]int) []byte {
	var objs []string
	kids := ""
	n := len(boxes)
	for i := range boxes {
		kids += fmt.Sprintf("%d 0 R ", 4+i)
	}
	objs = append(objs, "<< /Type /Catalog /Pages 2 0 R >>")
	objs = append(objs, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, n))
	objs = append(objs, fmt.Sprintf("<< /Title (%s) >>", title))
	for i, b := range boxes {
		extra := ""
		if r, ok := rotate[i+1]; ok {
			extra = fmt.Sprintf(" /Rotate %d", r)
		}
		objs = append(objs, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [%d %d %d %d]%s >>",
			b[0], b[1], b[2], b[3], extra))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f\n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n\n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 3 0 R >>\nstartxref\n%d\n%%%%EOF", len(objs)+1, xref)
	return buf.Bytes()
}

func writePDF(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing pdf: %v", err)
	}
	return path
}

func TestOpenPDF(t *testing.T) {
	path := writePDF(t, buildPDF("Quarterly Report", [][4]int{{0, 0, 200, 300}, {0, 0, 200, 300}}, map[int]int{2: 90}))

	doc, err := OpenPDF(path)
	if err != nil {
		t.Fatalf("OpenPDF: %v", err)
	}
	defer doc.Close()

	if doc.PageCount() != 2 {
		t.Fatalf("PageCount = %d, want 2", doc.PageCount())
	}
	if doc.Title() != "Quarterly Report" {
		t.Errorf("Title = %q, want %q", doc.Title(), "Quarterly Report")
	}

	ctx := context.Background()
	p1, err := doc.Page(ctx, 1)
	if err != nil {
		t.Fatalf("Page(1): %v", err)
	}
	if w, h := p1.Size(); w != 200 || h != 300 {
		t.Errorf("page 1 size = %vx%v, want 200x300", w, h)
	}

	p2, err := doc.Page(ctx, 2)
	if err != nil {
		t.Fatalf("Page(2): %v", err)
	}
	if w, h := p2.Size(); w != 300 || h != 200 {
		t.Errorf("rotated page size = %vx%v, want 300x200", w, h)
	}

	bmp, err := p1.Render(ctx, 0.5)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if bmp.Width != 100 || bmp.Height != 150 {
		t.Errorf("bitmap = %dx%d, want 100x150", bmp.Width, bmp.Height)
	}

	bmp, err = p2.Render(ctx, 1)
	if err != nil {
		t.Fatalf("Render rotated: %v", err)
	}
	if bmp.Width != 300 || bmp.Height != 200 {
		t.Errorf("rotated bitmap = %dx%d, want 300x200", bmp.Width, bmp.Height)
	}
}

func TestPDFPageOutOfRange(t *testing.T) {
	doc, err := OpenPDF(writePDF(t, buildPDF("x", [][4]int{{0, 0, 100, 100}}, nil)))
	if err != nil {
		t.Fatalf("OpenPDF: %v", err)
	}
	defer doc.Close()

	for _, idx := range []int{0, 2} {
		_, err := doc.Page(context.Background(), idx)
		if !errors.Is(err, ErrPageLoad) || !errors.Is(err, ErrNoSuchPage) {
			t.Errorf("Page(%d) err = %v, want page load error", idx, err)
		}
	}
}

func TestPDFText(t *testing.T) {
	doc, err := OpenPDF(writePDF(t, buildPDF("x", [][4]int{{0, 0, 100, 100}}, nil)))
	if err != nil {
		t.Fatalf("OpenPDF: %v", err)
	}
	defer doc.Close()

	txt, err := doc.PageText(context.Background(), 1)
	if err != nil {
		t.Fatalf("PageText: %v", err)
	}
	if txt != "" {
		t.Errorf("empty page text = %q", txt)
	}
}

func TestOpenPDFInvalid(t *testing.T) {
	if _, err := OpenPDF(writePDF(t, []byte("not a pdf"))); err == nil {
		t.Error("expected error for garbage input")
	}
}
