package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
)

func renderPDF(t *testing.T, pages ...string) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetFont("Helvetica", "", 12)
	for _, p := range pages {
		pdf.AddPage()
		pdf.Text(20, 20, p)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("render pdf: %v", err)
	}
	return buf.Bytes()
}

func TestJoinPages_Markers(t *testing.T) {
	got := joinPages([]string{"alpha", "", "gamma"})
	want := "\n--- Page 1 ---\nalpha\n--- Page 2 ---\n\n--- Page 3 ---\ngamma"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestPDFExtractor_PagesInOrder(t *testing.T) {
	data := renderPDF(t, "Neural", "Networks")

	got, err := (&PDFExtractor{}).Extract(bytes.NewReader(data), "doc.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	i1 := strings.Index(got, "--- Page 1 ---")
	i2 := strings.Index(got, "--- Page 2 ---")
	if i1 < 0 || i2 < 0 || i1 > i2 {
		t.Fatalf("expected ordered page markers, got %q", got)
	}
	if !strings.Contains(got[i1:i2], "Neural") {
		t.Errorf("expected page 1 to contain %q, got %q", "Neural", got[i1:i2])
	}
	if !strings.Contains(got[i2:], "Networks") {
		t.Errorf("expected page 2 to contain %q, got %q", "Networks", got[i2:])
	}
}

func TestPDFExtractor_GarbageInput(t *testing.T) {
	_, err := (&PDFExtractor{}).Extract(strings.NewReader("not a pdf"), "bad.pdf")
	if err == nil {
		t.Fatal("expected error for invalid pdf")
	}
}
