package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestForFile_SelectsExtractor(t *testing.T) {
	cases := map[string]Extractor{
		"a.txt":      &TextExtractor{},
		"a.MD":       &MarkdownExtractor{},
		"a.markdown": &MarkdownExtractor{},
		"a.csv":      &CSVExtractor{},
		"a.htm":      &HTMLExtractor{},
		"a.html":     &HTMLExtractor{},
		"a.docx":     &DOCXExtractor{},
		"a.pdf":      &PDFExtractor{},
	}
	for name, want := range cases {
		got, err := ForFile(name, Options{})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if fmt.Sprintf("%T", got) != fmt.Sprintf("%T", want) {
			t.Errorf("%s: expected %T, got %T", name, want, got)
		}
	}

	p, err := ForFile("a.pdf", Options{PDFFallbackPdftotext: true})
	if err != nil {
		t.Fatal(err)
	}
	if !p.(*PDFExtractor).FallbackPdftotext {
		t.Error("expected pdf fallback option to be passed through")
	}
}

func TestForFile_Unsupported(t *testing.T) {
	if _, err := ForFile("a.exe", Options{}); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
	if IsSupportedExtension("a.exe") {
		t.Error("expected .exe to be unsupported")
	}
	if !IsSupportedExtension("A.PDF") {
		t.Error("expected .PDF to be supported")
	}
}

func TestExtractFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("Hello.\n\n\nWorld."), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ExtractFile(path, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hello.\n\nWorld." {
		t.Errorf("unexpected text %q", got)
	}
}

func TestExtractFile_Missing(t *testing.T) {
	if _, err := ExtractFile(filepath.Join(t.TempDir(), "missing.txt"), Options{}); err == nil {
		t.Fatal("expected error for missing file")
	}
}
