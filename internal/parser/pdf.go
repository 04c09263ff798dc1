package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFExtractor handles PDF files. It tries the Go library first, then falls
// back to pdftotext if enabled. Each page is introduced by a
// "--- Page N ---" marker line.
type PDFExtractor struct {
	FallbackPdftotext bool
}

func (e *PDFExtractor) Extract(r io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	pages, err := pdfPages(data)
	if err != nil && e.FallbackPdftotext {
		pages, err = pdftotextPages(data)
	}
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	return joinPages(pages), nil
}

func joinPages(pages []string) string {
	var buf strings.Builder
	for i, page := range pages {
		fmt.Fprintf(&buf, "\n--- Page %d ---\n", i+1)
		buf.WriteString(page)
	}
	return buf.String()
}

func pdfPages(data []byte) (pages []string, err error) {
	// The pdf library panics on some malformed inputs.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("pdf reader panic: %v", p)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func pdftotextPages(data []byte) ([]string, error) {
	tmp, err := os.CreateTemp("", "qagen-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	out, err := exec.Command("pdftotext", "-layout", tmpPath, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	// pdftotext ends every page with a form feed.
	return strings.Split(strings.TrimSuffix(string(out), "\f"), "\f"), nil
}
