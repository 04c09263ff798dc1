// Package sampledoc renders the example document served when no other
// document is configured.
package sampledoc

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const body = `Artificial Intelligence: An Overview

Artificial intelligence (AI) is a field of computer science focused on building
systems able to perform tasks that normally require human intelligence.

History of AI
The term "artificial intelligence" was coined in 1956 at the Dartmouth
conference. Since then the field has gone through several periods of
enthusiasm and several "AI winters".

Modern Applications
Today AI is used in many industries:
- Voice assistants such as Siri and Alexa
- Recommendation systems at Netflix and Amazon
- Autonomous vehicles
- Computer-aided medical diagnosis
- Machine translation

Machine Learning
Machine learning is a subfield of AI that lets computers learn from data
without being explicitly programmed. It includes techniques such as neural
networks and deep learning.

Ethical Challenges
AI raises important ethical questions about privacy, algorithmic bias and
the impact on the job market.`

// Page geometry in points, letter size.
const (
	pageHeight   = 792.0
	leftMargin   = 50.0
	topMargin    = 42.0
	bottomMargin = 50.0
	lineHeight   = 15.0
)

// Text returns the text content of the example document.
func Text() string { return body }

// Ensure writes the example PDF to path unless a file already exists there.
// It reports whether a new file was created.
func Ensure(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create document dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".sampledoc-*.pdf")
	if err != nil {
		return false, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Render(tmp); err != nil {
		tmp.Close()
		return false, err
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return false, fmt.Errorf("install example document: %w", err)
	}
	return true, nil
}

// Render writes the example document as PDF to w, one line of text per row,
// breaking to a new page at the bottom margin.
func Render(w io.Writer) error {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetTitle("Artificial Intelligence: An Overview", false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPage()

	y := topMargin
	for _, line := range strings.Split(body, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			pdf.Text(leftMargin, y, line)
		}
		y += lineHeight
		if y > pageHeight-bottomMargin {
			pdf.AddPage()
			y = topMargin
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render example document: %w", err)
	}
	return nil
}
