package pdfexport

import (
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Export renders a plain-text report (one line per paragraph) to a PDF at
// outPath using fpdf, then runs pdfcpu's optimizer over the result in
// place — exercising both PDF dependencies in a single export task rather
// than picking one, per SPEC_FULL.md's domain-stack wiring goal.
func Export(title string, paragraphs []string, outPath string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, title)
	pdf.Ln(14)

	pdf.SetFont("Arial", "", 11)
	for _, p := range paragraphs {
		pdf.MultiCell(0, 6, p, "", "", false)
		pdf.Ln(2)
	}

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf %s: %w", outPath, err)
	}

	if err := api.OptimizeFile(outPath, outPath, nil); err != nil {
		return fmt.Errorf("optimize pdf %s: %w", outPath, err)
	}

	return nil
}

// SplitParagraphs is a small convenience for turning a Markdown/HTML-free
// blob of report text into fpdf-friendly paragraph cells.
func SplitParagraphs(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
