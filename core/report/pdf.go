// Package report — PDF renderer.
// Produces the printable audit report for a transform: metadata block and
// the asset mapping table, one row per referenced asset.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/gaurav-prasanna/adpipe/core"
)

// PDFRenderer renders the transform audit report as a PDF document.
type PDFRenderer struct{}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render builds the audit report PDF.
func (r *PDFRenderer) Render(creative *core.Creative, meta core.ReportMeta) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 8, creative.Name, "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(100, 100, 100)
	lines := []string{
		"Transform: " + meta.TransformID,
		"Source file: " + meta.Filename,
		fmt.Sprintf("Snippet: %s (converter: %s)", meta.SnippetName, meta.SnippetType),
		fmt.Sprintf("Advertiser: %d", creative.AdvertiserID),
		fmt.Sprintf("Size: %dx%d", creative.Size.Width, creative.Size.Height),
		"Destination: " + creative.DestinationURL,
	}
	if meta.GeneratedAt != "" {
		lines = append(lines, "Generated: "+meta.GeneratedAt)
	}
	for _, line := range lines {
		pdf.MultiCell(0, 5, line, "", "L", false)
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.MultiCell(0, 6, "Assets", "", "L", false)
	pdf.Ln(2)

	if len(meta.Assets) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, "No assets referenced.", "", "L", false)
	} else {
		header := []string{"name", "id", "size", "mimetype", "flags"}
		widths := []float64{70, 18, 20, 40, 40}

		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(235, 235, 235)
		for i, h := range header {
			pdf.CellFormat(widths[i], 6, h, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 9)
		for _, a := range meta.Assets {
			cells := []string{
				a.Name,
				a.ID,
				fmt.Sprintf("%d", a.Size),
				a.Mimetype,
				assetFlags(a),
			}
			for i, c := range cells {
				pdf.CellFormat(widths[i], 6, c, "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("generating PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// assetFlags summarizes the policy flags for the table's last column.
func assetFlags(a core.AssetInfo) string {
	var flags []string
	if a.Inlined {
		flags = append(flags, "inlined")
	}
	if a.OverLimit {
		flags = append(flags, "over limit")
	}
	if a.Unsupported {
		flags = append(flags, "unsupported")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ", ")
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}
