package report

import (
	"fmt"
	"strings"

	gofpdf "github.com/go-pdf/fpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joshsymonds/controlgap/internal/models"
	"github.com/joshsymonds/controlgap/pkg/logger"
)

// Landscape A4 layout in millimetres.
const (
	pdfMargin     = 15.0
	pdfLineHeight = 4.5
	pdfCellPad    = 1.0
)

// pdfColumnWidths follow MatrixHeaders and sum to the printable landscape width.
var pdfColumnWidths = []float64{24, 24, 70, 26, 14, 36, 16, 18, 39}

var pdfPriorityColors = map[models.Priority][3]int{
	models.PriorityCritical: {220, 38, 38},
	models.PriorityHigh:     {234, 88, 12},
	models.PriorityMedium:   {202, 138, 4},
	models.PriorityLow:      {22, 163, 74},
}

// PDFFormat renders the report as a PDF document.
type PDFFormat struct {
	logger     logger.Logger
	noCompress bool
}

// NewPDFFormat creates a PDF format.
func NewPDFFormat(log logger.Logger) *PDFFormat {
	return &PDFFormat{logger: log}
}

// Generate writes the PDF report.
func (p *PDFFormat) Generate(doc *Document, outputPath string) error {
	validPath, err := prepareOutput(outputPath)
	if err != nil {
		return err
	}

	pdf := p.build(doc)
	if err := pdf.OutputFileAndClose(validPath); err != nil {
		return fmt.Errorf("writing PDF: %w", err)
	}

	p.logger.Info("Generated PDF report", "path", validPath)
	return nil
}

func (p *PDFFormat) build(doc *Document) *gofpdf.Fpdf {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetCompression(!p.noCompress)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle(doc.Title, true)
	pdf.SetAuthor("controlgap", true)
	pdf.SetCreator("controlgap", true)
	pdf.SetCreationDate(doc.GeneratedAt)
	pdf.AliasNbPages("")

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	half := (pageW - 2*pdfMargin) / 2
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(half, 5, tr(doc.Title), "", 0, "L", false, 0, "")
		pdf.CellFormat(half, 5, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	p.addSummary(pdf, doc, tr)
	p.addMatrix(pdf, doc, tr)
	p.addDataQuality(pdf, doc, tr)
	return pdf
}

func (p *PDFFormat) addSectionHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func (p *PDFFormat) addSummary(pdf *gofpdf.Fpdf, doc *Document, tr func(string) string) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(15, 23, 42)
	pdf.MultiCell(0, 9, tr(doc.Title), "", "L", false)

	p.addSectionHeader(pdf, "Executive Summary")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(60, 60, 60)
	bullets := []string{
		"Date: " + doc.GeneratedAt.Format("2006-01-02"),
		fmt.Sprintf("Total Requirements Analyzed: %d", doc.Summary.Total),
		fmt.Sprintf("Critical/High Gaps Identified: %d", doc.Summary.CriticalHigh),
	}
	titleCase := cases.Title(language.English)
	var kinds []string
	for _, kind := range []string{models.StatusKindGap, models.StatusKindPartial, models.StatusKindMet} {
		kinds = append(kinds, fmt.Sprintf("%s: %d", titleCase.String(kind), doc.Summary.ByStatusKind[kind]))
	}
	bullets = append(bullets, "Status breakdown: "+strings.Join(kinds, ", "))
	if doc.RunID != "" {
		bullets = append(bullets, "Run: "+doc.RunID)
	}
	for _, line := range bullets {
		pdf.CellFormat(5, 6, "-", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
	}

	pdf.Ln(2)
	pdf.MultiCell(0, 5, tr(strings.ReplaceAll(summaryBlurb, "**", "")), "", "L", false)
}

func (p *PDFFormat) addMatrix(pdf *gofpdf.Fpdf, doc *Document, tr func(string) string) {
	p.addSectionHeader(pdf, "Traceability & Gap Matrix (Sorted by Risk Priority)")
	p.addMatrixHeader(pdf)

	_, pageH := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()

	pdf.SetFont("Helvetica", "", 8)
	for i, f := range doc.Sorted() {
		cells := MatrixRow(f)
		encoded := make([]string, len(cells))
		lines := 1
		for c, text := range cells {
			encoded[c] = tr(text)
			if n := len(pdf.SplitLines([]byte(encoded[c]), pdfColumnWidths[c]-2*pdfCellPad)); n > lines {
				lines = n
			}
		}
		rowH := float64(lines)*pdfLineHeight + 2*pdfCellPad

		if pdf.GetY()+rowH > pageH-bottom {
			pdf.AddPage()
			p.addMatrixHeader(pdf)
			pdf.SetFont("Helvetica", "", 8)
		}

		x, y := pdf.GetXY()
		fill := i%2 == 1
		for c, text := range encoded {
			w := pdfColumnWidths[c]
			if fill {
				pdf.SetFillColor(241, 245, 249)
				pdf.Rect(x, y, w, rowH, "FD")
			} else {
				pdf.Rect(x, y, w, rowH, "D")
			}

			pdf.SetTextColor(30, 30, 30)
			pdf.SetFont("Helvetica", "", 8)
			if c == 7 {
				if rgb, ok := pdfPriorityColors[f.Priority]; ok {
					pdf.SetTextColor(rgb[0], rgb[1], rgb[2])
					pdf.SetFont("Helvetica", "B", 8)
				}
			}

			align := "L"
			if c == 4 || c == 6 {
				align = "C"
			}
			pdf.SetXY(x+pdfCellPad, y+pdfCellPad)
			pdf.MultiCell(w-2*pdfCellPad, pdfLineHeight, text, "", align, false)
			x += w
		}
		pdf.SetXY(pdfMargin, y+rowH)
	}
}

func (p *PDFFormat) addMatrixHeader(pdf *gofpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range MatrixHeaders {
		pdf.CellFormat(pdfColumnWidths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}

func (p *PDFFormat) addDataQuality(pdf *gofpdf.Fpdf, doc *Document, tr func(string) string) {
	if len(doc.UnknownControls) == 0 && len(doc.UnknownRequirements) == 0 {
		return
	}

	p.addSectionHeader(pdf, "Data Quality Notes")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(60, 60, 60)
	if len(doc.UnknownControls) > 0 {
		pdf.MultiCell(0, 5, tr("Controls mapped but missing from the catalogue (treated as 0% coverage): "+
			strings.Join(doc.UnknownControls, ", ")), "", "L", false)
	}
	if len(doc.UnknownRequirements) > 0 {
		pdf.MultiCell(0, 5, tr("Mapping columns with no matching requirement (ignored): "+
			strings.Join(doc.UnknownRequirements, ", ")), "", "L", false)
	}
}

// Name returns the format identifier.
func (p *PDFFormat) Name() string { return FormatPDF }

// Description returns a human-readable description.
func (p *PDFFormat) Description() string {
	return "PDF report with executive summary and colour-coded traceability matrix"
}

// Extension returns the file extension.
func (p *PDFFormat) Extension() string { return ".pdf" }
