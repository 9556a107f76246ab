package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMargin        = 10.0
	pdfHeaderHeight  = 8.0
	pdfRowHeight     = 7.0
	pdfSerialWidth   = 12.0
	pdfSignatureWide = 35.0
	signatureHeader  = "Signature"
	serialHeader     = "Sr. No."
)

// PDFExporter renders datasets into landscape tabular PDFs.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	return e.RenderSections([]Section{{Data: data}}, DocumentOptions{Title: title})
}

// RenderSections lays out each section as its own table under the shared document header.
func (e *PDFExporter) RenderSections(sections []Section, opts DocumentOptions) ([]byte, error) {
	pdf, err := e.build(sections, opts)
	if err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) build(sections []Section, opts DocumentOptions) (*gofpdf.Fpdf, error) {
	if len(sections) == 0 {
		sections = []Section{{}}
	}
	headers := sections[0].Data.Headers
	if len(headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, 15, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		footer := fmt.Sprintf("Page %d/{nb}", pdf.PageNo())
		if !opts.GeneratedAt.IsZero() {
			footer = "Generated " + opts.GeneratedAt.Format("02 Jan 2006 15:04") + "    " + footer
		}
		pdf.CellFormat(0, 6, footer, "", 0, "R", false, 0, "")
	})

	layout := newTableLayout(pdf, headers, opts.SignatureColumn)
	serial := 0
	for i, section := range sections {
		if i == 0 || opts.NewPagePerSection {
			pdf.AddPage()
			writeDocumentHeader(pdf, tr, opts)
		} else {
			pdf.Ln(4)
		}
		if section.Title != "" {
			pdf.SetFont("Arial", "B", 11)
			pdf.CellFormat(0, 8, tr(section.Title), "", 1, "L", false, 0, "")
		}
		if opts.NewPagePerSection {
			serial = 0
		}
		layout.writeHeader(pdf, tr)
		for _, row := range section.Data.Rows {
			if layout.needsBreak(pdf) {
				pdf.AddPage()
				layout.writeHeader(pdf, tr)
			}
			serial++
			layout.writeRow(pdf, tr, serial, row)
		}
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return pdf, nil
}

func writeDocumentHeader(pdf *gofpdf.Fpdf, tr func(string) string, opts DocumentOptions) {
	if opts.CompanyName != "" {
		pdf.SetFont("Arial", "B", 16)
		pdf.CellFormat(0, 9, tr(opts.CompanyName), "", 1, "C", false, 0, "")
	}
	if opts.Title != "" {
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(0, 8, tr(strings.ToUpper(opts.Title)), "", 1, "C", false, 0, "")
	}
	if opts.DriveDate != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, tr("Drive date: "+opts.DriveDate), "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)
}

type tableLayout struct {
	headers   []string
	widths    []float64
	signature bool
	bottom    float64
}

func newTableLayout(pdf *gofpdf.Fpdf, headers []string, signature bool) *tableLayout {
	pageWidth, pageHeight := pdf.GetPageSize()
	usable := pageWidth - 2*pdfMargin - pdfSerialWidth
	if signature {
		usable -= pdfSignatureWide
	}
	width := usable / float64(len(headers))
	widths := make([]float64, len(headers))
	for i := range widths {
		widths[i] = width
	}
	return &tableLayout{headers: headers, widths: widths, signature: signature, bottom: pageHeight - 15}
}

func (l *tableLayout) needsBreak(pdf *gofpdf.Fpdf) bool {
	return pdf.GetY()+pdfRowHeight > l.bottom
}

func (l *tableLayout) writeHeader(pdf *gofpdf.Fpdf, tr func(string) string) {
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(pdfSerialWidth, pdfHeaderHeight, serialHeader, "1", 0, "C", true, 0, "")
	for i, header := range l.headers {
		pdf.CellFormat(l.widths[i], pdfHeaderHeight, fit(pdf, tr(header), l.widths[i]), "1", 0, "C", true, 0, "")
	}
	if l.signature {
		pdf.CellFormat(pdfSignatureWide, pdfHeaderHeight, signatureHeader, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 8)
}

func (l *tableLayout) writeRow(pdf *gofpdf.Fpdf, tr func(string) string, serial int, row map[string]string) {
	pdf.CellFormat(pdfSerialWidth, pdfRowHeight, strconv.Itoa(serial), "1", 0, "C", false, 0, "")
	for i, header := range l.headers {
		pdf.CellFormat(l.widths[i], pdfRowHeight, fit(pdf, tr(row[header]), l.widths[i]), "1", 0, "", false, 0, "")
	}
	if l.signature {
		pdf.CellFormat(pdfSignatureWide, pdfRowHeight, "", "1", 0, "", false, 0, "")
	}
	pdf.Ln(-1)
}

// fit truncates text with an ellipsis so it stays inside a cell of the given width.
// text is already translated to the single-byte font encoding, so it is cut per byte.
func fit(pdf *gofpdf.Fpdf, text string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(text) <= limit {
		return text
	}
	cut := len(text)
	for cut > 0 && pdf.GetStringWidth(text[:cut]+"...") > limit {
		cut--
	}
	return text[:cut] + "..."
}
