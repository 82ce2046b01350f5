// internal/reporting/pdf_renderer.go
package reporting

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/mobilesec-ms/reportgen/api/schemas"
)

const pdfFont = "Helvetica"

// PDFRenderer draws the rows produced by Layout onto a single A4 page.
type PDFRenderer struct {
	opts Options
}

// NewPDFRenderer creates a PDF renderer; zero Options fields take their defaults.
func NewPDFRenderer(opts Options) *PDFRenderer {
	return &PDFRenderer{opts: opts.withDefaults()}
}

func (r *PDFRenderer) Render(report *schemas.Report) (*Output, error) {
	if report == nil {
		return nil, fmt.Errorf("pdf: nil report")
	}
	now := r.opts.Clock()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(LeftMargin, LeftMargin, LeftMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(creationDate(report, now))
	pdf.SetCatalogSort(true)
	pdf.SetTitle("Security Analysis Report", true)
	pdf.SetSubject(validText(report.Summary.PackageName), true)
	pdf.SetCreator(validText(fmt.Sprintf("%s %s", r.opts.ToolName, r.opts.ToolVersion)), true)
	pdf.AddPage()

	// The core fonts are cp1252; translate so package names with accents survive.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	rows := Layout(report, r.opts.MaxRecommendations)
	for _, row := range rows {
		pdf.SetFont(pdfFont, fontStyle(row.Kind), row.FontSize)
		pdf.Text(LeftMargin, row.Y, tr(validText(row.Text)))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: failed to generate document: %w", err)
	}

	r.opts.Logger.Debug("Rendered PDF report",
		zap.String("report_id", report.Metadata.ReportID),
		zap.Int("rows", len(rows)),
		zap.Int("bytes", buf.Len()))

	return &Output{
		ContentType: "application/pdf",
		Filename:    fmt.Sprintf("security-report-%d.pdf", now.UnixMilli()),
		Body:        buf.Bytes(),
	}, nil
}

// validText replaces invalid UTF-8 from upstream payloads; fpdf panics on it.
func validText(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

func fontStyle(kind RowKind) string {
	switch kind {
	case RowTitle, RowHeading:
		return "B"
	default:
		return ""
	}
}

// creationDate pins the document date to the report timestamp so identical
// reports produce identical bytes.
func creationDate(report *schemas.Report, fallback time.Time) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, report.Metadata.GeneratedAt); err == nil {
		return t
	}
	return fallback
}
