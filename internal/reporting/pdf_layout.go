// internal/reporting/pdf_layout.go
package reporting

import (
	"fmt"

	"github.com/mobilesec-ms/reportgen/api/schemas"
)

// RowKind tells the drawing code how to style a row.
type RowKind int

const (
	RowTitle RowKind = iota
	RowHeading
	RowText
)

// Row is one line of the printable report. Y is the baseline in millimetres
// from the top of the page.
type Row struct {
	Kind     RowKind
	Label    string
	Text     string
	FontSize float64
	Y        float64
}

// Page geometry in millimetres.
const (
	LeftMargin         = 20.0
	recommendationTop  = 125.0
	recommendationStep = 7.0
)

// Layout lists every row of the printable report in drawing order. It does not
// depend on the PDF engine. At most maxRecs recommendations are listed.
func Layout(report *schemas.Report, maxRecs int) []Row {
	s := report.Summary
	rows := []Row{
		{Kind: RowTitle, Label: "title", Text: "Security Analysis Report", FontSize: 20, Y: 20},
		{Kind: RowText, Label: "package", Text: "Package: " + s.PackageName, FontSize: 12, Y: 35},
		{Kind: RowText, Label: "generated", Text: "Generated: " + report.Metadata.GeneratedAt, FontSize: 12, Y: 42},

		{Kind: RowHeading, Label: "summary", Text: "Summary", FontSize: 16, Y: 60},
		{Kind: RowText, Label: "total", Text: fmt.Sprintf("Total Issues: %d", s.TotalIssues), FontSize: 11, Y: 70},
		{Kind: RowText, Label: "critical", Text: fmt.Sprintf("Critical: %d", s.Critical), FontSize: 11, Y: 77},
		{Kind: RowText, Label: "high", Text: fmt.Sprintf("High: %d", s.High), FontSize: 11, Y: 84},
		{Kind: RowText, Label: "medium", Text: fmt.Sprintf("Medium: %d", s.Medium), FontSize: 11, Y: 91},
		{Kind: RowText, Label: "low", Text: fmt.Sprintf("Low: %d", s.Low), FontSize: 11, Y: 98},

		{Kind: RowHeading, Label: "recommendations", Text: "Top Recommendations", FontSize: 16, Y: 115},
	}

	for i, rec := range report.Recommendations {
		if i >= maxRecs {
			break
		}
		rows = append(rows, Row{
			Kind:     RowText,
			Label:    fmt.Sprintf("recommendation-%d", i+1),
			Text:     fmt.Sprintf("%d. [%s] %s", i+1, rec.Priority, rec.Message),
			FontSize: 10,
			Y:        recommendationTop + recommendationStep*float64(i),
		})
	}
	return rows
}
