// internal/reporting/format.go
package reporting

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mobilesec-ms/reportgen/api/schemas"
	"github.com/mobilesec-ms/reportgen/internal/results/providers"
)

// Format selects the output variant of a report.
type Format int

const (
	FormatJSON Format = iota
	FormatPDF
	FormatSARIF
)

func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatSARIF:
		return "sarif"
	default:
		return "json"
	}
}

// ParseFormat is case-insensitive. Empty or unknown values select JSON.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pdf":
		return FormatPDF
	case "sarif":
		return FormatSARIF
	default:
		return FormatJSON
	}
}

// Output is a rendered report ready to be written to a client or a file.
type Output struct {
	ContentType string
	// Filename is a suggested attachment name; empty for inline formats.
	Filename string
	Body     []byte
}

// Renderer turns a report into one output format. Implementations are pure
// with respect to the report value.
type Renderer interface {
	Render(report *schemas.Report) (*Output, error)
}

// Options carries what renderers need beyond the report itself.
type Options struct {
	ToolName       string
	ToolVersion    string
	InformationURI string
	// MaxRecommendations bounds the PDF recommendation list; <= 0 uses the default.
	MaxRecommendations int
	// CWE resolves weakness names for SARIF rules. Optional.
	CWE    providers.CWEProvider
	Clock  func() time.Time
	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.ToolName == "" {
		o.ToolName = DefaultToolName
	}
	if o.ToolVersion == "" {
		o.ToolVersion = DefaultToolVersion
	}
	if o.MaxRecommendations <= 0 {
		o.MaxRecommendations = DefaultMaxRecommendations
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Identity used when Options leaves it blank.
const (
	DefaultToolName           = "MobileSec-MS"
	DefaultToolVersion        = "1.0.0"
	DefaultMaxRecommendations = 5
)

// New returns the renderer for format.
func New(format Format, opts Options) (Renderer, error) {
	opts = opts.withDefaults()
	switch format {
	case FormatJSON:
		return &JSONRenderer{}, nil
	case FormatPDF:
		return NewPDFRenderer(opts), nil
	case FormatSARIF:
		return NewSARIFRenderer(opts), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %d", format)
	}
}

// WriteOutput writes out.Body to path, or to stdout when path is empty, "-" or
// "stdout". A nil stdout means os.Stdout.
func WriteOutput(out *Output, path string, stdout io.Writer) error {
	if out == nil {
		return fmt.Errorf("nothing to write")
	}
	if path == "" || path == "-" || path == "stdout" {
		if stdout == nil {
			stdout = os.Stdout
		}
		_, err := stdout.Write(out.Body)
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	if _, err := f.Write(out.Body); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write output file %s: %w", path, err)
	}
	return f.Close()
}
