// internal/results/builder.go
package results

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mobilesec-ms/reportgen/api/schemas"
	"github.com/mobilesec-ms/reportgen/internal/config"
	"github.com/mobilesec-ms/reportgen/internal/upstream"
)

// Unknown fills identity fields the APK scanner did not provide.
const Unknown = "unknown"

// TimestampLayout is millisecond-precision RFC 3339 in UTC.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrNilSnapshot is returned by Build when there is nothing to build from.
var ErrNilSnapshot = errors.New("nil snapshot")

// Builder assembles a Report from a fetched Snapshot.
type Builder struct {
	Platform string
	Version  string
	Clock    func() time.Time
	IDGen    func() string
	Rules    []Rule
}

// NewBuilder returns a Builder stamped with the configured platform identity.
func NewBuilder(cfg config.ReportConfig) *Builder {
	return &Builder{
		Platform: cfg.Platform,
		Version:  cfg.Version,
		Clock:    time.Now,
		IDGen:    uuid.NewString,
		Rules:    DefaultRules,
	}
}

// Build normalizes the optional sources, counts severities over the combined
// list, runs the recommendation rules and fills in metadata.
func (b *Builder) Build(snap *upstream.Snapshot) (*schemas.Report, error) {
	if snap == nil {
		return nil, ErrNilSnapshot
	}

	findings := schemas.ReportFindings{
		APKAnalysis:   snap.APK.Result,
		Secrets:       normalizeOutcome(snap.Secrets),
		CryptoIssues:  normalizeOutcome(snap.Crypto),
		NetworkIssues: normalizeOutcome(snap.Network),
	}
	if findings.APKAnalysis == nil {
		findings.APKAnalysis = map[string]any{}
	}

	counts := Summarize(findings.Combined())

	rules := b.Rules
	if rules == nil {
		rules = DefaultRules
	}

	return &schemas.Report{
		Metadata: schemas.Metadata{
			ReportID:    b.newID(),
			GeneratedAt: b.now().UTC().Format(TimestampLayout),
			Platform:    b.Platform,
			Version:     b.Version,
		},
		Summary: schemas.Summary{
			PackageName: packageName(snap.APK),
			Filename:    orUnknown(snap.APK.Filename),
			TotalIssues: counts.Total,
			Critical:    counts.Critical,
			High:        counts.High,
			Medium:      counts.Medium,
			Low:         counts.Low,
		},
		Findings:        findings,
		Recommendations: Recommend(RuleInput{Counts: counts, APKResult: snap.APK.Result}, rules),
	}, nil
}

func (b *Builder) now() time.Time {
	if b.Clock == nil {
		return time.Now()
	}
	return b.Clock()
}

func (b *Builder) newID() string {
	if b.IDGen == nil {
		return uuid.NewString()
	}
	return b.IDGen()
}

func normalizeOutcome(o upstream.Outcome[upstream.FindingsScan]) []schemas.Finding {
	scan, ok := o.Get()
	if !ok {
		return []schemas.Finding{}
	}
	return Normalize(scan.Findings)
}

// packageName prefers result.package, then the top-level package_name.
func packageName(apk upstream.APKScan) string {
	if name, ok := apk.Result["package"].(string); ok && strings.TrimSpace(name) != "" {
		return name
	}
	return orUnknown(apk.PackageName)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return Unknown
	}
	return s
}
