// internal/reporting/sarif_renderer.go
package reporting

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mobilesec-ms/reportgen/api/schemas"
	"github.com/mobilesec-ms/reportgen/internal/reporting/sarif"
)

// SARIFRenderer emits one SARIF result per combined finding. The APK analysis
// object carries no findings and is not represented.
type SARIFRenderer struct {
	opts Options
}

// NewSARIFRenderer creates a SARIF renderer; zero Options fields take their defaults.
func NewSARIFRenderer(opts Options) *SARIFRenderer {
	return &SARIFRenderer{opts: opts.withDefaults()}
}

func (r *SARIFRenderer) Render(report *schemas.Report) (*Output, error) {
	if report == nil {
		return nil, fmt.Errorf("sarif: nil report")
	}

	log := r.Build(report)
	body, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("sarif: failed to encode log: %w", err)
	}

	r.opts.Logger.Debug("Rendered SARIF report",
		zap.String("report_id", report.Metadata.ReportID),
		zap.Int("results", len(log.Runs[0].Results)),
		zap.Int("rules", len(log.Runs[0].Tool.Driver.Rules)))

	return &Output{ContentType: "application/json", Body: body}, nil
}

// Build converts the report into a SARIF log without encoding it.
func (r *SARIFRenderer) Build(report *schemas.Report) *sarif.Log {
	log := sarif.NewLog(r.opts.ToolName, r.opts.ToolVersion, r.opts.InformationURI)
	run := log.Runs[0]
	driver := run.Tool.Driver

	seen := make(map[string]bool)
	for idx, f := range report.Findings.Combined() {
		ruleID := f.Type
		if ruleID == "" {
			ruleID = fmt.Sprintf("ISSUE_%d", idx)
		}
		if !seen[ruleID] {
			seen[ruleID] = true
			driver.Rules = append(driver.Rules, r.rule(ruleID, f))
		}

		text := f.Description
		if text == "" {
			text = f.Type
		}

		result := &sarif.Result{
			RuleID:  ruleID,
			Level:   levelFor(f.Severity),
			Message: &sarif.Message{Text: sarif.String(text)},
		}
		if f.Location != "" {
			result.Locations = []*sarif.Location{{
				PhysicalLocation: &sarif.PhysicalLocation{
					ArtifactLocation: &sarif.ArtifactLocation{URI: sarif.String(f.Location)},
				},
			}}
		}
		if f.CWE != "" {
			result.Properties = sarif.PropertyBag{"cwe": f.CWE}
		}
		run.Results = append(run.Results, result)
	}
	return log
}

// rule describes a finding type from its first occurrence.
func (r *SARIFRenderer) rule(id string, f schemas.Finding) *sarif.ReportingDescriptor {
	rule := &sarif.ReportingDescriptor{
		ID:         id,
		Properties: sarif.PropertyBag{"tags": []string{"security", "mobile"}},
	}
	if f.Type != "" {
		rule.Name = sarif.String(f.Type)
	}

	short := f.Type
	if f.CWE != "" {
		rule.Properties["cwe"] = f.CWE
		if r.opts.CWE != nil {
			if entry, err := r.opts.CWE.GetCWE(f.CWE); err == nil && entry != nil {
				short = entry.Name
			}
		}
	}
	if short != "" {
		rule.ShortDescription = &sarif.MultiformatMessageString{Text: sarif.String(short)}
	}
	if f.Recommendation != "" {
		rule.Help = &sarif.MultiformatMessageString{Text: sarif.String(f.Recommendation)}
	}
	return rule
}

// levelFor maps CRITICAL and HIGH to error, MEDIUM to warning, LOW to note and
// anything unrecognized to warning.
func levelFor(severity string) sarif.Level {
	sev, _ := schemas.ParseSeverity(severity)
	switch sev {
	case schemas.SeverityCritical, schemas.SeverityHigh:
		return sarif.LevelError
	case schemas.SeverityLow:
		return sarif.LevelNote
	default:
		return sarif.LevelWarning
	}
}
