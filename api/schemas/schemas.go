package schemas

import "encoding/json"

// -- Report Schemas --

// Report is the consolidated result of one generation request. It is built once,
// rendered once, and never mutated in between.
type Report struct {
	Metadata        Metadata         `json:"metadata"`
	Summary         Summary          `json:"summary"`
	Findings        ReportFindings   `json:"findings"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Metadata describes when and by what the report was produced.
type Metadata struct {
	ReportID    string `json:"report_id"`
	GeneratedAt string `json:"generated_at"`
	Platform    string `json:"platform"`
	Version     string `json:"version"`
}

// Summary carries the severity counts over the combined finding list.
//
// TotalIssues counts every finding, while the four buckets only count recognized
// severities, so Critical+High+Medium+Low can be lower than TotalIssues.
type Summary struct {
	PackageName string `json:"package_name"`
	Filename    string `json:"filename"`
	TotalIssues int    `json:"total_issues"`
	Critical    int    `json:"critical"`
	High        int    `json:"high"`
	Medium      int    `json:"medium"`
	Low         int    `json:"low"`
}

// ReportFindings groups findings by the scanner category that produced them.
// The APK analysis is kept as the scanner's raw result object.
type ReportFindings struct {
	APKAnalysis   map[string]any `json:"apk_analysis"`
	Secrets       []Finding      `json:"secrets"`
	CryptoIssues  []Finding      `json:"crypto_issues"`
	NetworkIssues []Finding      `json:"network_issues"`
}

// MarshalJSON encodes missing sections as {} and [] so consumers never see null.
func (f ReportFindings) MarshalJSON() ([]byte, error) {
	type plain ReportFindings
	out := plain(f)
	if out.APKAnalysis == nil {
		out.APKAnalysis = map[string]any{}
	}
	if out.Secrets == nil {
		out.Secrets = []Finding{}
	}
	if out.CryptoIssues == nil {
		out.CryptoIssues = []Finding{}
	}
	if out.NetworkIssues == nil {
		out.NetworkIssues = []Finding{}
	}
	return json.Marshal(out)
}

// Combined returns the secret, crypto and network findings as one list, in that
// order. The APK analysis object is deliberately not part of it.
func (f ReportFindings) Combined() []Finding {
	all := make([]Finding, 0, len(f.Secrets)+len(f.CryptoIssues)+len(f.NetworkIssues))
	all = append(all, f.Secrets...)
	all = append(all, f.CryptoIssues...)
	all = append(all, f.NetworkIssues...)
	return all
}

// Recommendation is a prioritized remediation hint. MASVS is the OWASP mobile
// verification standard control it maps to, when there is one.
type Recommendation struct {
	Priority Severity `json:"priority"`
	MASVS    string   `json:"masvs,omitempty"`
	Message  string   `json:"message"`
}
