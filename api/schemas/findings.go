package schemas

import "strings"

// -- Finding Schemas --

// Severity represents the severity level of a security finding. Upstream scanners
// are not consistent about casing, so values are compared case-insensitively.
type Severity string

// The four recognized severity levels. Anything else (INFO, empty, typos) is kept
// on the finding as-is but never counted in a severity bucket.
const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// ParseSeverity uppercases s and reports whether it is one of the four recognized
// levels. Surrounding whitespace is not trimmed.
func ParseSeverity(s string) (Severity, bool) {
	sev := Severity(strings.ToUpper(s))
	switch sev {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return sev, true
	default:
		return sev, false
	}
}

// Finding is one normalized vulnerability observation, shared by the secret,
// crypto and network scanners.
type Finding struct {
	Type           string   `json:"type"`
	Severity       string   `json:"severity"`
	Description    string   `json:"description"`
	Location       string   `json:"location,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`
	CWE            string   `json:"cwe,omitempty"`
	URLs           []string `json:"urls,omitempty"`
	// Value is the matched evidence string (secret or crypto constant), truncated upstream.
	Value string `json:"value,omitempty"`
}
