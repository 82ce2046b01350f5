package results

import "github.com/mobilesec-ms/reportgen/api/schemas"

// Counts is the severity breakdown of a combined finding list.
type Counts struct {
	Total    int
	Critical int
	High     int
	Medium   int
	Low      int
}

// Summarize counts every finding in Total, and each finding with a recognized
// severity in exactly one bucket. Unrecognized severities (INFO, blank) only
// raise Total, so the buckets may sum to less than Total.
func Summarize(findings []schemas.Finding) Counts {
	var c Counts
	for _, f := range findings {
		c.Total++
		sev, ok := schemas.ParseSeverity(f.Severity)
		if !ok {
			continue
		}
		switch sev {
		case schemas.SeverityCritical:
			c.Critical++
		case schemas.SeverityHigh:
			c.High++
		case schemas.SeverityMedium:
			c.Medium++
		case schemas.SeverityLow:
			c.Low++
		}
	}
	return c
}

// Recognized is the number of findings that landed in a bucket.
func (c Counts) Recognized() int {
	return c.Critical + c.High + c.Medium + c.Low
}
