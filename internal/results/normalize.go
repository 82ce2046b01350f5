// internal/results/normalize.go
package results

import (
	"strconv"
	"strings"

	"github.com/mobilesec-ms/reportgen/api/schemas"
)

// Normalize reduces the loosely shaped findings of the list scanners to the
// shared Finding shape, keeping upstream order. It never fails: a field of an
// unexpected type is simply dropped.
func Normalize(raw []map[string]any) []schemas.Finding {
	out := make([]schemas.Finding, 0, len(raw))
	for _, m := range raw {
		if m == nil {
			continue
		}
		out = append(out, schemas.Finding{
			Type:           scalar(m["type"]),
			Severity:       scalar(m["severity"]),
			Description:    scalar(m["description"]),
			Location:       scalar(m["location"]),
			Recommendation: scalar(m["recommendation"]),
			CWE:            firstScalar(m["cwe"]),
			URLs:           stringList(m["urls"]),
			Value:          scalar(m["value"]),
		})
	}
	return out
}

// Combine concatenates secrets, crypto and network findings, in that order.
func Combine(secrets, crypto, network []schemas.Finding) []schemas.Finding {
	return schemas.ReportFindings{
		Secrets:       secrets,
		CryptoIssues:  crypto,
		NetworkIssues: network,
	}.Combined()
}

// scalar renders strings, numbers and booleans as text.
func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// firstScalar accepts a scalar or a list and returns the first usable element.
func firstScalar(v any) string {
	if list, ok := v.([]any); ok {
		for _, item := range list {
			if s := scalar(item); s != "" {
				return s
			}
		}
		return ""
	}
	return scalar(v)
}

func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		return []string{t}
	case []string:
		return t
	case []any:
		var out []string
		for _, item := range t {
			if s := scalar(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
