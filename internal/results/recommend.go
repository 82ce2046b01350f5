// internal/results/recommend.go
package results

import (
	"fmt"
	"strings"

	"github.com/mobilesec-ms/reportgen/api/schemas"
)

// RuleInput is what the recommendation rules may look at.
type RuleInput struct {
	Counts Counts
	// APKResult is the raw "result" object of the APK scan, possibly nil.
	APKResult map[string]any
}

// Rule produces at most one recommendation.
type Rule struct {
	Name  string
	Apply func(in RuleInput) (schemas.Recommendation, bool)
}

// MASVS controls referenced by the built-in rules.
const (
	MASVSResilienceDebug = "MSTG-RESILIENCE-2"
	MASVSStorageBackup   = "MSTG-STORAGE-8"
)

// DefaultRules is the fixed, ordered rule list. Append new rules at the end;
// existing positions are part of the output contract.
var DefaultRules = []Rule{
	{
		Name: "critical-findings",
		Apply: func(in RuleInput) (schemas.Recommendation, bool) {
			if in.Counts.Critical <= 0 {
				return schemas.Recommendation{}, false
			}
			return schemas.Recommendation{
				Priority: schemas.SeverityCritical,
				Message:  fmt.Sprintf("%d critical vulnerabilities detected. Immediate action required.", in.Counts.Critical),
			}, true
		},
	},
	{
		Name: "debuggable",
		Apply: func(in RuleInput) (schemas.Recommendation, bool) {
			if !flagSet(in.APKResult, "debuggable") {
				return schemas.Recommendation{}, false
			}
			return schemas.Recommendation{
				Priority: schemas.SeverityHigh,
				MASVS:    MASVSResilienceDebug,
				Message:  `Disable debug mode in production (android:debuggable="false")`,
			}, true
		},
	},
	{
		Name: "allow-backup",
		Apply: func(in RuleInput) (schemas.Recommendation, bool) {
			if !flagSet(in.APKResult, "allowBackup", "allow_backup", "allow-backup") {
				return schemas.Recommendation{}, false
			}
			return schemas.Recommendation{
				Priority: schemas.SeverityMedium,
				MASVS:    MASVSStorageBackup,
				Message:  "Disable allowBackup or implement secure backup rules",
			}, true
		},
	},
}

// Recommend evaluates every rule independently and returns the fired ones in
// rule order. The result is never nil.
func Recommend(in RuleInput, rules []Rule) []schemas.Recommendation {
	out := make([]schemas.Recommendation, 0, len(rules))
	for _, r := range rules {
		if rec, ok := r.Apply(in); ok {
			out = append(out, rec)
		}
	}
	return out
}

// flagSet reports whether any of the given keys under result.flags is truthy.
func flagSet(result map[string]any, keys ...string) bool {
	flags, ok := result["flags"].(map[string]any)
	if !ok {
		return false
	}
	for _, k := range keys {
		if truthy(flags[k]) {
			return true
		}
	}
	return false
}

// truthy accepts JSON true, the string "true" in any case, or a non-zero number.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "true")
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return false
	}
}
