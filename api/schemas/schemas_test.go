package schemas_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilesec-ms/reportgen/api/schemas"
)

func TestParseSeverity(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in         string
		want       schemas.Severity
		recognized bool
	}{
		{"CRITICAL", schemas.SeverityCritical, true},
		{"High", schemas.SeverityHigh, true},
		{"medium", schemas.SeverityMedium, true},
		{"low", schemas.SeverityLow, true},
		{" low ", schemas.Severity(" LOW "), false},
		{"INFO", schemas.Severity("INFO"), false},
		{"", schemas.Severity(""), false},
	}
	for _, tt := range tests {
		got, ok := schemas.ParseSeverity(tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
		assert.Equal(t, tt.recognized, ok, "input %q", tt.in)
	}
}

func TestReportFindings_MarshalNeverNull(t *testing.T) {
	t.Parallel()
	data, err := json.Marshal(schemas.Report{})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	findings, ok := decoded["findings"].(map[string]any)
	require.True(t, ok, "findings must be an object")
	assert.Equal(t, map[string]any{}, findings["apk_analysis"])
	for _, key := range []string{"secrets", "crypto_issues", "network_issues"} {
		val, present := findings[key]
		require.True(t, present, "%s must be present", key)
		assert.Equal(t, []any{}, val, "%s must encode as an empty array", key)
	}
}

func TestReportFindings_CombinedExcludesAPK(t *testing.T) {
	t.Parallel()
	f := schemas.ReportFindings{
		APKAnalysis:   map[string]any{"package": "com.example"},
		Secrets:       []schemas.Finding{{Type: "AWS_KEY"}},
		CryptoIssues:  []schemas.Finding{{Type: "WEAK_HASH"}, {Type: "ECB_MODE"}},
		NetworkIssues: []schemas.Finding{{Type: "CLEARTEXT_TRAFFIC"}},
	}

	combined := f.Combined()
	require.Len(t, combined, 4)
	assert.Equal(t, "AWS_KEY", combined[0].Type)
	assert.Equal(t, "WEAK_HASH", combined[1].Type)
	assert.Equal(t, "ECB_MODE", combined[2].Type)
	assert.Equal(t, "CLEARTEXT_TRAFFIC", combined[3].Type)
}

func TestJobIDs_References(t *testing.T) {
	t.Parallel()

	t.Run("mandatory only", func(t *testing.T) {
		refs := schemas.JobIDs{APKScanner: "A1"}.References()
		require.Len(t, refs, 1)
		assert.Equal(t, schemas.JobReference{Service: schemas.ServiceAPKScanner, JobID: "A1", Mandatory: true}, refs[0])
	})

	t.Run("skips blank optional ids", func(t *testing.T) {
		refs := schemas.JobIDs{APKScanner: "A1", SecretHunter: "  ", NetworkInspector: "N1"}.References()
		require.Len(t, refs, 2)
		assert.Equal(t, schemas.ServiceNetworkInspector, refs[1].Service)
		assert.False(t, refs[1].Mandatory)
	})

	t.Run("missing mandatory is not invented", func(t *testing.T) {
		refs := schemas.JobIDs{CryptoCheck: "C1"}.References()
		require.Len(t, refs, 1)
		assert.Equal(t, schemas.ServiceCryptoCheck, refs[0].Service)
	})
}
