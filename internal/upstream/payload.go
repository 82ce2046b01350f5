package upstream

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var errNotObject = errors.New("payload is not a JSON object")

// APKScan is the part of the APK scanner's answer the report uses.
type APKScan struct {
	Filename    string
	PackageName string
	// Result is the scanner's raw analysis object, passed through untouched.
	Result map[string]any
}

// FindingsScan is the answer of a list-shaped scanner (secrets, crypto, network).
type FindingsScan struct {
	Findings []map[string]any
}

// DecodeAPKScan tolerates missing or oddly typed fields; only invalid JSON or a
// non-object document is an error.
func DecodeAPKScan(data []byte) (APKScan, error) {
	doc, err := decodeObject(data)
	if err != nil {
		return APKScan{}, err
	}
	scan := APKScan{
		Filename:    stringField(doc, "filename"),
		PackageName: stringField(doc, "package_name"),
	}
	if result, ok := doc["result"].(map[string]any); ok {
		scan.Result = result
	}
	return scan, nil
}

// DecodeFindingsScan keeps every element of the "findings" array, in order.
// Elements that are not objects become empty findings so they still count
// towards total_issues.
func DecodeFindingsScan(data []byte) (FindingsScan, error) {
	doc, err := decodeObject(data)
	if err != nil {
		return FindingsScan{}, err
	}
	var scan FindingsScan
	items, _ := doc["findings"].([]any)
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok || m == nil {
			m = map[string]any{}
		}
		scan.Findings = append(scan.Findings, m)
	}
	return scan, nil
}

func decodeObject(data []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid JSON payload: %w", err)
	}
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return doc, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
