package reporting

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/mobilesec-ms/reportgen/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONRenderer encodes the report value as-is for the dashboard.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(report *schemas.Report) (*Output, error) {
	if report == nil {
		return nil, fmt.Errorf("json: nil report")
	}
	body, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("json: failed to encode report: %w", err)
	}
	return &Output{ContentType: "application/json", Body: body}, nil
}
