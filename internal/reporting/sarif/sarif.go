// Package sarif holds the subset of the SARIF 2.1.0 object model the report
// renderer emits. Pointers mark optional fields.
package sarif

// Version and Schema identify the SARIF dialect written by this package.
const (
	Version = "2.1.0"
	Schema  = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
)

type Log struct {
	Version string `json:"version"`
	Schema  string `json:"$schema"`
	Runs    []*Run `json:"runs"`
}

type Run struct {
	Tool    *Tool     `json:"tool"`
	Results []*Result `json:"results"`
}

type Tool struct {
	Driver *ToolComponent `json:"driver"`
}

// ToolComponent describes the tool that produced the results.
type ToolComponent struct {
	Name           string                 `json:"name"`
	Version        *string                `json:"version,omitempty"`
	InformationURI *string                `json:"informationUri,omitempty"`
	Rules          []*ReportingDescriptor `json:"rules,omitempty"`
}

type ReportingDescriptor struct {
	ID               string                    `json:"id"`
	Name             *string                   `json:"name,omitempty"`
	ShortDescription *MultiformatMessageString `json:"shortDescription,omitempty"`
	Help             *MultiformatMessageString `json:"help,omitempty"`
	Properties       PropertyBag               `json:"properties,omitempty"`
}

type Result struct {
	RuleID     string      `json:"ruleId"`
	Level      Level       `json:"level"`
	Message    *Message    `json:"message"`
	Locations  []*Location `json:"locations,omitempty"`
	Properties PropertyBag `json:"properties,omitempty"`
}

type Location struct {
	PhysicalLocation *PhysicalLocation `json:"physicalLocation,omitempty"`
}

type PhysicalLocation struct {
	ArtifactLocation *ArtifactLocation `json:"artifactLocation,omitempty"`
}

type ArtifactLocation struct {
	URI *string `json:"uri,omitempty"`
}

type Message struct {
	Text *string `json:"text,omitempty"`
}

type MultiformatMessageString struct {
	Text     *string `json:"text"`
	Markdown *string `json:"markdown,omitempty"`
}

// PropertyBag holds free-form metadata. JSON encoders used here sort map keys.
type PropertyBag map[string]interface{}

type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelNote    Level = "note"
)

// NewLog returns a log with a single run for the named tool and no results.
func NewLog(name, version, informationURI string) *Log {
	driver := &ToolComponent{Name: name}
	if version != "" {
		driver.Version = String(version)
	}
	if informationURI != "" {
		driver.InformationURI = String(informationURI)
	}
	return &Log{
		Version: Version,
		Schema:  Schema,
		Runs: []*Run{{
			Tool:    &Tool{Driver: driver},
			Results: []*Result{},
		}},
	}
}

// String returns a pointer to s, for optional fields.
func String(s string) *string {
	return &s
}
