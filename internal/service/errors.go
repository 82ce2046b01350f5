// File: internal/service/errors.go
package service

import "fmt"

// MissingAPKJobMessage is the client-facing message for a request without the mandatory job id.
const MissingAPKJobMessage = "Missing apkscanner job_id"

// ValidationError means the request itself is unusable. No upstream call was made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// AggregationError wraps a failure while normalizing, counting or building the report.
type AggregationError struct {
	Err error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("failed to aggregate report: %v", e.Err)
}

func (e *AggregationError) Unwrap() error { return e.Err }

// RenderError wraps a format-specific rendering failure.
type RenderError struct {
	Format string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render %s report: %v", e.Format, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
