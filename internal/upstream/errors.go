package upstream

import (
	"errors"
	"fmt"

	"github.com/mobilesec-ms/reportgen/api/schemas"
)

// ErrMissingJobID is returned when the mandatory job id is blank.
var ErrMissingJobID = errors.New("missing job id")

// StatusError reports a non-2xx answer from a scanner.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// MandatoryUpstreamError means the required scanner result could not be obtained.
// It is request-fatal.
type MandatoryUpstreamError struct {
	Service schemas.Service
	JobID   string
	Err     error
}

func (e *MandatoryUpstreamError) Error() string {
	return fmt.Sprintf("mandatory upstream %s unavailable for job %q: %v", e.Service, e.JobID, e.Err)
}

func (e *MandatoryUpstreamError) Unwrap() error { return e.Err }
