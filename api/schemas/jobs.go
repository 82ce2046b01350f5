package schemas

import "strings"

// Service names a scanning service that owns a job.
type Service string

const (
	ServiceAPKScanner       Service = "apkscanner"
	ServiceSecretHunter     Service = "secrethunter"
	ServiceCryptoCheck      Service = "cryptocheck"
	ServiceNetworkInspector Service = "networkinspector"
)

// Services lists every known scanner, mandatory one first.
var Services = []Service{
	ServiceAPKScanner,
	ServiceSecretHunter,
	ServiceCryptoCheck,
	ServiceNetworkInspector,
}

// JobIDs carries the job identifier returned by each scanner. Only APKScanner is required.
type JobIDs struct {
	APKScanner       string `json:"apkscanner"`
	SecretHunter     string `json:"secrethunter,omitempty"`
	CryptoCheck      string `json:"cryptocheck,omitempty"`
	NetworkInspector string `json:"networkinspector,omitempty"`
}

// JobReference points at one completed scan on one service.
type JobReference struct {
	Service   Service
	JobID     string
	Mandatory bool
}

// Get returns the (trimmed) job id recorded for service.
func (j JobIDs) Get(service Service) string {
	switch service {
	case ServiceAPKScanner:
		return strings.TrimSpace(j.APKScanner)
	case ServiceSecretHunter:
		return strings.TrimSpace(j.SecretHunter)
	case ServiceCryptoCheck:
		return strings.TrimSpace(j.CryptoCheck)
	case ServiceNetworkInspector:
		return strings.TrimSpace(j.NetworkInspector)
	default:
		return ""
	}
}

// References returns the requested jobs in service order, skipping empty ids.
func (j JobIDs) References() []JobReference {
	refs := make([]JobReference, 0, len(Services))
	for _, s := range Services {
		id := j.Get(s)
		if id == "" {
			continue
		}
		refs = append(refs, JobReference{Service: s, JobID: id, Mandatory: s == ServiceAPKScanner})
	}
	return refs
}

// GenerateRequest is the body accepted by POST /generate.
type GenerateRequest struct {
	JobIDs JobIDs `json:"job_ids"`
	Format string `json:"format,omitempty"`
}
