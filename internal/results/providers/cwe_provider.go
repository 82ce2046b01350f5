// internal/results/providers/cwe_provider.go
package providers

import (
	"errors"
	"strings"
)

// ErrNotFound is returned for CWE identifiers missing from the catalogue.
var ErrNotFound = errors.New("cwe not found")

// CWEEntry holds details about a specific CWE.
type CWEEntry struct {
	ID          string
	Name        string
	Description string
}

// CWEProvider defines the interface for retrieving CWE information.
type CWEProvider interface {
	GetCWE(id string) (*CWEEntry, error)
}

// InMemoryCWEProvider serves a fixed catalogue of the weaknesses the mobile
// scanners report.
type InMemoryCWEProvider struct {
	data map[string]CWEEntry
}

// NewInMemoryCWEProvider creates a provider preloaded with the mobile catalogue.
func NewInMemoryCWEProvider() *InMemoryCWEProvider {
	entries := []CWEEntry{
		{ID: "CWE-295", Name: "Improper Certificate Validation", Description: "The product does not validate, or incorrectly validates, a certificate."},
		{ID: "CWE-311", Name: "Missing Encryption of Sensitive Data", Description: "The product does not encrypt sensitive or critical information before storage or transmission."},
		{ID: "CWE-312", Name: "Cleartext Storage of Sensitive Information", Description: "The product stores sensitive information in cleartext within a resource that might be accessible to another control sphere."},
		{ID: "CWE-319", Name: "Cleartext Transmission of Sensitive Information", Description: "The product transmits sensitive or security-critical data in cleartext in a communication channel that can be sniffed by unauthorized actors."},
		{ID: "CWE-321", Name: "Use of Hard-coded Cryptographic Key", Description: "The product uses a hard-coded, unchangeable cryptographic key."},
		{ID: "CWE-326", Name: "Inadequate Encryption Strength", Description: "The product stores or transmits sensitive data using an encryption scheme that is theoretically sound, but is not strong enough for the level of protection required."},
		{ID: "CWE-327", Name: "Use of a Broken or Risky Cryptographic Algorithm", Description: "The product uses a broken or risky cryptographic algorithm or protocol."},
		{ID: "CWE-328", Name: "Use of Weak Hash", Description: "The product uses an algorithm that produces a digest that does not meet security expectations for a hash function."},
		{ID: "CWE-329", Name: "Generation of Predictable IV with CBC Mode", Description: "The product generates and uses a predictable initialization vector (IV) with Cipher Block Chaining (CBC) Mode."},
		{ID: "CWE-330", Name: "Use of Insufficiently Random Values", Description: "The product uses insufficiently random numbers or values in a security context that depends on unpredictable numbers."},
		{ID: "CWE-338", Name: "Use of Cryptographically Weak Pseudo-Random Number Generator (PRNG)", Description: "The product uses a PRNG in a security context, but the PRNG's algorithm is not cryptographically strong."},
		{ID: "CWE-489", Name: "Active Debug Code", Description: "The product is deployed to unauthorized actors with debugging code still enabled or active."},
		{ID: "CWE-530", Name: "Exposure of Backup File to an Unauthorized Control Sphere", Description: "A backup file is stored in a directory or archive that is made accessible to unauthorized actors."},
		{ID: "CWE-798", Name: "Use of Hard-coded Credentials", Description: "The product contains hard-coded credentials, such as a password or cryptographic key."},
	}

	data := make(map[string]CWEEntry, len(entries))
	for _, e := range entries {
		data[e.ID] = e
	}
	return &InMemoryCWEProvider{data: data}
}

// GetCWE looks id up case-insensitively; a bare number is read as "CWE-<n>".
func (p *InMemoryCWEProvider) GetCWE(id string) (*CWEEntry, error) {
	key := strings.ToUpper(strings.TrimSpace(id))
	if key != "" && !strings.HasPrefix(key, "CWE-") {
		key = "CWE-" + key
	}
	entry, ok := p.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &entry, nil
}
