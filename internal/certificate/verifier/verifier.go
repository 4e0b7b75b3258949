// Package verifier classifies certificate lookups as valid or invalid.
package verifier

import (
	"time"

	"campus/internal/certificate/models"
)

// Verify looks certificateID up in certificates by exact, case-sensitive
// match. Unknown IDs and revoked certificates are invalid; issued and pending
// certificates are valid and returned as a copy stamped with now.
func Verify(certificateID string, certificates []models.Certificate, now time.Time) models.VerifyResult {
	for i := range certificates {
		if certificates[i].CertificateID == certificateID {
			return Classify(certificates[i], now)
		}
	}
	return models.VerifyResult{Reason: models.ReasonNotFound}
}

// Classify applies the verification rules to a certificate already found.
func Classify(c models.Certificate, now time.Time) models.VerifyResult {
	if c.Status == models.StatusRevoked {
		return models.VerifyResult{Reason: models.ReasonRevoked}
	}
	verified := c
	verifiedAt := now
	verified.VerifiedAt = &verifiedAt
	return models.VerifyResult{Valid: true, Certificate: &verified}
}

// NotFound is the result for an identifier with no certificate.
func NotFound() models.VerifyResult {
	return models.VerifyResult{Reason: models.ReasonNotFound}
}
