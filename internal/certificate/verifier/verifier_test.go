package verifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus/internal/certificate/models"
)

func fixtures() []models.Certificate {
	return []models.Certificate{
		{ID: "1", CertificateID: "CERT-2024-AAAAAAAA", Status: models.StatusIssued, StudentName: "Jane Doe"},
		{ID: "2", CertificateID: "CERT-2024-BBBBBBBB", Status: models.StatusRevoked},
		{ID: "3", CertificateID: "CERT-2024-CCCCCCCC", Status: models.StatusPending},
	}
}

func TestVerify(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		id        string
		wantValid bool
		reason    string
	}{
		{"issued certificate is valid", "CERT-2024-AAAAAAAA", true, ""},
		{"pending certificate is valid", "CERT-2024-CCCCCCCC", true, ""},
		{"unknown id", "CERT-2024-ZZZZZZZZ", false, models.ReasonNotFound},
		{"revoked certificate", "CERT-2024-BBBBBBBB", false, models.ReasonRevoked},
		{"match is case-sensitive", "cert-2024-aaaaaaaa", false, models.ReasonNotFound},
		{"input is not trimmed", " CERT-2024-AAAAAAAA", false, models.ReasonNotFound},
		{"empty id", "", false, models.ReasonNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Verify(tt.id, fixtures(), now)
			assert.Equal(t, tt.wantValid, result.Valid)
			assert.Equal(t, tt.reason, result.Reason)
			if tt.wantValid {
				require.NotNil(t, result.Certificate)
				require.NotNil(t, result.Certificate.VerifiedAt)
				assert.Equal(t, now, *result.Certificate.VerifiedAt)
				assert.Equal(t, tt.id, result.Certificate.CertificateID)
			} else {
				assert.Nil(t, result.Certificate)
			}
		})
	}
}

func TestVerify_DoesNotMutateInput(t *testing.T) {
	certs := fixtures()
	result := Verify("CERT-2024-AAAAAAAA", certs, time.Now())

	require.True(t, result.Valid)
	assert.Nil(t, certs[0].VerifiedAt)
	result.Certificate.StudentName = "changed"
	assert.Equal(t, "Jane Doe", certs[0].StudentName)
}

func TestVerify_EmptyCollection(t *testing.T) {
	result := Verify("CERT-2024-AAAAAAAA", nil, time.Now())
	assert.False(t, result.Valid)
	assert.Equal(t, models.ReasonNotFound, result.Reason)
	assert.Equal(t, NotFound(), result)
}
