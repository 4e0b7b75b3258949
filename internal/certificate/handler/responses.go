package handler

import (
	"campus/internal/certificate/models"
)

// CertificateResponse is a certificate plus the public URL its QR code points to.
// StudentEmail shadows the embedded field so regulated mode can drop it.
type CertificateResponse struct {
	models.Certificate
	StudentEmail    string `json:"student_email,omitempty"`
	VerificationURL string `json:"verification_url"`
}

type VerifyResponse struct {
	CertificateID string               `json:"certificate_id"`
	Valid         bool                 `json:"valid"`
	Reason        string               `json:"reason,omitempty"`
	Certificate   *CertificateResponse `json:"certificate,omitempty"`
}

// IssuanceResponse reports a trigger outcome. Skipped is "not_eligible"
// (trigger disabled or below threshold) or "already_issued" when no
// certificate was created.
type IssuanceResponse struct {
	Issued      bool                 `json:"issued"`
	Skipped     string               `json:"skipped,omitempty"`
	Certificate *CertificateResponse `json:"certificate,omitempty"`
}

const (
	skippedNotEligible = "not_eligible"
	skippedExisting    = "already_issued"
)

type ListResponse struct {
	Certificates []CertificateResponse `json:"certificates"`
	Total        int                   `json:"total"`
}

func (h *Handler) toResponse(c models.Certificate, public bool) CertificateResponse {
	resp := CertificateResponse{
		Certificate:     c,
		StudentEmail:    c.StudentEmail,
		VerificationURL: models.VerificationURL(h.baseURL, c.CertificateID),
	}
	if public && h.regulated {
		resp.StudentEmail = ""
	}
	return resp
}
