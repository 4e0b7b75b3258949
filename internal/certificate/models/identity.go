package models

import (
	"crypto/rand"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf16"
)

const (
	certificateIDPrefix = "CERT"
	certificateIDChars  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	certificateIDSuffix = 8
)

var certificateIDPattern = regexp.MustCompile(`^CERT-\d{4}-[0-9A-Z]{8}$`)

// NewCertificateID returns "CERT-<year>-<8 chars of [0-9A-Z]>" for the year
// of now. Uniqueness is left to the store's unique index.
func NewCertificateID(now time.Time) string {
	const limit = 256 - 256%len(certificateIDChars)
	suffix := make([]byte, 0, certificateIDSuffix)
	buf := make([]byte, 16)
	for len(suffix) < certificateIDSuffix {
		_, _ = rand.Read(buf)
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			suffix = append(suffix, certificateIDChars[int(b)%len(certificateIDChars)])
			if len(suffix) == certificateIDSuffix {
				break
			}
		}
	}
	return fmt.Sprintf("%s-%04d-%s", certificateIDPrefix, now.Year(), suffix)
}

// IsWellFormedCertificateID reports whether id has the generated shape.
// Lookups never depend on it; it only labels metrics.
func IsWellFormedCertificateID(id string) bool {
	return certificateIDPattern.MatchString(id)
}

// VerificationURL is the public link encoded in certificate QR codes.
func VerificationURL(baseURL, certificateID string) string {
	return strings.TrimRight(baseURL, "/") + "/verify/" + url.PathEscape(certificateID)
}

// fingerprintInput is the ordered field tuple every fingerprint covers.
func fingerprintInput(c Certificate) [4]string {
	return [4]string{c.StudentName, c.CourseName, c.CompletionDate.Format(DateLayout), c.CertificateID}
}

// Checksum is the legacy 32-bit rolling checksum of
// "studentName-courseName-completionDate-certificateId". It detects
// accidental corruption only and offers no tamper resistance.
func Checksum(c Certificate) string {
	f := fingerprintInput(c)
	data := strings.Join(f[:], "-")

	var hash int32
	for _, unit := range utf16.Encode([]rune(data)) {
		hash = hash*31 + int32(unit)
	}
	abs := int64(hash)
	if abs < 0 {
		abs = -abs
	}
	return fmt.Sprintf("%x", abs)
}
