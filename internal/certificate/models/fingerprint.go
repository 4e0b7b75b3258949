package models

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Blake2bPrefix marks keyed digests so both algorithms can coexist in one store.
const Blake2bPrefix = "b2:"

// Fingerprinter computes the integrity value stored in Certificate.Hash.
type Fingerprinter interface {
	Name() string
	Fingerprint(c Certificate) string
}

// ChecksumFingerprinter produces the legacy Checksum.
type ChecksumFingerprinter struct{}

func (ChecksumFingerprinter) Name() string                     { return "checksum" }
func (ChecksumFingerprinter) Fingerprint(c Certificate) string { return Checksum(c) }

// Blake2bFingerprinter produces a keyed BLAKE2b-256 digest over the
// NUL-delimited fingerprint fields.
type Blake2bFingerprinter struct {
	key []byte
}

func NewBlake2bFingerprinter(key []byte) (*Blake2bFingerprinter, error) {
	if len(key) == 0 || len(key) > blake2b.Size {
		return nil, fmt.Errorf("blake2b key must be 1..%d bytes", blake2b.Size)
	}
	return &Blake2bFingerprinter{key: append([]byte(nil), key...)}, nil
}

func (*Blake2bFingerprinter) Name() string { return "blake2b" }

func (f *Blake2bFingerprinter) Fingerprint(c Certificate) string {
	h, _ := blake2b.New256(f.key) // key length checked in the constructor
	fields := fingerprintInput(c)
	for i, field := range fields {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(field))
	}
	return Blake2bPrefix + hex.EncodeToString(h.Sum(nil))
}

// IntegrityStatus is the outcome of re-deriving a stored fingerprint.
type IntegrityStatus string

const (
	IntegrityIntact      IntegrityStatus = "intact"
	IntegrityMismatch    IntegrityStatus = "mismatch"
	IntegrityUncheckable IntegrityStatus = "uncheckable"
)

// CheckIntegrity recomputes the fingerprint with the algorithm that produced
// c.Hash. A keyed digest with no keyed fingerprinter available is uncheckable.
func CheckIntegrity(c Certificate, keyed *Blake2bFingerprinter) IntegrityStatus {
	var f Fingerprinter = ChecksumFingerprinter{}
	if strings.HasPrefix(c.Hash, Blake2bPrefix) {
		if keyed == nil {
			return IntegrityUncheckable
		}
		f = keyed
	}
	if subtle.ConstantTimeCompare([]byte(f.Fingerprint(c)), []byte(c.Hash)) == 1 {
		return IntegrityIntact
	}
	return IntegrityMismatch
}
