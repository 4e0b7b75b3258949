package validation

import (
	"fmt"

	dErrors "campus/pkg/domain-errors"
)

// MaxBodySize is the request body cap applied by the router (64 KB).
const MaxBodySize = 64 * 1024

const (
	MaxCertificateIDLength = 64
	MaxCouponCodeLength    = 64
	MaxApplicableItems     = 500
	MaxPayoutBatch         = 1000
	MaxFeatures            = 50
)

func CheckSliceCount(fieldName string, count, max int) error {
	if count > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("too many %s: max %d allowed", fieldName, max))
	}
	return nil
}

func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}
