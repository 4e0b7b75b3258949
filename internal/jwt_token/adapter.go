package jwttoken

import (
	"campus/pkg/platform/middleware/auth"
	"campus/pkg/requestcontext"
)

// Validator adapts JWTService to the auth middleware.
type Validator struct {
	service *JWTService
}

func NewValidator(service *JWTService) *Validator {
	return &Validator{service: service}
}

func (v *Validator) ValidateToken(token string) (requestcontext.Principal, error) {
	claims, err := v.service.ValidateToken(token)
	if err != nil {
		return requestcontext.Principal{}, err
	}
	return requestcontext.Principal{Subject: claims.Subject, Permissions: claims.Permissions}, nil
}

var _ auth.TokenValidator = (*Validator)(nil)
