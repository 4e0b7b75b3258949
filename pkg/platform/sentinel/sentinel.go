package sentinel

import "errors"

// Stores and external adapters return these (optionally wrapped) so that
// services translate them into domain errors in one place.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
)
