package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every service. Callers branch with errors.Is;
// anything that is not ErrNotFound should be treated as retryable.
var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrStorageUnavailable  = errors.New("storage unavailable")
)

var (
	ErrProductNotFound   = fmt.Errorf("product %w", ErrNotFound)
	ErrPromocodeNotFound = fmt.Errorf("promocode %w", ErrNotFound)
	ErrNoOpenOrder       = fmt.Errorf("open order %w", ErrNotFound)
)
