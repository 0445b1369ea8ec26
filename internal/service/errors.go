package service

import (
	"errors"
	"fmt"
)

// ErrNotFound means the order id does not exist in the store.
var ErrNotFound = errors.New("payment not found")

// ValidationError rejects a create request with a field-level reason.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
