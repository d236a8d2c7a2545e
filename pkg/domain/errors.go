package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds shared by every domain package. Package-level errors wrap one of
// these so callers can branch with errors.Is without knowing the package.
var (
	// ErrNotFound indicates a catalog, sprint or requirement id is absent.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates a malformed payload or an out-of-range field.
	ErrValidation = errors.New("validation failed")
)

// PartialFailureError reports a cross-catalog bulk operation that stopped on
// one catalog. Catalogs listed in Completed were written and stay written.
type PartialFailureError struct {
	Operation string
	Completed []string
	Failed    string
	Err       error
}

func (e *PartialFailureError) Error() string {
	msg := fmt.Sprintf("%s failed on catalog %s", e.Operation, e.Failed)
	if len(e.Completed) > 0 {
		msg += fmt.Sprintf(" after updating %s", strings.Join(e.Completed, ", "))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}
