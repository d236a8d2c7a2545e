package catalog

import (
	"fmt"

	"github.com/felixgeelhaar/riskaudit/pkg/domain"
)

// Catalog domain errors.
var (
	// ErrCatalogNotFound indicates the catalog key is absent from the store.
	ErrCatalogNotFound = fmt.Errorf("catalog %w", domain.ErrNotFound)

	// ErrRequirementNotFound indicates no catalog holds the requirement id.
	ErrRequirementNotFound = fmt.Errorf("requirement %w", domain.ErrNotFound)

	// ErrImportanceOutOfRange indicates importance outside [MinImportance, MaxImportance].
	ErrImportanceOutOfRange = fmt.Errorf("importance must be between %d and %d: %w", MinImportance, MaxImportance, domain.ErrValidation)
)

// ValidationError describes one problem found in an import payload.
type ValidationError struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// Is allows errors.Is to match domain.ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == domain.ErrValidation
}
