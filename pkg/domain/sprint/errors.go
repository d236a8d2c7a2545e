package sprint

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/riskaudit/pkg/domain"
)

// Sprint domain errors.
var (
	// ErrSprintNotFound indicates no sprint-<n> key exists.
	ErrSprintNotFound = fmt.Errorf("sprint %w", domain.ErrNotFound)

	// ErrRequirementNotInSprint indicates the id is absent from the snapshot.
	ErrRequirementNotInSprint = fmt.Errorf("requirement in sprint %w", domain.ErrNotFound)

	// ErrSprintClosed indicates a write against a sprint that is no longer active.
	ErrSprintClosed = errors.New("sprint is closed")

	// ErrSprintActive indicates a sprint cannot start while another is active.
	ErrSprintActive = errors.New("another sprint is already active")
)
