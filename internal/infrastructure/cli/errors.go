package cli

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/riskaudit/pkg/domain"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/catalog"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/sprint"
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var partial *domain.PartialFailureError
	if errors.As(err, &partial) {
		return NewCLIError(
			fmt.Sprintf("%s stopped on catalog %s", partial.Operation, partial.Failed),
			fmt.Sprintf("%d catalog(s) were already written; fix the store and rerun", len(partial.Completed)),
			err,
		)
	}

	switch {
	case errors.Is(err, catalog.ErrCatalogNotFound):
		return NewCLIError("catalog not found", "Run 'riskaudit catalog list' to see catalog ids", err)
	case errors.Is(err, catalog.ErrRequirementNotFound):
		return NewCLIError("requirement not found", "Run 'riskaudit catalog tree <catalog-id>' to browse requirement ids", err)
	case errors.Is(err, sprint.ErrRequirementNotInSprint):
		return NewCLIError("requirement is not in the sprint", "Run 'riskaudit sprint show <number>' to list its requirements", err)
	case errors.Is(err, sprint.ErrSprintNotFound):
		return NewCLIError("sprint not found", "Run 'riskaudit sprint list' to see sprint numbers", err)
	case errors.Is(err, sprint.ErrSprintClosed):
		return NewCLIError("sprint is closed", "Closed sprints are read-only; use the active sprint", err)
	case errors.Is(err, sprint.ErrSprintActive):
		return NewCLIError("a sprint is already active", "Run 'riskaudit sprint close <number>' or 'riskaudit sprint next'", err)
	case errors.Is(err, domain.ErrValidation):
		return NewCLIError("invalid input", "Check the command flags with --help", err)
	case errors.Is(err, domain.ErrNotFound):
		return NewCLIError("not found", "", err)
	}

	return err
}
