package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/felixgeelhaar/riskaudit/pkg/domain"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/catalog"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/sprint"
)

func TestCLIError(t *testing.T) {
	t.Run("Error with cause", func(t *testing.T) {
		cause := errors.New("root cause")
		e := NewCLIError("something failed", "try this", cause)
		if e.Error() != "something failed: root cause" {
			t.Fatalf("unexpected: %s", e.Error())
		}
		if e.ExitCode != 1 {
			t.Fatalf("expected exit code 1, got %d", e.ExitCode)
		}
	})

	t.Run("Error without cause", func(t *testing.T) {
		e := NewCLIError("something failed", "try this", nil)
		if e.Error() != "something failed" {
			t.Fatalf("unexpected: %s", e.Error())
		}
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("root")
		e := NewCLIError("msg", "", cause)
		if !errors.Is(e, cause) {
			t.Fatal("errors.Is should match wrapped cause")
		}
	})
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantMessage string
		wantCLI     bool
	}{
		{name: "nil returns nil"},
		{
			name:        "catalog not found",
			err:         fmt.Errorf("load: %w", catalog.ErrCatalogNotFound),
			wantMessage: "catalog not found",
			wantCLI:     true,
		},
		{
			name:        "requirement not found",
			err:         fmt.Errorf("x: %w", catalog.ErrRequirementNotFound),
			wantMessage: "requirement not found",
			wantCLI:     true,
		},
		{
			name:        "requirement not in sprint",
			err:         fmt.Errorf("sprint 3: x: %w", sprint.ErrRequirementNotInSprint),
			wantMessage: "requirement is not in the sprint",
			wantCLI:     true,
		},
		{
			name:        "sprint not found",
			err:         sprint.ErrSprintNotFound,
			wantMessage: "sprint not found",
			wantCLI:     true,
		},
		{
			name:        "sprint closed",
			err:         fmt.Errorf("sprint 2: %w", sprint.ErrSprintClosed),
			wantMessage: "sprint is closed",
			wantCLI:     true,
		},
		{
			name:        "sprint active",
			err:         sprint.ErrSprintActive,
			wantMessage: "a sprint is already active",
			wantCLI:     true,
		},
		{
			name:        "validation",
			err:         catalog.ErrImportanceOutOfRange,
			wantMessage: "invalid input",
			wantCLI:     true,
		},
		{
			name:        "partial failure",
			err:         &domain.PartialFailureError{Operation: "calculateRisksAllCatalogs", Completed: []string{"a"}, Failed: "b", Err: errors.New("disk full")},
			wantMessage: "calculateRisksAllCatalogs stopped on catalog b",
			wantCLI:     true,
		},
		{
			name: "unmapped error passes through",
			err:  errors.New("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			var cliErr *CLIError
			isCLI := errors.As(got, &cliErr)
			if isCLI != tt.wantCLI {
				t.Fatalf("CLIError = %v, want %v (%v)", isCLI, tt.wantCLI, got)
			}
			if !tt.wantCLI {
				if got != tt.err {
					t.Fatalf("expected the original error, got %v", got)
				}
				return
			}
			if cliErr.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", cliErr.Message, tt.wantMessage)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("mapped error should wrap the original")
			}
		})
	}
}
