package wiring

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/riskaudit/internal/infrastructure/config"
	"github.com/felixgeelhaar/riskaudit/internal/infrastructure/jira"
	"github.com/felixgeelhaar/riskaudit/pkg/application"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/tracker"
)

// AppServices exposes the application layer services wired together with a workspace.
type AppServices struct {
	Workspace *Workspace
	Journal   *application.JournalService
	Tracker   tracker.IssueTracker
	Catalog   *application.CatalogService
	Risk      *application.RiskService
	Selection *application.SelectionService
	Audit     *application.AuditService
	Sprint    *application.SprintService
}

// BuildAppServices loads the workspace config for root and wires every
// service. Logs go to stderr.
func BuildAppServices(root string) (*AppServices, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	return BuildAppServicesWithConfig(root, cfg, nil)
}

// BuildAppServicesWithConfig wires services from an explicit config. When the
// Jira integration is enabled but unusable the services fall back to the no-op
// tracker and are returned together with the configuration error.
func BuildAppServicesWithConfig(root string, cfg *config.Config, logOutput io.Writer) (*AppServices, error) {
	ws, err := NewWorkspace(root, cfg, logOutput)
	if err != nil {
		return nil, err
	}

	issues, loadErr := BuildTracker(ws.Config.Jira)
	if loadErr != nil {
		ws.Logger.Warn("issue tracker disabled", "error", loadErr)
	}

	logger := ws.Logger
	journal := application.NewJournalService(ws.Repo)

	services := &AppServices{
		Workspace: ws,
		Journal:   journal,
		Tracker:   issues,
		Catalog:   application.NewCatalogService(ws.Repo, journal, logger),
		Risk:      application.NewRiskService(ws.Repo, journal, logger),
		Selection: application.NewSelectionService(ws.Repo, ws.Config.Selection.ProposalSize),
		Audit:     application.NewAuditService(ws.Repo, ws.Repo, journal, logger),
		Sprint:    application.NewSprintService(ws.Repo, ws.Repo, issues, journal, logger),
	}
	return services, loadErr
}

// BuildTracker returns the Jira client when enabled, otherwise tracker.Noop.
func BuildTracker(cfg config.JiraConfig) (tracker.IssueTracker, error) {
	if !cfg.Enabled {
		return tracker.Noop{}, nil
	}
	client, err := jira.NewClient(cfg)
	if err != nil {
		return tracker.Noop{}, fmt.Errorf("jira tracker fallback: %w", err)
	}
	return client, nil
}

// Close releases the underlying store.
func (s *AppServices) Close() error {
	if s == nil || s.Workspace == nil || s.Workspace.Store == nil {
		return nil
	}
	return s.Workspace.Store.Close()
}
