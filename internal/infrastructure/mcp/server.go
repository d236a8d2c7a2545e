package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/riskaudit/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/riskaudit/pkg/application"
	"github.com/felixgeelhaar/riskaudit/pkg/domain"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/sprint"
)

type Server struct {
	mcpServer    *mcp.Server
	catalogSvc   *application.CatalogService
	riskSvc      *application.RiskService
	selectionSvc *application.SelectionService
	auditSvc     *application.AuditService
	sprintSvc    *application.SprintService
	journalSvc   *application.JournalService
	services     *wiring.AppServices
}

var (
	Version     = "dev"
	BuildCommit = "unknown"
	BuildDate   = "unknown"
)

// mcpErr returns a user-friendly error for MCP clients. The cause is only
// appended for caller mistakes (unknown ids, invalid input, sprint state);
// storage and other internal failures are hidden behind the friendly text.
func mcpErr(friendly string, err error) error {
	var partial *domain.PartialFailureError
	switch {
	case err == nil:
		return fmt.Errorf("%s", friendly)
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, sprint.ErrSprintClosed),
		errors.Is(err, sprint.ErrSprintActive),
		errors.As(err, &partial):
		return fmt.Errorf("%s: %v", friendly, err)
	default:
		return fmt.Errorf("%s", friendly)
	}
}

// NewServer builds the services for the workspace at root.
func NewServer(root string) (*Server, error) {
	services, err := wiring.BuildAppServices(root)
	if services == nil {
		return nil, fmt.Errorf("build services: %w", err)
	}
	return NewServerWithServices(services), nil
}

// NewServerWithServices exposes already wired services.
func NewServerWithServices(services *wiring.AppServices) *Server {
	info := mcp.ServerInfo{
		Name:    "riskaudit",
		Version: Version,
	}

	s := &Server{
		mcpServer: mcp.NewServer(info,
			mcp.WithTitle("riskaudit MCP Server"),
			mcp.WithDescription("riskaudit scores hierarchical audit requirement catalogs by risk and plans audit sprints."),
			mcp.WithBuildInfo(BuildCommit, BuildDate),
			mcp.WithInstructions("Import a catalog, run calculateRisksByCatalog for the current sprint, then use selectRequirementsForAudit to pick the next audit scope. Record finished audits with markAsAudited."),
		),
		catalogSvc:   services.Catalog,
		riskSvc:      services.Risk,
		selectionSvc: services.Selection,
		auditSvc:     services.Audit,
		sprintSvc:    services.Sprint,
		journalSvc:   services.Journal,
		services:     services,
	}

	s.registerTools()
	s.registerSchemaResource()
	return s
}

// Close releases the underlying store.
func (s *Server) Close() error {
	return s.services.Close()
}

func (s *Server) registerTools() {
	// Catalogs and requirements
	s.mcpServer.Tool("importRequirementsFromCustomCSV").
		Description("Import a nested requirement tree as a new catalog. Returns total, success and per-node errors.").
		Handler(s.handleImportRequirements)

	s.mcpServer.Tool("importCatalogDocument").
		Description("Import a catalog from raw CSV, JSON or YAML document content").
		Handler(s.handleImportDocument)

	s.mcpServer.Tool("createCatalog").
		Description("Create an empty catalog and return its id").
		Handler(s.handleCreateCatalog)

	s.mcpServer.Tool("getAllCatalogs").
		Description("List every catalog with its requirement count").
		Handler(s.handleGetAllCatalogs)

	s.mcpServer.Tool("getCatalogById").
		Description("Retrieve one catalog including its flat requirement list").
		Handler(s.handleGetCatalog)

	s.mcpServer.Tool("getCatalogRequirements").
		Description("Retrieve the flat requirement list of a catalog in pre-order").
		Handler(s.handleGetCatalogRequirements)

	s.mcpServer.Tool("getRequirementHierarchy").
		Description("Retrieve the requirements of a catalog rebuilt as a nested tree").
		Handler(s.handleGetHierarchy)

	s.mcpServer.Tool("deleteCatalog").
		Description("Delete a catalog").
		Handler(s.handleDeleteCatalog)

	s.mcpServer.Tool("getRequirementsByIds").
		Description("Look requirements up by id across every catalog").
		Handler(s.handleGetRequirementsByIDs)

	s.mcpServer.Tool("updateRequirement").
		Description("Update the heading, text and importance (1-100) of a requirement in every catalog holding it").
		Handler(s.handleUpdateRequirement)

	s.mcpServer.Tool("deleteRequirement").
		Description("Delete a requirement and its descendants from a catalog").
		Handler(s.handleDeleteRequirement)

	// Risk, selection and audit
	s.mcpServer.Tool("calculateRisksByCatalog").
		Description("Recompute structural metrics and risk scores of one catalog for the given sprint").
		Handler(s.handleRiskByCatalog)

	s.mcpServer.Tool("calculateRisksAllCatalogs").
		Description("Recompute risk scores of every catalog for the given sprint").
		Handler(s.handleRiskAllCatalogs)

	s.mcpServer.Tool("selectRequirementsForAudit").
		Description("Propose the highest-risk eligible requirements of a catalog for the next audit").
		Handler(s.handleSelectForAudit)

	s.mcpServer.Tool("getAllRequirementsByRisk").
		Description("Rank requirements with a positive risk across every catalog").
		Handler(s.handleAllByRisk)

	s.mcpServer.Tool("markAsAudited").
		Description("Record an audit of the given requirements in the given sprint").
		Handler(s.handleMarkAsAudited)

	// Sprints
	s.mcpServer.Tool("getSprintConfig").
		Description("Retrieve the default sprint configuration").
		Handler(s.handleGetSprintConfig)

	s.mcpServer.Tool("saveSprintConfig").
		Description("Save the default sprint configuration").
		Handler(s.handleSaveSprintConfig)

	s.mcpServer.Tool("startSprint").
		Description("Start the next numbered sprint. Fails while another sprint is active.").
		Handler(s.handleStartSprint)

	s.mcpServer.Tool("endActualSprint").
		Description("Close a sprint. Closed sprints are never reopened.").
		Handler(s.handleEndSprint)

	s.mcpServer.Tool("nextSprint").
		Description("Close the active sprint, if any, and start the next one").
		Handler(s.handleNextSprint)

	s.mcpServer.Tool("getSprintByNumber").
		Description("Retrieve a sprint with its capacity usage").
		Handler(s.handleGetSprint)

	s.mcpServer.Tool("getActiveSprint").
		Description("Retrieve the active sprint with its capacity usage").
		Handler(s.handleGetActiveSprint)

	s.mcpServer.Tool("getAllSprints").
		Description("List every sprint in number order").
		Handler(s.handleGetAllSprints)

	s.mcpServer.Tool("addRequirementsToSprint").
		Description("Snapshot requirements into an active sprint and open tracker issues for them").
		Handler(s.handleAddToSprint)

	s.mcpServer.Tool("removeRequirementFromSprint").
		Description("Remove a requirement from an active sprint snapshot").
		Handler(s.handleRemoveFromSprint)

	s.mcpServer.Tool("modifySprint").
		Description("Change capacity, points per requirement, team size, duration or project name of an active sprint").
		Handler(s.handleModifySprint)

	s.mcpServer.Tool("updateRequirementStoryPoints").
		Description("Override the story points of a requirement in every catalog and in the active sprint").
		Handler(s.handleUpdateStoryPoints)

	s.mcpServer.Tool("deleteAllSprints").
		Description("Delete every stored sprint").
		Handler(s.handleDeleteAllSprints)

	// Journal
	s.mcpServer.Tool("getJournal").
		Description("Retrieve the operation journal in chronological order").
		Handler(s.handleGetJournal)

	s.mcpServer.Tool("verifyJournal").
		Description("Verify the hash chain of the operation journal").
		Handler(s.handleVerifyJournal)
}

// ServeStdio serves MCP over stdin/stdout until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP serves JSON-RPC posts on /mcp and a /health check.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr, mcp.WithDefaultCORS())
}

// ServeWebSocket serves MCP sessions over WebSocket on /mcp.
func (s *Server) ServeWebSocket(ctx context.Context, addr string) error {
	return mcp.ServeWebSocket(ctx, s.mcpServer, addr)
}
