package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/riskaudit/pkg/domain"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/catalog"
)

type RiskByCatalogArgs struct {
	CatalogID    string `json:"catalogId" jsonschema:"description=The catalog id"`
	SprintActual int    `json:"sprintActual" jsonschema:"description=Current sprint number used for freshness"`
}

type RiskAllCatalogsArgs struct {
	SprintActual int `json:"sprintActual" jsonschema:"description=Current sprint number used for freshness"`
}

type SelectForAuditArgs struct {
	CatalogID   string   `json:"catalogId" jsonschema:"description=The catalog id"`
	ReqsToAvoid []string `json:"reqsToAvoid,omitempty" jsonschema:"description=Requirement ids to leave out of the proposal"`
}

type AllByRiskArgs struct {
	ReqsToAvoid []string `json:"reqsToAvoid,omitempty" jsonschema:"description=Requirement ids to leave out of the ranking"`
}

type MarkAsAuditedArgs struct {
	RequirementIDs []string `json:"requirementIds" jsonschema:"description=Ids of the audited requirements"`
	SprintNumber   int      `json:"sprintNumber" jsonschema:"description=Sprint in which the audit happened"`
}

type RiskByCatalogResult struct {
	Success bool             `json:"success"`
	Catalog *catalog.Catalog `json:"catalog"`
}

// RiskAllCatalogsResult reports a pass over every catalog. On a partial
// failure Success is false, UpdatedCatalogs lists what was written and
// FailedCatalog names where the pass stopped.
type RiskAllCatalogsResult struct {
	Success         bool     `json:"success"`
	UpdatedCatalogs []string `json:"updatedCatalogs"`
	FailedCatalog   string   `json:"failedCatalog,omitempty"`
	Error           string   `json:"error,omitempty"`
}

type SelectionResult struct {
	SelectedRequirements []catalog.Requirement `json:"selectedRequirements"`
	TotalRequirements    int                   `json:"totalRequirements"`
}

type RankingResult struct {
	SelectedRequirements []catalog.Requirement `json:"selectedRequirements"`
}

type MarkAsAuditedResult struct {
	Success      bool `json:"success"`
	UpdatedCount int  `json:"updatedCount"`
}

func (s *Server) handleRiskByCatalog(ctx context.Context, args RiskByCatalogArgs) (any, error) {
	c, err := s.riskSvc.ByCatalog(ctx, args.CatalogID, args.SprintActual)
	if err != nil {
		return nil, mcpErr(fmt.Sprintf("Failed to calculate risks for catalog '%s'.", args.CatalogID), err)
	}
	return RiskByCatalogResult{Success: true, Catalog: c}, nil
}

func (s *Server) handleRiskAllCatalogs(ctx context.Context, args RiskAllCatalogsArgs) (any, error) {
	updated, err := s.riskSvc.AllCatalogs(ctx, args.SprintActual)
	var partial *domain.PartialFailureError
	if errors.As(err, &partial) {
		return RiskAllCatalogsResult{
			Success:         false,
			UpdatedCatalogs: partial.Completed,
			FailedCatalog:   partial.Failed,
			Error:           partial.Error(),
		}, nil
	}
	if err != nil {
		return nil, mcpErr("Failed to calculate risks across catalogs.", err)
	}
	return RiskAllCatalogsResult{Success: true, UpdatedCatalogs: updated}, nil
}

func (s *Server) handleSelectForAudit(ctx context.Context, args SelectForAuditArgs) (any, error) {
	p, err := s.selectionSvc.ForCatalog(ctx, args.CatalogID, args.ReqsToAvoid)
	if err != nil {
		return nil, mcpErr(fmt.Sprintf("Failed to select requirements from catalog '%s'.", args.CatalogID), err)
	}
	return SelectionResult{SelectedRequirements: p.Selected, TotalRequirements: p.TotalEligible}, nil
}

func (s *Server) handleAllByRisk(ctx context.Context, args AllByRiskArgs) (any, error) {
	ranked, err := s.selectionSvc.AcrossCatalogs(ctx, args.ReqsToAvoid)
	if err != nil {
		return nil, mcpErr("Failed to rank requirements.", err)
	}
	return RankingResult{SelectedRequirements: ranked}, nil
}

func (s *Server) handleMarkAsAudited(ctx context.Context, args MarkAsAuditedArgs) (any, error) {
	n, err := s.auditSvc.MarkAsAudited(ctx, args.RequirementIDs, args.SprintNumber)
	if err != nil {
		return nil, mcpErr("Failed to mark requirements as audited.", err)
	}
	return MarkAsAuditedResult{Success: true, UpdatedCount: n}, nil
}
