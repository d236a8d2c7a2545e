package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/riskaudit/pkg/application"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/catalog"
	"github.com/felixgeelhaar/riskaudit/pkg/importer"
)

const (
	importUserID      = "system"
	importDescription = "Automatically generated"
	importPrefix      = "IMP"
)

type ImportRequirementsArgs struct {
	Requirements []catalog.Node `json:"requirements" jsonschema:"description=Nested requirement tree (section, heading, text, important, dependencies, effort, children)"`
	CatalogName  string         `json:"catalogName" jsonschema:"description=Title of the catalog to create"`
}

type ImportDocumentArgs struct {
	Content     string `json:"content" jsonschema:"description=Raw document content"`
	Format      string `json:"format" jsonschema:"description=Document format: csv, json or yaml"`
	CatalogName string `json:"catalogName,omitempty" jsonschema:"description=Catalog title; defaults to the document name"`
}

type CreateCatalogArgs struct {
	UserID      string `json:"userId,omitempty" jsonschema:"description=Owner of the catalog"`
	Title       string `json:"title" jsonschema:"description=Catalog title"`
	Description string `json:"description,omitempty" jsonschema:"description=Catalog description"`
	Prefix      string `json:"prefix,omitempty" jsonschema:"description=Short prefix for requirement references"`
}

type CatalogIDArgs struct {
	CatalogID string `json:"catalogId" jsonschema:"description=The catalog id"`
}

type RequirementIDsArgs struct {
	IDs []string `json:"ids" jsonschema:"description=Requirement ids to look up"`
}

type UpdateRequirementArgs struct {
	ID        string `json:"id" jsonschema:"description=The requirement id"`
	Heading   string `json:"heading" jsonschema:"description=New heading"`
	Text      string `json:"text" jsonschema:"description=New requirement text"`
	Important int    `json:"important" jsonschema:"description=Importance from 1 to 100"`
}

type DeleteRequirementArgs struct {
	CatalogID     string `json:"catalogId" jsonschema:"description=The catalog holding the requirement"`
	RequirementID string `json:"requirementId" jsonschema:"description=The requirement to delete together with its descendants"`
}

type SuccessResult struct {
	Success bool `json:"success"`
}

type DeleteRequirementResult struct {
	Success bool     `json:"success"`
	Removed []string `json:"removed"`
}

func (s *Server) handleImportRequirements(ctx context.Context, args ImportRequirementsArgs) (any, error) {
	res, err := s.catalogSvc.Import(ctx, application.ImportRequest{
		Name:        args.CatalogName,
		Description: importDescription,
		Prefix:      importPrefix,
		UserID:      importUserID,
		Nodes:       args.Requirements,
	})
	if err != nil {
		return nil, mcpErr("Failed to import requirements. Provide a catalogName and a requirement tree.", err)
	}
	return res, nil
}

func (s *Server) handleImportDocument(ctx context.Context, args ImportDocumentArgs) (any, error) {
	format := importer.Format(strings.ToLower(strings.TrimSpace(args.Format)))
	switch format {
	case importer.FormatCSV, importer.FormatJSON, importer.FormatYAML:
	case "yml":
		format = importer.FormatYAML
	default:
		return nil, mcpErr(fmt.Sprintf("Unsupported format %q. Use csv, json or yaml.", args.Format), nil)
	}
	res, err := s.catalogSvc.ImportDocument(ctx, []byte(args.Content), format, args.CatalogName)
	if err != nil {
		return nil, mcpErr("Failed to import document.", err)
	}
	return res, nil
}

func (s *Server) handleCreateCatalog(ctx context.Context, args CreateCatalogArgs) (string, error) {
	c, err := s.catalogSvc.Create(ctx, args.UserID, args.Title, args.Description, args.Prefix)
	if err != nil {
		return "", mcpErr("Failed to create catalog.", err)
	}
	return c.ID, nil
}

func (s *Server) handleGetAllCatalogs(ctx context.Context, args struct{}) (any, error) {
	list, err := s.catalogSvc.List(ctx)
	if err != nil {
		return nil, mcpErr("Failed to list catalogs.", err)
	}
	return list, nil
}

func (s *Server) handleGetCatalog(ctx context.Context, args CatalogIDArgs) (any, error) {
	c, err := s.catalogSvc.Get(ctx, args.CatalogID)
	if err != nil {
		return nil, mcpErr(fmt.Sprintf("Failed to load catalog '%s'.", args.CatalogID), err)
	}
	return c, nil
}

func (s *Server) handleGetCatalogRequirements(ctx context.Context, args CatalogIDArgs) (any, error) {
	reqs, err := s.catalogSvc.Requirements(ctx, args.CatalogID)
	if err != nil {
		return nil, mcpErr(fmt.Sprintf("Failed to load requirements of catalog '%s'.", args.CatalogID), err)
	}
	return reqs, nil
}

func (s *Server) handleGetHierarchy(ctx context.Context, args CatalogIDArgs) (any, error) {
	tree, err := s.catalogSvc.Hierarchy(ctx, args.CatalogID)
	if err != nil {
		return nil, mcpErr(fmt.Sprintf("Failed to build hierarchy of catalog '%s'.", args.CatalogID), err)
	}
	return tree, nil
}

func (s *Server) handleDeleteCatalog(ctx context.Context, args CatalogIDArgs) (any, error) {
	if err := s.catalogSvc.Delete(ctx, args.CatalogID); err != nil {
		return nil, mcpErr(fmt.Sprintf("Failed to delete catalog '%s'.", args.CatalogID), err)
	}
	return SuccessResult{Success: true}, nil
}

func (s *Server) handleGetRequirementsByIDs(ctx context.Context, args RequirementIDsArgs) (any, error) {
	found, err := s.catalogSvc.RequirementsByIDs(ctx, args.IDs)
	if err != nil {
		return nil, mcpErr("Failed to look up requirements.", err)
	}
	return found, nil
}

func (s *Server) handleUpdateRequirement(ctx context.Context, args UpdateRequirementArgs) (any, error) {
	if err := s.catalogSvc.UpdateRequirement(ctx, args.ID, args.Heading, args.Text, args.Important); err != nil {
		return nil, mcpErr(fmt.Sprintf("Failed to update requirement '%s'.", args.ID), err)
	}
	return SuccessResult{Success: true}, nil
}

func (s *Server) handleDeleteRequirement(ctx context.Context, args DeleteRequirementArgs) (any, error) {
	removed, err := s.catalogSvc.DeleteRequirement(ctx, args.CatalogID, args.RequirementID)
	if err != nil {
		return nil, mcpErr(fmt.Sprintf("Failed to delete requirement '%s'.", args.RequirementID), err)
	}
	return DeleteRequirementResult{Success: true, Removed: removed}, nil
}
