package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/riskaudit/pkg/domain"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/catalog"
	"github.com/felixgeelhaar/riskaudit/pkg/importer"
)

// ImportRequest is a decoded import payload ready for validation.
type ImportRequest struct {
	Name        string
	Description string
	Prefix      string
	UserID      string
	Nodes       []catalog.Node
	// Problems found while decoding, reported ahead of tree validation.
	Problems []catalog.ValidationError
}

// ImportResult summarises an import. Total counts every node of the payload
// at any depth; Success counts the requirements written.
type ImportResult struct {
	CatalogID string                    `json:"catalog_id,omitempty"`
	Total     int                       `json:"total"`
	Success   int                       `json:"success"`
	Errors    []catalog.ValidationError `json:"errors"`
}

// CatalogService owns catalog import, inspection and requirement edits.
type CatalogService struct {
	repo catalog.Repository
	rec  recorder
}

func NewCatalogService(repo catalog.Repository, journal domain.Journal, logger *slog.Logger) *CatalogService {
	return &CatalogService{repo: repo, rec: newRecorder(journal, logger)}
}

// Import validates and flattens an import tree into a new catalog.
func (s *CatalogService) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("catalog name is required: %w", domain.ErrValidation)
	}

	total := catalog.CountNodes(req.Nodes)
	kept, problems := catalog.Validate(req.Nodes, func() string { return uuid.New().String() })

	c := catalog.NewCatalog(uuid.New().String(), req.UserID, name, req.Description, req.Prefix)
	c.Requirements = catalog.Flatten(kept, name)
	if err := s.repo.SaveCatalog(c); err != nil {
		return nil, fmt.Errorf("save catalog %s: %w", c.ID, err)
	}

	errs := make([]catalog.ValidationError, 0, len(req.Problems)+len(problems))
	errs = append(errs, req.Problems...)
	errs = append(errs, problems...)

	result := &ImportResult{
		CatalogID: c.ID,
		Total:     total + len(req.Problems),
		Success:   len(c.Requirements),
		Errors:    errs,
	}
	s.rec.record(ActionCatalogImport, map[string]interface{}{
		"catalog_id": c.ID,
		"name":       name,
		"total":      result.Total,
		"success":    result.Success,
		"errors":     len(errs),
	})
	return result, nil
}

// ImportDocument decodes data and imports it. A payload that fails schema
// validation is reported in the result and writes nothing.
func (s *CatalogService) ImportDocument(ctx context.Context, data []byte, format importer.Format, name string) (*ImportResult, error) {
	return s.importDocument(ctx, data, format, name, "")
}

func (s *CatalogService) importDocument(ctx context.Context, data []byte, format importer.Format, name, fallback string) (*ImportResult, error) {
	doc, problems, err := importer.Parse(data, format)
	var schemaErr *importer.SchemaError
	if errors.As(err, &schemaErr) {
		return &ImportResult{Errors: schemaErr.Problems}, nil
	}
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = doc.Name
	}
	if name == "" {
		name = fallback
	}
	return s.Import(ctx, ImportRequest{
		Name:        name,
		Description: doc.Description,
		Prefix:      doc.Prefix,
		Nodes:       doc.Requirements,
		Problems:    problems,
	})
}

// ImportFile imports a .csv, .json, .yaml or .yml file. The catalog name
// defaults to the document name, then to the file name.
func (s *CatalogService) ImportFile(ctx context.Context, path, name string) (*ImportResult, error) {
	format, err := importer.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- Path is supplied by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return s.importDocument(ctx, data, format, name, importer.NameFromPath(path))
}

// Create stores an empty catalog.
func (s *CatalogService) Create(ctx context.Context, userID, title, description, prefix string) (*catalog.Catalog, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("catalog title is required: %w", domain.ErrValidation)
	}
	c := catalog.NewCatalog(uuid.New().String(), userID, title, description, prefix)
	if err := s.repo.SaveCatalog(c); err != nil {
		return nil, err
	}
	s.rec.record(ActionCatalogCreate, map[string]interface{}{"catalog_id": c.ID, "title": title})
	return c, nil
}

func (s *CatalogService) List(ctx context.Context) ([]catalog.Summary, error) {
	catalogs, err := s.repo.ListCatalogs()
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Summary, 0, len(catalogs))
	for _, c := range catalogs {
		out = append(out, c.Summary())
	}
	return out, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*catalog.Catalog, error) {
	return s.repo.LoadCatalog(id)
}

// Requirements returns the flat requirement list of a catalog.
func (s *CatalogService) Requirements(ctx context.Context, id string) ([]catalog.Requirement, error) {
	c, err := s.repo.LoadCatalog(id)
	if err != nil {
		return nil, err
	}
	return c.Requirements, nil
}

// Hierarchy rebuilds the nested view of a catalog.
func (s *CatalogService) Hierarchy(ctx context.Context, id string) ([]*catalog.TreeNode, error) {
	c, err := s.repo.LoadCatalog(id)
	if err != nil {
		return nil, err
	}
	return catalog.Rebuild(c.Requirements), nil
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteCatalog(id); err != nil {
		return err
	}
	s.rec.record(ActionCatalogDelete, map[string]interface{}{"catalog_id": id})
	return nil
}

// Located is a requirement together with the catalog holding it.
type Located struct {
	CatalogID   string              `json:"catalog_id"`
	Requirement catalog.Requirement `json:"requirement"`
}

// RequirementsByIDs looks ids up across every catalog, in catalog order.
func (s *CatalogService) RequirementsByIDs(ctx context.Context, ids []string) ([]Located, error) {
	want := catalog.NewIDSet(ids...)
	if len(want) == 0 {
		return []Located{}, nil
	}
	catalogs, err := s.repo.ListCatalogs()
	if err != nil {
		return nil, err
	}
	out := make([]Located, 0, len(want))
	for _, c := range catalogs {
		for _, r := range c.Requirements {
			if want.Has(r.ID) {
				out = append(out, Located{CatalogID: c.ID, Requirement: r.Clone()})
			}
		}
	}
	return out, nil
}

// UpdateRequirement rewrites heading, text and importance of id in every
// catalog holding it.
func (s *CatalogService) UpdateRequirement(ctx context.Context, id, heading, text string, important int) error {
	catalogs, err := s.repo.ListCatalogs()
	if err != nil {
		return err
	}
	found := false
	for _, c := range catalogs {
		if !c.Contains(id) {
			continue
		}
		if err := c.UpdateContent(id, heading, text, important); err != nil {
			return err
		}
		c.UpdatedAt = nowUTC()
		if err := s.repo.SaveCatalog(c); err != nil {
			return fmt.Errorf("save catalog %s: %w", c.ID, err)
		}
		found = true
	}
	if !found {
		return fmt.Errorf("%s: %w", id, catalog.ErrRequirementNotFound)
	}
	s.rec.record(ActionRequirementUpdate, map[string]interface{}{"requirement_id": id, "important": important})
	return nil
}

// DeleteRequirement removes a requirement and its descendants from one
// catalog and returns the removed ids.
func (s *CatalogService) DeleteRequirement(ctx context.Context, catalogID, requirementID string) ([]string, error) {
	c, err := s.repo.LoadCatalog(catalogID)
	if err != nil {
		return nil, err
	}
	removed, err := c.RemoveRequirement(requirementID)
	if err != nil {
		return nil, err
	}
	c.UpdatedAt = nowUTC()
	if err := s.repo.SaveCatalog(c); err != nil {
		return nil, fmt.Errorf("save catalog %s: %w", c.ID, err)
	}
	s.rec.record(ActionRequirementDelete, map[string]interface{}{
		"catalog_id":     catalogID,
		"requirement_id": requirementID,
		"removed":        len(removed),
	})
	return removed, nil
}
