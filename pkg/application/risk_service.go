package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/riskaudit/pkg/domain"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/catalog"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/risk"
)

// RiskService runs full-catalog risk passes.
type RiskService struct {
	repo   catalog.Repository
	rec    recorder
	logger *slog.Logger
}

func NewRiskService(repo catalog.Repository, journal domain.Journal, logger *slog.Logger) *RiskService {
	rec := newRecorder(journal, logger)
	return &RiskService{repo: repo, rec: rec, logger: rec.logger}
}

// ByCatalog recalculates one catalog at currentSprint and stores it.
func (s *RiskService) ByCatalog(ctx context.Context, catalogID string, currentSprint int) (*catalog.Catalog, error) {
	c, err := s.repo.LoadCatalog(catalogID)
	if err != nil {
		return nil, err
	}
	if err := s.recalculate(c, currentSprint); err != nil {
		return nil, err
	}
	s.rec.record(ActionRiskCalculate, map[string]interface{}{
		"catalog_id": catalogID,
		"sprint":     currentSprint,
	})
	return c, nil
}

// AllCatalogs recalculates every catalog independently. A failed write stops
// the pass with a PartialFailureError; catalogs already written stay written.
func (s *RiskService) AllCatalogs(ctx context.Context, currentSprint int) ([]string, error) {
	catalogs, err := s.repo.ListCatalogs()
	if err != nil {
		return nil, err
	}

	updated := make([]string, 0, len(catalogs))
	for _, c := range catalogs {
		if err := s.recalculate(c, currentSprint); err != nil {
			s.logger.Warn("risk pass stopped", "catalog_id", c.ID, "completed", len(updated), "error", err)
			s.rec.record(ActionRiskCalculate, map[string]interface{}{
				"sprint":  currentSprint,
				"updated": updated,
				"failed":  c.ID,
			})
			return updated, &domain.PartialFailureError{
				Operation: "calculateRisksAllCatalogs",
				Completed: updated,
				Failed:    c.ID,
				Err:       err,
			}
		}
		updated = append(updated, c.ID)
	}

	s.rec.record(ActionRiskCalculate, map[string]interface{}{
		"sprint":  currentSprint,
		"updated": updated,
	})
	return updated, nil
}

func (s *RiskService) recalculate(c *catalog.Catalog, currentSprint int) error {
	if currentSprint < 0 {
		return fmt.Errorf("sprint number %d must not be negative: %w", currentSprint, domain.ErrValidation)
	}
	c.Requirements = risk.Recalculate(c.Requirements, currentSprint)
	c.UpdatedAt = nowUTC()
	if err := s.repo.SaveCatalog(c); err != nil {
		return fmt.Errorf("save catalog %s: %w", c.ID, err)
	}
	return nil
}
