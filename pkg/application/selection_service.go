package application

import (
	"context"

	"github.com/felixgeelhaar/riskaudit/pkg/domain/catalog"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/eligibility"
)

// SelectionService proposes requirements for the next audit cycle. It reads
// stored risk and never recalculates it.
type SelectionService struct {
	repo         catalog.Repository
	proposalSize int
}

// NewSelectionService creates the service. A proposalSize below one uses
// eligibility.DefaultProposalSize.
func NewSelectionService(repo catalog.Repository, proposalSize int) *SelectionService {
	if proposalSize < 1 {
		proposalSize = eligibility.DefaultProposalSize
	}
	return &SelectionService{repo: repo, proposalSize: proposalSize}
}

// ForCatalog ranks the eligible requirements of one catalog.
func (s *SelectionService) ForCatalog(ctx context.Context, catalogID string, avoid []string) (eligibility.Proposal, error) {
	c, err := s.repo.LoadCatalog(catalogID)
	if err != nil {
		return eligibility.Proposal{}, err
	}
	return eligibility.Propose(c.Requirements, catalog.NewIDSet(avoid...), s.proposalSize), nil
}

// AcrossCatalogs pools every catalog and ranks requirements with positive
// risk without applying the eligibility rules.
func (s *SelectionService) AcrossCatalogs(ctx context.Context, avoid []string) ([]catalog.Requirement, error) {
	catalogs, err := s.repo.ListCatalogs()
	if err != nil {
		return nil, err
	}
	pool := make([]catalog.Requirement, 0)
	for _, c := range catalogs {
		pool = append(pool, c.Requirements...)
	}
	return eligibility.RankAcross(pool, catalog.NewIDSet(avoid...), s.proposalSize), nil
}
