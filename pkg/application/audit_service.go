package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/riskaudit/pkg/domain"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/catalog"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/sprint"
)

// AuditService applies audit completion to catalogs and the sprint snapshot.
type AuditService struct {
	catalogs catalog.Repository
	sprints  sprint.Repository
	rec      recorder
	logger   *slog.Logger
}

func NewAuditService(catalogs catalog.Repository, sprints sprint.Repository, journal domain.Journal, logger *slog.Logger) *AuditService {
	rec := newRecorder(journal, logger)
	return &AuditService{catalogs: catalogs, sprints: sprints, rec: rec, logger: rec.logger}
}

// MarkAsAudited advances nAudit and lastAuditSprint of every matching
// requirement in every catalog, then in the snapshot of sprintNumber while
// that sprint is active. It returns the number of catalog requirements
// updated. Repeated submissions advance again.
func (s *AuditService) MarkAsAudited(ctx context.Context, ids []string, sprintNumber int) (int, error) {
	if sprintNumber <= 0 {
		return 0, fmt.Errorf("sprint number must be positive, got %d: %w", sprintNumber, domain.ErrValidation)
	}
	want := catalog.NewIDSet(ids...)

	catalogs, err := s.catalogs.ListCatalogs()
	if err != nil {
		return 0, err
	}

	updatedCount := 0
	completed := make([]string, 0)
	for _, c := range catalogs {
		reqs, n := catalog.MarkAudited(c.Requirements, want, sprintNumber)
		if n == 0 {
			continue
		}
		c.Requirements = reqs
		c.UpdatedAt = nowUTC()
		if err := s.catalogs.SaveCatalog(c); err != nil {
			s.logger.Warn("mark audited stopped", "catalog_id", c.ID, "completed", len(completed), "error", err)
			return updatedCount, &domain.PartialFailureError{
				Operation: "markAsAudited",
				Completed: completed,
				Failed:    c.ID,
				Err:       err,
			}
		}
		completed = append(completed, c.ID)
		updatedCount += n
	}

	s.markSnapshot(want, sprintNumber)

	s.rec.record(ActionAuditMark, map[string]interface{}{
		"requirement_ids": ids,
		"sprint":          sprintNumber,
		"updated":         updatedCount,
	})
	return updatedCount, nil
}

func (s *AuditService) markSnapshot(want catalog.IDSet, sprintNumber int) {
	sp, err := s.sprints.LoadSprint(sprintNumber)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Warn("sprint snapshot not updated", "sprint", sprintNumber, "reason", "not found")
		return
	}
	if err != nil {
		s.logger.Warn("sprint snapshot not updated", "sprint", sprintNumber, "error", err)
		return
	}
	n, err := sp.MarkAudited(want, sprintNumber)
	if err != nil {
		s.logger.Warn("sprint snapshot not updated", "sprint", sprintNumber, "error", err)
		return
	}
	if n == 0 {
		return
	}
	if err := s.sprints.SaveSprint(sp); err != nil {
		s.logger.Warn("sprint snapshot not saved", "sprint", sprintNumber, "error", err)
	}
}
