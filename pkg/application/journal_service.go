package application

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/riskaudit/pkg/domain"
)

// Journal actions recorded by the services.
const (
	ActionCatalogImport     = "catalog.import"
	ActionCatalogCreate     = "catalog.create"
	ActionCatalogDelete     = "catalog.delete"
	ActionRequirementUpdate = "requirement.update"
	ActionRequirementDelete = "requirement.delete"
	ActionRequirementPoints = "requirement.points"
	ActionRiskCalculate     = "risk.calculate"
	ActionAuditMark         = "audit.mark"
	ActionSprintStart       = "sprint.start"
	ActionSprintClose       = "sprint.close"
	ActionSprintAdd         = "sprint.add"
	ActionSprintRemove      = "sprint.remove"
	ActionSprintModify      = "sprint.modify"
	ActionSprintClear       = "sprint.clear"
	ActionConfigSave        = "config.save"
)

// DefaultActor is recorded when the caller does not name one.
const DefaultActor = "riskaudit"

// JournalService keeps the hash-chained operation journal.
type JournalService struct {
	mu   sync.Mutex
	repo domain.EventRepository
}

var _ domain.Journal = (*JournalService)(nil)

func NewJournalService(repo domain.EventRepository) *JournalService {
	return &JournalService{repo: repo}
}

func (s *JournalService) Record(action string, actor string, metadata map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Get the latest event to continue the hash chain
	events, err := s.repo.LoadEvents()
	if err != nil {
		return fmt.Errorf("load journal: %w", err)
	}
	prevHash := ""
	timestamp := time.Now().UTC()
	if len(events) > 0 {
		last := events[len(events)-1]
		prevHash = last.Hash
		// Keys sort by timestamp, so it must strictly increase.
		if !timestamp.After(last.Timestamp) {
			timestamp = last.Timestamp.Add(time.Nanosecond)
		}
	}

	if actor == "" {
		actor = DefaultActor
	}
	event := domain.Event{
		ID:        uuid.New().String(),
		Timestamp: timestamp,
		Action:    action,
		Actor:     actor,
		Metadata:  metadata,
		PrevHash:  prevHash,
	}
	event.Hash = event.CalculateHash()

	return s.repo.AppendEvent(event)
}

func (s *JournalService) Timeline() ([]domain.Event, error) {
	return s.repo.LoadEvents()
}

// VerifyIntegrity recomputes the chain and returns every broken link.
func (s *JournalService) VerifyIntegrity() ([]string, error) {
	events, err := s.repo.LoadEvents()
	if err != nil {
		return nil, err
	}

	var violations []string
	lastHash := ""

	for i, e := range events {
		if e.PrevHash != lastHash {
			violations = append(violations, fmt.Sprintf("Event %d (%s): PrevHash mismatch. Journal broken.", i, e.ID))
		}
		if e.Hash != e.CalculateHash() {
			violations = append(violations, fmt.Sprintf("Event %d (%s): Content hash mismatch. Possible tampering.", i, e.ID))
		}
		lastHash = e.Hash
	}

	return violations, nil
}

// recorder writes journal entries on behalf of a service. Journal failures
// are logged and never fail the operation.
type recorder struct {
	journal domain.Journal
	logger  *slog.Logger
}

func newRecorder(journal domain.Journal, logger *slog.Logger) recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return recorder{journal: journal, logger: logger}
}

func (r recorder) record(action string, metadata map[string]interface{}) {
	if r.journal == nil {
		return
	}
	if err := r.journal.Record(action, DefaultActor, metadata); err != nil {
		r.logger.Warn("journal write failed", "action", action, "error", err)
	}
}
