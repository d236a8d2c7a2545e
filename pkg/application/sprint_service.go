package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/riskaudit/pkg/domain"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/catalog"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/sprint"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/tracker"
)

// SprintView is a sprint with its capacity figures.
type SprintView struct {
	*sprint.Sprint
	PointsUsed    int     `json:"points_used"`
	CapacityUsage float64 `json:"capacity_usage"`
	OverCapacity  bool    `json:"over_capacity"`
}

// ViewOf derives the capacity figures of s.
func ViewOf(s *sprint.Sprint) SprintView {
	return SprintView{
		Sprint:        s,
		PointsUsed:    s.PointsUsed(),
		CapacityUsage: s.CapacityUsage(),
		OverCapacity:  s.OverCapacity(),
	}
}

// AddResult reports an addRequirementsToSprint call.
type AddResult struct {
	Sprint SprintView     `json:"sprint"`
	Added  []sprint.Entry `json:"added"`
	// TrackerErrors maps requirement ids to issue tracker failures.
	TrackerErrors map[string]string `json:"tracker_errors,omitempty"`
}

// SprintService manages sprint lifecycle and snapshots.
type SprintService struct {
	sprints  sprint.Repository
	catalogs catalog.Repository
	tracker  tracker.IssueTracker
	rec      recorder
	logger   *slog.Logger
}

func NewSprintService(sprints sprint.Repository, catalogs catalog.Repository, issues tracker.IssueTracker, journal domain.Journal, logger *slog.Logger) *SprintService {
	if issues == nil {
		issues = tracker.Noop{}
	}
	rec := newRecorder(journal, logger)
	return &SprintService{sprints: sprints, catalogs: catalogs, tracker: issues, rec: rec, logger: rec.logger}
}

// Config returns the stored default configuration, or the built-in default
// flagged IsDefault.
func (s *SprintService) Config(ctx context.Context) (sprint.Config, error) {
	return s.sprints.LoadConfig()
}

// SaveConfig stores the default configuration. The sprint number may only
// move forward so numbers already handed out are never reused.
func (s *SprintService) SaveConfig(ctx context.Context, cfg sprint.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	current, err := s.sprints.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.SprintNumber < current.SprintNumber {
		return fmt.Errorf("sprint number %d is below the last assigned %d: %w",
			cfg.SprintNumber, current.SprintNumber, domain.ErrValidation)
	}
	if err := s.sprints.SaveConfig(cfg); err != nil {
		return err
	}
	s.rec.record(ActionConfigSave, map[string]interface{}{"sprint_number": cfg.SprintNumber})
	return nil
}

// Active returns the highest-numbered active sprint.
func (s *SprintService) Active(ctx context.Context) (*sprint.Sprint, error) {
	all, err := s.sprints.ListSprints()
	if err != nil {
		return nil, err
	}
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].IsActive {
			return all[i], nil
		}
	}
	return nil, fmt.Errorf("no active sprint: %w", sprint.ErrSprintNotFound)
}

func (s *SprintService) Get(ctx context.Context, number int) (*sprint.Sprint, error) {
	return s.sprints.LoadSprint(number)
}

func (s *SprintService) List(ctx context.Context) ([]*sprint.Sprint, error) {
	return s.sprints.ListSprints()
}

// Start opens the next sprint. Parameters left at zero take the configured
// defaults. The number is one past both the highest stored sprint and the
// configured sprint number.
func (s *SprintService) Start(ctx context.Context, p sprint.Params) (*sprint.Sprint, error) {
	if err := sprint.Check(p); err != nil {
		return nil, err
	}
	all, err := s.sprints.ListSprints()
	if err != nil {
		return nil, err
	}
	cfg, err := s.sprints.LoadConfig()
	if err != nil {
		return nil, err
	}

	last := cfg.SprintNumber
	for _, sp := range all {
		if sp.IsActive {
			return nil, fmt.Errorf("sprint %d: %w", sp.Number, sprint.ErrSprintActive)
		}
		if sp.Number > last {
			last = sp.Number
		}
	}

	defaults := cfg.Params()
	if p.Capacity == 0 {
		p.Capacity = defaults.Capacity
	}
	if p.PointsPerRequirement == 0 {
		p.PointsPerRequirement = defaults.PointsPerRequirement
	}
	if p.TeamSize == 0 {
		p.TeamSize = defaults.TeamSize
	}
	if p.Duration == 0 {
		p.Duration = defaults.Duration
	}

	sp := sprint.New(last+1, p)
	if err := s.sprints.SaveSprint(sp); err != nil {
		return nil, err
	}
	cfg.SprintNumber = sp.Number
	if err := s.sprints.SaveConfig(cfg); err != nil {
		s.logger.Warn("sprint config not refreshed", "sprint", sp.Number, "error", err)
	}

	s.rec.record(ActionSprintStart, map[string]interface{}{"sprint": sp.Number, "capacity": sp.Capacity})
	return sp, nil
}

// Close ends sprint number.
func (s *SprintService) Close(ctx context.Context, number int) (*sprint.Sprint, error) {
	sp, err := s.sprints.LoadSprint(number)
	if err != nil {
		return nil, err
	}
	if err := sp.Close(); err != nil {
		return nil, err
	}
	if err := s.sprints.SaveSprint(sp); err != nil {
		return nil, err
	}
	s.rec.record(ActionSprintClose, map[string]interface{}{"sprint": number, "points_used": sp.PointsUsed()})
	return sp, nil
}

// Next closes the active sprint, if any, and starts the following one.
func (s *SprintService) Next(ctx context.Context, p sprint.Params) (*sprint.Sprint, error) {
	active, err := s.Active(ctx)
	switch {
	case err == nil:
		if _, err := s.Close(ctx, active.Number); err != nil {
			return nil, err
		}
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}
	return s.Start(ctx, p)
}

// AddRequirements snapshots requirements into an active sprint. Every id is
// resolved before anything is written. Ids already in the sprint are
// ignored. Once the snapshot is stored each new entry is offered to the
// issue tracker; tracker failures are reported on the result and the issue
// keys are stored best-effort.
func (s *SprintService) AddRequirements(ctx context.Context, number int, ids []string) (*AddResult, error) {
	sp, err := s.sprints.LoadSprint(number)
	if err != nil {
		return nil, err
	}
	if !sp.IsActive {
		return nil, fmt.Errorf("sprint %d: %w", number, sprint.ErrSprintClosed)
	}

	entries, err := s.resolve(ids, sp.PointsPerRequirement)
	if err != nil {
		return nil, err
	}
	added, err := sp.Add(entries...)
	if err != nil {
		return nil, err
	}

	if err := s.sprints.SaveSprint(sp); err != nil {
		return nil, err
	}
	s.rec.record(ActionSprintAdd, map[string]interface{}{"sprint": number, "added": len(added)})

	result := &AddResult{Added: added}
	if s.offerToTracker(ctx, sp, added, result) {
		if err := s.sprints.SaveSprint(sp); err != nil {
			s.logger.Warn("issue keys not stored", "sprint", number, "error", err)
		}
	}
	result.Sprint = ViewOf(sp)
	return result, nil
}

// offerToTracker opens one issue per added entry after the sprint write.
// It reports whether any issue key was set on sp.
func (s *SprintService) offerToTracker(ctx context.Context, sp *sprint.Sprint, added []sprint.Entry, result *AddResult) bool {
	keyed := false
	for _, e := range added {
		ref, err := s.tracker.CreateIssue(ctx, tracker.IssueRequest{
			RequirementID: e.ID,
			CatalogID:     e.CatalogID,
			SprintNumber:  sp.Number,
			Summary:       issueSummary(e),
			Description:   e.Text,
			Effort:        e.Effort,
			Risk:          e.Risk,
		})
		if err != nil {
			s.logger.Warn("issue tracker failed", "sprint", sp.Number, "requirement_id", e.ID, "error", err)
			if result.TrackerErrors == nil {
				result.TrackerErrors = make(map[string]string)
			}
			result.TrackerErrors[e.ID] = err.Error()
			continue
		}
		if ref.Key != "" {
			sp.SetIssueKey(e.ID, ref.Key)
			keyed = true
		}
	}
	return keyed
}

func issueSummary(e sprint.Entry) string {
	if e.Heading != "" {
		return e.Heading
	}
	return "Audit requirement " + e.ID
}

// resolve snapshots ids from the first catalog holding each of them.
func (s *SprintService) resolve(ids []string, defaultPoints int) ([]sprint.Entry, error) {
	catalogs, err := s.catalogs.ListCatalogs()
	if err != nil {
		return nil, err
	}
	out := make([]sprint.Entry, 0, len(ids))
	for _, id := range ids {
		var entry *sprint.Entry
		for _, c := range catalogs {
			if r, ok := c.Find(id); ok {
				e := sprint.EntryFrom(*r, c.ID, defaultPoints)
				entry = &e
				break
			}
		}
		if entry == nil {
			return nil, fmt.Errorf("%s: %w", id, catalog.ErrRequirementNotFound)
		}
		out = append(out, *entry)
	}
	return out, nil
}

// Modify changes the parameters of an active sprint.
func (s *SprintService) Modify(ctx context.Context, number int, u sprint.Updates) (*sprint.Sprint, error) {
	if err := sprint.Check(u); err != nil {
		return nil, err
	}
	sp, err := s.sprints.LoadSprint(number)
	if err != nil {
		return nil, err
	}
	if err := sp.Apply(u); err != nil {
		return nil, err
	}
	if err := s.sprints.SaveSprint(sp); err != nil {
		return nil, err
	}
	s.rec.record(ActionSprintModify, map[string]interface{}{"sprint": number})
	return sp, nil
}

// RemoveRequirement drops id from the snapshot of an active sprint. Audit
// counters are not touched.
func (s *SprintService) RemoveRequirement(ctx context.Context, number int, id string) error {
	sp, err := s.sprints.LoadSprint(number)
	if err != nil {
		return err
	}
	if err := sp.Remove(id); err != nil {
		return err
	}
	if err := s.sprints.SaveSprint(sp); err != nil {
		return err
	}
	s.rec.record(ActionSprintRemove, map[string]interface{}{"sprint": number, "requirement_id": id})
	return nil
}

// UpdateStoryPoints overrides the effort of id in every catalog holding it
// and in the active sprint snapshot.
func (s *SprintService) UpdateStoryPoints(ctx context.Context, id string, points int) error {
	if points < 0 {
		return fmt.Errorf("story points must not be negative, got %d: %w", points, domain.ErrValidation)
	}
	catalogs, err := s.catalogs.ListCatalogs()
	if err != nil {
		return err
	}

	completed := make([]string, 0)
	for _, c := range catalogs {
		if !c.SetEffort(id, points) {
			continue
		}
		c.UpdatedAt = nowUTC()
		if err := s.catalogs.SaveCatalog(c); err != nil {
			return &domain.PartialFailureError{
				Operation: "updateRequirementStoryPoints",
				Completed: completed,
				Failed:    c.ID,
				Err:       err,
			}
		}
		completed = append(completed, c.ID)
	}
	if len(completed) == 0 {
		return fmt.Errorf("%s: %w", id, catalog.ErrRequirementNotFound)
	}

	active, err := s.Active(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if active != nil {
		changed, err := active.SetEffort(id, points)
		if err != nil {
			return err
		}
		if changed {
			if err := s.sprints.SaveSprint(active); err != nil {
				return err
			}
		}
	}

	s.rec.record(ActionRequirementPoints, map[string]interface{}{"requirement_id": id, "points": points})
	return nil
}

// DeleteAll removes every sprint and returns how many were deleted.
func (s *SprintService) DeleteAll(ctx context.Context) (int, error) {
	n, err := s.sprints.DeleteAllSprints()
	if err != nil {
		return n, err
	}
	s.rec.record(ActionSprintClear, map[string]interface{}{"deleted": n})
	return n, nil
}
