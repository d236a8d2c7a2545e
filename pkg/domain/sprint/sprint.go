// Package sprint models numbered audit sprints holding snapshots of the
// requirements selected for audit.
package sprint

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/riskaudit/pkg/domain/catalog"
)

// Entry is the snapshot of one requirement taken when it joined a sprint.
// It is decoupled from the live catalog.
type Entry struct {
	ID              string  `json:"id"`
	CatalogID       string  `json:"catalog_id"`
	Heading         string  `json:"heading"`
	Text            string  `json:"text"`
	Important       int     `json:"important"`
	Effort          int     `json:"effort"`
	Risk            float64 `json:"risk"`
	NAudit          int     `json:"n_audit"`
	LastAuditSprint *int    `json:"last_audit_sprint,omitempty"`
	IssueKey        string  `json:"issue_key,omitempty"`
}

// EntryFrom snapshots r. Effort falls back to defaultPoints when the
// requirement carries no override.
func EntryFrom(r catalog.Requirement, catalogID string, defaultPoints int) Entry {
	var last *int
	if r.LastAuditSprint != nil {
		v := *r.LastAuditSprint
		last = &v
	}
	return Entry{
		ID:              r.ID,
		CatalogID:       catalogID,
		Heading:         r.Heading,
		Text:            r.Text,
		Important:       r.Important,
		Effort:          r.EffortOr(defaultPoints),
		Risk:            r.Risk,
		NAudit:          r.NAudit,
		LastAuditSprint: last,
	}
}

// Params are the capacity and velocity parameters of a sprint.
type Params struct {
	Capacity             int    `json:"capacity" validate:"gte=0"`
	PointsPerRequirement int    `json:"points_per_requirement" validate:"gte=0"`
	TeamSize             int    `json:"team_size" validate:"gte=0"`
	Duration             int    `json:"duration" validate:"gte=0"`
	ProjectName          string `json:"project_name,omitempty"`
}

// Updates holds the optional fields modifySprint may change.
type Updates struct {
	Capacity             *int    `json:"capacity,omitempty" validate:"omitempty,gte=0"`
	PointsPerRequirement *int    `json:"points_per_requirement,omitempty" validate:"omitempty,gte=0"`
	TeamSize             *int    `json:"team_size,omitempty" validate:"omitempty,gte=0"`
	Duration             *int    `json:"duration,omitempty" validate:"omitempty,gte=0"`
	ProjectName          *string `json:"project_name,omitempty"`
}

// Sprint is a numbered snapshot of requirements selected for audit.
// Once closed it is never reopened.
type Sprint struct {
	Number               int       `json:"number"`
	Capacity             int       `json:"capacity"`
	PointsPerRequirement int       `json:"points_per_requirement"`
	TeamSize             int       `json:"team_size"`
	Duration             int       `json:"duration"`
	ProjectName          string    `json:"project_name"`
	Requirements         []Entry   `json:"requirements"`
	IsActive             bool      `json:"is_active"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// New creates an active, empty sprint.
func New(number int, p Params) *Sprint {
	now := time.Now()
	return &Sprint{
		Number:               number,
		Capacity:             p.Capacity,
		PointsPerRequirement: p.PointsPerRequirement,
		TeamSize:             p.TeamSize,
		Duration:             p.Duration,
		ProjectName:          p.ProjectName,
		Requirements:         []Entry{},
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func (s *Sprint) indexOf(id string) int {
	for i := range s.Requirements {
		if s.Requirements[i].ID == id {
			return i
		}
	}
	return -1
}

// Has reports whether the snapshot holds id.
func (s *Sprint) Has(id string) bool {
	return s.indexOf(id) >= 0
}

// IDs returns the ids of the snapshot in order.
func (s *Sprint) IDs() []string {
	out := make([]string, len(s.Requirements))
	for i, e := range s.Requirements {
		out[i] = e.ID
	}
	return out
}

func (s *Sprint) ensureActive() error {
	if !s.IsActive {
		return fmt.Errorf("sprint %d: %w", s.Number, ErrSprintClosed)
	}
	return nil
}

// Add appends entries whose id is not yet in the snapshot and returns the
// entries actually added.
func (s *Sprint) Add(entries ...Entry) ([]Entry, error) {
	if err := s.ensureActive(); err != nil {
		return nil, err
	}
	added := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if s.Has(e.ID) {
			continue
		}
		s.Requirements = append(s.Requirements, e)
		added = append(added, e)
	}
	if len(added) > 0 {
		s.touch()
	}
	return added, nil
}

// Remove drops id from the snapshot. Audit counters are not touched.
func (s *Sprint) Remove(id string) error {
	if err := s.ensureActive(); err != nil {
		return err
	}
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("sprint %d: %s: %w", s.Number, id, ErrRequirementNotInSprint)
	}
	s.Requirements = append(s.Requirements[:i], s.Requirements[i+1:]...)
	s.touch()
	return nil
}

// SetEffort overrides the effort of id in the snapshot. It reports whether
// the snapshot held id.
func (s *Sprint) SetEffort(id string, points int) (bool, error) {
	if err := s.ensureActive(); err != nil {
		return false, err
	}
	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	s.Requirements[i].Effort = points
	s.touch()
	return true, nil
}

// SetIssueKey records the tracker issue created for id.
func (s *Sprint) SetIssueKey(id, key string) {
	if i := s.indexOf(id); i >= 0 {
		s.Requirements[i].IssueKey = key
	}
}

// MarkAudited advances the audit snapshot of every listed entry and returns
// how many were touched.
func (s *Sprint) MarkAudited(ids catalog.IDSet, sprintNumber int) (int, error) {
	if err := s.ensureActive(); err != nil {
		return 0, err
	}
	updated := 0
	for i := range s.Requirements {
		e := &s.Requirements[i]
		if !ids.Has(e.ID) {
			continue
		}
		n := sprintNumber
		e.NAudit++
		e.LastAuditSprint = &n
		updated++
	}
	if updated > 0 {
		s.touch()
	}
	return updated, nil
}

// Apply changes the parameters named in u.
func (s *Sprint) Apply(u Updates) error {
	if err := s.ensureActive(); err != nil {
		return err
	}
	if u.Capacity != nil {
		s.Capacity = *u.Capacity
	}
	if u.PointsPerRequirement != nil {
		s.PointsPerRequirement = *u.PointsPerRequirement
	}
	if u.TeamSize != nil {
		s.TeamSize = *u.TeamSize
	}
	if u.Duration != nil {
		s.Duration = *u.Duration
	}
	if u.ProjectName != nil {
		s.ProjectName = *u.ProjectName
	}
	s.touch()
	return nil
}

// Close ends the sprint through its lifecycle.
func (s *Sprint) Close() error {
	lc, err := NewLifecycle(s.Number, s.Status())
	if err != nil {
		return err
	}
	if err := lc.Fire(EventClose); err != nil {
		return fmt.Errorf("sprint %d: %w", s.Number, ErrSprintClosed)
	}
	s.IsActive = lc.Current() == StateActive
	s.touch()
	return nil
}

// Status returns the lifecycle state of the sprint.
func (s *Sprint) Status() string {
	if s.IsActive {
		return StateActive
	}
	return StateClosed
}

// PointsUsed sums the effort of every entry.
func (s *Sprint) PointsUsed() int {
	total := 0
	for _, e := range s.Requirements {
		total += e.Effort
	}
	return total
}

// CapacityUsage is PointsUsed divided by Capacity, or 0 without capacity.
func (s *Sprint) CapacityUsage() float64 {
	if s.Capacity <= 0 {
		return 0
	}
	return float64(s.PointsUsed()) / float64(s.Capacity)
}

// OverCapacity reports whether the snapshot needs more points than planned.
func (s *Sprint) OverCapacity() bool {
	return s.Capacity > 0 && s.PointsUsed() > s.Capacity
}

func (s *Sprint) touch() {
	s.UpdatedAt = time.Now()
}

// Repository persists sprints under sprint-<n> keys and the default
// configuration under config-sprint.
type Repository interface {
	LoadSprint(number int) (*Sprint, error)
	SaveSprint(s *Sprint) error
	ListSprints() ([]*Sprint, error)
	DeleteAllSprints() (int, error)
	LoadConfig() (Config, error)
	SaveConfig(c Config) error
}
