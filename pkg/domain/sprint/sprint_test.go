package sprint_test

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/riskaudit/pkg/domain"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/catalog"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/sprint"
)

func newSprint() *sprint.Sprint {
	s := sprint.New(3, sprint.Params{Capacity: 10, PointsPerRequirement: 2})
	_, _ = s.Add(
		sprint.Entry{ID: "a", Effort: 4},
		sprint.Entry{ID: "b", Effort: 5},
	)
	return s
}

func TestEntryFrom_EffortFallback(t *testing.T) {
	override := 8
	withEffort := sprint.EntryFrom(catalog.Requirement{ID: "x", Effort: &override, Risk: 12.5}, "c1", 3)
	without := sprint.EntryFrom(catalog.Requirement{ID: "y"}, "c1", 3)

	if withEffort.Effort != 8 || without.Effort != 3 {
		t.Fatalf("effort = %d / %d, want 8 / 3", withEffort.Effort, without.Effort)
	}
	if withEffort.Risk != 12.5 || withEffort.CatalogID != "c1" {
		t.Fatalf("snapshot lost fields: %+v", withEffort)
	}
}

func TestSprint_AddIgnoresDuplicates(t *testing.T) {
	s := newSprint()
	added, err := s.Add(sprint.Entry{ID: "a"}, sprint.Entry{ID: "c", Effort: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(added) != 1 || added[0].ID != "c" {
		t.Fatalf("added = %+v", added)
	}
	if len(s.Requirements) != 3 {
		t.Fatalf("snapshot size = %d", len(s.Requirements))
	}
}

func TestSprint_Capacity(t *testing.T) {
	s := newSprint()
	if s.PointsUsed() != 9 {
		t.Fatalf("PointsUsed = %d", s.PointsUsed())
	}
	if s.CapacityUsage() != 0.9 || s.OverCapacity() {
		t.Fatalf("usage = %v over = %v", s.CapacityUsage(), s.OverCapacity())
	}
	if _, err := s.SetEffort("b", 7); err != nil {
		t.Fatal(err)
	}
	if !s.OverCapacity() {
		t.Fatal("expected sprint to be over capacity")
	}

	empty := sprint.New(1, sprint.Params{})
	if empty.CapacityUsage() != 0 || empty.OverCapacity() {
		t.Fatal("a sprint without capacity reports no usage")
	}
}

func TestSprint_Remove(t *testing.T) {
	s := newSprint()
	if err := s.Remove("a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	err := s.Remove("a")
	if !errors.Is(err, sprint.ErrRequirementNotInSprint) || !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-in-sprint error, got %v", err)
	}
}

func TestSprint_MarkAudited(t *testing.T) {
	s := newSprint()
	n, err := s.MarkAudited(catalog.NewIDSet("b", "zzz"), 3)
	if err != nil || n != 1 {
		t.Fatalf("MarkAudited = %d, %v", n, err)
	}
	if s.Requirements[1].NAudit != 1 || *s.Requirements[1].LastAuditSprint != 3 {
		t.Fatalf("snapshot not advanced: %+v", s.Requirements[1])
	}
}

func TestSprint_CloseIsFinal(t *testing.T) {
	s := newSprint()
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if s.IsActive || s.Status() != sprint.StateClosed {
		t.Fatal("sprint should be closed")
	}

	if err := s.Close(); !errors.Is(err, sprint.ErrSprintClosed) {
		t.Errorf("second close: expected ErrSprintClosed, got %v", err)
	}
	if _, err := s.Add(sprint.Entry{ID: "z"}); !errors.Is(err, sprint.ErrSprintClosed) {
		t.Errorf("Add on closed sprint: %v", err)
	}
	if err := s.Remove("a"); !errors.Is(err, sprint.ErrSprintClosed) {
		t.Errorf("Remove on closed sprint: %v", err)
	}
	if _, err := s.SetEffort("a", 1); !errors.Is(err, sprint.ErrSprintClosed) {
		t.Errorf("SetEffort on closed sprint: %v", err)
	}
	capacity := 1
	if err := s.Apply(sprint.Updates{Capacity: &capacity}); !errors.Is(err, sprint.ErrSprintClosed) {
		t.Errorf("Apply on closed sprint: %v", err)
	}
}

func TestSprint_Apply(t *testing.T) {
	s := newSprint()
	team, name := 4, "Q3 audit"
	if err := s.Apply(sprint.Updates{TeamSize: &team, ProjectName: &name}); err != nil {
		t.Fatal(err)
	}
	if s.TeamSize != 4 || s.ProjectName != "Q3 audit" || s.Capacity != 10 {
		t.Fatalf("unexpected sprint after apply: %+v", s)
	}
}

func TestLifecycle(t *testing.T) {
	lc, err := sprint.NewLifecycle(1, sprint.StateActive)
	if err != nil {
		t.Fatalf("NewLifecycle: %v", err)
	}
	if err := lc.Fire("reopen"); err == nil {
		t.Error("unknown event should be rejected")
	}
	if err := lc.Fire(sprint.EventClose); err != nil {
		t.Fatalf("close: %v", err)
	}
	if lc.Current() != sprint.StateClosed {
		t.Fatalf("state = %s", lc.Current())
	}
	if err := lc.Fire(sprint.EventClose); err == nil {
		t.Error("closed sprint cannot close again")
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := (sprint.Config{Capacity: 20, PointsPerRequirement: 2}).Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	err := sprint.Config{Capacity: -1}.Validate()
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	neg := -2
	if err := sprint.Check(sprint.Updates{Duration: &neg}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for negative update, got %v", err)
	}
	if !sprint.DefaultConfig().IsDefault {
		t.Fatal("default config should be flagged")
	}
}
