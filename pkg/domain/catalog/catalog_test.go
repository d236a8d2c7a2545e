package catalog

import (
	"errors"
	"reflect"
	"testing"

	"github.com/felixgeelhaar/riskaudit/pkg/domain"
)

func TestCatalog_RemoveRequirement(t *testing.T) {
	c := NewCatalog("c1", "u", "ISO", "", "IMP")
	c.Requirements = Flatten(sampleTree(), "ISO")

	removed, err := c.RemoveRequirement("r1.1")
	if err != nil {
		t.Fatalf("RemoveRequirement: %v", err)
	}
	if !reflect.DeepEqual(removed, []string{"r1.1", "r1.1.1", "r1.1.2"}) {
		t.Fatalf("removed = %v", removed)
	}
	if got := ids(c.Requirements); !reflect.DeepEqual(got, []string{"r1", "r1.2", "r2"}) {
		t.Fatalf("remaining = %v", got)
	}
	root, _ := c.Find("r1")
	if !reflect.DeepEqual(root.ChildrenIDs, []string{"r1.2"}) {
		t.Fatalf("parent children = %v", root.ChildrenIDs)
	}
}

func TestCatalog_RemoveLeavesDanglingDependencies(t *testing.T) {
	c := NewCatalog("c1", "u", "ISO", "", "IMP")
	c.Requirements = Flatten(sampleTree(), "ISO")

	if _, err := c.RemoveRequirement("r1.2"); err != nil {
		t.Fatal(err)
	}
	r2, _ := c.Find("r2")
	if !reflect.DeepEqual(r2.Dependencies, []string{"r1.2"}) {
		t.Fatalf("dependencies should be left as-is, got %v", r2.Dependencies)
	}
}

func TestCatalog_RemoveMissing(t *testing.T) {
	c := NewCatalog("c1", "u", "ISO", "", "IMP")
	_, err := c.RemoveRequirement("nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCatalog_UpdateContent(t *testing.T) {
	c := NewCatalog("c1", "u", "ISO", "", "IMP")
	c.Requirements = Flatten(sampleTree(), "ISO")

	if err := c.UpdateContent("r1", "Access", "Now has content", 60); err != nil {
		t.Fatal(err)
	}
	r1, _ := c.Find("r1")
	if r1.IsContainer || r1.Important != 60 {
		t.Fatalf("unexpected requirement after update: %+v", r1)
	}

	err := c.UpdateContent("r1", "Access", "x", 101)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCatalog_UpdateContentToContainerClearsRisk(t *testing.T) {
	c := NewCatalog("c1", "u", "ISO", "", "IMP")
	c.Requirements = Flatten(sampleTree(), "ISO")
	leaf, _ := c.Find("r2")
	leaf.Risk = 42.5

	if err := c.UpdateContent("r2", "Backups", "  ", 50); err != nil {
		t.Fatal(err)
	}
	r2, _ := c.Find("r2")
	if !r2.IsContainer || r2.Risk != 0 {
		t.Fatalf("container kept risk: %+v", r2)
	}
}

func TestMarkAudited(t *testing.T) {
	reqs := Flatten(sampleTree(), "")
	out, n := MarkAudited(reqs, NewIDSet("r2", "r1.2", "unknown"), 6)

	if n != 2 {
		t.Fatalf("updated = %d, want 2", n)
	}
	for _, r := range out {
		switch r.ID {
		case "r2", "r1.2":
			if r.NAudit != 1 || r.LastAuditSprint == nil || *r.LastAuditSprint != 6 {
				t.Errorf("%s not marked: %+v", r.ID, r)
			}
		default:
			if r.NAudit != 0 || r.LastAuditSprint != nil {
				t.Errorf("%s should be untouched", r.ID)
			}
		}
	}
	if reqs[5].NAudit != 0 {
		t.Fatal("input slice must not be mutated")
	}

	again, _ := MarkAudited(out, NewIDSet("r2"), 7)
	if again[5].NAudit != 2 {
		t.Fatalf("second submission should advance again, got %d", again[5].NAudit)
	}
}
