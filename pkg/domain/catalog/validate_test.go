package catalog

import (
	"strings"
	"testing"
)

func TestValidate_AssignsMissingIDs(t *testing.T) {
	n := 0
	gen := func() string {
		n++
		return "gen-" + string(rune('0'+n))
	}
	kept, errs := Validate([]Node{{Section: "1", Text: "x", Important: 10}}, gen)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if kept[0].ID != "gen-1" {
		t.Fatalf("id = %q", kept[0].ID)
	}
}

func TestValidate_RejectsStructuralProblems(t *testing.T) {
	nodes := []Node{
		{ID: "a", Section: "1", Text: "a", Important: 10, Children: []Node{
			{ID: "a1", Section: "", Text: "blank section"},
			{ID: "a2", Section: "1.2", Text: "ok", Important: 10},
			{ID: "a3", Section: "3", Text: "single segment nested"},
		}},
		{ID: "a", Section: "2", Text: "duplicate", Children: []Node{{ID: "z", Section: "2.1"}}},
		{ID: "b", Section: "3.1", Text: "nested section at top"},
	}

	kept, errs := Validate(nodes, nil)
	if len(kept) != 1 || len(kept[0].Children) != 1 || kept[0].Children[0].ID != "a2" {
		t.Fatalf("unexpected kept tree: %+v", kept)
	}
	if len(errs) != 4 {
		t.Fatalf("expected 4 errors, got %d: %v", len(errs), errs)
	}
	if !strings.Contains(errs[2].Message, "duplicate id") || !strings.Contains(errs[2].Message, "1 descendants skipped") {
		t.Fatalf("unexpected duplicate message: %q", errs[2].Message)
	}
	if errs[0].Path != "requirements[0].children[0]" {
		t.Fatalf("unexpected path: %q", errs[0].Path)
	}
}

func TestValidate_ClampsImportance(t *testing.T) {
	kept, errs := Validate([]Node{
		{ID: "hi", Section: "1", Text: "x", Important: 250},
		{ID: "lo", Section: "2", Text: "x", Important: 0},
		{ID: "box", Section: "3"},
	}, nil)

	if kept[0].Important != 100 || kept[1].Important != 1 {
		t.Fatalf("importance not clamped: %d, %d", kept[0].Important, kept[1].Important)
	}
	if kept[2].Important != 0 {
		t.Fatal("containers keep their importance")
	}
	if len(errs) != 2 {
		t.Fatalf("expected 2 clamp reports, got %v", errs)
	}
}

func TestValidate_DropsNegativeEffort(t *testing.T) {
	neg := -3
	kept, errs := Validate([]Node{{ID: "a", Section: "1", Text: "x", Important: 5, Effort: &neg}}, nil)
	if kept[0].Effort != nil || len(errs) != 1 {
		t.Fatalf("negative effort should be dropped and reported: %+v %v", kept[0], errs)
	}
}
