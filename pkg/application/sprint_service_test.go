package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/riskaudit/pkg/application"
	"github.com/felixgeelhaar/riskaudit/pkg/domain"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/sprint"
)

func TestSprintService_StartNumbering(t *testing.T) {
	repo := newRepo()
	svc := application.NewSprintService(repo, repo, nil, nil, nil)
	ctx := context.Background()

	if err := svc.SaveConfig(ctx, sprint.Config{SprintNumber: 4, Capacity: 20, PointsPerRequirement: 2}); err != nil {
		t.Fatal(err)
	}
	sp, err := svc.Start(ctx, sprint.Params{TeamSize: 3})
	if err != nil {
		t.Fatal(err)
	}
	if sp.Number != 5 || sp.Capacity != 20 || sp.PointsPerRequirement != 2 || sp.TeamSize != 3 {
		t.Fatalf("unexpected sprint: %+v", sp)
	}

	if _, err := svc.Start(ctx, sprint.Params{}); !errors.Is(err, sprint.ErrSprintActive) {
		t.Fatalf("expected ErrSprintActive, got %v", err)
	}

	next, err := svc.Next(ctx, sprint.Params{})
	if err != nil {
		t.Fatal(err)
	}
	if next.Number != 6 {
		t.Fatalf("next sprint = %d, want 6", next.Number)
	}
	prev, _ := svc.Get(ctx, 5)
	if prev.IsActive {
		t.Fatal("previous sprint should be closed")
	}

	cfg, _ := svc.Config(ctx)
	if cfg.SprintNumber != 6 || cfg.IsDefault {
		t.Fatalf("config not refreshed: %+v", cfg)
	}
}

func TestSprintService_ConfigDefaultAndValidation(t *testing.T) {
	svc := application.NewSprintService(newRepo(), newRepo(), nil, nil, nil)
	ctx := context.Background()

	cfg, err := svc.Config(ctx)
	if err != nil || !cfg.IsDefault {
		t.Fatalf("expected default config, got %+v, %v", cfg, err)
	}
	if err := svc.SaveConfig(ctx, sprint.Config{TeamSize: -1}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Start(ctx, sprint.Params{Capacity: -5}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSprintService_AddRequirements(t *testing.T) {
	repo := newRepo()
	importCatalog(t, repo, "ISO", accessTree())
	issues := &MockTracker{FailFor: map[string]bool{"bak": true}}
	svc := application.NewSprintService(repo, repo, issues, nil, nil)
	ctx := context.Background()

	sp, _ := svc.Start(ctx, sprint.Params{Capacity: 8, PointsPerRequirement: 2})

	if _, err := svc.AddRequirements(ctx, sp.Number, []string{"mfa", "ghost"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	stored, _ := svc.Get(ctx, sp.Number)
	if len(stored.Requirements) != 0 {
		t.Fatal("nothing should be written when an id is unknown")
	}

	res, err := svc.AddRequirements(ctx, sp.Number, []string{"mfa", "pwd", "bak"})
	if err != nil {
		t.Fatalf("AddRequirements: %v", err)
	}
	if len(res.Added) != 3 || len(issues.Requests) != 3 {
		t.Fatalf("added %d, tracker saw %d", len(res.Added), len(issues.Requests))
	}
	if res.TrackerErrors["bak"] == "" {
		t.Fatal("tracker failure should be reported")
	}
	if res.Sprint.PointsUsed != 9 || !res.Sprint.OverCapacity {
		t.Fatalf("unexpected capacity view: used=%d over=%v", res.Sprint.PointsUsed, res.Sprint.OverCapacity)
	}

	stored, _ = svc.Get(ctx, sp.Number)
	if len(stored.Requirements) != 3 {
		t.Fatal("tracker failure must not block the sprint write")
	}
	if stored.Requirements[0].IssueKey != "AUD-mfa" || stored.Requirements[2].IssueKey != "" {
		t.Fatalf("unexpected issue keys: %+v", stored.Requirements)
	}

	again, err := svc.AddRequirements(ctx, sp.Number, []string{"mfa"})
	if err != nil || len(again.Added) != 0 || len(issues.Requests) != 3 {
		t.Fatalf("duplicates should be ignored: %+v, %v", again, err)
	}
}

func TestSprintService_AddRequirementsSavesBeforeTracker(t *testing.T) {
	repo := newRepo()
	importCatalog(t, repo, "ISO", accessTree())
	sprints := &FailingSprintRepo{Repository: repo}
	issues := &MockTracker{}
	svc := application.NewSprintService(sprints, repo, issues, nil, nil)
	ctx := context.Background()

	sp, err := svc.Start(ctx, sprint.Params{Capacity: 10})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	sprints.Fail = true
	if _, err := svc.AddRequirements(ctx, sp.Number, []string{"mfa", "bak"}); err == nil {
		t.Fatal("expected the failed sprint write to surface")
	}
	if len(issues.Requests) != 0 {
		t.Fatalf("no issue may be opened for an unsaved sprint, got %d", len(issues.Requests))
	}

	sprints.Fail = false
	stored, _ := svc.Get(ctx, sp.Number)
	if len(stored.Requirements) != 0 {
		t.Fatalf("expected an empty sprint, got %d entries", len(stored.Requirements))
	}
}

func TestSprintService_SaveConfigNeverMovesNumberBack(t *testing.T) {
	repo := newRepo()
	svc := application.NewSprintService(repo, repo, nil, nil, nil)
	ctx := context.Background()

	if err := svc.SaveConfig(ctx, sprint.Config{SprintNumber: 3}); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	if _, err := svc.Start(ctx, sprint.Params{}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := svc.SaveConfig(ctx, sprint.Config{SprintNumber: 1}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error when lowering the sprint number, got %v", err)
	}
	if err := svc.SaveConfig(ctx, sprint.Config{SprintNumber: 4, Capacity: 12}); err != nil {
		t.Fatalf("keeping the number must be allowed: %v", err)
	}

	if _, err := svc.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	next, err := svc.Start(ctx, sprint.Params{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if next.Number != 5 {
		t.Fatalf("sprint number reused: got %d, want 5", next.Number)
	}
}

func TestSprintService_ClosedSprintRejectsWrites(t *testing.T) {
	repo := newRepo()
	importCatalog(t, repo, "ISO", accessTree())
	svc := application.NewSprintService(repo, repo, nil, nil, nil)
	ctx := context.Background()

	sp, _ := svc.Start(ctx, sprint.Params{})
	if _, err := svc.AddRequirements(ctx, sp.Number, []string{"mfa"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Close(ctx, sp.Number); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Close(ctx, sp.Number); !errors.Is(err, sprint.ErrSprintClosed) {
		t.Errorf("close twice: %v", err)
	}
	if _, err := svc.AddRequirements(ctx, sp.Number, []string{"bak"}); !errors.Is(err, sprint.ErrSprintClosed) {
		t.Errorf("add: %v", err)
	}
	if err := svc.RemoveRequirement(ctx, sp.Number, "mfa"); !errors.Is(err, sprint.ErrSprintClosed) {
		t.Errorf("remove: %v", err)
	}
	name := "late"
	if _, err := svc.Modify(ctx, sp.Number, sprint.Updates{ProjectName: &name}); !errors.Is(err, sprint.ErrSprintClosed) {
		t.Errorf("modify: %v", err)
	}
	if _, err := svc.Active(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("no sprint should be active: %v", err)
	}
}

func TestSprintService_RemoveRequirement(t *testing.T) {
	repo := newRepo()
	id := importCatalog(t, repo, "ISO", accessTree())
	svc := application.NewSprintService(repo, repo, nil, nil, nil)
	ctx := context.Background()

	sp, _ := svc.Start(ctx, sprint.Params{})
	_, _ = svc.AddRequirements(ctx, sp.Number, []string{"mfa"})

	if err := svc.RemoveRequirement(ctx, sp.Number, "bak"); !errors.Is(err, sprint.ErrRequirementNotInSprint) {
		t.Fatalf("expected not in sprint, got %v", err)
	}
	if err := svc.RemoveRequirement(ctx, sp.Number, "mfa"); err != nil {
		t.Fatal(err)
	}
	if err := svc.RemoveRequirement(ctx, 99, "mfa"); !errors.Is(err, sprint.ErrSprintNotFound) {
		t.Fatalf("expected sprint not found, got %v", err)
	}

	c, _ := repo.LoadCatalog(id)
	if r, _ := c.Find("mfa"); r.NAudit != 0 {
		t.Fatal("removal must not touch audit counters")
	}
}

func TestSprintService_UpdateStoryPoints(t *testing.T) {
	repo := newRepo()
	id := importCatalog(t, repo, "ISO", accessTree())
	svc := application.NewSprintService(repo, repo, nil, nil, nil)
	ctx := context.Background()

	sp, _ := svc.Start(ctx, sprint.Params{PointsPerRequirement: 1})
	_, _ = svc.AddRequirements(ctx, sp.Number, []string{"mfa"})

	if err := svc.UpdateStoryPoints(ctx, "mfa", 8); err != nil {
		t.Fatal(err)
	}
	c, _ := repo.LoadCatalog(id)
	if r, _ := c.Find("mfa"); r.Effort == nil || *r.Effort != 8 {
		t.Fatal("catalog effort not updated")
	}
	stored, _ := svc.Get(ctx, sp.Number)
	if stored.Requirements[0].Effort != 8 {
		t.Fatal("snapshot effort not updated")
	}

	if err := svc.UpdateStoryPoints(ctx, "ghost", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := svc.UpdateStoryPoints(ctx, "mfa", -1); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSprintService_ModifyAndDeleteAll(t *testing.T) {
	repo := newRepo()
	svc := application.NewSprintService(repo, repo, nil, nil, nil)
	ctx := context.Background()

	sp, _ := svc.Start(ctx, sprint.Params{Capacity: 5})
	capacity := 12
	updated, err := svc.Modify(ctx, sp.Number, sprint.Updates{Capacity: &capacity})
	if err != nil || updated.Capacity != 12 {
		t.Fatalf("Modify = %+v, %v", updated, err)
	}

	n, err := svc.DeleteAll(ctx)
	if err != nil || n != 1 {
		t.Fatalf("DeleteAll = %d, %v", n, err)
	}
	if list, _ := svc.List(ctx); len(list) != 0 {
		t.Fatal("sprints should be gone")
	}
}
