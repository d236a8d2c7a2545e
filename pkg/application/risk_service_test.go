package application_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/felixgeelhaar/riskaudit/pkg/application"
	"github.com/felixgeelhaar/riskaudit/pkg/domain"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/catalog"
)

func TestRiskService_ByCatalog(t *testing.T) {
	repo := newRepo()
	id := importCatalog(t, repo, "ISO", accessTree())
	svc := application.NewRiskService(repo, nil, nil)

	c, err := svc.ByCatalog(context.Background(), id, 5)
	if err != nil {
		t.Fatal(err)
	}
	stored, _ := repo.LoadCatalog(id)
	for i, r := range stored.Requirements {
		if r.Risk != c.Requirements[i].Risk {
			t.Fatalf("stored risk differs for %s", r.ID)
		}
		if r.IsContainer && r.Risk != 0 {
			t.Fatalf("container %s scored %v", r.ID, r.Risk)
		}
	}
	bak, _ := stored.Find("bak")
	if math.Abs(bak.Risk-52.5) > 1e-9 {
		t.Fatalf("bak risk = %v, want 52.5", bak.Risk)
	}
	auth, _ := stored.Find("auth")
	if auth.Descendants != 2 {
		t.Fatalf("auth descendants = %d", auth.Descendants)
	}

	if _, err := svc.ByCatalog(context.Background(), "missing", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRiskService_AllCatalogsPartialFailure(t *testing.T) {
	repo := newRepo()
	importCatalog(t, repo, "A", []catalog.Node{{ID: "a", Section: "1", Text: "a", Important: 10}})
	importCatalog(t, repo, "B", []catalog.Node{{ID: "b", Section: "1", Text: "b", Important: 10}})

	list, _ := repo.ListCatalogs()
	failing := &FailingCatalogRepo{Repository: repo, FailOn: map[string]bool{list[1].ID: true}}
	svc := application.NewRiskService(failing, nil, nil)

	updated, err := svc.AllCatalogs(context.Background(), 3)
	var partial *domain.PartialFailureError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialFailureError, got %v", err)
	}
	if partial.Failed != list[1].ID || len(updated) != 1 || updated[0] != list[0].ID {
		t.Fatalf("unexpected partial failure: %+v updated=%v", partial, updated)
	}

	first, _ := repo.LoadCatalog(list[0].ID)
	second, _ := repo.LoadCatalog(list[1].ID)
	if first.Requirements[0].Risk == 0 {
		t.Fatal("first catalog should stay updated")
	}
	if second.Requirements[0].Risk != 0 {
		t.Fatal("failed catalog should be untouched")
	}
}

func TestRiskService_AllCatalogs(t *testing.T) {
	repo := newRepo()
	importCatalog(t, repo, "A", accessTree())
	importCatalog(t, repo, "B", accessTree())

	updated, err := application.NewRiskService(repo, nil, nil).AllCatalogs(context.Background(), 2)
	if err != nil || len(updated) != 2 {
		t.Fatalf("AllCatalogs = %v, %v", updated, err)
	}
}
