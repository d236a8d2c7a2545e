package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/riskaudit/pkg/application"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/catalog"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/sprint"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/tracker"
	"github.com/felixgeelhaar/riskaudit/pkg/storage"
)

// FailingCatalogRepo wraps a repository and fails saves of chosen catalogs.
type FailingCatalogRepo struct {
	catalog.Repository
	FailOn map[string]bool
}

func (r *FailingCatalogRepo) SaveCatalog(c *catalog.Catalog) error {
	if r.FailOn[c.ID] {
		return errors.New("disk full")
	}
	return r.Repository.SaveCatalog(c)
}

// FailingSprintRepo wraps a repository and fails sprint saves while Fail is set.
type FailingSprintRepo struct {
	sprint.Repository
	Fail bool
}

func (r *FailingSprintRepo) SaveSprint(sp *sprint.Sprint) error {
	if r.Fail {
		return errors.New("disk full")
	}
	return r.Repository.SaveSprint(sp)
}

// MockTracker records issue requests and fails for chosen requirements.
type MockTracker struct {
	Requests []tracker.IssueRequest
	FailFor  map[string]bool
}

func (m *MockTracker) CreateIssue(ctx context.Context, req tracker.IssueRequest) (tracker.IssueRef, error) {
	m.Requests = append(m.Requests, req)
	if m.FailFor[req.RequirementID] {
		return tracker.IssueRef{}, errors.New("tracker unavailable")
	}
	return tracker.IssueRef{Key: "AUD-" + req.RequirementID}, nil
}

func newRepo() *storage.Repository {
	return storage.NewRepository(storage.NewMemoryStore())
}

func intPtr(v int) *int { return &v }

// accessTree is a small catalog: a container root with two leaves under a
// content parent, plus one independent root.
func accessTree() []catalog.Node {
	return []catalog.Node{
		{ID: "acc", Section: "1", Heading: "Access control", Children: []catalog.Node{
			{ID: "auth", Section: "1.1", Text: "Users authenticate", Important: 80, Children: []catalog.Node{
				{ID: "mfa", Section: "1.1.1", Text: "MFA enforced", Important: 90},
				{ID: "pwd", Section: "1.1.2", Text: "Password policy", Important: 40, Effort: intPtr(5)},
			}},
		}},
		{ID: "bak", Section: "2", Text: "Backups tested", Important: 60},
	}
}

func importCatalog(t *testing.T, repo *storage.Repository, name string, nodes []catalog.Node) string {
	t.Helper()
	svc := application.NewCatalogService(repo, nil, nil)
	res, err := svc.Import(context.Background(), application.ImportRequest{Name: name, Nodes: nodes})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	return res.CatalogID
}
