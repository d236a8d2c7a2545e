package mcp

import (
	"context"
	"encoding/json"
	"testing"

	mcplib "github.com/felixgeelhaar/mcp-go"
)

func TestGenerateOpenAPI(t *testing.T) {
	srv := mcplib.NewServer(mcplib.ServerInfo{Name: "test", Version: "0.1.0"})
	srv.Tool("startSprint").
		Description("Start a sprint").
		Handler(func(ctx context.Context, args struct {
			Capacity int `json:"capacity" jsonschema:"description=Capacity"`
		}) (string, error) {
			return "ok", nil
		})
	srv.Tool("getAllCatalogs").
		Description("List catalogs").
		Handler(func(ctx context.Context, args struct{}) (string, error) {
			return "ok", nil
		})

	data, err := GenerateOpenAPI(srv)
	if err != nil {
		t.Fatalf("GenerateOpenAPI failed: %v", err)
	}

	var doc OpenAPIDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if doc.OpenAPI != "3.0.3" {
		t.Errorf("expected openapi 3.0.3, got %s", doc.OpenAPI)
	}
	if doc.Info.Title != "riskaudit MCP API" || doc.Info.Version != SchemaVersion {
		t.Errorf("unexpected info: %+v", doc.Info)
	}

	path, ok := doc.Paths["/tools/startSprint"]
	if !ok || path.Post == nil {
		t.Fatalf("expected POST /tools/startSprint, got paths: %v", doc.Paths)
	}
	if path.Post.OperationID != "startSprint" || path.Post.Summary != "Start a sprint" {
		t.Errorf("unexpected operation: %+v", path.Post)
	}
	if len(path.Post.Tags) != 1 || path.Post.Tags[0] != "sprints" {
		t.Errorf("unexpected tags: %v", path.Post.Tags)
	}

	noArgs := doc.Paths["/tools/getAllCatalogs"].Post
	if noArgs == nil || noArgs.RequestBody != nil {
		t.Errorf("expected no request body for an argument-less tool")
	}

	if len(doc.Tags) != 2 || doc.Tags[0].Name != "catalogs" || doc.Tags[1].Name != "sprints" {
		t.Errorf("unexpected tag list: %+v", doc.Tags)
	}
}

func TestToolTag(t *testing.T) {
	tests := map[string]string{
		"importRequirementsFromCustomCSV": "catalogs",
		"deleteRequirement":               "catalogs",
		"calculateRisksByCatalog":         "risk",
		"markAsAudited":                   "risk",
		"selectRequirementsForAudit":      "risk",
		"updateRequirementStoryPoints":    "sprints",
		"addRequirementsToSprint":         "sprints",
		"verifyJournal":                   "journal",
	}
	for name, want := range tests {
		if got := toolTag(name); got != want {
			t.Errorf("toolTag(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestServerOpenAPICoversEveryTool(t *testing.T) {
	s := newTestServer(t)
	data, err := s.OpenAPI()
	if err != nil {
		t.Fatalf("OpenAPI: %v", err)
	}
	var doc OpenAPIDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(doc.Paths) != len(s.mcpServer.Tools()) {
		t.Fatalf("paths = %d, tools = %d", len(doc.Paths), len(s.mcpServer.Tools()))
	}
}
