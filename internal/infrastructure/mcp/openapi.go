package mcp

import (
	"encoding/json"
	"sort"
	"strings"

	mcplib "github.com/felixgeelhaar/mcp-go"
)

// OpenAPIDocument is the subset of OpenAPI 3.0 needed to describe tool calls
// as HTTP POST endpoints.
type OpenAPIDocument struct {
	OpenAPI string              `json:"openapi"`
	Info    OpenAPIInfo         `json:"info"`
	Tags    []OpenAPITag        `json:"tags"`
	Paths   map[string]PathItem `json:"paths"`
}

type OpenAPIInfo struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
}

type OpenAPITag struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type PathItem struct {
	Post *Operation `json:"post,omitempty"`
}

type Operation struct {
	OperationID string              `json:"operationId"`
	Summary     string              `json:"summary,omitempty"`
	Tags        []string            `json:"tags,omitempty"`
	RequestBody *RequestBody        `json:"requestBody,omitempty"`
	Responses   map[string]Response `json:"responses"`
}

type RequestBody struct {
	Required bool                 `json:"required"`
	Content  map[string]MediaType `json:"content"`
}

type MediaType struct {
	Schema any `json:"schema"`
}

type Response struct {
	Description string `json:"description"`
}

var tagDescriptions = map[string]string{
	"catalogs": "Catalog import, inspection and requirement edits",
	"risk":     "Risk scoring, audit selection and audit recording",
	"sprints":  "Sprint lifecycle and snapshots",
	"journal":  "Hash-chained operation journal",
}

// OpenAPI returns the OpenAPI document for this server.
func (s *Server) OpenAPI() ([]byte, error) {
	return GenerateOpenAPI(s.mcpServer)
}

// GenerateOpenAPI maps every registered tool to POST /tools/{name}.
func GenerateOpenAPI(srv *mcplib.Server) ([]byte, error) {
	tools := srv.Tools()
	paths := make(map[string]PathItem, len(tools))
	used := make(map[string]bool)

	for _, t := range tools {
		tag := toolTag(t.Name)
		used[tag] = true

		op := &Operation{
			OperationID: t.Name,
			Summary:     t.Description,
			Tags:        []string{tag},
			Responses: map[string]Response{
				"200": {Description: "Tool result"},
				"400": {Description: "Invalid arguments or unknown id"},
				"500": {Description: "Internal failure"},
			},
		}
		if hasProperties(t.InputSchema) {
			op.RequestBody = &RequestBody{
				Required: true,
				Content:  map[string]MediaType{"application/json": {Schema: t.InputSchema}},
			}
		}
		paths["/tools/"+t.Name] = PathItem{Post: op}
	}

	tags := make([]OpenAPITag, 0, len(used))
	for name := range used {
		tags = append(tags, OpenAPITag{Name: name, Description: tagDescriptions[name]})
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })

	doc := OpenAPIDocument{
		OpenAPI: "3.0.3",
		Info: OpenAPIInfo{
			Title:       "riskaudit MCP API",
			Description: "Generated from the riskaudit MCP tool registrations.",
			Version:     SchemaVersion,
		},
		Tags:  tags,
		Paths: paths,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// toolTag groups tools by the resource they act on.
func toolTag(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "sprint"), strings.Contains(lower, "storypoints"):
		return "sprints"
	case strings.Contains(lower, "journal"):
		return "journal"
	case strings.Contains(lower, "risk"), strings.Contains(lower, "audit"):
		return "risk"
	default:
		return "catalogs"
	}
}

func hasProperties(schema any) bool {
	m, ok := schema.(map[string]any)
	if !ok {
		return false
	}
	props, ok := m["properties"].(map[string]any)
	return ok && len(props) > 0
}
