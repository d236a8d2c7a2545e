package sdk

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/mcp-go/client"

	"github.com/felixgeelhaar/riskaudit/pkg/domain/catalog"
)

const schemaURI = "riskaudit://schema"

// Client is a typed Go client for the riskaudit MCP server. Each method maps
// to one tool and decodes its JSON text result.
type Client struct {
	mcp   *client.Client
	retry retry.Config
}

// NewClient creates a new SDK client wrapping the given MCP transport.
func NewClient(transport client.Transport, opts ...Option) *Client {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &Client{
		mcp:   client.New(transport, client.WithTimeout(o.timeout)),
		retry: o.retryConfig(),
	}
}

// Initialize performs the MCP initialize handshake.
func (c *Client) Initialize(ctx context.Context) (*client.ServerInfo, error) {
	return c.mcp.Initialize(ctx)
}

// Close closes the underlying transport.
func (c *Client) Close() error {
	return c.mcp.Close()
}

// call invokes a tool with retry. Tool errors are not retried.
func (c *Client) call(ctx context.Context, tool string, args map[string]any) (*client.ToolResult, error) {
	result, err := retry.New[*client.ToolResult](c.retry).Do(ctx, func(ctx context.Context) (*client.ToolResult, error) {
		return c.mcp.CallTool(ctx, tool, args)
	})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", tool, err)
	}
	if result.IsError {
		msg := ""
		if len(result.Content) > 0 {
			msg = result.Content[0].Text
		}
		return nil, &ToolError{Tool: tool, Message: msg}
	}
	return result, nil
}

func unmarshalText[T any](result *client.ToolResult) (*T, error) {
	text, err := textResult(result)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return &v, nil
}

func textResult(result *client.ToolResult) (string, error) {
	if len(result.Content) == 0 {
		return "", ErrNoContent
	}
	return result.Content[0].Text, nil
}

// callJSON calls tool and decodes its text content into T.
func callJSON[T any](ctx context.Context, c *Client, tool string, args map[string]any) (*T, error) {
	res, err := c.call(ctx, tool, args)
	if err != nil {
		return nil, err
	}
	return unmarshalText[T](res)
}

// --- Schema ---

// GetSchema reads the riskaudit://schema resource from the server.
func (c *Client) GetSchema(ctx context.Context) (*SchemaInfo, error) {
	rc, err := c.mcp.ReadResource(ctx, schemaURI)
	if err != nil {
		return nil, fmt.Errorf("read schema resource: %w", err)
	}
	var info SchemaInfo
	if err := json.Unmarshal([]byte(rc.Text), &info); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	return &info, nil
}

// Compatible checks that the server schema major version matches this SDK.
func (c *Client) Compatible(ctx context.Context) error {
	info, err := c.GetSchema(ctx)
	if err != nil {
		return fmt.Errorf("check compatibility: %w", err)
	}
	serverMajor := majorVersion(info.SchemaVersion)
	if serverMajor != SupportedSchemaMajor {
		return fmt.Errorf("incompatible schema: server=%s (major %s), sdk supports major %s",
			info.SchemaVersion, serverMajor, SupportedSchemaMajor)
	}
	return nil
}

func majorVersion(v string) string {
	for i, ch := range v {
		if ch == '.' {
			return v[:i]
		}
	}
	return v
}

// --- Catalogs ---

// ImportRequirements imports a requirement tree as a new catalog.
func (c *Client) ImportRequirements(ctx context.Context, catalogName string, nodes []catalog.Node) (*ImportResult, error) {
	return callJSON[ImportResult](ctx, c, "importRequirementsFromCustomCSV", map[string]any{
		"catalogName":  catalogName,
		"requirements": nodes,
	})
}

// ImportDocument imports CSV, JSON or YAML content as a new catalog.
func (c *Client) ImportDocument(ctx context.Context, catalogName, format, content string) (*ImportResult, error) {
	return callJSON[ImportResult](ctx, c, "importCatalogDocument", map[string]any{
		"catalogName": catalogName,
		"format":      format,
		"content":     content,
	})
}

// CreateCatalog creates an empty catalog and returns its id.
func (c *Client) CreateCatalog(ctx context.Context, title, description, prefix string) (string, error) {
	res, err := c.call(ctx, "createCatalog", map[string]any{
		"title":       title,
		"description": description,
		"prefix":      prefix,
	})
	if err != nil {
		return "", err
	}
	return textResult(res)
}

// ListCatalogs returns the catalog summaries.
func (c *Client) ListCatalogs(ctx context.Context) ([]catalog.Summary, error) {
	list, err := callJSON[[]catalog.Summary](ctx, c, "getAllCatalogs", nil)
	if err != nil {
		return nil, err
	}
	return *list, nil
}

// GetCatalog returns one catalog with its flat requirement list.
func (c *Client) GetCatalog(ctx context.Context, catalogID string) (*catalog.Catalog, error) {
	return callJSON[catalog.Catalog](ctx, c, "getCatalogById", map[string]any{"catalogId": catalogID})
}

// Hierarchy returns the rebuilt requirement tree of a catalog.
func (c *Client) Hierarchy(ctx context.Context, catalogID string) ([]*catalog.TreeNode, error) {
	tree, err := callJSON[[]*catalog.TreeNode](ctx, c, "getRequirementHierarchy", map[string]any{"catalogId": catalogID})
	if err != nil {
		return nil, err
	}
	return *tree, nil
}

// DeleteCatalog removes a catalog.
func (c *Client) DeleteCatalog(ctx context.Context, catalogID string) error {
	_, err := c.call(ctx, "deleteCatalog", map[string]any{"catalogId": catalogID})
	return err
}

// --- Risk and audit ---

// CalculateRisks recalculates one catalog at sprintActual.
func (c *Client) CalculateRisks(ctx context.Context, catalogID string, sprintActual int) (*catalog.Catalog, error) {
	res, err := callJSON[RiskResult](ctx, c, "calculateRisksByCatalog", map[string]any{
		"catalogId":    catalogID,
		"sprintActual": sprintActual,
	})
	if err != nil {
		return nil, err
	}
	return res.Catalog, nil
}

// CalculateAllRisks recalculates every catalog. A partial failure is
// reported in the result, not as an error.
func (c *Client) CalculateAllRisks(ctx context.Context, sprintActual int) (*RiskAllResult, error) {
	return callJSON[RiskAllResult](ctx, c, "calculateRisksAllCatalogs", map[string]any{"sprintActual": sprintActual})
}

// SelectForAudit proposes the highest-risk eligible requirements of a catalog.
func (c *Client) SelectForAudit(ctx context.Context, catalogID string, avoid []string) (*Proposal, error) {
	args := map[string]any{"catalogId": catalogID}
	if len(avoid) > 0 {
		args["reqsToAvoid"] = avoid
	}
	return callJSON[Proposal](ctx, c, "selectRequirementsForAudit", args)
}

// MarkAsAudited records an audit of ids in sprintNumber and returns the
// number of catalog requirements updated.
func (c *Client) MarkAsAudited(ctx context.Context, ids []string, sprintNumber int) (int, error) {
	res, err := callJSON[markResult](ctx, c, "markAsAudited", map[string]any{
		"requirementIds": ids,
		"sprintNumber":   sprintNumber,
	})
	if err != nil {
		return 0, err
	}
	return res.UpdatedCount, nil
}

// --- Sprints ---

// StartSprint opens the next sprint.
func (c *Client) StartSprint(ctx context.Context, p SprintParams) (*Sprint, error) {
	return callJSON[Sprint](ctx, c, "startSprint", p.args())
}

// NextSprint closes the active sprint and opens the following one.
func (c *Client) NextSprint(ctx context.Context, p SprintParams) (*Sprint, error) {
	return callJSON[Sprint](ctx, c, "nextSprint", p.args())
}

// EndSprint closes sprint n.
func (c *Client) EndSprint(ctx context.Context, n int) (*Sprint, error) {
	return callJSON[Sprint](ctx, c, "endActualSprint", map[string]any{"sprintNumber": n})
}

// ActiveSprint returns the active sprint.
func (c *Client) ActiveSprint(ctx context.Context) (*Sprint, error) {
	return callJSON[Sprint](ctx, c, "getActiveSprint", nil)
}

// AddToSprint snapshots requirements into sprint n.
func (c *Client) AddToSprint(ctx context.Context, n int, ids []string) (*AddResult, error) {
	return callJSON[AddResult](ctx, c, "addRequirementsToSprint", map[string]any{
		"sprintNumber":   n,
		"requirementIds": ids,
	})
}

// UpdateStoryPoints overrides the story points of a requirement.
func (c *Client) UpdateStoryPoints(ctx context.Context, id string, points int) error {
	_, err := c.call(ctx, "updateRequirementStoryPoints", map[string]any{
		"requirementId":  id,
		"newStoryPoints": points,
	})
	return err
}
