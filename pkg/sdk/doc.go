// Package sdk provides a typed Go client for the riskaudit MCP server.
//
// The client wraps mcp-go/client.CallTool with one method per MCP tool and
// retries transport failures via fortify.
//
// Usage:
//
//	transport, _ := client.NewStdioTransport("riskaudit", "mcp")
//	c := sdk.NewClient(transport)
//	defer c.Close()
//
//	_, _ = c.Initialize(ctx)
//	res, _ := c.ImportRequirements(ctx, "ISO 27001", nodes)
//	proposal, _ := c.SelectForAudit(ctx, res.CatalogID, nil)
package sdk
