package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/triage-ai/composcan/internal/model"
)

// MCPToolLister lists tools over the MCP streamable HTTP transport.
// One short-lived connection per listing: the scanner never calls tools,
// so there is nothing worth keeping alive.
type MCPToolLister struct {
	timeout time.Duration
}

func NewMCPToolLister(timeout time.Duration) *MCPToolLister {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &MCPToolLister{timeout: timeout}
}

// ListTools connects to the server, performs the MCP initialize
// handshake, and retrieves the tool list.
func (l *MCPToolLister) ListTools(ctx context.Context, serverURL string) ([]model.ToolDeclaration, error) {
	if !strings.HasPrefix(serverURL, "http://") && !strings.HasPrefix(serverURL, "https://") {
		serverURL = "http://" + serverURL
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	mcpClient, err := client.NewStreamableHttpClient(serverURL)
	if err != nil {
		return nil, fmt.Errorf("create mcp client: %w", err)
	}
	defer mcpClient.Close() //nolint:errcheck

	if err := mcpClient.Start(ctx); err != nil {
		return nil, fmt.Errorf("start mcp client: %w", err)
	}

	initReq := mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    "composcan",
				Version: "0.1.0",
			},
		},
	}
	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}

	result, err := mcpClient.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}

	tools := make([]model.ToolDeclaration, 0, len(result.Tools))
	for _, tool := range result.Tools {
		schema, err := inputSchemaJSON(tool)
		if err != nil {
			return nil, err
		}
		tools = append(tools, model.ToolDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: schema,
		})
	}
	return tools, nil
}

// inputSchemaJSON extracts the raw input schema from an MCP tool,
// preferring the unmodified wire bytes when the server provided them.
func inputSchemaJSON(tool mcp.Tool) (json.RawMessage, error) {
	if len(tool.RawInputSchema) > 0 {
		return json.RawMessage(tool.RawInputSchema), nil
	}
	raw, err := json.Marshal(tool.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("marshal input schema for %s: %w", tool.Name, err)
	}
	return raw, nil
}
