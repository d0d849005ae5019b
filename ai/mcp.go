package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

var ErrCallingTool = errors.New("error calling tool")

type MCPConfig struct {
	MCPServers map[string]ServerConfig `json:"mcpServers"`
}

type ServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env,omitempty"`
}

type MCPClient struct {
	Name   string
	client mcpclient.MCPClient
	Tools  []Tool
}

// MCPHost holds the connected mcp servers and the tools they export. The
// exported tools plug into the agent next to the built-in notebook tools.
type MCPHost struct {
	Clients map[string]MCPClient
}

func LoadMCPConfig(filename string) (*MCPConfig, error) {
	configData, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", filename, err)
	}

	var config MCPConfig
	if err := json.Unmarshal(configData, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return &config, nil
}

func NewMCPHost(config *MCPConfig) (*MCPHost, error) {
	h := &MCPHost{Clients: make(map[string]MCPClient)}

	for name, server := range config.MCPServers {
		var env []string
		for k, v := range server.Env {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
		var client *mcpclient.Client
		var err error

		if server.Command == "sse_server" {
			if len(server.Args) == 0 {
				return nil, fmt.Errorf("no arguments provided for sse command")
			}
			client, err = mcpclient.NewSSEMCPClient(server.Args[0])
			if err == nil {
				err = client.Start(context.Background())
			}
		} else {
			client, err = mcpclient.NewStdioMCPClient(server.Command, env, server.Args...)
		}
		if err != nil {
			slog.Error("failed to create MCP client - skipping mcp server", "name", name, "error", err)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		initRequest := mcp.InitializeRequest{}
		initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
		initRequest.Params.ClientInfo = mcp.Implementation{Name: "nimbus", Version: "0.1.0"}
		initRequest.Params.Capabilities = mcp.ClientCapabilities{}
		_, err = client.Initialize(ctx, initRequest)
		cancel()
		if err != nil {
			client.Close()
			slog.Error("failed to initialize MCP client - skipping mcp server", "name", name, "error", err)
			continue
		}

		mcpClient := MCPClient{Name: name, client: client}
		mcpClient.Tools, err = mcpClient.fetchTools()
		if err != nil {
			slog.Error("failed to fetch tools", "name", name, "error", err)
			continue
		}
		h.Clients[name] = mcpClient
		slog.Info("mcp server connected", "name", name, "tools", len(mcpClient.Tools))
	}

	return h, nil
}

// AllTools flattens the tools of every connected server.
func (h *MCPHost) AllTools() []Tool {
	var tools []Tool
	for _, client := range h.Clients {
		tools = append(tools, client.Tools...)
	}
	return tools
}

func (h *MCPHost) Close() {
	for name, client := range h.Clients {
		if err := client.client.Close(); err != nil {
			slog.Error("failed to close mcp server", "name", name, "error", err)
		}
	}
}

func (c *MCPClient) fetchTools() ([]Tool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	toolsResult, err := c.client.ListTools(ctx, mcp.ListToolsRequest{})
	cancel()
	if err != nil {
		return nil, err
	}

	var tools []Tool
	for _, tool := range toolsResult.Tools {
		simpleTool := Tool{Name: tool.Name, Description: tool.Description}
		if len(tool.InputSchema.Properties) > 0 {
			simpleTool.InputSchema = map[string]interface{}{
				"type":       "object",
				"properties": tool.InputSchema.Properties,
				"required":   tool.InputSchema.Required,
			}
		}

		simpleTool.Execute = func(args map[string]interface{}) (*ToolResult, error) {
			request := mcp.CallToolRequest{
				Request: mcp.Request{Method: "tools/call"},
			}
			request.Params.Name = tool.Name
			if len(tool.InputSchema.Properties) > 0 {
				request.Params.Arguments = args
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			result, err := c.client.CallTool(ctx, request)
			if err != nil {
				return nil, errors.Join(ErrCallingTool, err)
			}

			if result.IsError {
				msg := "failed to call tool"
				if tc, ok := result.Content[0].(mcp.TextContent); ok {
					msg = tc.Text
				}
				return nil, errors.Join(ErrCallingTool, errors.New(msg))
			}

			toolResult := &ToolResult{}
			for _, content := range result.Content {
				switch tc := content.(type) {
				case mcp.TextContent:
					toolResult.Content = append(toolResult.Content, ToolContent{Type: "text", Content: tc.Text})
				case mcp.ImageContent:
					toolResult.Content = append(toolResult.Content, ToolContent{Type: "image", Content: tc.Data})
				default:
					slog.Error("tool call unsupported content type", "tool", tool.Name, "type", fmt.Sprintf("%T", content))
				}
			}
			return toolResult, nil
		}

		tools = append(tools, simpleTool)
	}
	return tools, nil
}
