// Package mcp 把合规工具通过 Model Context Protocol 暴露给外部 agent。
package mcp

import (
	"SafetyCompliance/backend/go/internal/agent"
	"SafetyCompliance/backend/go/pkg/logger"
	"context"
	"encoding/json"
	"fmt"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ServerName 是 MCP 握手时上报的服务名。
const ServerName = "safety-compliance"

// Transport 是 MCP 服务的传输方式。
const (
	TransportStdio      = "stdio"
	TransportSSE        = "sse"
	TransportStreamable = "streamable-http"
)

// NewServer 创建 MCP 服务端，并注册与 agent 相同的工具集。
// 工具调用直接交给 Dispatcher，结果文本与 agent 循环中看到的一致。
func NewServer(d *agent.Dispatcher, version string) *server.MCPServer {
	s := server.NewMCPServer(ServerName, version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
		server.WithRecovery(),
		server.WithInstructions(agent.SystemPrompt),
	)
	for _, tool := range agent.Tools() {
		s.AddTool(tool, toolHandler(d, tool.Name))
	}
	return s
}

func toolHandler(d *agent.Dispatcher, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		args, err := rawArguments(req)
		if err != nil {
			return mcpgo.NewToolResultError(err.Error()), nil
		}
		out, isErr := d.Dispatch(ctx, name, args)
		if isErr {
			return mcpgo.NewToolResultError(out), nil
		}
		return mcpgo.NewToolResultText(out), nil
	}
}

func rawArguments(req mcpgo.CallToolRequest) (json.RawMessage, error) {
	raw := req.GetRawArguments()
	if raw == nil {
		return json.RawMessage("{}"), nil
	}
	if b, ok := raw.(json.RawMessage); ok {
		return b, nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return b, nil
}

// Serve 按指定传输方式启动服务，阻塞直到服务结束。
func Serve(s *server.MCPServer, transport, addr string) error {
	log := logger.New("mcp-server", "", "")
	switch transport {
	case TransportStdio, "":
		return server.ServeStdio(s)
	case TransportSSE:
		log.WithPayload(map[string]interface{}{"addr": addr}).Info("Serving MCP over SSE")
		return server.NewSSEServer(s).Start(addr)
	case TransportStreamable:
		log.WithPayload(map[string]interface{}{"addr": addr}).Info("Serving MCP over streamable HTTP")
		return server.NewStreamableHTTPServer(s).Start(addr)
	default:
		return fmt.Errorf("unsupported transport type: '%s'", transport)
	}
}
