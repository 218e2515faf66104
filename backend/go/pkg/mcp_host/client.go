// Package mcp_host 连接一个或多个 MCP 服务端，汇总工具并提供统一的调用入口。
// scm CLI 用它检查与调用合规服务暴露的工具。
package mcp_host

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// ErrToolNotFound 表示没有任何已连接的服务端提供该工具。
var ErrToolNotFound = errors.New("tool not found")

// Host 是一个 MCP 客户端主机。
type Host struct {
	name    string
	version string
	servers map[string]*client.Client
	mu      sync.RWMutex
}

// ConnectOptions 定义了连接到 MCP 服务端的配置项
type ConnectOptions struct {
	ServerName string
	Transport  string // "stdio"、"sse" 或 "streamable-http"
	Command    string
	Args       []string
	Env        []string
	URL        string
}

// NamedTool 是带有来源服务端名称的工具定义。
type NamedTool struct {
	Server string
	Tool   mcp.Tool
}

// ToolOutput 是一次工具调用的文本结果。
type ToolOutput struct {
	Server  string
	Text    string
	IsError bool
}

// NewHost 创建一个新的 Host 实例，name/version 会在握手时上报。
func NewHost(name, version string) *Host {
	return &Host{
		name:    name,
		version: version,
		servers: make(map[string]*client.Client),
	}
}

// Connect 根据提供的选项，连接到一个新的 MCP 服务端并完成初始化握手。
func (h *Host) Connect(ctx context.Context, opts ConnectOptions) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.servers[opts.ServerName]; exists {
		return fmt.Errorf("server with name '%s' already connected", opts.ServerName)
	}

	var (
		c   *client.Client
		err error
	)
	switch opts.Transport {
	case "stdio":
		c, err = client.NewStdioMCPClient(opts.Command, opts.Env, opts.Args...)
	case "sse":
		c, err = client.NewSSEMCPClient(opts.URL)
	case "streamable-http":
		c, err = client.NewStreamableHttpClient(opts.URL)
	default:
		return fmt.Errorf("unsupported transport type: '%s'", opts.Transport)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s client: %w", opts.Transport, err)
	}

	// stdio 客户端在创建时已经启动
	if opts.Transport != "stdio" {
		if err := c.Start(ctx); err != nil {
			c.Close()
			return fmt.Errorf("failed to start client: %w", err)
		}
	}

	initRequest := mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo: mcp.Implementation{
				Name:    h.name,
				Version: h.version,
			},
			Capabilities: mcp.ClientCapabilities{},
		},
	}
	if _, err := c.Initialize(ctx, initRequest); err != nil {
		c.Close()
		return fmt.Errorf("failed to initialize client: %w", err)
	}

	h.servers[opts.ServerName] = c
	return nil
}

// Tools 汇总所有服务端的工具，按服务端名和工具名排序。
// 单个服务端失败不影响其他服务端，失败信息按服务端名返回。
func (h *Host) Tools(ctx context.Context) ([]NamedTool, map[string]error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var all []NamedTool
	failures := make(map[string]error)
	for serverName, c := range h.servers {
		res, err := c.ListTools(ctx, mcp.ListToolsRequest{})
		if err != nil {
			failures[serverName] = err
			continue
		}
		for _, t := range res.Tools {
			all = append(all, NamedTool{Server: serverName, Tool: t})
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Server != all[j].Server {
			return all[i].Server < all[j].Server
		}
		return all[i].Tool.Name < all[j].Tool.Name
	})
	return all, failures
}

// CallTool 在提供该工具的第一个服务端上调用它 (按服务端名排序)。
func (h *Host) CallTool(ctx context.Context, toolName string, args map[string]interface{}) (*ToolOutput, error) {
	tools, failures := h.Tools(ctx)
	for _, nt := range tools {
		if nt.Tool.Name != toolName {
			continue
		}
		h.mu.RLock()
		c := h.servers[nt.Server]
		h.mu.RUnlock()

		req := mcp.CallToolRequest{}
		req.Params.Name = toolName
		req.Params.Arguments = args
		res, err := c.CallTool(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to call tool on '%s': %w", nt.Server, err)
		}
		return &ToolOutput{Server: nt.Server, Text: resultText(res), IsError: res.IsError}, nil
	}
	if len(failures) > 0 {
		var errs []error
		for name, err := range failures {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		return nil, fmt.Errorf("%w: %s (%v)", ErrToolNotFound, toolName, errors.Join(errs...))
	}
	return nil, fmt.Errorf("%w: %s", ErrToolNotFound, toolName)
}

func resultText(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// CloseAll 关闭所有到服务端的连接并清理资源
func (h *Host) CloseAll() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var errs []error
	for _, c := range h.servers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	h.servers = make(map[string]*client.Client)
	return errors.Join(errs...)
}
