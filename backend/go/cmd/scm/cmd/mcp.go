package cmd

import (
	"SafetyCompliance/backend/go/internal/mcp"
	"SafetyCompliance/backend/go/pkg/mcp_host"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const mcpServerName = "compliance"

var (
	mcpTransport string
	mcpCommand   string
	mcpURL       string
	mcpTimeout   time.Duration
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Inspect and call the compliance MCP tools",
}

var mcpToolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List tools exposed by the compliance MCP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), mcpTimeout)
		defer cancel()
		host, err := connectMCP(ctx)
		if err != nil {
			return err
		}
		defer host.CloseAll()

		tools, failures := host.Tools(ctx)
		if err := failures[mcpServerName]; err != nil {
			return fmt.Errorf("failed to list tools: %w", err)
		}
		printMCPTools(cmd.OutOrStdout(), tools)
		return nil
	},
}

var mcpCallCmd = &cobra.Command{
	Use:   "call [tool] [json-args]",
	Short: "Call a compliance tool directly",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		toolArgs, err := parseToolArgs(args[1:])
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), mcpTimeout)
		defer cancel()
		host, err := connectMCP(ctx)
		if err != nil {
			return err
		}
		defer host.CloseAll()

		out, err := host.CallTool(ctx, args[0], toolArgs)
		if err != nil {
			return err
		}
		if out.IsError {
			return errors.New(out.Text)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.Text)
		return nil
	},
}

func init() {
	mcpCmd.PersistentFlags().StringVar(&mcpTransport, "transport", mcp.TransportStdio, "transport (stdio, sse, streamable-http)")
	mcpCmd.PersistentFlags().StringVar(&mcpCommand, "command", "compliance_mcp", "server command for the stdio transport")
	mcpCmd.PersistentFlags().StringVar(&mcpURL, "url", "http://localhost:8090/mcp", "server URL for http transports")
	mcpCmd.PersistentFlags().DurationVar(&mcpTimeout, "timeout", 5*time.Minute, "overall timeout")

	rootCmd.AddCommand(mcpCmd)
	mcpCmd.AddCommand(mcpToolsCmd, mcpCallCmd)
}

func connectMCP(ctx context.Context) (*mcp_host.Host, error) {
	host := mcp_host.NewHost("scm", rootCmd.Version)
	opts := mcp_host.ConnectOptions{
		ServerName: mcpServerName,
		Transport:  mcpTransport,
		Command:    mcpCommand,
		URL:        mcpURL,
	}
	if mcpTransport == mcp.TransportStdio {
		opts.Args = []string{"-config", cfgFile}
	}
	if err := host.Connect(ctx, opts); err != nil {
		return nil, err
	}
	return host, nil
}

// parseToolArgs 解析可选的 JSON 对象参数，缺省为空对象。
func parseToolArgs(args []string) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(args[0]), &out); err != nil {
		return nil, fmt.Errorf("tool arguments must be a JSON object: %w", err)
	}
	return out, nil
}

func printMCPTools(w io.Writer, tools []mcp_host.NamedTool) {
	if len(tools) == 0 {
		warn(w, "No tools found")
		return
	}
	rows := make([][]string, 0, len(tools))
	for _, nt := range tools {
		required := append([]string(nil), nt.Tool.InputSchema.Required...)
		sort.Strings(required)
		rows = append(rows, []string{nt.Tool.Name, truncate(nt.Tool.Description, 60), strings.Join(required, ", ")})
	}
	renderTable(w, "MCP Tools", []string{"Tool", "Description", "Required"}, rows)
}
