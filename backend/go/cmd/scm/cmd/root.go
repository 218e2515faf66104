package cmd

import (
	"SafetyCompliance/backend/go/internal/config"
	httpclient "SafetyCompliance/backend/go/pkg/http"
	"SafetyCompliance/backend/go/pkg/logger"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version 由构建时 -ldflags "-X" 注入。
var version = "dev"

var (
	cfgFile   string
	serverURL string
	apiToken  string
)

var rootCmd = &cobra.Command{
	Use:           "scm",
	Version:       version,
	Short:         "Safety Compliance Manager CLI",
	Long:          `A command-line interface for compliance audits, risk management, policies and reports, backed by the compliance service API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// 日志写到标准错误，标准输出只留给命令结果
		level := "warn"
		if cfg, err := config.LoadOrDefault(cfgFile); err == nil {
			level = cfg.Logger.Level
		}
		logger.InitWithOutput(logger.ParseLevel(level), os.Stderr)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("✗ "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("SCM_API_URL", "http://localhost:8080"), "compliance service base URL")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", os.Getenv("SCM_API_TOKEN"), "bearer token for the API")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newClient 创建 API 客户端，配置中启用熔断时请求经过熔断传输层。
func newClient() (*apiClient, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}
	transport, err := httpclient.NewTransport(cfg.Middleware.CircuitBreaker, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}
	return newAPIClient(serverURL, apiToken, transport), nil
}
