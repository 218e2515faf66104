package main

import (
	"SafetyCompliance/backend/go/internal/agent"
	"SafetyCompliance/backend/go/internal/compliance_service/service"
	"SafetyCompliance/backend/go/internal/compliance_service/store"
	"SafetyCompliance/backend/go/internal/config"
	"SafetyCompliance/backend/go/internal/database"
	"SafetyCompliance/backend/go/internal/mcp"
	"SafetyCompliance/backend/go/internal/metrics"
	"SafetyCompliance/backend/go/internal/office"
	"SafetyCompliance/backend/go/pkg/logger"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
)

const ServiceName = "compliance_mcp"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config.yaml")
	transport := flag.String("transport", mcp.TransportStdio, "transport type: stdio, sse or streamable-http")
	addr := flag.String("addr", ":8090", "listen address for sse and streamable-http")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// stdio 传输占用标准输出，日志写到标准错误
	logger.InitWithOutput(logger.ParseLevel(cfg.Logger.Level), os.Stderr)
	appLogger := logger.New(ServiceName, "", "")

	db, err := database.Open(&cfg.Databases)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer database.Close(cfg.Databases.Driver)
	if err := database.AutoMigrate(db); err != nil {
		appLogger.Fatal(fmt.Sprintf("Failed to migrate database: %v", err))
	}

	if err := office.SetLicense(cfg.Office.LicenseKey); err != nil {
		appLogger.Warn(err.Error())
	}
	svc := service.NewService(store.NewStore(db), office.NewFileGenerator(cfg.Storage.OutputDir))
	if _, err := svc.ImportAllFrameworks(context.Background(), cfg.Storage.FrameworksDir, cfg.Storage.FrameworkPattern); err != nil {
		appLogger.Fatal(fmt.Sprintf("Failed to import frameworks: %v", err))
	}

	s := mcp.NewServer(agent.NewDispatcher(svc, metrics.New()), cfg.App.Version)
	appLogger.WithPayload(map[string]interface{}{"transport": *transport}).Info("Starting MCP server")
	if err := mcp.Serve(s, *transport, *addr); err != nil {
		appLogger.Fatal(fmt.Sprintf("MCP server stopped: %v", err))
	}
}
