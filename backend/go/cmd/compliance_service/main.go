package main

import (
	"SafetyCompliance/backend/go/internal/agent"
	"SafetyCompliance/backend/go/internal/compliance_service/api"
	"SafetyCompliance/backend/go/internal/compliance_service/service"
	"SafetyCompliance/backend/go/internal/compliance_service/store"
	"SafetyCompliance/backend/go/internal/config"
	"SafetyCompliance/backend/go/internal/database"
	"SafetyCompliance/backend/go/internal/database/kafka"
	"SafetyCompliance/backend/go/internal/database/minio"
	"SafetyCompliance/backend/go/internal/database/mongo"
	"SafetyCompliance/backend/go/internal/database/redis"
	"SafetyCompliance/backend/go/internal/discovery/etcd"
	"SafetyCompliance/backend/go/internal/llm"
	"SafetyCompliance/backend/go/internal/metrics"
	"SafetyCompliance/backend/go/internal/models"
	"SafetyCompliance/backend/go/internal/office"
	"SafetyCompliance/backend/go/pkg/circuitbreaker"
	grpcserver "SafetyCompliance/backend/go/pkg/grpc"
	httpserver "SafetyCompliance/backend/go/pkg/http"
	"SafetyCompliance/backend/go/pkg/httpmiddleware"
	"SafetyCompliance/backend/go/pkg/logger"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const ServiceName = "compliance_service"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config.yaml")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// 2. 初始化 Logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New(ServiceName, "", "")
	appLogger.Info("Logger initialized")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. 初始化数据库并迁移表结构
	db, err := database.Open(&cfg.Databases)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer database.Close(cfg.Databases.Driver)
	if err := database.AutoMigrate(db); err != nil {
		appLogger.Fatal(fmt.Sprintf("Failed to migrate database: %v", err))
	}
	st := store.NewStore(db)
	appLogger.WithPayload(map[string]interface{}{"driver": cfg.Databases.Driver}).Info("Database initialized")

	// 4. 可选的 Kafka 发布器与 MinIO 归档
	var svcOpts []service.Option
	var engineOpts []agent.EngineOption
	readiness := []func(context.Context) error{
		func(ctx context.Context) error { return database.HealthCheck(ctx, cfg.Databases.Driver) },
	}
	if len(cfg.Databases.Kafka.Brokers) > 0 {
		kafkaClient, err := kafka.GetClient(&cfg.Databases.Kafka)
		if err != nil {
			appLogger.Fatal(fmt.Sprintf("Failed to create kafka client: %v", err))
		}
		defer kafkaClient.Close()
		readiness = append(readiness, kafkaClient.HealthCheck)
		logPublisher := kafka.NewLogPublisher(kafkaClient)
		defer logPublisher.Close()
		distPublisher := kafka.NewDistributionPublisher(kafkaClient)
		defer distPublisher.Close()
		engineOpts = append(engineOpts, agent.WithProgressPublisher(logPublisher))
		svcOpts = append(svcOpts, service.WithDistributionPublisher(distPublisher))
		appLogger.Info("Kafka publishers initialized")
	}
	if cfg.Databases.MinIO.Endpoint != "" {
		minioClient, err := minio.GetClient(ctx, &cfg.Databases.MinIO)
		if err != nil {
			appLogger.Fatal(fmt.Sprintf("Failed to create MinIO client: %v", err))
		}
		archive, err := minio.NewReportArchive(ctx, minioClient, cfg.Databases.MinIO.Bucket)
		if err != nil {
			appLogger.Fatal(fmt.Sprintf("Failed to prepare report archive: %v", err))
		}
		svcOpts = append(svcOpts, service.WithReportArchive(archive))
		appLogger.Info("MinIO report archive initialized")
	}

	// 5. 初始化文档生成与业务服务，导入框架目录
	if err := office.SetLicense(cfg.Office.LicenseKey); err != nil {
		appLogger.Warn(err.Error())
	}
	svc := service.NewService(st, office.NewFileGenerator(cfg.Storage.OutputDir), svcOpts...)
	imported, err := svc.ImportAllFrameworks(ctx, cfg.Storage.FrameworksDir, cfg.Storage.FrameworkPattern)
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("Failed to import frameworks: %v", err))
	}
	appLogger.WithPayload(map[string]interface{}{"count": len(imported), "dir": cfg.Storage.FrameworksDir}).Info("Frameworks imported")

	// 6. 初始化 LLM 客户端与 Agent
	m := metrics.New()
	model, err := newChatModel(ctx, cfg)
	if err != nil {
		appLogger.WithError(models.ErrorInfo{Message: err.Error(), Type: "llm_error"}).
			Warn("LLM client unavailable, agent calls will fail")
	}
	if cfg.Databases.MongoDB.Address != "" {
		mongoClient, err := mongo.GetClient(ctx, &cfg.Databases.MongoDB)
		if err != nil {
			appLogger.Fatal(fmt.Sprintf("Failed to create MongoDB client: %v", err))
		}
		defer mongo.Close(context.Background())
		engineOpts = append(engineOpts, agent.WithTranscriptArchiver(mongo.NewTranscriptStore(mongoClient, cfg.Databases.MongoDB.Database)))
		appLogger.Info("MongoDB transcript store initialized")
	}
	engineOpts = append(engineOpts, agent.WithMetrics(m))
	engine := agent.NewEngine(cfg.Agent, cfg.LLM, model, st, agent.NewDispatcher(svc, m), engineOpts...)

	// 7. 任务缓存：配置了 Redis 时使用 Redis，否则使用进程内 LRU
	var cache api.TaskCache
	if cfg.Databases.Redis.Address != "" {
		rdb, err := redis.GetClient(ctx, &cfg.Databases.Redis)
		if err != nil {
			appLogger.Fatal(fmt.Sprintf("Failed to create Redis client: %v", err))
		}
		defer redis.Close()
		cache = redis.NewTaskCache(rdb, time.Duration(cfg.Databases.Redis.TaskTTL)*time.Second)
	} else {
		memCache, err := api.NewMemoryTaskCache(1024, time.Duration(cfg.Databases.Redis.TaskTTL)*time.Second)
		if err != nil {
			appLogger.Fatal(fmt.Sprintf("Failed to create task cache: %v", err))
		}
		cache = memCache
	}

	// 8. 初始化 HTTP 服务器并注册路由
	httpServer, err := httpserver.NewServer(cfg, httpserver.WithMetrics(m), httpserver.WithName(ServiceName))
	if err != nil {
		appLogger.Fatal(fmt.Sprintf("Failed to create HTTP server: %v", err))
	}
	limiter, err := httpserver.RateLimiter(cfg.Middleware.RateLimiter)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	handler := api.NewHandler(svc, engine, cache, cfg.App.Version)
	api.RegisterRoutes(httpServer.Engine(), handler, api.RouterOptions{
		Auth:           httpmiddleware.Auth(cfg.Auth.JwtSecret),
		ExecuteLimiter: limiter,
		Metrics:        m.Handler(),
		Ready: func(ctx context.Context) error {
			for _, check := range readiness {
				if err := check(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	})

	// 9. 可选的 gRPC 健康检查服务
	if cfg.Server.GRPCAddress != "" {
		grpcServer, err := grpcserver.NewServer(cfg, ServiceName)
		if err != nil {
			appLogger.Fatal(fmt.Sprintf("Failed to create gRPC server: %v", err))
		}
		go func() {
			if err := grpcServer.ListenAndServe(); err != nil {
				appLogger.Error(fmt.Sprintf("gRPC server stopped: %v", err))
			}
		}()
		defer grpcServer.GracefulStop()
	}

	// 10. 可选的 etcd 服务注册
	if len(cfg.Databases.Etcd.Endpoints) > 0 {
		registry, err := etcd.NewServiceRegistry(cfg.Databases.Etcd.Endpoints)
		if err != nil {
			appLogger.Fatal(fmt.Sprintf("Failed to create service registry: %v", err))
		}
		defer registry.Close()
		stopChan, err := registry.Register(ctx, ServiceName, httpServer.Addr(), cfg.Databases.Etcd.TTL)
		if err != nil {
			appLogger.Fatal(fmt.Sprintf("Failed to register service: %v", err))
		}
		defer close(stopChan)
		appLogger.Info(fmt.Sprintf("Service '%s' registered at '%s'", ServiceName, httpServer.Addr()))
	}

	// 11. 启动 HTTP 服务，收到信号后优雅退出
	if err := httpServer.Run(ctx); err != nil {
		appLogger.Error(fmt.Sprintf("HTTP server stopped: %v", err))
	}
	appLogger.Info("Compliance service stopped")
}

// newChatModel 创建当前提供商的客户端，启用熔断时加上熔断保护。
func newChatModel(ctx context.Context, cfg *config.AppConfig) (llm.ChatModel, error) {
	model, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	if !cfg.Middleware.CircuitBreaker.Enabled {
		return model, nil
	}
	cb, err := circuitbreaker.FromConfig(cfg.Middleware.CircuitBreaker)
	if err != nil {
		return nil, err
	}
	return llm.WithCircuitBreaker(model, cb), nil
}
