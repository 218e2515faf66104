package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RouterOptions 是挂载路由时可选的中间件与端点。
type RouterOptions struct {
	// Auth 保护 /api/v1 下除健康检查以外的所有路由，为 nil 时不认证。
	Auth gin.HandlerFunc
	// ExecuteLimiter 只作用于 POST /agent/execute。
	ExecuteLimiter gin.HandlerFunc
	// Metrics 挂载在 GET /metrics。
	Metrics http.Handler
	// Ready 检查依赖是否可用，挂载在 GET /api/v1/health/ready。
	Ready func(ctx context.Context) error
}

// RegisterRoutes 在 engine 上注册全部 API 路由。
func RegisterRoutes(r *gin.Engine, h *Handler, opts RouterOptions) {
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	apiV1 := r.Group("/api/v1")
	apiV1.GET("/health", h.Health)
	if opts.Ready != nil {
		apiV1.GET("/health/ready", readiness(opts.Ready))
	}

	protected := apiV1.Group("")
	if opts.Auth != nil {
		protected.Use(opts.Auth)
	}

	frameworks := protected.Group("/frameworks")
	{
		frameworks.GET("", h.ListFrameworks)
		frameworks.POST("", h.ImportFramework)
		frameworks.GET("/:id", h.GetFramework)
	}

	audits := protected.Group("/audits")
	{
		audits.GET("", h.ListAudits)
		audits.POST("", h.CreateAudit)
		audits.GET("/:id", h.GetAudit)
		audits.GET("/:id/findings", h.GetAuditFindings)
		audits.POST("/:id/findings", h.AddFinding)
		audits.POST("/:id/complete", h.CompleteAudit)
	}

	risks := protected.Group("/risks")
	{
		risks.GET("", h.ListRisks)
		risks.POST("", h.CreateRisk)
		risks.GET("/matrix", h.RiskMatrix)
		risks.GET("/:id", h.GetRisk)
		risks.PUT("/:id", h.UpdateRisk)
		risks.POST("/:id/mitigations", h.AddMitigation)
	}

	policies := protected.Group("/policies")
	{
		policies.GET("", h.ListPolicies)
		policies.POST("", h.CreatePolicy)
		policies.GET("/:id", h.GetPolicy)
		policies.POST("/:id/versions", h.AddPolicyVersion)
		policies.POST("/:id/approve", h.ApprovePolicy)
		policies.POST("/:id/distribute", h.DistributePolicy)
	}

	reports := protected.Group("/reports")
	{
		reports.GET("", h.ListReports)
		reports.POST("/generate", h.GenerateReport)
		reports.GET("/:id", h.GetReport)
		reports.GET("/:id/download", h.DownloadReport)
	}

	agentGroup := protected.Group("/agent")
	{
		execute := []gin.HandlerFunc{h.ExecuteAgent}
		if opts.ExecuteLimiter != nil {
			execute = append([]gin.HandlerFunc{opts.ExecuteLimiter}, execute...)
		}
		agentGroup.POST("/execute", execute...)
		agentGroup.GET("/tasks", h.ListTasks)
		agentGroup.GET("/tasks/:id", h.GetTask)
		agentGroup.GET("/tasks/:id/tools", h.ToolExecutions)
	}
}

func readiness(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := check(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
