package api

import (
	"SafetyCompliance/backend/go/internal/agent"
	"SafetyCompliance/backend/go/internal/compliance_service/service"
	"SafetyCompliance/backend/go/internal/compliance_service/store"
	"SafetyCompliance/backend/go/internal/models"
	"SafetyCompliance/backend/go/pkg/logger"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

// AgentRunner 执行一次 agent 调用。
type AgentRunner interface {
	Run(ctx context.Context, instruction string) *agent.RunResult
}

// TaskCache 是已结束任务的读穿缓存。
type TaskCache interface {
	Get(ctx context.Context, id string) (*models.AgentTask, error)
	Put(ctx context.Context, task *models.AgentTask) error
}

// Handler 封装了所有 API endpoint 的处理函数。
type Handler struct {
	service *service.Service
	agent   AgentRunner
	cache   TaskCache
	version string
	log     *logger.Logger
}

// NewHandler 创建一个新的 Handler 实例。cache 可以为 nil。
func NewHandler(s *service.Service, runner AgentRunner, cache TaskCache, version string) *Handler {
	return &Handler{
		service: s,
		agent:   runner,
		cache:   cache,
		version: version,
		log:     logger.New("compliance-api", "", ""),
	}
}

// fail 把业务错误映射为 HTTP 状态码。notFound 是资源不存在时的提示。
func (h *Handler) fail(c *gin.Context, err error, notFound string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, service.ErrInvalidArgument), errors.Is(err, service.ErrUnsupportedDocument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "internal_error", StatusCode: http.StatusInternalServerError}).
			Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// Health 返回服务状态。
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}

// --- 框架 ---

func (h *Handler) ListFrameworks(c *gin.Context) {
	fws, err := h.service.ListFrameworks(c.Request.Context())
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, fws)
}

func (h *Handler) GetFramework(c *gin.Context) {
	fw, err := h.service.GetFramework(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Framework not found")
		return
	}
	c.JSON(http.StatusOK, fw)
}

// ImportFramework 接收 YAML 格式的框架定义。同名框架已存在时返回 200 和现有框架。
func (h *Handler) ImportFramework(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, err)
		return
	}
	fw, created, err := h.service.ImportFramework(c.Request.Context(), data)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, fw)
}

// --- 审计 ---

type createAuditRequest struct {
	Title       string `json:"title"`
	FrameworkID string `json:"framework_id" binding:"required"`
	Scope       string `json:"scope"`
}

type addFindingRequest struct {
	ControlID      string `json:"control_id"`
	Title          string `json:"title" binding:"required"`
	Description    string `json:"description"`
	Severity       string `json:"severity"`
	Recommendation string `json:"recommendation"`
}

type completeAuditRequest struct {
	Summary string `json:"summary"`
}

func (h *Handler) ListAudits(c *gin.Context) {
	audits, err := h.service.ListAudits(c.Request.Context())
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, audits)
}

func (h *Handler) CreateAudit(c *gin.Context) {
	var req createAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	audit, err := h.service.CreateAudit(c.Request.Context(), service.AuditInput{Title: req.Title, FrameworkID: req.FrameworkID, Scope: req.Scope})
	if err != nil {
		h.fail(c, err, "Framework not found")
		return
	}
	c.JSON(http.StatusCreated, audit)
}

func (h *Handler) GetAudit(c *gin.Context) {
	audit, err := h.service.GetAudit(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Audit not found")
		return
	}
	c.JSON(http.StatusOK, audit)
}

func (h *Handler) GetAuditFindings(c *gin.Context) {
	audit, err := h.service.GetAudit(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Audit not found")
		return
	}
	findings := audit.Findings
	if findings == nil {
		findings = []models.AuditFinding{}
	}
	c.JSON(http.StatusOK, findings)
}

func (h *Handler) AddFinding(c *gin.Context) {
	var req addFindingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	f, err := h.service.AddFinding(c.Request.Context(), service.FindingInput{
		AuditID:        c.Param("id"),
		ControlID:      req.ControlID,
		Title:          req.Title,
		Description:    req.Description,
		Severity:       models.Severity(req.Severity),
		Recommendation: req.Recommendation,
	})
	if err != nil {
		h.fail(c, err, "Audit not found")
		return
	}
	c.JSON(http.StatusCreated, f)
}

func (h *Handler) CompleteAudit(c *gin.Context) {
	var req completeAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	audit, err := h.service.CompleteAudit(c.Request.Context(), c.Param("id"), req.Summary)
	if err != nil {
		h.fail(c, err, "Audit not found")
		return
	}
	c.JSON(http.StatusOK, audit)
}

// --- 风险 ---

type createRiskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Likelihood  int    `json:"likelihood"`
	Impact      int    `json:"impact"`
	Owner       string `json:"owner"`
}

type updateRiskRequest struct {
	Likelihood int    `json:"likelihood" binding:"required"`
	Impact     int    `json:"impact" binding:"required"`
	Status     string `json:"status"`
}

type mitigationRequest struct {
	Action     string     `json:"action" binding:"required"`
	AssignedTo string     `json:"assigned_to"`
	DueDate    *time.Time `json:"due_date"`
}

type riskCell struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Score int    `json:"score"`
}

func (h *Handler) ListRisks(c *gin.Context) {
	risks, err := h.service.ListRisks(c.Request.Context())
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, risks)
}

// CreateRisk 未提供的可能性与影响默认为 1。
func (h *Handler) CreateRisk(c *gin.Context) {
	var req createRiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Likelihood == 0 {
		req.Likelihood = 1
	}
	if req.Impact == 0 {
		req.Impact = 1
	}
	r, err := h.service.CreateRisk(c.Request.Context(), service.RiskInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Likelihood:  req.Likelihood,
		Impact:      req.Impact,
		Owner:       req.Owner,
	})
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, r)
}

// RiskMatrix 返回 {"matrix": [impact][likelihood][]risk}。
func (h *Handler) RiskMatrix(c *gin.Context) {
	matrix, err := h.service.GetRiskMatrix(c.Request.Context())
	if err != nil {
		h.fail(c, err, "")
		return
	}
	out := make([][][]riskCell, len(matrix))
	for i, row := range matrix {
		out[i] = make([][]riskCell, len(row))
		for j, cell := range row {
			out[i][j] = make([]riskCell, 0, len(cell))
			for _, r := range cell {
				out[i][j] = append(out[i][j], riskCell{ID: r.ID, Title: r.Title, Score: r.Score})
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"matrix": out})
}

func (h *Handler) GetRisk(c *gin.Context) {
	r, err := h.service.GetRisk(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Risk not found")
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) UpdateRisk(c *gin.Context) {
	var req updateRiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	r, err := h.service.UpdateRisk(c.Request.Context(), c.Param("id"), service.RiskUpdate{
		Likelihood: req.Likelihood,
		Impact:     req.Impact,
		Status:     req.Status,
	})
	if err != nil {
		h.fail(c, err, "Risk not found")
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) AddMitigation(c *gin.Context) {
	var req mitigationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	m, err := h.service.AddMitigation(c.Request.Context(), c.Param("id"), service.MitigationInput{
		Action:     req.Action,
		AssignedTo: req.AssignedTo,
		DueDate:    req.DueDate,
	})
	if err != nil {
		h.fail(c, err, "Risk not found")
		return
	}
	c.JSON(http.StatusCreated, m)
}

// --- 政策 ---

type createPolicyRequest struct {
	Title         string  `json:"title" binding:"required"`
	FrameworkID   *string `json:"framework_id"`
	Category      string  `json:"category"`
	Content       string  `json:"content"`
	ContentFormat string  `json:"content_format"`
}

type addVersionRequest struct {
	Content       string `json:"content" binding:"required"`
	ContentFormat string `json:"content_format"`
	ChangeSummary string `json:"change_summary"`
}

type distributeRequest struct {
	Channel    string   `json:"channel" binding:"required"`
	Recipients []string `json:"recipients" binding:"required,min=1"`
}

func (h *Handler) ListPolicies(c *gin.Context) {
	policies, err := h.service.ListPolicies(c.Request.Context())
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, policies)
}

func (h *Handler) CreatePolicy(c *gin.Context) {
	var req createPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.service.CreatePolicy(c.Request.Context(), service.PolicyInput{
		Title:         req.Title,
		FrameworkID:   req.FrameworkID,
		Category:      req.Category,
		Content:       req.Content,
		ContentFormat: req.ContentFormat,
	})
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPolicy(c *gin.Context) {
	p, err := h.service.GetPolicy(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Policy not found")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) AddPolicyVersion(c *gin.Context) {
	var req addVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	v, err := h.service.AddPolicyVersion(c.Request.Context(), c.Param("id"), req.Content, req.ContentFormat, req.ChangeSummary)
	if err != nil {
		h.fail(c, err, "Policy not found")
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *Handler) ApprovePolicy(c *gin.Context) {
	p, err := h.service.ApprovePolicy(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Policy not found")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) DistributePolicy(c *gin.Context) {
	var req distributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ds, err := h.service.DistributePolicy(c.Request.Context(), c.Param("id"), models.DistributionChannel(req.Channel), req.Recipients)
	if err != nil {
		h.fail(c, err, "Policy not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"distributed": len(ds), "channel": req.Channel})
}

// --- 报告 ---

type generateReportRequest struct {
	DocType  string `json:"doc_type" binding:"required"`
	Format   string `json:"format" binding:"required"`
	SourceID string `json:"source_id"`
	Title    string `json:"title"`
}

func (h *Handler) ListReports(c *gin.Context) {
	reports, err := h.service.ListReports(c.Request.Context())
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (h *Handler) GenerateReport(c *gin.Context) {
	var req generateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	report, err := h.service.GenerateDocument(c.Request.Context(), service.DocumentRequest{
		DocType:  models.DocType(req.DocType),
		Format:   models.DocFormat(req.Format),
		SourceID: req.SourceID,
		Title:    req.Title,
	})
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, report)
}

func (h *Handler) GetReport(c *gin.Context) {
	report, err := h.service.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Report not found")
		return
	}
	c.JSON(http.StatusOK, report)
}

// DownloadReport 返回报告文件。Content-Type 优先使用从文件内容探测到的 Office 类型。
func (h *Handler) DownloadReport(c *gin.Context) {
	report, err := h.service.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Report not found")
		return
	}
	if _, err := os.Stat(report.FilePath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report file not found on disk"})
		return
	}
	c.Header("Content-Type", detectContentType(report.FilePath, report.Format))
	c.FileAttachment(report.FilePath, filepath.Base(report.FilePath))
}

func detectContentType(path string, format models.DocFormat) string {
	mt, err := mimetype.DetectFile(path)
	if err != nil || mt.Is("application/zip") || mt.Is("application/octet-stream") {
		return format.ContentType()
	}
	return mt.String()
}

// --- Agent ---

type executeRequest struct {
	Instruction string `json:"instruction" binding:"required"`
}

// ExecuteAgent 同步执行一次 agent 调用。调用本身的失败体现在结果的 status 中。
func (h *Handler) ExecuteAgent(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, h.agent.Run(c.Request.Context(), req.Instruction))
}

func (h *Handler) ListTasks(c *gin.Context) {
	tasks, err := h.service.Store().ListTasks(c.Request.Context(), 50)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// GetTask 先查缓存，未命中时读数据库，并把已结束的任务写回缓存。
func (h *Handler) GetTask(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if h.cache != nil {
		if task, err := h.cache.Get(ctx, id); err == nil {
			c.JSON(http.StatusOK, task)
			return
		}
	}
	task, err := h.service.Store().GetTask(ctx, id)
	if err != nil {
		h.fail(c, err, "Task not found")
		return
	}
	if h.cache != nil {
		if err := h.cache.Put(ctx, task); err != nil {
			h.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "cache_error"}).Warn("Failed to cache task")
		}
	}
	c.JSON(http.StatusOK, task)
}

// ToolExecutions 返回任务中记录的工具调用。
func (h *Handler) ToolExecutions(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := h.service.Store().GetTask(ctx, c.Param("id")); err != nil {
		h.fail(c, err, "Task not found")
		return
	}
	execs, err := h.service.Store().ListToolExecutions(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, execs)
}
