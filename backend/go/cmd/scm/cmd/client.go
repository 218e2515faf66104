package cmd

import (
	"SafetyCompliance/backend/go/internal/agent"
	"SafetyCompliance/backend/go/internal/models"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// agentTimeout 覆盖一次完整的 agent 调用，包括所有模型轮次。
const agentTimeout = 10 * time.Minute

// apiClient 是合规服务 REST API 的客户端。
type apiClient struct {
	r *resty.Client
}

// newAPIClient 创建客户端。transport 为 nil 时使用默认传输层。
func newAPIClient(baseURL, token string, transport http.RoundTripper) *apiClient {
	r := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")+"/api/v1").
		SetTimeout(agentTimeout).
		SetHeader("Content-Type", "application/json")
	if transport != nil {
		r.SetTransport(transport)
	}
	if token != "" {
		r.SetAuthToken(token)
	}
	return &apiClient{r: r}
}

type apiError struct {
	Error string `json:"error"`
}

// check 把非 2xx 响应转换为 error，优先使用响应体中的 "error" 字段。
func check(resp *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return nil, err
	}
	if !resp.IsError() {
		return resp, nil
	}
	var body apiError
	if json.Unmarshal(resp.Body(), &body) == nil && body.Error != "" {
		return resp, errors.New(body.Error)
	}
	return resp, fmt.Errorf("%s %s: %s", resp.Request.Method, resp.Request.URL, resp.Status())
}

func (c *apiClient) get(path string, out interface{}) error {
	_, err := check(c.r.R().SetResult(out).Get(path))
	return err
}

func (c *apiClient) post(path string, body, out interface{}) (int, error) {
	req := c.r.R().SetResult(out)
	if body != nil {
		req.SetBody(body)
	}
	resp, err := check(req.Post(path))
	if resp == nil {
		return 0, err
	}
	return resp.StatusCode(), err
}

func (c *apiClient) put(path string, body, out interface{}) error {
	_, err := check(c.r.R().SetBody(body).SetResult(out).Put(path))
	return err
}

// --- 框架 ---

func (c *apiClient) listFrameworks() ([]models.ComplianceFramework, error) {
	var out []models.ComplianceFramework
	if err := c.get("/frameworks", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// findFramework 按名称查找框架，列表接口不带控制项，找到后再取详情。
func (c *apiClient) findFramework(name string) (*models.ComplianceFramework, error) {
	fws, err := c.listFrameworks()
	if err != nil {
		return nil, err
	}
	for _, fw := range fws {
		if fw.Name == name {
			var full models.ComplianceFramework
			if err := c.get("/frameworks/"+fw.ID, &full); err != nil {
				return nil, err
			}
			return &full, nil
		}
	}
	return nil, fmt.Errorf("Framework '%s' not found", name)
}

// importFramework 上传 YAML 文件，created 为 false 表示同名框架已存在。
func (c *apiClient) importFramework(path string) (fw *models.ComplianceFramework, created bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	fw = &models.ComplianceFramework{}
	resp, err := check(c.r.R().
		SetHeader("Content-Type", "application/x-yaml").
		SetBody(data).
		SetResult(fw).
		Post("/frameworks"))
	if err != nil {
		return nil, false, err
	}
	return fw, resp.StatusCode() == http.StatusCreated, nil
}

// --- 审计 ---

func (c *apiClient) listAudits() ([]models.Audit, error) {
	var out []models.Audit
	if err := c.get("/audits", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *apiClient) getAudit(id string) (*models.Audit, error) {
	var out models.Audit
	if err := c.get("/audits/"+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- 风险 ---

func (c *apiClient) listRisks() ([]models.Risk, error) {
	var out []models.Risk
	if err := c.get("/risks", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *apiClient) getRisk(id string) (*models.Risk, error) {
	var out models.Risk
	if err := c.get("/risks/"+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type matrixCell struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Score int    `json:"score"`
}

func (c *apiClient) riskMatrix() ([][][]matrixCell, error) {
	var out struct {
		Matrix [][][]matrixCell `json:"matrix"`
	}
	if err := c.get("/risks/matrix", &out); err != nil {
		return nil, err
	}
	return out.Matrix, nil
}

func (c *apiClient) updateRisk(id string, likelihood, impact int, status string) (*models.Risk, error) {
	var out models.Risk
	body := map[string]interface{}{"likelihood": likelihood, "impact": impact}
	if status != "" {
		body["status"] = status
	}
	if err := c.put("/risks/"+id, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- 政策 ---

func (c *apiClient) listPolicies() ([]models.Policy, error) {
	var out []models.Policy
	if err := c.get("/policies", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *apiClient) getPolicy(id string) (*models.Policy, error) {
	var out models.Policy
	if err := c.get("/policies/"+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) approvePolicy(id string) (*models.Policy, error) {
	var out models.Policy
	if _, err := c.post("/policies/"+id+"/approve", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) distributePolicy(id, channel string, recipients []string) (int, error) {
	var out struct {
		Distributed int `json:"distributed"`
	}
	_, err := c.post("/policies/"+id+"/distribute", map[string]interface{}{
		"channel":    channel,
		"recipients": recipients,
	}, &out)
	return out.Distributed, err
}

// --- 报告 ---

func (c *apiClient) listReports() ([]models.Report, error) {
	var out []models.Report
	if err := c.get("/reports", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *apiClient) generateReport(docType models.DocType, format models.DocFormat, sourceID, title string) (*models.Report, error) {
	var out models.Report
	_, err := c.post("/reports/generate", map[string]string{
		"doc_type":  string(docType),
		"format":    string(format),
		"source_id": sourceID,
		"title":     title,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// downloadReport 把报告文件保存到 dir，返回写入的路径。
func (c *apiClient) downloadReport(id, dir string) (string, error) {
	report := &models.Report{}
	if err := c.get("/reports/"+id, report); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(dir, filepath.Base(report.FilePath))
	if _, err := check(c.r.R().SetOutput(dest).Get("/reports/" + id + "/download")); err != nil {
		os.Remove(dest)
		return "", err
	}
	return dest, nil
}

// --- Agent ---

func (c *apiClient) execute(instruction string) (*agent.RunResult, error) {
	var out agent.RunResult
	if _, err := c.post("/agent/execute", map[string]string{"instruction": instruction}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) listTasks() ([]models.AgentTask, error) {
	var out []models.AgentTask
	if err := c.get("/agent/tasks", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *apiClient) getTask(id string) (*models.AgentTask, []models.ToolExecution, error) {
	var task models.AgentTask
	if err := c.get("/agent/tasks/"+id, &task); err != nil {
		return nil, nil, err
	}
	var execs []models.ToolExecution
	if err := c.get("/agent/tasks/"+id+"/tools", &execs); err != nil {
		return nil, nil, err
	}
	return &task, execs, nil
}
