package agent

import (
	"SafetyCompliance/backend/go/internal/compliance_service/service"
	"SafetyCompliance/backend/go/internal/compliance_service/store"
	"SafetyCompliance/backend/go/internal/metrics"
	"SafetyCompliance/backend/go/internal/models"
	"SafetyCompliance/backend/go/pkg/logger"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

// ErrUnknownTool 表示模型请求了一个不存在的工具。
var ErrUnknownTool = errors.New("unknown tool")

// ArgumentError 表示工具参数无法解码或未通过校验。
type ArgumentError struct {
	Tool string
	Err  error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %v", e.Tool, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// toolError 是直接作为错误结果返回给模型的消息。
type toolError string

func (e toolError) Error() string { return string(e) }

type toolHandler func(ctx context.Context, args json.RawMessage) (interface{}, error)

// Dispatcher 把工具调用路由到合规服务，并始终返回 JSON 文本。
// 底层操作的失败被转换为 {"error": msg}，不会中断 agent 循环。
type Dispatcher struct {
	svc      *service.Service
	validate *validator.Validate
	handlers map[string]toolHandler
	metrics  *metrics.Metrics
	log      *logger.Logger
}

// NewDispatcher 创建 Dispatcher。m 可以为 nil。
func NewDispatcher(svc *service.Service, m *metrics.Metrics) *Dispatcher {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	d := &Dispatcher{
		svc:      svc,
		validate: v,
		metrics:  m,
		log:      logger.New("tool-dispatcher", "", ""),
	}
	d.handlers = map[string]toolHandler{
		ToolQueryFrameworks:        d.queryFrameworks,
		ToolQueryFrameworkControls: d.queryFrameworkControls,
		ToolCreateAudit:            d.createAudit,
		ToolCreateAuditFinding:     d.createAuditFinding,
		ToolCompleteAudit:          d.completeAudit,
		ToolQueryAudits:            d.queryAudits,
		ToolAssessRisk:             d.assessRisk,
		ToolQueryRisks:             d.queryRisks,
		ToolCreatePolicyDraft:      d.createPolicyDraft,
		ToolQueryPolicies:          d.queryPolicies,
		ToolGenerateDocument:       d.generateDocument,
	}
	return d
}

// Dispatch 执行一个工具并返回序列化结果。isError 表示结果是错误对象。
// 底层操作的 panic 同样转换为错误结果。
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args json.RawMessage) (result string, isError bool) {
	defer func() {
		if r := recover(); r != nil {
			d.log.WithPayload(map[string]interface{}{"tool": name, "panic": fmt.Sprint(r)}).Error("Tool panicked")
			result, isError = errorResult(fmt.Sprint(r)), true
		}
	}()
	h, ok := d.handlers[name]
	if !ok {
		d.log.WithPayload(map[string]interface{}{"tool": name}).Warn("Unknown tool requested")
		return errorResult("Unknown tool: " + name), true
	}
	payload, err := h(ctx, args)
	if err != nil {
		return errorResult(err.Error()), true
	}
	out, err := encodeResult(payload)
	if err != nil {
		return errorResult(err.Error()), true
	}
	return out, false
}

// Call 描述 agent 循环中的一次工具调用。
type Call struct {
	TaskID    string
	Iteration int
	ToolUse   models.ContentBlock
}

// Execute 执行一次工具调用并返回对应的 tool_result 块。
// TaskID 非空时记录 ToolExecution，记录失败只写日志。
func (d *Dispatcher) Execute(ctx context.Context, call Call) models.ContentBlock {
	start := time.Now()
	out, isErr := d.Dispatch(ctx, call.ToolUse.Name, call.ToolUse.Input)
	elapsed := time.Since(start)
	d.metrics.ObserveTool(call.ToolUse.Name, isErr, elapsed)

	if call.TaskID != "" {
		exec := &models.ToolExecution{
			TaskID:     call.TaskID,
			Iteration:  call.Iteration,
			ToolUseID:  call.ToolUse.ID,
			Name:       call.ToolUse.Name,
			Input:      datatypes.JSON(call.ToolUse.Input),
			Output:     out,
			IsError:    isErr,
			DurationMs: elapsed.Milliseconds(),
		}
		if err := d.svc.Store().RecordToolExecution(ctx, exec); err != nil {
			logger.New("tool-dispatcher", call.TaskID, "").
				WithError(models.ErrorInfo{Message: err.Error(), Type: "database_error"}).
				Warn("Failed to record tool execution")
		}
	}
	return models.ToolResultBlock(call.ToolUse.ID, out, isErr)
}

// decode 解码并校验参数。空参数视为 {}。
func (d *Dispatcher) decode(tool string, raw json.RawMessage, dst interface{}) error {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &ArgumentError{Tool: tool, Err: err}
	}
	if err := d.validate.Struct(dst); err != nil {
		return &ArgumentError{Tool: tool, Err: describeValidation(err)}
	}
	return nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// errorResult 构造 {"error": msg}。
func errorResult(msg string) string {
	b, _ := marshalNoEscape(msg)
	return `{"error": ` + string(b) + `}`
}

func marshalNoEscape(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// encodeResult 序列化结果，键值与元素之间使用 ", " 和 ": " 分隔。
func encodeResult(v interface{}) (string, error) {
	b, err := marshalNoEscape(v)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	out.Grow(len(b) + len(b)/8)
	inString, escaped := false, false
	for _, c := range b {
		out.WriteByte(c)
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && (c == ',' || c == ':'):
			out.WriteByte(' ')
		}
	}
	return out.String(), nil
}

// ---- 参数与结果 ----

type frameworkRef struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	ID      string `json:"id"`
}

type controlRef struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

type frameworkDetail struct {
	Name     string       `json:"name"`
	Version  string       `json:"version"`
	ID       string       `json:"id"`
	Controls []controlRef `json:"controls"`
}

type controlDetail struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type frameworkControls struct {
	Framework string          `json:"framework"`
	Controls  []controlDetail `json:"controls"`
}

type statusRef struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

type findingRef struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Severity models.Severity `json:"severity"`
}

type auditState struct {
	ID     string             `json:"id"`
	Status models.AuditStatus `json:"status"`
}

type riskRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Score int    `json:"score"`
}

type riskListItem struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Score  int    `json:"score"`
	Status string `json:"status"`
}

type documentRef struct {
	ID       string `json:"id"`
	FilePath string `json:"file_path"`
}

type queryFrameworksArgs struct {
	Name string `json:"name"`
}

type frameworkControlsArgs struct {
	FrameworkName string `json:"framework_name" validate:"required"`
}

type createAuditArgs struct {
	Title       string `json:"title"`
	FrameworkID string `json:"framework_id" validate:"required"`
	Scope       string `json:"scope"`
}

type createFindingArgs struct {
	AuditID        string `json:"audit_id" validate:"required"`
	ControlID      string `json:"control_id"`
	Title          string `json:"title" validate:"required"`
	Description    string `json:"description"`
	Severity       string `json:"severity" validate:"required,oneof=critical high medium low info"`
	Recommendation string `json:"recommendation"`
}

type completeAuditArgs struct {
	AuditID string `json:"audit_id" validate:"required"`
	Summary string `json:"summary" validate:"required"`
}

type assessRiskArgs struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Likelihood  int    `json:"likelihood" validate:"required,min=1,max=5"`
	Impact      int    `json:"impact" validate:"required,min=1,max=5"`
	Owner       string `json:"owner"`
}

type policyDraftArgs struct {
	Title       string `json:"title" validate:"required"`
	FrameworkID string `json:"framework_id"`
	Category    string `json:"category"`
	Content     string `json:"content" validate:"required"`
}

type generateDocumentArgs struct {
	DocType  string `json:"doc_type" validate:"required"`
	Format   string `json:"format" validate:"required"`
	SourceID string `json:"source_id"`
	Title    string `json:"title"`
}

// ---- 处理函数 ----

func frameworkNotFound(name string) error {
	return toolError(fmt.Sprintf("Framework '%s' not found", name))
}

func (d *Dispatcher) queryFrameworks(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var args queryFrameworksArgs
	if err := d.decode(ToolQueryFrameworks, raw, &args); err != nil {
		return nil, err
	}
	if args.Name != "" {
		fw, err := d.svc.GetFrameworkByName(ctx, args.Name)
		if errors.Is(err, store.ErrNotFound) {
			return nil, frameworkNotFound(args.Name)
		}
		if err != nil {
			return nil, err
		}
		out := frameworkDetail{Name: fw.Name, Version: fw.Version, ID: fw.ID, Controls: []controlRef{}}
		for _, c := range fw.Controls {
			out.Controls = append(out.Controls, controlRef{ID: c.ControlID, Title: c.Title, Category: c.Category})
		}
		return out, nil
	}
	fws, err := d.svc.ListFrameworks(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]frameworkRef, 0, len(fws))
	for _, fw := range fws {
		out = append(out, frameworkRef{Name: fw.Name, Version: fw.Version, ID: fw.ID})
	}
	return out, nil
}

func (d *Dispatcher) queryFrameworkControls(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var args frameworkControlsArgs
	if err := d.decode(ToolQueryFrameworkControls, raw, &args); err != nil {
		return nil, err
	}
	fw, err := d.svc.GetFrameworkByName(ctx, args.FrameworkName)
	if errors.Is(err, store.ErrNotFound) {
		return nil, frameworkNotFound(args.FrameworkName)
	}
	if err != nil {
		return nil, err
	}
	out := frameworkControls{Framework: fw.Name, Controls: []controlDetail{}}
	for _, c := range fw.Controls {
		out.Controls = append(out.Controls, controlDetail{ID: c.ControlID, Title: c.Title, Description: c.Description, Category: c.Category})
	}
	return out, nil
}

func (d *Dispatcher) createAudit(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var args createAuditArgs
	if err := d.decode(ToolCreateAudit, raw, &args); err != nil {
		return nil, err
	}
	audit, err := d.svc.CreateAudit(ctx, service.AuditInput{Title: args.Title, FrameworkID: args.FrameworkID, Scope: args.Scope})
	if err != nil {
		return nil, err
	}
	return statusRef{ID: audit.ID, Title: audit.Title, Status: string(audit.Status)}, nil
}

func (d *Dispatcher) createAuditFinding(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var args createFindingArgs
	if err := d.decode(ToolCreateAuditFinding, raw, &args); err != nil {
		return nil, err
	}
	f, err := d.svc.AddFinding(ctx, service.FindingInput{
		AuditID:        args.AuditID,
		ControlID:      args.ControlID,
		Title:          args.Title,
		Description:    args.Description,
		Severity:       models.Severity(args.Severity),
		Recommendation: args.Recommendation,
	})
	if err != nil {
		return nil, err
	}
	return findingRef{ID: f.ID, Title: f.Title, Severity: f.Severity}, nil
}

func (d *Dispatcher) completeAudit(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var args completeAuditArgs
	if err := d.decode(ToolCompleteAudit, raw, &args); err != nil {
		return nil, err
	}
	audit, err := d.svc.CompleteAudit(ctx, args.AuditID, args.Summary)
	if errors.Is(err, store.ErrNotFound) {
		return nil, toolError("Audit not found")
	}
	if err != nil {
		return nil, err
	}
	return auditState{ID: audit.ID, Status: audit.Status}, nil
}

func (d *Dispatcher) queryAudits(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	audits, err := d.svc.ListAudits(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]statusRef, 0, len(audits))
	for _, a := range audits {
		out = append(out, statusRef{ID: a.ID, Title: a.Title, Status: string(a.Status)})
	}
	return out, nil
}

func (d *Dispatcher) assessRisk(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var args assessRiskArgs
	if err := d.decode(ToolAssessRisk, raw, &args); err != nil {
		return nil, err
	}
	r, err := d.svc.CreateRisk(ctx, service.RiskInput{
		Title:       args.Title,
		Description: args.Description,
		Category:    args.Category,
		Likelihood:  args.Likelihood,
		Impact:      args.Impact,
		Owner:       args.Owner,
	})
	if err != nil {
		return nil, err
	}
	return riskRef{ID: r.ID, Title: r.Title, Score: r.Score}, nil
}

func (d *Dispatcher) queryRisks(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	risks, err := d.svc.ListRisks(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]riskListItem, 0, len(risks))
	for _, r := range risks {
		out = append(out, riskListItem{ID: r.ID, Title: r.Title, Score: r.Score, Status: r.Status})
	}
	return out, nil
}

func (d *Dispatcher) createPolicyDraft(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var args policyDraftArgs
	if err := d.decode(ToolCreatePolicyDraft, raw, &args); err != nil {
		return nil, err
	}
	in := service.PolicyInput{Title: args.Title, Category: args.Category, Content: args.Content}
	if args.FrameworkID != "" {
		in.FrameworkID = &args.FrameworkID
	}
	p, err := d.svc.CreatePolicy(ctx, in)
	if err != nil {
		return nil, err
	}
	return statusRef{ID: p.ID, Title: p.Title, Status: p.Status}, nil
}

func (d *Dispatcher) queryPolicies(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	policies, err := d.svc.ListPolicies(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]statusRef, 0, len(policies))
	for _, p := range policies {
		out = append(out, statusRef{ID: p.ID, Title: p.Title, Status: p.Status})
	}
	return out, nil
}

func (d *Dispatcher) generateDocument(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var args generateDocumentArgs
	if err := d.decode(ToolGenerateDocument, raw, &args); err != nil {
		return nil, err
	}
	req := service.DocumentRequest{
		DocType:  models.DocType(args.DocType),
		Format:   models.DocFormat(args.Format),
		SourceID: args.SourceID,
		Title:    args.Title,
	}
	report, err := d.svc.GenerateDocument(ctx, req)
	if errors.Is(err, service.ErrUnsupportedDocument) {
		return nil, toolError(fmt.Sprintf("Could not generate %s in %s format", args.DocType, args.Format))
	}
	if err != nil {
		return nil, err
	}
	return documentRef{ID: report.ID, FilePath: report.FilePath}, nil
}
