package agent

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// 工具名称。
const (
	ToolQueryFrameworks        = "query_frameworks"
	ToolQueryFrameworkControls = "query_framework_controls"
	ToolCreateAudit            = "create_audit"
	ToolCreateAuditFinding     = "create_audit_finding"
	ToolCompleteAudit          = "complete_audit"
	ToolQueryAudits            = "query_audits"
	ToolAssessRisk             = "assess_risk"
	ToolQueryRisks             = "query_risks"
	ToolCreatePolicyDraft      = "create_policy_draft"
	ToolQueryPolicies          = "query_policies"
	ToolGenerateDocument       = "generate_document"
)

// withInteger 添加一个 integer 类型的参数，mcp-go 只提供 number。
func withInteger(name string, opts ...mcp.PropertyOption) mcp.ToolOption {
	return func(t *mcp.Tool) {
		schema := map[string]interface{}{"type": "integer"}
		for _, opt := range opts {
			opt(schema)
		}
		if required, ok := schema["required"].(bool); ok {
			delete(schema, "required")
			if required {
				t.InputSchema.Required = append(t.InputSchema.Required, name)
			}
		}
		t.InputSchema.Properties[name] = schema
	}
}

// Tools 返回 agent 可用的工具定义，顺序固定。定义只描述参数，不做校验。
func Tools() []mcp.Tool {
	return []mcp.Tool{
		mcp.NewTool(ToolQueryFrameworks,
			mcp.WithDescription("List all available compliance frameworks and their controls"),
			mcp.WithString("name", mcp.Description("Optional framework name to filter by")),
		),
		mcp.NewTool(ToolQueryFrameworkControls,
			mcp.WithDescription("Get controls for a specific compliance framework"),
			mcp.WithString("framework_name", mcp.Required(), mcp.Description("Name of the framework (e.g. GDPR, ISO 27001, SOC 2)")),
		),
		mcp.NewTool(ToolCreateAudit,
			mcp.WithDescription("Create a new compliance audit"),
			mcp.WithString("title", mcp.Description("Audit title")),
			mcp.WithString("framework_id", mcp.Required(), mcp.Description("Framework ID to audit against")),
			mcp.WithString("scope", mcp.Description("Audit scope description")),
		),
		mcp.NewTool(ToolCreateAuditFinding,
			mcp.WithDescription("Record a finding from an audit"),
			mcp.WithString("audit_id", mcp.Required()),
			mcp.WithString("control_id", mcp.Description("Framework control ID")),
			mcp.WithString("title", mcp.Required()),
			mcp.WithString("description"),
			mcp.WithString("severity", mcp.Required(), mcp.Enum("critical", "high", "medium", "low", "info")),
			mcp.WithString("recommendation"),
		),
		mcp.NewTool(ToolCompleteAudit,
			mcp.WithDescription("Mark an audit as completed with a summary"),
			mcp.WithString("audit_id", mcp.Required()),
			mcp.WithString("summary", mcp.Required(), mcp.Description("Audit summary and conclusions")),
		),
		mcp.NewTool(ToolQueryAudits,
			mcp.WithDescription("List existing audits"),
		),
		mcp.NewTool(ToolAssessRisk,
			mcp.WithDescription("Create a new risk assessment entry"),
			mcp.WithString("title", mcp.Required()),
			mcp.WithString("description"),
			mcp.WithString("category"),
			withInteger("likelihood", mcp.Required(), mcp.Min(1), mcp.Max(5)),
			withInteger("impact", mcp.Required(), mcp.Min(1), mcp.Max(5)),
			mcp.WithString("owner"),
		),
		mcp.NewTool(ToolQueryRisks,
			mcp.WithDescription("List existing risks"),
		),
		mcp.NewTool(ToolCreatePolicyDraft,
			mcp.WithDescription("Create a new policy with content"),
			mcp.WithString("title", mcp.Required()),
			mcp.WithString("framework_id", mcp.Description("Optional framework ID")),
			mcp.WithString("category"),
			mcp.WithString("content", mcp.Required(), mcp.Description("Full policy content text")),
		),
		mcp.NewTool(ToolQueryPolicies,
			mcp.WithDescription("List existing policies"),
		),
		mcp.NewTool(ToolGenerateDocument,
			mcp.WithDescription("Generate a Word/Excel/PowerPoint document"),
			mcp.WithString("doc_type", mcp.Required(), mcp.Enum("audit_report", "risk_register", "policy_document", "executive_summary")),
			mcp.WithString("format", mcp.Required(), mcp.Enum("docx", "xlsx", "pptx")),
			mcp.WithString("source_id", mcp.Description("ID of audit/risk/policy to generate from")),
			mcp.WithString("title"),
		),
	}
}
