package llm

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// inputSchema 把 mcp 工具的参数定义转换为 JSON Schema 对象。
func inputSchema(tool mcp.Tool) map[string]interface{} {
	props := tool.InputSchema.Properties
	if props == nil {
		props = map[string]interface{}{}
	}
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(tool.InputSchema.Required) > 0 {
		schema["required"] = tool.InputSchema.Required
	}
	return schema
}

// stringList 读取 schema 中的字符串列表，例如 enum。
func stringList(v interface{}) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
