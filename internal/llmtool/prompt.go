package llmtool

import (
	"designagent/internal/util/jsonutil"
)

// FormatToolSpecs renders a compact JSON block of tool specs for prompt inclusion.
func FormatToolSpecs(tools []ToolSpec) string {
	if tools == nil {
		tools = []ToolSpec{}
	}
	b, _ := jsonutil.MarshalNoEscape(tools)
	return string(b)
}

// FormatToolResults renders tool results as a JSON block.
func FormatToolResults(results []ToolResult) string {
	if results == nil {
		results = []ToolResult{}
	}
	b, _ := jsonutil.MarshalNoEscape(results)
	return string(b)
}
