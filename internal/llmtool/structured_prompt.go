package llmtool

import (
	"bytes"
	"context"
	"fmt"
	"strings"
)

// PromptExample captures an optional input/output example.
type PromptExample struct {
	InputJSON  string
	OutputJSON string
}

// StructuredPromptSpec defines the sections appended to a base system prompt.
type StructuredPromptSpec struct {
	// Purpose is the stage's own system prompt, rendered first and verbatim.
	Purpose      string
	Constraints  []string
	Rules        []string
	OutputFormat string
	Examples     []PromptExample
}

// StructuredPromptBuilder renders the purpose followed by labelled sections
// for constraints, rules, tool specs and results so far.
func StructuredPromptBuilder(spec StructuredPromptSpec) PromptBuilder {
	return func(_ context.Context, state *ToolState, tools []ToolSpec) (string, error) {
		if strings.TrimSpace(spec.Purpose) == "" {
			return "", fmt.Errorf("llmtool: purpose is empty")
		}
		var buf bytes.Buffer
		buf.WriteString(strings.TrimRight(spec.Purpose, "\n"))
		buf.WriteString("\n\n")
		writeSection(&buf, "CONSTRAINTS", formatList(spec.Constraints))
		writeSection(&buf, "RULES", formatList(spec.Rules))
		writeSection(&buf, "OUTPUT_FORMAT", spec.OutputFormat)
		if len(tools) > 0 {
			writeSection(&buf, "TOOLS", FormatToolSpecs(tools))
		}
		if state != nil && len(state.ToolResults) > 0 {
			writeSection(&buf, "TOOL_RESULTS", FormatToolResults(state.ToolResults))
		}
		if len(spec.Examples) > 0 {
			writeSection(&buf, "EXAMPLES", formatExamples(spec.Examples))
		}
		return strings.TrimSpace(buf.String()) + "\n", nil
	}
}

func formatList(items []string) string {
	if len(items) == 0 {
		return ""
	}
	var buf strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fmt.Fprintf(&buf, "- %s\n", item)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatExamples(examples []PromptExample) string {
	var buf strings.Builder
	for i, ex := range examples {
		fmt.Fprintf(&buf, "Example %d:\n", i+1)
		if strings.TrimSpace(ex.InputJSON) != "" {
			buf.WriteString("INPUT:\n")
			buf.WriteString(strings.TrimRight(ex.InputJSON, "\n"))
			buf.WriteString("\n")
		}
		if strings.TrimSpace(ex.OutputJSON) != "" {
			buf.WriteString("OUTPUT:\n")
			buf.WriteString(strings.TrimRight(ex.OutputJSON, "\n"))
			buf.WriteString("\n")
		}
		buf.WriteString("\n")
	}
	return strings.TrimRight(buf.String(), "\n")
}

func writeSection(buf *bytes.Buffer, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	buf.WriteString("[")
	buf.WriteString(title)
	buf.WriteString("]\n")
	buf.WriteString(strings.TrimRight(body, "\n"))
	buf.WriteString("\n\n")
}
