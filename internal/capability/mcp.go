package capability

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const mcpInstructions = "Design guidance tools: docs_search for UI/GenAI guidance snippets, " +
	"suggest_palette for a domain palette, ai_patterns for an AI UX pattern, " +
	"safety_rules for guardrail and telemetry settings."

// Definitions returns the MCP tool definitions for the built-in capabilities.
func Definitions() []mcp.Tool {
	return []mcp.Tool{
		mcp.NewTool(NameDocsSearch,
			mcp.WithDescription("Search built-in design guidance and return the best matching snippets."),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Keywords, e.g. 'accessibility contrast'"),
			),
			mcp.WithNumber("k",
				mcp.Description("Number of results (default: 3)"),
			),
		),
		mcp.NewTool(NameSuggestPalette,
			mcp.WithDescription("Suggest a color palette, including AI-state colors, for a subject domain."),
			mcp.WithString("subject",
				mcp.Required(),
				mcp.Description("Product domain, e.g. 'finance dashboard'"),
			),
			mcp.WithString("mood",
				mcp.Description("Desired mood (default: calm, trustworthy)"),
			),
		),
		mcp.NewTool(NameAIPatterns,
			mcp.WithDescription("Recommend an AI UX pattern with streaming and citation strategy."),
			mcp.WithString("purpose",
				mcp.Required(),
				mcp.Description("What the product is for"),
			),
			mcp.WithString("ai_use_cases",
				mcp.Required(),
				mcp.Description("AI use cases, e.g. 'chat with RAG'"),
			),
			mcp.WithNumber("latency_budget",
				mcp.Description("Latency budget in ms (default: 2000)"),
			),
		),
		mcp.NewTool(NameSafetyRules,
			mcp.WithDescription("Safety guardrails and observability settings."),
			mcp.WithString("safety_level",
				mcp.Description("strict, moderate (default) or relaxed"),
			),
			mcp.WithString("telemetry_opt_in",
				mcp.Description("on or off (default)"),
			),
		),
	}
}

// NewMCPServer exposes the registry's capabilities as MCP tools. Tools
// without a capability in reg are skipped.
func NewMCPServer(reg *Registry, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"designagent",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(mcpInstructions),
	)
	known := map[string]bool{}
	for _, spec := range reg.Specs() {
		known[spec.Name] = true
	}
	for _, def := range Definitions() {
		if !known[def.Name] {
			continue
		}
		s.AddTool(def, ToolHandler(reg, def.Name))
	}
	return s
}

// ToolHandler bridges an MCP tool call to a registry call. The result JSON
// is returned as text content; failures become error results.
func ToolHandler(reg *Registry, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s: encode arguments: %v", name, err)), nil
		}
		out, err := reg.Call(ctx, name, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}

// ServeMCP runs the capability server on stdio until stdin closes.
func ServeMCP(reg *Registry, version string) error {
	return server.ServeStdio(NewMCPServer(reg, version))
}
