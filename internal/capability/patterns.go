package capability

import "strings"

const DefaultLatencyBudget = 2000

// PatternAdvice is the ai_patterns result.
type PatternAdvice struct {
	Pattern          string `json:"pattern"`
	Streaming        string `json:"streaming"`
	Citations        string `json:"citations"`
	OptimisticUI     bool   `json:"optimistic_ui"`
	SkeletonStrategy string `json:"skeleton_strategy"`
	ToolVisibility   string `json:"tool_visibility"`
}

// AIPatterns picks a UX pattern from the use-case text and a loading
// strategy from the latency budget. Purpose is currently not consulted.
func AIPatterns(purpose, aiUseCases string, latencyBudget int) PatternAdvice {
	uc := strings.ToLower(aiUseCases)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(uc, w) {
				return true
			}
		}
		return false
	}

	var a PatternAdvice
	switch {
	case has("chat", "conversation"):
		a.Pattern, a.Streaming, a.Citations = "conversational", "essential", "optional"
		if has("rag", "retrieval") {
			a.Citations = "mandatory"
		}
	case has("copilot", "assistant"):
		a.Pattern, a.Streaming, a.Citations = "copilot", "preferred", "recommended"
	case has("workflow", "orchestration"):
		a.Pattern, a.Streaming, a.Citations = "workflow", "progressive", "contextual"
	case has("agents", "multi-agent"):
		a.Pattern, a.Streaming, a.Citations = "orchestrator", "status_updates", "per_agent"
	default:
		a.Pattern, a.Streaming, a.Citations = "conversational", "optional", "optional"
	}

	switch {
	case latencyBudget < 1000:
		a.OptimisticUI, a.SkeletonStrategy = true, "immediate"
	case latencyBudget < 3000:
		a.OptimisticUI, a.SkeletonStrategy = true, "progressive"
	default:
		a.OptimisticUI, a.SkeletonStrategy = false, "minimal"
	}

	a.ToolVisibility = "collapsible"
	if a.Pattern == "workflow" || a.Pattern == "orchestrator" {
		a.ToolVisibility = "expanded"
	}
	return a
}
