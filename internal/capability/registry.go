package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"designagent/internal/llmtool"
)

// Capability names as offered to the model.
const (
	NameDocsSearch     = "docs_search"
	NameSuggestPalette = "suggest_palette"
	NameAIPatterns     = "ai_patterns"
	NameSafetyRules    = "safety_rules"
)

// Capability pairs a tool contract with the function that serves it.
type Capability struct {
	Spec llmtool.ToolSpec
	Call func(ctx context.Context, input json.RawMessage) (json.RawMessage, error)
}

// Registry holds capabilities by name and dispatches calls. It implements
// llmtool.ToolProvider.
type Registry struct {
	mu    sync.RWMutex
	order []string
	caps  map[string]Capability
}

var _ llmtool.ToolProvider = (*Registry)(nil)

// NewRegistry creates a registry holding caps.
func NewRegistry(caps ...Capability) *Registry {
	r := &Registry{caps: map[string]Capability{}}
	for _, c := range caps {
		r.Register(c)
	}
	return r
}

// Default returns a registry with the four built-in capabilities.
func Default() *Registry {
	return NewRegistry(docsSearchCapability(), suggestPaletteCapability(), aiPatternsCapability(), safetyRulesCapability())
}

// Register adds or replaces a capability by name.
func (r *Registry) Register(c Capability) {
	if r == nil || c.Call == nil || c.Spec.Name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.caps == nil {
		r.caps = map[string]Capability{}
	}
	if _, ok := r.caps[c.Spec.Name]; !ok {
		r.order = append(r.order, c.Spec.Name)
	}
	r.caps[c.Spec.Name] = c
}

// Call invokes a registered capability.
func (r *Registry) Call(ctx context.Context, name string, input json.RawMessage) (json.RawMessage, error) {
	if r == nil {
		return nil, fmt.Errorf("capability: registry is nil")
	}
	r.mu.RLock()
	c, ok := r.caps[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", llmtool.ErrToolNotFound, name)
	}
	return c.Call(ctx, input)
}

// Specs returns the tool specs in registration order.
func (r *Registry) Specs() []llmtool.ToolSpec {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]llmtool.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.caps[name].Spec)
	}
	return out
}

func decodeArgs(name string, input json.RawMessage, v any) error {
	if len(strings.TrimSpace(string(input))) == 0 || string(input) == "null" {
		return nil
	}
	if err := json.Unmarshal(input, v); err != nil {
		return fmt.Errorf("%s: decode input: %w", name, err)
	}
	return nil
}

// --------------------- docs_search ---------------------

type docsSearchInput struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

func docsSearchCapability() Capability {
	return Capability{
		Spec: llmtool.ToolSpec{
			Name:        NameDocsSearch,
			Description: "Search built-in design guidance (tailwind, next, a11y, genai, agents, safety, ...). Returns the k best snippets.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"query":{"type":"string"},"k":{"type":"integer","default":3}},"required":["query"]}`),
		},
		Call: func(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
			var in docsSearchInput
			if err := decodeArgs(NameDocsSearch, input, &in); err != nil {
				return nil, err
			}
			return json.Marshal(DocsSearch(in.Query, in.K))
		},
	}
}

// --------------------- suggest_palette ---------------------

type suggestPaletteInput struct {
	Subject string `json:"subject"`
	Mood    string `json:"mood,omitempty"`
}

func suggestPaletteCapability() Capability {
	return Capability{
		Spec: llmtool.ToolSpec{
			Name:        NameSuggestPalette,
			Description: "Suggest a color palette with AI-state colors for a subject domain.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"subject":{"type":"string"},"mood":{"type":"string","default":"calm, trustworthy"}},"required":["subject"]}`),
		},
		Call: func(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
			in := suggestPaletteInput{Mood: DefaultMood}
			if err := decodeArgs(NameSuggestPalette, input, &in); err != nil {
				return nil, err
			}
			return json.Marshal(SuggestPalette(in.Subject, in.Mood))
		},
	}
}

// --------------------- ai_patterns ---------------------

type aiPatternsInput struct {
	Purpose       string `json:"purpose"`
	AIUseCases    string `json:"ai_use_cases"`
	LatencyBudget *int   `json:"latency_budget,omitempty"`
}

func aiPatternsCapability() Capability {
	return Capability{
		Spec: llmtool.ToolSpec{
			Name:        NameAIPatterns,
			Description: "Recommend an AI UX pattern, streaming and citation strategy for the use cases and latency budget.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"purpose":{"type":"string"},"ai_use_cases":{"type":"string"},"latency_budget":{"type":"integer","default":2000}},"required":["purpose","ai_use_cases"]}`),
		},
		Call: func(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
			var in aiPatternsInput
			if err := decodeArgs(NameAIPatterns, input, &in); err != nil {
				return nil, err
			}
			budget := DefaultLatencyBudget
			if in.LatencyBudget != nil {
				budget = *in.LatencyBudget
			}
			return json.Marshal(AIPatterns(in.Purpose, in.AIUseCases, budget))
		},
	}
}

// --------------------- safety_rules ---------------------

type safetyRulesInput struct {
	SafetyLevel    string `json:"safety_level,omitempty"`
	TelemetryOptIn string `json:"telemetry_opt_in,omitempty"`
}

func safetyRulesCapability() Capability {
	return Capability{
		Spec: llmtool.ToolSpec{
			Name:        NameSafetyRules,
			Description: "Safety guardrails and observability settings for a safety level (strict|moderate|relaxed) and telemetry opt-in (on|off).",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"safety_level":{"type":"string","enum":["strict","moderate","relaxed"],"default":"moderate"},"telemetry_opt_in":{"type":"string","enum":["on","off"],"default":"off"}}}`),
		},
		Call: func(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
			in := safetyRulesInput{SafetyLevel: DefaultSafetyLevel, TelemetryOptIn: DefaultTelemetryOptIn}
			if err := decodeArgs(NameSafetyRules, input, &in); err != nil {
				return nil, err
			}
			return json.Marshal(SafetyRules(in.SafetyLevel, in.TelemetryOptIn))
		},
	}
}
