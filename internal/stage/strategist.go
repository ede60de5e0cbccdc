package stage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"designagent/internal/designspec"
	"designagent/internal/llm"
	llmclient "designagent/internal/llm/client"
	"designagent/internal/llmtool"
)

const StrategistTemperature float32 = 0.5

// Temperatures overrides the sampling temperature per stage. Zero keeps the
// stage default.
type Temperatures struct {
	Strategist float32
	Ops        float32
	Engineer   float32
}

func orDefault(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}

const promptStrategist = `You are a senior UI designer for React/Next.js + Tailwind.
You specialize in GenAI & multi-agent apps: conversational UX, streaming responses,
tool-call visibility, safety (redaction, toxicity), and citations.

DESIGN FOCUS:
- Create design systems that match the specified tone and personality
- Adapt complexity based on the design complexity level (1000-7000)
- Ensure visual hierarchy and user experience excellence
- Consider industry-specific design patterns and best practices

Return ONLY valid minified JSON matching the provided schema. Use hex colors.
Prefer high contrast (WCAG AA 4.5:1 or better). Keep component names PascalCase.
Include AI UX components (ChatComposer, MessageBubble, RunTimeline).`

const briefTemplate = `Purpose: %s
Audience: %s
Tone: %s
Domain subject: %s
Brand colors (optional): %s
Constraints: %s
AI use cases: %s
Design complexity: %d (higher values = more complex design)
Needs citations: %s

IMPORTANT DESIGN TONE CONTEXT:
The tone field now contains comprehensive design personality options including:
- Professional & Corporate: calm/precise/credible, professional/trustworthy/authoritative, sophisticated/elegant/refined
- Modern & Innovative: modern/innovative/cutting-edge, futuristic/tech-forward/dynamic, bold/confident/progressive
- Creative & Artistic: creative/artistic/expressive, playful/fun/engaging, imaginative/whimsical/inspiring
- Healthcare & Wellness: caring/compassionate/healing, medical/clinical/sterile, wellness/holistic/nurturing
- Financial & Business: financial/secure/stable, business/professional/reliable, luxury/premium/exclusive
- Educational & Academic: educational/informative/enlightening, academic/scholarly/intellectual
- Security & Trust: secure/protected/safe, trustworthy/dependable/reliable, confidential/private/discreet
- Environmental & Sustainable: natural/organic/eco-friendly, sustainable/green/environmental
- Entertainment & Media: entertaining/engaging/captivating, media/dynamic/fast-paced
- Government & Public: official/governmental/authoritative, public/civic/community

DESIGN COMPLEXITY CONTEXT:
The latency_budget field now represents design complexity levels:
- 1000-1400: Simple/Basic/Essential designs
- 1800-2200: Standard/Comprehensive/Professional designs
- 2500-3000: Advanced/Complex/Premium designs
- 3500-4500: Creative/Artistic/Bespoke designs
- 5000-7000: Enterprise/Platform/Suite designs

Return JSON matching the schema. Include Tailwind tokens, AI state tokens,
and a Next.js App Router file list with ChatComposer, MessageBubble, RunTimeline.
`

// BriefPrompt renders the brief as the strategist's user turn.
func BriefPrompt(b designspec.Brief) string {
	return fmt.Sprintf(briefTemplate,
		b.Purpose, b.Audience, b.Tone, b.Subject, b.Brand, b.Constraints,
		b.AIUseCases, b.LatencyBudget, b.NeedsCitations)
}

// StrategistInput is the schema message followed by the brief.
func StrategistInput(b designspec.Brief) string {
	return designspec.SchemaPrompt() + "\n\n" + BriefPrompt(b)
}

// Strategist drafts the design spec from a brief.
type Strategist struct {
	LLM llm.Client
	// Tools is offered on the blocking path only. Nil means a plain call.
	Tools       llmtool.ToolProvider
	MaxIters    int
	Temperature float32
	Logger      *zap.Logger
}

func (s *Strategist) ctx(ctx context.Context) context.Context {
	ctx = llm.WithPhase(ctx, llm.PhaseStrategist)
	return llmclient.WithTemperature(ctx, orDefault(s.Temperature, StrategistTemperature))
}

// Stream forwards every model fragment to onChunk, in order, and returns
// the concatenated text.
func (s *Strategist) Stream(ctx context.Context, b designspec.Brief, onChunk func(string)) (string, error) {
	return s.LLM.GenerateStream(s.ctx(ctx), promptStrategist, StrategistInput(b), onChunk)
}

// Run drafts the spec in one blocking exchange, letting the model consult
// the capability tools first.
func (s *Strategist) Run(ctx context.Context, b designspec.Brief) (string, error) {
	ctx = s.ctx(ctx)
	input := StrategistInput(b)
	if s.Tools == nil || len(s.Tools.Specs()) == 0 {
		return s.LLM.Generate(ctx, promptStrategist, input)
	}
	loop := &llmtool.ToolLoop{LLM: s.LLM, Tools: s.Tools, MaxIters: s.MaxIters, Logger: s.Logger}
	out, state, err := loop.Run(ctx, input, strategistToolPrompt())
	if err != nil {
		return "", err
	}
	if s.Logger != nil {
		s.Logger.Debug("strategist tool loop done",
			zap.Int("iterations", state.Iterations),
			zap.Int("tool_calls", len(state.ToolResults)))
	}
	return out, nil
}

func strategistToolPrompt() llmtool.PromptBuilder {
	return llmtool.StructuredPromptBuilder(llmtool.ApplyPresets(
		llmtool.StructuredPromptSpec{
			Purpose: promptStrategist,
			Rules: []string{
				"Use suggest_palette, ai_patterns and safety_rules to ground palette, UX pattern and safety choices.",
				"Use docs_search for guidance on accessibility, streaming and citations.",
			},
			OutputFormat: "The final answer is the design spec JSON object.",
		},
		llmtool.PresetToolProtocol(),
	))
}
