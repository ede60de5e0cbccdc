package stage

import (
	"context"

	"designagent/internal/designspec"
	"designagent/internal/llm"
	llmclient "designagent/internal/llm/client"
)

const promptRepair = "Return ONLY valid JSON that strictly matches the schema below."

// RepairInput is the schema message followed by the text to fix.
func RepairInput(invalid string) string {
	return designspec.SchemaPrompt() + "\n\nFix this into valid JSON:\n" + invalid
}

// Repairer asks the model to rewrite unparseable strategist output as
// schema-conformant JSON. It runs with the strategist's temperature.
type Repairer struct {
	LLM         llm.Client
	Temperature float32
}

func (r *Repairer) Run(ctx context.Context, invalid string) (string, error) {
	ctx = llm.WithPhase(ctx, llm.PhaseRepair)
	ctx = llmclient.WithTemperature(ctx, orDefault(r.Temperature, StrategistTemperature))
	return r.LLM.Generate(ctx, promptRepair, RepairInput(invalid))
}
