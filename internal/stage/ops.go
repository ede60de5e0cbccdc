package stage

import (
	"context"
	"fmt"

	"designagent/internal/designspec"
	"designagent/internal/llm"
	llmclient "designagent/internal/llm/client"
)

const OpsTemperature float32 = 0.2

const promptOps = "You are Agent Ops. Verify safety, latency, and observability. " +
	"Return a short JSON patch with keys you want to add/update under aiSolution and components."

const opsTemplate = "Here is the current spec JSON:\n%s\n" +
	"Suggest minimal changes to include: safety banners, run timeline visibility, and latency hints."

// OpsInput renders the current spec as the Ops user turn.
func OpsInput(doc *designspec.Document) (string, error) {
	b, err := designspec.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("ops: encode spec: %w", err)
	}
	return fmt.Sprintf(opsTemplate, b), nil
}

// Ops reviews the draft for safety, latency and observability and answers
// with a patch. The raw answer is returned; the caller decides whether it
// is a usable patch.
type Ops struct {
	LLM         llm.Client
	Temperature float32
}

func (o *Ops) Run(ctx context.Context, doc *designspec.Document) (string, error) {
	input, err := OpsInput(doc)
	if err != nil {
		return "", err
	}
	ctx = llm.WithPhase(ctx, llm.PhaseOps)
	ctx = llmclient.WithTemperature(ctx, orDefault(o.Temperature, OpsTemperature))
	return o.LLM.Generate(ctx, promptOps, input)
}
