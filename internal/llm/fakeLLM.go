package llm

import (
	"context"
	"strings"
	"unicode/utf8"

	"designagent/internal/designspec"
)

// FakeOpsPatch is the patch FakeClient answers with in the agent_ops phase.
const FakeOpsPatch = `{"aiSolution":{"safety":{"contentFiltering":true,"redaction":true,"hallucinationCues":true,"guardrails":["pii_masking","toxicity_filter"],"banner":"Responses may be inaccurate; check citations."},"latency":{"targetMs":1800,"optimisticUI":true,"skeletonStrategy":"progressive"}},"components":[{"name":"SafetyBanner","type":"feedback","states":["info","warning"],"a11y":{"role":"status"},"aiSpecific":{"safety":true}}]}`

// FakeEngineerNotes is the FakeClient answer in the ui_engineer phase.
const FakeEngineerNotes = `{"notes":["OK","tokens map cleanly onto tailwind.config"]}`

// FakeClient returns deterministic payloads per phase for offline use and
// tests. Responses overrides the answer for a phase.
type FakeClient struct {
	Responses map[string]string
	// ChunkSize splits streamed output; <= 0 streams 64-byte fragments.
	ChunkSize int
}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) answer(phase string) string {
	if s, ok := f.Responses[phase]; ok {
		return s
	}
	switch phase {
	case PhaseOps:
		return FakeOpsPatch
	case PhaseEngineer:
		return FakeEngineerNotes
	default:
		return strings.TrimSpace(designspec.SampleJSON)
	}
}

func (f *FakeClient) Generate(ctx context.Context, prompt string, input any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.answer(PhaseFrom(ctx)), nil
}

func (f *FakeClient) GenerateStream(ctx context.Context, prompt string, input any, onChunk func(chunk string)) (string, error) {
	out := f.answer(PhaseFrom(ctx))
	size := f.ChunkSize
	if size <= 0 {
		size = 64
	}
	for i := 0; i < len(out); {
		if err := ctx.Err(); err != nil {
			return out[:i], err
		}
		end := runeCut(out, i, size)
		if onChunk != nil {
			onChunk(out[i:end])
		}
		i = end
	}
	return out, nil
}

// runeCut returns the end of the chunk starting at i. The cut never lands
// inside a multi-byte rune; a chunk holds at least one whole rune.
func runeCut(s string, i, size int) int {
	end := min(i+size, len(s))
	for end < len(s) && end > i && !utf8.RuneStart(s[end]) {
		end--
	}
	if end == i {
		_, n := utf8.DecodeRuneInString(s[i:])
		end = i + n
	}
	return end
}
