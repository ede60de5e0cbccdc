package llm

import (
	"context"

	llmclient "designagent/internal/llm/client"
)

// PromptHook defines callbacks around LLM requests.
type PromptHook interface {
	Before(ctx context.Context, phase, prompt string, input any)
	After(ctx context.Context, phase, output string, err error)
}

type ctxKeyPhase struct{}

// WithPhase tags calls made with ctx.
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, ctxKeyPhase{}, phase)
}

// PhaseFrom returns the phase string stored in the context.
func PhaseFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyPhase{}); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "unknown"
}

// WithHooks calls every hook before and after each request.
func WithHooks(hooks ...PromptHook) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		if len(hooks) == 0 {
			return next
		}
		return &hooked{next: next, hooks: hooks}
	}
}

type hooked struct {
	next  llmclient.LLMClient
	hooks []PromptHook
}

func (h *hooked) Name() string { return h.next.Name() }
func (h *hooked) Close() error { return h.next.Close() }

func (h *hooked) before(ctx context.Context, prompt string, input any) {
	for _, hk := range h.hooks {
		hk.Before(ctx, PhaseFrom(ctx), prompt, input)
	}
}

func (h *hooked) after(ctx context.Context, out string, err error) {
	for _, hk := range h.hooks {
		hk.After(ctx, PhaseFrom(ctx), out, err)
	}
}

func (h *hooked) Generate(ctx context.Context, prompt string, input any) (string, error) {
	h.before(ctx, prompt, input)
	out, err := h.next.Generate(ctx, prompt, input)
	h.after(ctx, out, err)
	return out, err
}

func (h *hooked) GenerateStream(ctx context.Context, prompt string, input any, onChunk func(chunk string)) (string, error) {
	h.before(ctx, prompt, input)
	out, err := h.next.GenerateStream(ctx, prompt, input, onChunk)
	h.after(ctx, out, err)
	return out, err
}
