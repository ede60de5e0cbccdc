package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	llmclient "designagent/internal/llm/client"
	"designagent/internal/metrics"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"
	ProviderFake   = "fake"

	GroqBaseURL = "https://api.groq.com/openai/v1"
)

// Options selects a provider and the middleware around it.
type Options struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string

	RPS            float64
	Burst          int
	MaxConcurrency int
	RetryAttempts  int
	RetryBaseDelay time.Duration

	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Hooks   []PromptHook
}

// New builds the provider client wrapped as
// hooks → metrics → logging → retry → rate limit → concurrency → provider.
func New(ctx context.Context, o Options) (Client, error) {
	var base Client
	switch strings.ToLower(strings.TrimSpace(o.Provider)) {
	case ProviderGemini:
		g, err := llmclient.NewGeminiClient(ctx, o.APIKey, o.Model)
		if err != nil {
			return nil, err
		}
		base = g
	case ProviderOpenAI:
		base = llmclient.NewOpenAIClient(o.APIKey, o.Model, o.BaseURL)
	case ProviderGroq:
		url := o.BaseURL
		if url == "" {
			url = GroqBaseURL
		}
		base = llmclient.NewOpenAIClient(o.APIKey, o.Model, url)
	case ProviderFake, "":
		base = NewFakeClient()
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", o.Provider)
	}
	return Wrap(base,
		WithHooks(o.Hooks...),
		WithMetrics(o.Metrics),
		WithLogging(o.Logger),
		Retry(o.RetryAttempts, o.RetryBaseDelay),
		RateLimit(o.RPS, o.Burst),
		Concurrency(o.MaxConcurrency),
	), nil
}
