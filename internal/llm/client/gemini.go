package llmclient

import (
	"context"
	"fmt"
	"os"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
// It only focuses on the API call itself. Cross-cutting concerns
// (rate limiting, retries, logging, hooks) are applied via Middleware.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

// NewGeminiClient creates a Gemini client. An empty apiKey falls back to
// GEMINI_API_KEY, then to the genai library's own environment lookup.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

func (g *GeminiClient) request(ctx context.Context, prompt string, input any) ([]*genai.Content, *genai.GenerateContentConfig) {
	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: UserText(input)}}}}
	cfg := &genai.GenerateContentConfig{}
	if strings.TrimSpace(prompt) != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: prompt}}}
	}
	if t, ok := TemperatureFrom(ctx); ok {
		cfg.Temperature = &t
	}
	return contents, cfg
}

// Generate sends one request and returns the text of the first candidate.
func (g *GeminiClient) Generate(ctx context.Context, prompt string, input any) (string, error) {
	contents, cfg := g.request(ctx, prompt, input)
	resp, err := g.cli.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", err
	}
	txt := candidateText(resp)
	if txt == "" {
		return "", ErrEmptyResponse
	}
	return txt, nil
}

// GenerateStream forwards each streamed candidate fragment to onChunk.
func (g *GeminiClient) GenerateStream(ctx context.Context, prompt string, input any, onChunk func(chunk string)) (string, error) {
	contents, cfg := g.request(ctx, prompt, input)
	var sb strings.Builder
	for resp, err := range g.cli.Models.GenerateContentStream(ctx, g.model, contents, cfg) {
		if err != nil {
			return sb.String(), err
		}
		chunk := candidateText(resp)
		if chunk == "" {
			continue
		}
		sb.WriteString(chunk)
		if onChunk != nil {
			onChunk(chunk)
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && !p.Thought {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}
