package llmclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIClient calls an OpenAI-compatible Chat Completions endpoint
// (OpenAI, Groq, local gateways).
type OpenAIClient struct {
	http    *http.Client
	apiKey  string
	model   string
	baseURL string
}

// NewOpenAIClient creates a client. An empty apiKey falls back to
// OPENAI_API_KEY; an empty baseURL to DefaultOpenAIBaseURL.
func NewOpenAIClient(apiKey, model, baseURL string) *OpenAIClient {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if model == "" {
		model = "gpt-4o-2024-08-06"
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	return &OpenAIClient{
		// Streaming responses can run long; deadlines come from ctx.
		http:    &http.Client{Timeout: 5 * time.Minute},
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// WithHTTPClient replaces the transport, mainly for tests.
func (c *OpenAIClient) WithHTTPClient(h *http.Client) *OpenAIClient {
	c.http = h
	return c
}

func (c *OpenAIClient) Name() string { return "OpenAI:" + c.model }
func (c *OpenAIClient) Close() error { return nil }

type chatReq struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (c *OpenAIClient) do(ctx context.Context, prompt string, input any, stream bool) (*http.Response, error) {
	body := chatReq{Model: c.model, Stream: stream}
	if strings.TrimSpace(prompt) != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: prompt})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: UserText(input)})
	if t, ok := TemperatureFrom(ctx); ok {
		body.Temperature = &t
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		err := fmt.Errorf("openai: unexpected status %s: %s", resp.Status, string(msg))
		switch {
		case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
			return nil, NewPermanentError(err)
		case resp.StatusCode == http.StatusBadRequest && strings.Contains(string(msg), "context_length_exceeded"):
			return nil, NewPermanentError(err)
		}
		return nil, err
	}
	return resp, nil
}

// Generate performs one blocking chat completion.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, input any) (string, error) {
	resp, err := c.do(ctx, prompt, input, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	var out chatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return out.Choices[0].Message.Content, nil
}

// GenerateStream reads the server-sent "data:" lines of a streamed
// completion and forwards each content delta.
func (c *OpenAIClient) GenerateStream(ctx context.Context, prompt string, input any, onChunk func(chunk string)) (string, error) {
	resp, err := c.do(ctx, prompt, input, true)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var sb strings.Builder
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}
		var chunk chatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return sb.String(), fmt.Errorf("openai: decode stream chunk: %w", err)
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		piece := chunk.Choices[0].Delta.Content
		sb.WriteString(piece)
		if onChunk != nil {
			onChunk(piece)
		}
	}
	if err := sc.Err(); err != nil {
		return sb.String(), err
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}
