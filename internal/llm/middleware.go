package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	llmclient "designagent/internal/llm/client"
	"designagent/internal/metrics"
)

// Middleware decorates an LLMClient to inject cross-cutting concerns
// (rate limiting, retries, logging, hooks, etc.).
type Middleware func(llmclient.LLMClient) llmclient.LLMClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner llmclient.LLMClient, mws ...Middleware) llmclient.LLMClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// -------- Rate limiting --------

// RateLimit allows at most rps requests per second with the given burst.
// If rps <= 0, the limiter is disabled.
func RateLimit(rps float64, burst int) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		if rps <= 0 {
			return next
		}
		if burst <= 0 {
			burst = 1
		}
		return &rateLimited{next: next, rl: rate.NewLimiter(rate.Limit(rps), burst)}
	}
}

type rateLimited struct {
	next llmclient.LLMClient
	rl   *rate.Limiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error { return c.next.Close() }

func (c *rateLimited) Generate(ctx context.Context, prompt string, input any) (string, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return "", err
	}
	return c.next.Generate(ctx, prompt, input)
}

func (c *rateLimited) GenerateStream(ctx context.Context, prompt string, input any, onChunk func(chunk string)) (string, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return "", err
	}
	return c.next.GenerateStream(ctx, prompt, input, onChunk)
}

// -------- Concurrency --------

// Concurrency caps the number of in-flight requests across all runs sharing
// the client. n <= 0 disables the cap.
func Concurrency(n int) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		if n <= 0 {
			return next
		}
		return &bounded{next: next, sem: semaphore.NewWeighted(int64(n))}
	}
}

type bounded struct {
	next llmclient.LLMClient
	sem  *semaphore.Weighted
}

func (b *bounded) Name() string { return b.next.Name() }
func (b *bounded) Close() error { return b.next.Close() }

func (b *bounded) Generate(ctx context.Context, prompt string, input any) (string, error) {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer b.sem.Release(1)
	return b.next.Generate(ctx, prompt, input)
}

func (b *bounded) GenerateStream(ctx context.Context, prompt string, input any, onChunk func(chunk string)) (string, error) {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer b.sem.Release(1)
	return b.next.GenerateStream(ctx, prompt, input, onChunk)
}

// -------- Logging --------

// WithLogging logs request size, latency and errors per phase. A nil logger
// disables it.
func WithLogging(logger *zap.Logger) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		if logger == nil {
			return next
		}
		return &logging{next: next, log: logger.Named("llm")}
	}
}

type logging struct {
	next llmclient.LLMClient
	log  *zap.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }

func (l *logging) fields(ctx context.Context, prompt string, input any) []zap.Field {
	return []zap.Field{
		zap.String("phase", PhaseFrom(ctx)),
		zap.String("client", l.next.Name()),
		zap.Int("request_bytes", len(prompt)+len(llmclient.UserText(input))),
	}
}

func (l *logging) Generate(ctx context.Context, prompt string, input any) (string, error) {
	fields := l.fields(ctx, prompt, input)
	l.log.Debug("LLM request", fields...)
	start := time.Now()
	out, err := l.next.Generate(ctx, prompt, input)
	fields = append(fields, zap.Duration("elapsed", time.Since(start)))
	if err != nil {
		l.log.Warn("LLM error", append(fields, zap.Error(err))...)
		return out, err
	}
	l.log.Debug("LLM response", append(fields, zap.Int("approx_tokens", llmclient.CountTokens(out)))...)
	return out, nil
}

func (l *logging) GenerateStream(ctx context.Context, prompt string, input any, onChunk func(chunk string)) (string, error) {
	fields := l.fields(ctx, prompt, input)
	l.log.Debug("LLM stream request", fields...)
	start := time.Now()
	chunks := 0
	out, err := l.next.GenerateStream(ctx, prompt, input, func(s string) {
		chunks++
		if onChunk != nil {
			onChunk(s)
		}
	})
	fields = append(fields, zap.Duration("elapsed", time.Since(start)), zap.Int("chunks", chunks))
	if err != nil {
		l.log.Warn("LLM stream error", append(fields, zap.Error(err))...)
		return out, err
	}
	l.log.Debug("LLM stream done", append(fields, zap.Int("approx_tokens", llmclient.CountTokens(out)))...)
	return out, nil
}

// -------- Metrics --------

// WithMetrics counts requests per phase and outcome. A nil m disables it.
func WithMetrics(m *metrics.Metrics) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		if m == nil {
			return next
		}
		return &measured{next: next, m: m}
	}
}

type measured struct {
	next llmclient.LLMClient
	m    *metrics.Metrics
}

func (c *measured) Name() string { return c.next.Name() }
func (c *measured) Close() error { return c.next.Close() }

func (c *measured) Generate(ctx context.Context, prompt string, input any) (string, error) {
	out, err := c.next.Generate(ctx, prompt, input)
	c.m.ObserveLLMRequest(PhaseFrom(ctx), err)
	return out, err
}

func (c *measured) GenerateStream(ctx context.Context, prompt string, input any, onChunk func(chunk string)) (string, error) {
	out, err := c.next.GenerateStream(ctx, prompt, input, onChunk)
	c.m.ObserveLLMRequest(PhaseFrom(ctx), err)
	return out, err
}
