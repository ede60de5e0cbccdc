package llm

import (
	"context"
	"time"

	llmclient "designagent/internal/llm/client"
)

// Retry retries failed calls up to maxAttempts with exponential backoff
// starting at baseDelay. Permanent errors and context cancellation stop it
// immediately. A stream is only retried if it failed before delivering its
// first chunk, so callers never see duplicated fragments.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		if maxAttempts == 1 {
			return next
		}
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next llmclient.LLMClient
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) Generate(ctx context.Context, prompt string, input any) (string, error) {
	var last error
	for i := 0; i < r.max; i++ {
		out, err := r.next.Generate(ctx, prompt, input)
		if err == nil {
			return out, nil
		}
		if llmclient.IsPermanent(err) {
			return "", err
		}
		last = err
		if i == r.max-1 {
			break
		}
		if err := r.wait(ctx, i); err != nil {
			return "", err
		}
	}
	return "", last
}

func (r *retrying) GenerateStream(ctx context.Context, prompt string, input any, onChunk func(chunk string)) (string, error) {
	var last error
	for i := 0; i < r.max; i++ {
		delivered := false
		out, err := r.next.GenerateStream(ctx, prompt, input, func(s string) {
			delivered = true
			if onChunk != nil {
				onChunk(s)
			}
		})
		if err == nil {
			return out, nil
		}
		if delivered || llmclient.IsPermanent(err) {
			return out, err
		}
		last = err
		if i == r.max-1 {
			break
		}
		if err := r.wait(ctx, i); err != nil {
			return "", err
		}
	}
	return "", last
}

func (r *retrying) wait(ctx context.Context, attempt int) error {
	t := time.NewTimer(r.base * time.Duration(1<<attempt))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
