package llmclient

import (
	"context"
	"errors"
)

var ErrEmptyResponse = errors.New("llm: empty response from model")

// LLMClient defines the interface for LLM providers.
//
// prompt carries the system instructions; input is the user turn. A string
// input is sent verbatim, anything else is sent as indented JSON.
type LLMClient interface {
	Name() string
	Close() error
	Generate(ctx context.Context, prompt string, input any) (string, error)
	// GenerateStream delivers text fragments to onChunk in order as they
	// arrive and returns the concatenated text.
	GenerateStream(ctx context.Context, prompt string, input any, onChunk func(chunk string)) (string, error)
}

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err, or anything it wraps, is a PermanentError.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}
