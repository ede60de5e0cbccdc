package llmclient

import (
	"context"
	"encoding/json"
)

type ctxKeyTemperature struct{}

// WithTemperature sets the sampling temperature for calls made with ctx.
func WithTemperature(ctx context.Context, t float32) context.Context {
	return context.WithValue(ctx, ctxKeyTemperature{}, t)
}

// TemperatureFrom returns the temperature stored in ctx, if any.
func TemperatureFrom(ctx context.Context) (float32, bool) {
	if v := ctx.Value(ctxKeyTemperature{}); v != nil {
		if t, ok := v.(float32); ok {
			return t, true
		}
	}
	return 0, false
}

// UserText renders the user turn from an input value.
func UserText(input any) string {
	switch v := input.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case json.RawMessage:
		return string(v)
	}
	b, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}
