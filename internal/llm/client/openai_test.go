package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClient_Generate(t *testing.T) {
	var got chatReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("k", "m", srv.URL+"/v1/")
	ctx := WithTemperature(context.Background(), 0.2)
	out, err := c.Generate(ctx, "system text", "user text")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)

	assert.Equal(t, "m", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: "system text"}, got.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "user text"}, got.Messages[1])
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.2, *got.Temperature, 1e-6)
	assert.False(t, got.Stream)
}

func TestOpenAIClient_GenerateStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, piece := range []string{`{"a"`, `:`, `1}`} {
			b, _ := json.Marshal(map[string]any{"choices": []any{map[string]any{"delta": map[string]string{"content": piece}}}})
			fmt.Fprintf(w, "data: %s\n\n", b)
		}
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	var chunks []string
	c := NewOpenAIClient("k", "m", srv.URL)
	out, err := c.GenerateStream(context.Background(), "", "brief", func(s string) { chunks = append(chunks, s) })
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)
	assert.Equal(t, []string{`{"a"`, `:`, `1}`}, chunks)
}

func TestOpenAIClient_Errors(t *testing.T) {
	status := http.StatusUnauthorized
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"nope"}`))
	}))
	defer srv.Close()
	c := NewOpenAIClient("k", "m", srv.URL)

	_, err := c.Generate(context.Background(), "", "x")
	require.Error(t, err)
	assert.True(t, IsPermanent(err))

	status = http.StatusTooManyRequests
	_, err = c.Generate(context.Background(), "", "x")
	require.Error(t, err)
	assert.False(t, IsPermanent(err))
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()
	_, err := NewOpenAIClient("k", "m", srv.URL).Generate(context.Background(), "", "x")
	assert.True(t, errors.Is(err, ErrEmptyResponse))
}

func TestUserText(t *testing.T) {
	assert.Equal(t, "hi", UserText("hi"))
	assert.Equal(t, "", UserText(nil))
	assert.Equal(t, "{\n  \"a\": 1\n}", UserText(map[string]int{"a": 1}))
	assert.Equal(t, `{"b":2}`, UserText(json.RawMessage(`{"b":2}`)))
}

func TestCountTokens(t *testing.T) {
	assert.Equal(t, 0, CountTokens("   "))
	assert.Equal(t, 3, CountTokens("one two three"))
	assert.Equal(t, 10, CountTokens("0123456789012345678901234567890123456789"))
}
