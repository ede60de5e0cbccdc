package llmtool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	responses []string
	prompts   []string
}

func (f *fakeLLM) Name() string { return "fake" }
func (f *fakeLLM) Close() error { return nil }
func (f *fakeLLM) Generate(ctx context.Context, prompt string, input any) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if len(f.responses) == 0 {
		return "", errors.New("no more responses")
	}
	out := f.responses[0]
	f.responses = f.responses[1:]
	return out, nil
}
func (f *fakeLLM) GenerateStream(ctx context.Context, prompt string, input any, onChunk func(chunk string)) (string, error) {
	return f.Generate(ctx, prompt, input)
}

type fakeTools struct {
	specs []ToolSpec
	calls []string
	fail  bool
}

func (f *fakeTools) Specs() []ToolSpec { return f.specs }
func (f *fakeTools) Call(ctx context.Context, name string, input json.RawMessage) (json.RawMessage, error) {
	f.calls = append(f.calls, name)
	if f.fail {
		return nil, ErrToolNotFound
	}
	return json.RawMessage(`{"ok":true}`), nil
}

func builder() PromptBuilder {
	return StructuredPromptBuilder(ApplyPresets(StructuredPromptSpec{Purpose: "base"}, PresetToolProtocol()))
}

func TestToolLoop_ToolThenFinal(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		`{"action":"tool","tool_name":"docs_search","tool_input":{"query":"contrast"}}`,
		`{"action":"final","final":{"result":"done"}}`,
	}}
	tools := &fakeTools{specs: []ToolSpec{{Name: "docs_search"}}}
	loop := &ToolLoop{LLM: llm, Tools: tools, MaxIters: 3}

	out, state, err := loop.Run(context.Background(), "brief", builder())
	require.NoError(t, err)
	assert.Equal(t, `{"result":"done"}`, out)
	require.Len(t, state.ToolResults, 1)
	assert.Equal(t, "docs_search", state.ToolResults[0].Name)
	assert.JSONEq(t, `{"ok":true}`, string(state.ToolResults[0].Output))

	require.Len(t, llm.prompts, 2)
	assert.NotContains(t, llm.prompts[0], "[TOOL_RESULTS]")
	assert.Contains(t, llm.prompts[1], "[TOOL_RESULTS]")
}

func TestToolLoop_DirectAnswerIsFinal(t *testing.T) {
	llm := &fakeLLM{responses: []string{"```json\n{\"designSystem\":{}}\n```"}}
	loop := &ToolLoop{LLM: llm, Tools: &fakeTools{}}
	out, state, err := loop.Run(context.Background(), nil, builder())
	require.NoError(t, err)
	assert.Equal(t, "```json\n{\"designSystem\":{}}\n```", out)
	assert.Equal(t, 1, state.Iterations)
}

func TestToolLoop_ToolErrorIsRecorded(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		`{"action":"tool","tool_name":"nope"}`,
		`{"final":"plain text"}`,
	}}
	loop := &ToolLoop{LLM: llm, Tools: &fakeTools{fail: true}}
	out, state, err := loop.Run(context.Background(), nil, builder())
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)
	require.Len(t, state.ToolResults, 1)
	assert.NotEmpty(t, state.ToolResults[0].Error)
	assert.JSONEq(t, `{}`, string(state.ToolResults[0].Input))
}

func TestToolLoop_AllowedList(t *testing.T) {
	llm := &fakeLLM{responses: []string{`{"action":"tool","tool_name":"fs.read","tool_input":{"path":"x"}}`}}
	tools := &fakeTools{specs: []ToolSpec{{Name: "fs.read"}}}
	loop := &ToolLoop{LLM: llm, Tools: tools, MaxIters: 1, Allowed: []string{"docs_search"}}
	_, _, err := loop.Run(context.Background(), nil, builder())
	assert.ErrorIs(t, err, ErrToolNotAllowed)
	assert.Empty(t, tools.calls)
}

func TestToolLoop_MaxIterations(t *testing.T) {
	call := `{"action":"tool","tool_name":"docs_search","tool_input":{"query":"x"}}`
	llm := &fakeLLM{responses: []string{call, call}}
	loop := &ToolLoop{LLM: llm, Tools: &fakeTools{}, MaxIters: 1}
	_, _, err := loop.Run(context.Background(), nil, builder())
	assert.ErrorIs(t, err, ErrMaxIterations)
}

func TestToolLoop_UpstreamError(t *testing.T) {
	loop := &ToolLoop{LLM: &fakeLLM{}, Tools: &fakeTools{}}
	_, _, err := loop.Run(context.Background(), nil, builder())
	assert.EqualError(t, err, "no more responses")
}

func TestToolLoop_Misconfigured(t *testing.T) {
	_, _, err := (&ToolLoop{}).Run(context.Background(), nil, builder())
	assert.Error(t, err)
	_, _, err = (&ToolLoop{LLM: &fakeLLM{}, Tools: &fakeTools{}}).Run(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		action string
		text   string
		tool   string
	}{
		{name: "prose", raw: "I cannot do that", action: ActionFinal, text: "I cannot do that"},
		{name: "broken json", raw: `{"designSystem":`, action: ActionFinal, text: `{"designSystem":`},
		{name: "bare document", raw: `{"ux":{}}`, action: ActionFinal, text: `{"ux":{}}`},
		{name: "final string", raw: `{"action":"final","final":"hi"}`, action: ActionFinal, text: "hi"},
		{name: "final object", raw: `{"final":{"a":1}}`, action: ActionFinal, text: `{"a":1}`},
		{name: "implicit tool", raw: `{"tool_name":" ai_patterns "}`, action: ActionTool, tool: "ai_patterns"},
		{name: "fenced tool", raw: "```json\n{\"action\":\"tool\",\"tool_name\":\"safety_rules\"}\n```", action: ActionTool, tool: "safety_rules"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := ParseAction(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.action, env.Action)
			assert.Equal(t, tt.text, env.Text)
			assert.Equal(t, tt.tool, env.ToolName)
		})
	}
}

func TestParseAction_UnknownAction(t *testing.T) {
	_, err := ParseAction(`{"action":"think"}`)
	assert.ErrorIs(t, err, ErrUnknownAction)
}
