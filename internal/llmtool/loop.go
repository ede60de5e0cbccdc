package llmtool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	llmclient "designagent/internal/llm/client"
)

var (
	ErrMaxIterations  = errors.New("llmtool: max iterations reached")
	ErrUnknownAction  = errors.New("llmtool: unknown action")
	ErrToolNotFound   = errors.New("llmtool: tool not found")
	ErrToolNotAllowed = errors.New("llmtool: tool not allowed")
)

// DefaultMaxIters bounds a loop whose MaxIters is unset.
const DefaultMaxIters = 5

// ToolProvider abstracts tool registry calls.
type ToolProvider interface {
	Specs() []ToolSpec
	Call(ctx context.Context, name string, input json.RawMessage) (json.RawMessage, error)
}

// PromptBuilder builds the system prompt given tool specs and current tool state.
type PromptBuilder func(ctx context.Context, state *ToolState, tools []ToolSpec) (string, error)

// ToolLoop runs tool-call iterations until a final response is returned.
type ToolLoop struct {
	LLM      llmclient.LLMClient
	Tools    ToolProvider
	MaxIters int
	Allowed  []string
	Logger   *zap.Logger
}

// ToolState captures tool results across iterations.
type ToolState struct {
	Input       any
	Iterations  int
	ToolResults []ToolResult
}

// ToolResult captures the output of a tool call.
type ToolResult struct {
	Name   string          `json:"name"`
	Input  json.RawMessage `json:"input,omitempty"`
	Output json.RawMessage `json:"output,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Run executes the tool loop and returns the final answer text. The answer
// is returned as the model wrote it; callers own parsing and repair.
func (l *ToolLoop) Run(ctx context.Context, input any, build PromptBuilder) (string, *ToolState, error) {
	if l == nil || l.LLM == nil || l.Tools == nil {
		return "", nil, fmt.Errorf("llmtool: missing LLM or tools")
	}
	if build == nil {
		return "", nil, fmt.Errorf("llmtool: prompt builder is nil")
	}
	log := l.Logger
	if log == nil {
		log = zap.NewNop()
	}
	max := l.MaxIters
	if max <= 0 {
		max = DefaultMaxIters
	}
	allowed := make(map[string]struct{}, len(l.Allowed))
	for _, a := range l.Allowed {
		a = strings.TrimSpace(a)
		if a != "" {
			allowed[a] = struct{}{}
		}
	}

	state := &ToolState{Input: input}
	tools := l.Tools.Specs()
	for i := 0; i < max; i++ {
		if err := ctx.Err(); err != nil {
			return "", state, err
		}
		state.Iterations = i + 1
		prompt, err := build(ctx, state, tools)
		if err != nil {
			return "", state, err
		}
		raw, err := l.LLM.Generate(ctx, prompt, input)
		if err != nil {
			return "", state, err
		}
		action, err := ParseAction(raw)
		if err != nil {
			return "", state, err
		}
		switch action.Action {
		case ActionFinal:
			return action.Text, state, nil
		case ActionTool:
			if action.ToolName == "" {
				return "", state, fmt.Errorf("llmtool: tool_name required")
			}
			if len(allowed) > 0 {
				if _, ok := allowed[action.ToolName]; !ok {
					return "", state, ErrToolNotAllowed
				}
			}
			in := action.ToolInput
			if len(in) == 0 {
				in = json.RawMessage(`{}`)
			}
			out, err := l.Tools.Call(ctx, action.ToolName, in)
			tr := ToolResult{
				Name:   action.ToolName,
				Input:  in,
				Output: out,
			}
			if err != nil {
				tr.Error = err.Error()
				log.Debug("tool call failed", zap.String("tool", action.ToolName), zap.Error(err))
			} else {
				log.Debug("tool call", zap.String("tool", action.ToolName), zap.Int("iteration", state.Iterations))
			}
			state.ToolResults = append(state.ToolResults, tr)
		default:
			return "", state, ErrUnknownAction
		}
	}
	return "", state, ErrMaxIterations
}
