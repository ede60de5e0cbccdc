package llmtool

import (
	"encoding/json"
	"fmt"
	"strings"

	"designagent/internal/util/jsonutil"
)

const (
	ActionFinal = "final"
	ActionTool  = "tool"
)

// ActionEnvelope describes the tool-loop action response from the LLM.
type ActionEnvelope struct {
	Action    string          `json:"action,omitempty"`
	ToolName  string          `json:"tool_name,omitempty"`
	ToolInput json.RawMessage `json:"tool_input,omitempty"`
	Final     json.RawMessage `json:"final,omitempty"`

	// Text is the final answer: the unquoted "final" string, the "final"
	// JSON value, or the whole response when it is not an envelope.
	Text string `json:"-"`
}

// ParseAction parses the LLM response into an action envelope.
// Responses that are not an envelope (prose, a bare document, broken JSON)
// are final answers carried verbatim in Text.
func ParseAction(raw string) (ActionEnvelope, error) {
	var env ActionEnvelope
	if err := json.Unmarshal([]byte(jsonutil.ExtractObject(raw)), &env); err != nil {
		return ActionEnvelope{Action: ActionFinal, Text: raw}, nil
	}
	if env.Action == "" && env.ToolName == "" && len(env.Final) == 0 {
		return ActionEnvelope{Action: ActionFinal, Text: raw}, nil
	}

	if env.Action == "" {
		switch {
		case len(env.Final) > 0:
			env.Action = ActionFinal
		case env.ToolName != "" || len(env.ToolInput) > 0:
			env.Action = ActionTool
		}
	}
	switch env.Action {
	case ActionFinal:
		env.Text = finalText(env.Final)
		return env, nil
	case ActionTool:
		env.ToolName = strings.TrimSpace(env.ToolName)
		return env, nil
	default:
		return ActionEnvelope{}, fmt.Errorf("%w: %q", ErrUnknownAction, env.Action)
	}
}

func finalText(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}
