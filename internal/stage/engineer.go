package stage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"designagent/internal/designspec"
	"designagent/internal/llm"
	llmclient "designagent/internal/llm/client"
	"designagent/internal/util/jsonutil"
)

const EngineerTemperature float32 = 0.3

const promptEngineer = "You are a UI Engineer. Given the approved spec JSON, confirm tokens and file list are buildable. " +
	"Return 'OK' and any minor fixes as a JSON with keys 'notes' and optional 'patch'."

// EngineerInput renders the approved spec as the Engineer user turn.
func EngineerInput(doc *designspec.Document) (string, error) {
	b, err := designspec.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("engineer: encode spec: %w", err)
	}
	return "Spec JSON:\n" + string(b), nil
}

// Review is the Engineer's advisory answer. It never changes the spec.
type Review struct {
	Notes []string
	Raw   string
}

// Engineer checks that tokens and the file list are buildable.
type Engineer struct {
	LLM         llm.Client
	Temperature float32
}

func (e *Engineer) Run(ctx context.Context, doc *designspec.Document) (Review, error) {
	input, err := EngineerInput(doc)
	if err != nil {
		return Review{}, err
	}
	ctx = llm.WithPhase(ctx, llm.PhaseEngineer)
	ctx = llmclient.WithTemperature(ctx, orDefault(e.Temperature, EngineerTemperature))
	raw, err := e.LLM.Generate(ctx, promptEngineer, input)
	if err != nil {
		return Review{}, err
	}
	return ParseReview(raw), nil
}

// ParseReview reads the notes out of an Engineer answer. "notes" may be a
// string or a list; anything unreadable becomes a single note with the
// first line of the text.
func ParseReview(raw string) Review {
	r := Review{Raw: raw}
	var body struct {
		Notes json.RawMessage `json:"notes"`
	}
	if err := json.Unmarshal([]byte(jsonutil.ExtractObject(raw)), &body); err == nil && len(body.Notes) > 0 {
		var list []string
		if err := json.Unmarshal(body.Notes, &list); err == nil {
			r.Notes = list
			return r
		}
		var one string
		if err := json.Unmarshal(body.Notes, &one); err == nil {
			r.Notes = []string{one}
			return r
		}
	}
	if line := firstLine(raw); line != "" {
		r.Notes = []string{line}
	}
	return r
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
