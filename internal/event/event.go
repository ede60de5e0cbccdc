// Package event defines the progress events a design run emits and the
// sinks that carry them to a transport.
package event

import (
	"encoding/json"
	"fmt"
)

// Tag names an event kind. The set is closed.
type Tag string

const (
	Status   Tag = "status"
	Phase    Tag = "phase"
	Token    Tag = "token"
	OpsPatch Tag = "ops_patch"
	Export   Tag = "export"
	Final    Tag = "final"
	Error    Tag = "error"
)

// Known reports whether t is one of the defined tags.
func (t Tag) Known() bool {
	switch t {
	case Status, Phase, Token, OpsPatch, Export, Final, Error:
		return true
	}
	return false
}

// Event is one progress notification. Which field is set depends on Tag:
// Text for status, phase, token and ops_patch; OutDir for export; Spec for
// final; Err for error.
type Event struct {
	Tag    Tag
	Text   string
	OutDir string
	Spec   json.RawMessage
	Err    string
}

func NewStatus(text string) Event         { return Event{Tag: Status, Text: text} }
func NewPhase(name string) Event          { return Event{Tag: Phase, Text: name} }
func NewToken(fragment string) Event      { return Event{Tag: Token, Text: fragment} }
func NewOpsPatch(result string) Event     { return Event{Tag: OpsPatch, Text: result} }
func NewExport(outDir string) Event       { return Event{Tag: Export, OutDir: outDir} }
func NewFinal(spec json.RawMessage) Event { return Event{Tag: Final, Spec: spec} }
func NewError(err error) Event            { return Event{Tag: Error, Err: err.Error()} }
func newErrorText(msg string) Event       { return Event{Tag: Error, Err: msg} }

type textPayload struct {
	Text string `json:"text"`
}

type exportPayload struct {
	OutDir string `json:"out_dir"`
}

type finalPayload struct {
	Spec json.RawMessage `json:"spec"`
}

type errorPayload struct {
	Error string `json:"error"`
}

// Payload encodes the event body without its tag.
func (e Event) Payload() ([]byte, error) {
	switch e.Tag {
	case Status, Phase, Token, OpsPatch:
		return json.Marshal(textPayload{Text: e.Text})
	case Export:
		return json.Marshal(exportPayload{OutDir: e.OutDir})
	case Final:
		spec := e.Spec
		if len(spec) == 0 {
			spec = json.RawMessage(`null`)
		}
		return json.Marshal(finalPayload{Spec: spec})
	case Error:
		return json.Marshal(errorPayload{Error: e.Err})
	default:
		return nil, fmt.Errorf("event: unknown tag %q", e.Tag)
	}
}

// MarshalJSON renders the event as one object with an "event" key next to
// the payload fields, the shape used on websockets and in traces.
func (e Event) MarshalJSON() ([]byte, error) {
	body, err := e.Payload()
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	tag, _ := json.Marshal(string(e.Tag))
	fields["event"] = tag
	return json.Marshal(fields)
}

// UnmarshalJSON reads the MarshalJSON shape back.
func (e *Event) UnmarshalJSON(b []byte) error {
	var raw struct {
		Event  Tag             `json:"event"`
		Text   string          `json:"text"`
		OutDir string          `json:"out_dir"`
		Spec   json.RawMessage `json:"spec"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	ev, err := decode(raw.Event, raw.Text, raw.OutDir, raw.Spec, raw.Error)
	if err != nil {
		return err
	}
	*e = ev
	return nil
}

// Decode rebuilds an event from a tag and its payload.
func Decode(tag Tag, payload []byte) (Event, error) {
	if !tag.Known() {
		return Event{}, fmt.Errorf("event: unknown tag %q", tag)
	}
	var raw struct {
		Text   string          `json:"text"`
		OutDir string          `json:"out_dir"`
		Spec   json.RawMessage `json:"spec"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Event{}, fmt.Errorf("event: decode %s payload: %w", tag, err)
	}
	return decode(tag, raw.Text, raw.OutDir, raw.Spec, raw.Error)
}

func decode(tag Tag, text, outDir string, spec json.RawMessage, errText string) (Event, error) {
	switch tag {
	case Status, Phase, Token, OpsPatch:
		return Event{Tag: tag, Text: text}, nil
	case Export:
		return NewExport(outDir), nil
	case Final:
		return NewFinal(spec), nil
	case Error:
		return newErrorText(errText), nil
	default:
		return Event{}, fmt.Errorf("event: unknown tag %q", tag)
	}
}
