package designspec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformedPatch = errors.New("designspec: malformed patch")

// Patch is an Ops adjustment to a spec. AISolution keys overwrite the spec's
// keys at depth one; Components are appended.
type Patch struct {
	AISolution map[string]json.RawMessage
	Components []json.RawMessage
}

// ParsePatch decodes Ops output. The text must be exactly one JSON object;
// an aiSolution member must be an object and a components member an array of
// objects. Any violation rejects the whole patch.
func ParsePatch(text string) (*Patch, error) {
	body := bytes.TrimSpace([]byte(text))
	if !isObject(body) {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedPatch)
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPatch, err)
	}

	p := &Patch{}
	if raw, ok := top["aiSolution"]; ok {
		if !isObject(raw) {
			return nil, fmt.Errorf("%w: aiSolution is not an object", ErrMalformedPatch)
		}
		if err := json.Unmarshal(raw, &p.AISolution); err != nil {
			return nil, fmt.Errorf("%w: aiSolution: %v", ErrMalformedPatch, err)
		}
	}
	if raw, ok := top["components"]; ok {
		if !isArray(raw) {
			return nil, fmt.Errorf("%w: components is not an array", ErrMalformedPatch)
		}
		if err := json.Unmarshal(raw, &p.Components); err != nil {
			return nil, fmt.Errorf("%w: components: %v", ErrMalformedPatch, err)
		}
		for i, c := range p.Components {
			if !isObject(c) {
				return nil, fmt.Errorf("%w: components[%d] is not an object", ErrMalformedPatch, i)
			}
		}
	}
	return p, nil
}

// Apply merges p into the document in place.
func (d *Document) Apply(p *Patch) {
	if p == nil {
		return
	}
	if len(p.AISolution) > 0 {
		if d.AISolution == nil {
			d.AISolution = make(map[string]json.RawMessage, len(p.AISolution))
		}
		for k, v := range p.AISolution {
			d.AISolution[k] = v
		}
	}
	d.Components = append(d.Components, p.Components...)
}
