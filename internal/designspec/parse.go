package designspec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"designagent/internal/util/jsonutil"
)

var ErrMalformedSpec = errors.New("designspec: malformed spec")

// RequiredKeys are the top-level keys a spec must carry.
var RequiredKeys = []string{
	"designSystem", "ux", "aiSolution", "components", "tailwind", "next", "narrativeDescription",
}

// Parse decodes model output into a Document. A markdown fence or leading
// prose around the object is tolerated; anything else that is not a
// complete, type-conformant spec fails with ErrMalformedSpec.
func Parse(text string) (*Document, error) {
	body := []byte(jsonutil.ExtractObject(text))

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSpec, err)
	}
	for _, k := range RequiredKeys {
		v, ok := top[k]
		if !ok || isNull(v) {
			return nil, fmt.Errorf("%w: missing %q", ErrMalformedSpec, k)
		}
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSpec, err)
	}
	for i, c := range doc.Components {
		if !isObject(c) {
			return nil, fmt.Errorf("%w: components[%d] is not an object", ErrMalformedSpec, i)
		}
	}
	if doc.AISolution == nil {
		doc.AISolution = map[string]json.RawMessage{}
	}
	return &doc, nil
}

// Marshal encodes the document as compact JSON without HTML escaping.
func Marshal(doc *Document) ([]byte, error) {
	return jsonutil.MarshalNoEscape(doc)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isObject(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '{'
}

func isArray(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '['
}
