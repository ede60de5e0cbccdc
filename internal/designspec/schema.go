package designspec

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"sync"
)

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce   sync.Once
	schemaPrompt string
)

// Schema returns the JSON schema describing a Document.
func Schema() json.RawMessage {
	return json.RawMessage(schemaJSON)
}

// SchemaPrompt returns the schema wrapped as {"schema": ...} in compact form,
// the shape the model receives it in.
func SchemaPrompt() string {
	schemaOnce.Do(func() {
		var buf bytes.Buffer
		if err := json.Compact(&buf, schemaJSON); err != nil {
			panic("designspec: embedded schema is not valid JSON: " + err.Error())
		}
		schemaPrompt = `{"schema":` + buf.String() + `}`
	})
	return schemaPrompt
}
