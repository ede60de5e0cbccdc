package jsonutil

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

// fencedObject matches a JSON object wrapped in a markdown code fence.
// \x60 is a backtick; raw strings cannot hold one.
var fencedObject = regexp.MustCompile("(?s)^\x60\x60\x60(?:json|JSON)?\\s*({.*})\\s*\x60\x60\x60$")

// MarshalNoEscape encodes v into JSON without escaping <, >, & into unicode sequences.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Encode always appends a newline.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalNoEscapeIndent is MarshalNoEscape with indentation.
func MarshalNoEscapeIndent(v any, prefix, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(prefix, indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ExtractObject returns the JSON object text inside a model response.
// It unwraps a markdown code fence, or cuts the outermost braces out of
// surrounding prose. The result is not validated; callers unmarshal it.
func ExtractObject(response string) string {
	s := strings.TrimSpace(response)
	if strings.HasPrefix(s, "```") {
		if m := fencedObject.FindStringSubmatch(s); len(m) > 1 {
			return m[1]
		}
		return s
	}
	if strings.HasPrefix(s, "{") {
		return s
	}
	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first != -1 && last > first {
		return s[first : last+1]
	}
	return s
}

// Truncate shortens s to at most n bytes for log and error messages,
// without splitting a rune.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
