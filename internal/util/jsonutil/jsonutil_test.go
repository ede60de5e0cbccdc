package jsonutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractObject(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"padded", "  \n{\"a\":1}\n", `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced no tag", "```\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`},
		{"prose", `Here you go: {"a":1} hope it helps`, `{"a":1}`},
		{"no object", `OK`, `OK`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractObject(tc.in))
		})
	}
}

func TestMarshalNoEscape_KeepsHTML(t *testing.T) {
	b, err := MarshalNoEscape(map[string]string{"text": "<b>&</b>"})
	require.NoError(t, err)
	assert.Equal(t, `{"text":"<b>&</b>"}`, string(b))
}

func TestMarshalNoEscapeIndent(t *testing.T) {
	b, err := MarshalNoEscapeIndent(map[string]int{"a": 1}, "", "  ")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", string(b))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab...", Truncate("abcdef", 2))
	assert.Equal(t, "", Truncate("abc", 0))
	assert.Equal(t, "caf...", Truncate("café", 3))
	assert.Equal(t, "caf...", Truncate("café", 4))
	assert.Equal(t, "...", Truncate("éé", 1))
}
