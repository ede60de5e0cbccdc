package llmclient

import "strings"

// CountTokens gives a rough token estimate for logging and metrics. It counts
// whitespace-delimited words and falls back to a character-based heuristic.
func CountTokens(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	if byChars := len(text) / 4; byChars > words {
		return byChars
	}
	return words
}
