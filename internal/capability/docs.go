package capability

import (
	"sort"
	"strings"
)

const DefaultDocsK = 3

// DocEntry is one corpus snippet.
type DocEntry struct {
	Source  string
	Snippet string
}

// DocHit is a docs_search result.
type DocHit struct {
	Source  string `json:"source"`
	Snippet string `json:"snippet"`
}

var noHits = DocHit{Source: "generic", Snippet: "No direct hits. Consider broader search or KB indexing."}

// Corpus is the built-in guidance corpus, in ranking tie-break order.
var Corpus = []DocEntry{
	{"tailwind", "Tailwind CSS utility-first styling. Use theme tokens and @apply sparingly. CSS variables for dynamic theming."},
	{"next", "Next.js App Router supports React Server Components, streaming, and route handlers. Use Suspense for loading states."},
	{"a11y", "WCAG AA contrast 4.5:1 for normal text. Provide focus rings and semantic landmarks. Support reduced motion."},
	{"genai", "GenAI UX: show streaming tokens, tool-call steps, and citations for trust. Use optimistic UI for perceived speed."},
	{"agents", "Multi-agent orchestration benefits from a Run Timeline and explicit handoffs. Show agent switching clearly."},
	{"safety", "Content filtering, redaction patterns, and hallucination cues improve trust. Use clear warning banners."},
	{"streaming", "Token-by-token streaming reduces perceived latency. Use skeleton loaders and progressive disclosure."},
	{"citations", "Always show source attribution for RAG results. Use expandable citation panels with confidence scores."},
	{"observability", "Event logging for debugging. Show token counts, tool usage, and performance metrics in dev mode."},
	{"conversational", "Chat-first interfaces need clear message threading, typing indicators, and conversation history."},
	{"copilot", "Sidebar or inline assistance. Show context awareness and allow easy dismissal/acceptance of suggestions."},
	{"workflow", "Step-by-step guidance with progress indicators. Allow users to skip, retry, or modify agent actions."},
	{"orchestrator", "Dashboard view of multiple agents. Show agent status, handoffs, and allow manual intervention."},
}

// DocsSearch scores each corpus entry by how many whitespace-separated query
// tokens occur in it and returns the k best. It never returns an empty slice.
func DocsSearch(query string, k int) []DocHit {
	return searchCorpus(Corpus, query, k)
}

func searchCorpus(corpus []DocEntry, query string, k int) []DocHit {
	if k <= 0 {
		k = DefaultDocsK
	}
	tokens := strings.Fields(strings.ToLower(query))

	type scored struct {
		score int
		entry DocEntry
	}
	var hits []scored
	for _, e := range corpus {
		text := strings.ToLower(e.Snippet)
		n := 0
		for _, tok := range tokens {
			if strings.Contains(text, tok) {
				n++
			}
		}
		if n > 0 {
			hits = append(hits, scored{score: n, entry: e})
		}
	}
	if len(hits) == 0 {
		return []DocHit{noHits}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > k {
		hits = hits[:k]
	}
	out := make([]DocHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, DocHit{Source: h.entry.Source, Snippet: h.entry.Snippet})
	}
	return out
}
