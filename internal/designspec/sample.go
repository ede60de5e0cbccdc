package designspec

// SampleJSON is a complete, AA-compliant spec. The offline client returns it
// and tests build on it.
const SampleJSON = `{
  "designSystem": {
    "palette": {
      "primary": "#3B82F6", "bg": "#0B0B0B", "surface": "#151515",
      "success": "#16A34A", "warning": "#F59E0B", "danger": "#EF4444",
      "accent": "#F59E0B", "muted": "#9CA3AF",
      "onBg": "#FFFFFF", "onSurface": "#E5E7EB", "onPrimary": "#0B0B0B",
      "thinking": "#F59E0B", "streaming": "#06B6D4", "toolCall": "#7C3AED",
      "citation": "#16A34A", "safety": "#EF4444"
    },
    "typography": {
      "fontFamily": {"sans": "Inter, ui-sans-serif", "mono": "JetBrains Mono, ui-monospace"},
      "fontSize": {"sm": "0.875rem", "base": "1rem", "lg": "1.125rem", "xl": "1.25rem"},
      "fontWeight": {"regular": 400, "medium": 500, "bold": 700},
      "lineHeight": {"tight": 1.25, "normal": 1.5},
      "letterSpacing": {"normal": "0em"}
    },
    "spacing": {"xs": "4px", "sm": "8px", "md": "16px", "lg": "24px", "xl": "32px"},
    "radius": {"sm": "4px", "md": "8px", "lg": "16px"},
    "shadows": {"card": "0 1px 2px rgba(0,0,0,0.4)", "overlay": "0 8px 24px rgba(0,0,0,0.5)"},
    "motion": {"duration": {"fast": "120ms", "base": "200ms"}, "easing": {"standard": "cubic-bezier(0.2,0,0,1)"}},
    "a11y": {"focusRing": "2px solid #3B82F6", "reducedMotion": true},
    "aiStates": [
      {"name": "thinking", "color": "#F59E0B", "description": "Model is planning"},
      {"name": "streaming", "color": "#06B6D4", "description": "Tokens are arriving"},
      {"name": "toolCall", "color": "#7C3AED", "description": "A tool is running"}
    ]
  },
  "ux": {
    "layout": "two-pane chat with run timeline",
    "informationDensity": "medium",
    "primaryActions": ["ask", "retry", "open citation"],
    "userJourneys": ["ask a question and inspect sources"],
    "aiPattern": "conversational",
    "streamingStrategy": "token",
    "citationDisplay": "inline chips with expandable panel"
  },
  "aiSolution": {
    "safety": {"contentFiltering": true, "redaction": false, "hallucinationCues": true, "guardrails": ["pii_masking", "toxicity_filter"]},
    "observability": {"telemetry": false, "runTimeline": true, "tokenMeter": false},
    "latency": {"targetMs": 2000, "optimisticUI": true, "skeletonStrategy": "progressive"},
    "agentOrchestration": {"handoffUX": "timeline", "toolVisibility": "collapsible", "errorRecovery": "retry"}
  },
  "components": [
    {"name": "ChatComposer", "type": "input", "states": ["idle", "sending"], "a11y": {"label": "Message"}, "aiSpecific": {"streaming": true}},
    {"name": "MessageBubble", "type": "display", "states": ["user", "assistant", "streaming"], "a11y": {"role": "article"}, "aiSpecific": {"citations": true}},
    {"name": "RunTimeline", "type": "navigation", "states": ["running", "done", "failed"], "a11y": {"role": "list"}, "aiSpecific": {"toolCalls": true}}
  ],
  "tailwind": {
    "configTokens": {"colors": {"primary": "#3B82F6", "bg": "#0B0B0B", "surface": "#151515"}},
    "utilityClasses": {"card": "rounded-lg bg-surface p-4"}
  },
  "next": {
    "fileTree": ["app/layout.tsx", "app/page.tsx", "components/ChatComposer.tsx", "components/MessageBubble.tsx", "components/RunTimeline.tsx"],
    "routing": {"/": "chat"},
    "components": ["ChatComposer", "MessageBubble", "RunTimeline"]
  },
  "narrativeDescription": "A calm, dark research copilot with visible streaming, tool steps and citations."
}`
