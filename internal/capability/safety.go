package capability

import "strings"

const (
	DefaultSafetyLevel    = "moderate"
	DefaultTelemetryOptIn = "off"
)

type SafetyConfig struct {
	ContentFiltering  bool     `json:"content_filtering"`
	Redaction         bool     `json:"redaction"`
	HallucinationCues bool     `json:"hallucination_cues"`
	Guardrails        []string `json:"guardrails"`
}

type EventSchema struct {
	Started string `json:"started"`
	Partial string `json:"partial"`
	Tool    string `json:"tool"`
	Final   string `json:"final"`
}

type ObservabilityConfig struct {
	Telemetry   bool        `json:"telemetry"`
	RunTimeline bool        `json:"run_timeline"`
	TokenMeter  bool        `json:"token_meter"`
	EventSchema EventSchema `json:"event_schema"`
}

// SafetyAdvice is the safety_rules result.
type SafetyAdvice struct {
	Safety        SafetyConfig        `json:"safety"`
	Observability ObservabilityConfig `json:"observability"`
}

var safetyLevels = map[string]SafetyConfig{
	"strict": {
		ContentFiltering:  true,
		Redaction:         true,
		HallucinationCues: true,
		Guardrails:        []string{"pii_masking", "toxicity_filter", "fact_checking"},
	},
	"moderate": {
		ContentFiltering:  true,
		HallucinationCues: true,
		Guardrails:        []string{"pii_masking", "toxicity_filter"},
	},
	"relaxed": {
		Guardrails: []string{"basic_filtering"},
	},
}

var observabilityModes = map[string]ObservabilityConfig{
	"on": {
		Telemetry:   true,
		RunTimeline: true,
		TokenMeter:  true,
		EventSchema: EventSchema{
			Started: "timestamp, user_id, session_id",
			Partial: "timestamp, token_count, partial_text",
			Tool:    "timestamp, tool_name, parameters, result",
			Final:   "timestamp, total_tokens, final_text, citations",
		},
	},
	"off": {
		RunTimeline: true,
		EventSchema: EventSchema{
			Started: "timestamp",
			Partial: "timestamp, partial_text",
			Tool:    "timestamp, tool_name",
			Final:   "timestamp, final_text",
		},
	},
}

// SafetyRules looks up the safety and observability records. Unknown values
// fall back to "moderate" and "off".
func SafetyRules(safetyLevel, telemetryOptIn string) SafetyAdvice {
	s, ok := safetyLevels[strings.TrimSpace(safetyLevel)]
	if !ok {
		s = safetyLevels[DefaultSafetyLevel]
	}
	o, ok := observabilityModes[strings.TrimSpace(telemetryOptIn)]
	if !ok {
		o = observabilityModes[DefaultTelemetryOptIn]
	}
	// Copy so callers cannot mutate the table.
	s.Guardrails = append([]string(nil), s.Guardrails...)
	return SafetyAdvice{Safety: s, Observability: o}
}
