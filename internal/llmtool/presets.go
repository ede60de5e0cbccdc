package llmtool

// PromptPreset holds reusable constraints and rules for structured prompts.
type PromptPreset struct {
	Constraints []string
	Rules       []string
}

// ApplyPresets prepends preset constraints/rules to a structured prompt spec.
func ApplyPresets(spec StructuredPromptSpec, presets ...PromptPreset) StructuredPromptSpec {
	if len(presets) == 0 {
		return spec
	}
	var merged PromptPreset
	for _, p := range presets {
		merged.Constraints = append(merged.Constraints, p.Constraints...)
		merged.Rules = append(merged.Rules, p.Rules...)
	}
	spec.Constraints = append(merged.Constraints, spec.Constraints...)
	spec.Rules = append(merged.Rules, spec.Rules...)
	return spec
}

// PresetStrictJSON enforces JSON-only output.
func PresetStrictJSON() PromptPreset {
	return PromptPreset{
		Constraints: []string{
			"Return strict JSON only.",
			"No markdown, comments, or trailing commas.",
		},
	}
}

// PresetToolProtocol explains the action envelope the loop understands.
func PresetToolProtocol() PromptPreset {
	return PromptPreset{
		Rules: []string{
			`To call a tool reply with {"action":"tool","tool_name":"<name>","tool_input":{...}} and nothing else.`,
			"Tool outputs are listed under TOOL_RESULTS on the next turn.",
			`When done, reply with {"action":"final","final":<answer>} or with the answer JSON alone.`,
			"Call each tool at most once with the same input.",
		},
	}
}
