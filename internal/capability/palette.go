package capability

import (
	"strings"

	"designagent/internal/designspec"
)

const DefaultMood = "calm, trustworthy"

type palettePreset struct {
	primary, accent, bg, surface string
}

var (
	financePreset   = palettePreset{"#0F62FE", "#2ECC71", "#0B0C10", "#16181D"}
	wellnessPreset  = palettePreset{"#22C55E", "#0EA5E9", "#0A0A0A", "#121212"}
	developerPreset = palettePreset{"#7C3AED", "#06B6D4", "#0B1020", "#121933"}
	defaultPreset   = palettePreset{"#3B82F6", "#F59E0B", "#0B0B0B", "#151515"}
)

// SuggestPalette returns a full palette for a subject. The mood is accepted
// for the model's benefit but does not change the result.
func SuggestPalette(subject, mood string) designspec.Palette {
	s := strings.ToLower(subject)
	preset := defaultPreset
	switch {
	case strings.Contains(s, "finance"):
		preset = financePreset
	case strings.Contains(s, "wellness"), strings.Contains(s, "fitness"):
		preset = wellnessPreset
	case strings.Contains(s, "dev"), strings.Contains(s, "developer"):
		preset = developerPreset
	}
	return designspec.Palette{
		"primary":   preset.primary,
		"accent":    preset.accent,
		"bg":        preset.bg,
		"surface":   preset.surface,
		"success":   "#16A34A",
		"warning":   "#F59E0B",
		"danger":    "#EF4444",
		"muted":     "#9CA3AF",
		"onBg":      "#FFFFFF",
		"onSurface": "#E5E7EB",
		"onPrimary": "#FFFFFF",
		"thinking":  "#F59E0B",
		"streaming": "#06B6D4",
		"toolCall":  "#7C3AED",
		"citation":  "#16A34A",
		"safety":    "#EF4444",
	}
}
