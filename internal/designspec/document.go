package designspec

import (
	"encoding/json"
	"sort"
)

// Palette maps a color role (primary, onBg, ...) to a hex color.
type Palette map[string]string

// RequiredPaletteRoles are the roles every generated palette declares.
var RequiredPaletteRoles = []string{
	"primary", "bg", "surface", "success", "warning", "danger",
	"accent", "muted", "onBg", "onSurface", "onPrimary",
}

// AIStateRoles are optional palette roles for model activity states.
var AIStateRoles = []string{"thinking", "streaming", "toolCall", "citation", "safety"}

// Roles returns the palette roles in sorted order.
func (p Palette) Roles() []string {
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DesignSystem holds the token sections of a spec. Sections other than the
// palette are passed through as the model produced them.
type DesignSystem struct {
	Palette    Palette          `json:"palette"`
	Typography map[string]any   `json:"typography,omitempty"`
	Spacing    any              `json:"spacing,omitempty"`
	Radius     any              `json:"radius,omitempty"`
	Shadows    any              `json:"shadows,omitempty"`
	Motion     map[string]any   `json:"motion,omitempty"`
	A11y       map[string]any   `json:"a11y,omitempty"`
	AIStates   []map[string]any `json:"aiStates,omitempty"`
}

// Document is a generated design specification.
//
// AISolution keeps raw values per key so an Ops patch replaces nested
// objects wholesale. Components are raw objects and Ops entries are appended
// exactly as received.
type Document struct {
	DesignSystem         DesignSystem               `json:"designSystem"`
	UX                   map[string]any             `json:"ux"`
	AISolution           map[string]json.RawMessage `json:"aiSolution"`
	Components           []json.RawMessage          `json:"components"`
	Tailwind             map[string]any             `json:"tailwind"`
	Next                 map[string]any             `json:"next"`
	NarrativeDescription string                     `json:"narrativeDescription"`
}

// ComponentNames returns the name of each component, or "" for components
// without one.
func (d *Document) ComponentNames() []string {
	out := make([]string, 0, len(d.Components))
	for _, raw := range d.Components {
		var c struct {
			Name string `json:"name"`
		}
		_ = json.Unmarshal(raw, &c)
		out = append(out, c.Name)
	}
	return out
}

// FileTree returns the string entries of next.fileTree. Entries may be plain
// paths or objects carrying a "path" field.
func (d *Document) FileTree() []string {
	if d.Next == nil {
		return nil
	}
	items, ok := d.Next["fileTree"].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, it := range items {
		switch v := it.(type) {
		case string:
			out = append(out, v)
		case map[string]any:
			if p, ok := v["path"].(string); ok {
				out = append(out, p)
			}
		}
	}
	return out
}
