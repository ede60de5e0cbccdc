package export

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"designagent/internal/designspec"
	"designagent/internal/util/jsonutil"
)

// Names of the files every export contains.
const (
	SpecFile     = "ui-spec.json"
	TokensFile   = "design-tokens.yaml"
	TailwindFile = "tailwind.tokens.json"
	ReadmeFile   = "DESIGN.md"
)

// File is one exported artifact, addressed by a slash-separated path
// relative to the export root.
type File struct {
	Path        string
	Content     []byte
	ContentType string
	// Placeholder marks stand-ins derived from next.fileTree. Failing to
	// write one does not fail the export.
	Placeholder bool
}

type tokenFile struct {
	Palette    designspec.Palette `yaml:"palette"`
	Typography map[string]any     `yaml:"typography,omitempty"`
	Spacing    any                `yaml:"spacing,omitempty"`
	Radius     any                `yaml:"radius,omitempty"`
	Shadows    any                `yaml:"shadows,omitempty"`
	Motion     map[string]any     `yaml:"motion,omitempty"`
	AIStates   []map[string]any   `yaml:"aiStates,omitempty"`
}

// Artifacts renders the export file set for doc. Placeholders are added
// for next.fileTree entries that are safe relative paths and do not clash
// with the fixed files.
func Artifacts(doc *designspec.Document) ([]File, error) {
	if doc == nil {
		return nil, fmt.Errorf("export: nil document")
	}
	spec, err := jsonutil.MarshalNoEscapeIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: encode spec: %w", err)
	}
	ds := doc.DesignSystem
	tokens, err := yaml.Marshal(tokenFile{
		Palette:    ds.Palette,
		Typography: ds.Typography,
		Spacing:    ds.Spacing,
		Radius:     ds.Radius,
		Shadows:    ds.Shadows,
		Motion:     ds.Motion,
		AIStates:   ds.AIStates,
	})
	if err != nil {
		return nil, fmt.Errorf("export: encode tokens: %w", err)
	}
	tw := doc.Tailwind
	if tw == nil {
		tw = map[string]any{}
	}
	tailwind, err := jsonutil.MarshalNoEscapeIndent(tw, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: encode tailwind: %w", err)
	}

	files := []File{
		{Path: SpecFile, Content: append(spec, '\n'), ContentType: "application/json"},
		{Path: TokensFile, Content: tokens, ContentType: "application/yaml"},
		{Path: TailwindFile, Content: append(tailwind, '\n'), ContentType: "application/json"},
		{Path: ReadmeFile, Content: []byte(readme(doc)), ContentType: "text/markdown"},
	}
	return append(files, placeholders(doc.FileTree(), files)...), nil
}

// placeholders turns file-tree entries into empty stand-in files. An entry
// that is a parent directory of another entry ("app" next to
// "app/page.tsx") names a directory, not a file, and is skipped, as is
// any entry nested under one of the fixed files.
func placeholders(tree []string, fixed []File) []File {
	taken := map[string]bool{}
	for _, f := range fixed {
		taken[f.Path] = true
	}
	var paths []string
	dirs := map[string]bool{}
	for _, entry := range tree {
		p, ok := SafePath(entry)
		if !ok {
			continue
		}
		paths = append(paths, p)
		for d := path.Dir(p); d != "."; d = path.Dir(d) {
			dirs[d] = true
		}
	}
	var out []File
	for _, p := range paths {
		if taken[p] || dirs[p] || underFile(p, taken) {
			continue
		}
		taken[p] = true
		out = append(out, File{Path: p, Content: []byte(placeholder(p)), ContentType: "text/plain", Placeholder: true})
	}
	return out
}

func underFile(p string, files map[string]bool) bool {
	for d := path.Dir(p); d != "."; d = path.Dir(d) {
		if files[d] {
			return true
		}
	}
	return false
}

// SafePath cleans a file-tree entry into a relative slash path. Absolute
// paths, parent traversal and directory entries are rejected.
func SafePath(entry string) (string, bool) {
	e := strings.TrimSpace(strings.ReplaceAll(entry, "\\", "/"))
	if e == "" || strings.HasSuffix(e, "/") || strings.HasPrefix(e, "/") || filepath.VolumeName(e) != "" {
		return "", false
	}
	p := path.Clean(e)
	if p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return "", false
	}
	return p, true
}

func placeholder(p string) string {
	switch path.Ext(p) {
	case ".ts", ".tsx", ".js", ".jsx", ".mjs":
		return "// " + p + " (placeholder generated from ui-spec.json)\nexport {}\n"
	case ".css":
		return "/* " + p + " (placeholder generated from ui-spec.json) */\n"
	case ".md":
		return "# " + p + "\n"
	case ".json":
		return "{}\n"
	default:
		return ""
	}
}

func readme(doc *designspec.Document) string {
	var b strings.Builder
	b.WriteString("# Design Spec\n\n")
	if n := strings.TrimSpace(doc.NarrativeDescription); n != "" {
		b.WriteString(n)
		b.WriteString("\n\n")
	}
	if pattern, ok := doc.UX["aiPattern"].(string); ok && pattern != "" {
		fmt.Fprintf(&b, "AI pattern: %s\n\n", pattern)
	}
	b.WriteString("## Palette\n\n")
	for _, role := range doc.DesignSystem.Palette.Roles() {
		fmt.Fprintf(&b, "- %s: %s\n", role, doc.DesignSystem.Palette[role])
	}
	b.WriteString("\n## Components\n\n")
	for _, name := range doc.ComponentNames() {
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(&b, "- %s\n", name)
	}
	if tree := doc.FileTree(); len(tree) > 0 {
		b.WriteString("\n## Files\n\n")
		for _, p := range tree {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}
	return b.String()
}
