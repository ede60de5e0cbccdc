package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"designagent/internal/designspec"
)

func sampleDoc(t *testing.T) *designspec.Document {
	t.Helper()
	doc, err := designspec.Parse(designspec.SampleJSON)
	require.NoError(t, err)
	return doc
}

func TestFileExporter_WritesArtifacts(t *testing.T) {
	root := t.TempDir()
	doc := sampleDoc(t)
	doc.Next["fileTree"] = append(doc.Next["fileTree"].([]any),
		"../escape.ts", "/etc/passwd", "app/", map[string]any{"path": "styles/globals.css"}, "ui-spec.json")

	out, err := (&FileExporter{Root: root}).Write(context.Background(), doc, "run-1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "run-1"), out)

	specBytes, err := os.ReadFile(filepath.Join(out, SpecFile))
	require.NoError(t, err)
	back, err := designspec.Parse(string(specBytes))
	require.NoError(t, err)
	assert.Equal(t, doc.ComponentNames(), back.ComponentNames())

	raw, err := os.ReadFile(filepath.Join(out, TokensFile))
	require.NoError(t, err)
	var tokens struct {
		Palette map[string]string `yaml:"palette"`
	}
	require.NoError(t, yaml.Unmarshal(raw, &tokens))
	assert.Equal(t, "#3B82F6", tokens.Palette["primary"])

	for _, p := range []string{TailwindFile, ReadmeFile, "app/layout.tsx", "components/RunTimeline.tsx", "styles/globals.css"} {
		assert.FileExists(t, filepath.Join(out, filepath.FromSlash(p)))
	}
	assert.NoFileExists(t, filepath.Join(root, "escape.ts"))

	readme, err := os.ReadFile(filepath.Join(out, ReadmeFile))
	require.NoError(t, err)
	assert.Contains(t, string(readme), "- ChatComposer")
	assert.Contains(t, string(readme), "AI pattern: conversational")
}

func TestFileExporter_NilDocument(t *testing.T) {
	_, err := (&FileExporter{Root: t.TempDir()}).Write(context.Background(), nil, "x")
	assert.Error(t, err)
}

func TestFileExporter_Unwritable(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "taken")
	require.NoError(t, os.WriteFile(blocker, []byte("file"), 0o644))
	_, err := (&FileExporter{Root: root}).Write(context.Background(), sampleDoc(t), "taken")
	assert.Error(t, err)
}

func TestFileExporter_DirectoryEntriesInFileTree(t *testing.T) {
	root := t.TempDir()
	doc := sampleDoc(t)
	doc.Next["fileTree"] = []any{"app", "app/page.tsx", "components", "components/ChatComposer.tsx", "DESIGN.md/notes.md"}

	out, err := (&FileExporter{Root: root}).Write(context.Background(), doc, "run-1")
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(out, "app"))
	assert.FileExists(t, filepath.Join(out, "app", "page.tsx"))
	assert.FileExists(t, filepath.Join(out, "components", "ChatComposer.tsx"))
	assert.FileExists(t, filepath.Join(out, ReadmeFile))

	// Children listed before their parent resolve the same way.
	doc.Next["fileTree"] = []any{"app/page.tsx", "app"}
	_, err = (&FileExporter{Root: root}).Write(context.Background(), doc, "run-2")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "run-2", "app", "page.tsx"))
}

func TestFileExporter_PlaceholderConflictIsNotFatal(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "run-1", "notes.md"), 0o755))
	doc := sampleDoc(t)
	doc.Next["fileTree"] = []any{"notes.md", "app/page.tsx"}

	out, err := (&FileExporter{Root: root}).Write(context.Background(), doc, "run-1")
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(out, "notes.md"))
	assert.FileExists(t, filepath.Join(out, "app", "page.tsx"))
	assert.FileExists(t, filepath.Join(out, SpecFile))
}

func TestFileExporter_RelativeDestStaysUnderRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "root")
	e := &FileExporter{Root: root}

	for _, dest := range []string{"../escape", "a/../../escape"} {
		_, err := e.Write(context.Background(), sampleDoc(t), dest)
		require.ErrorIs(t, err, ErrOutsideRoot, dest)
	}
	assert.NoDirExists(t, filepath.Join(parent, "escape"))

	// Absolute destinations are explicit and written as given.
	abs := filepath.Join(parent, "explicit")
	out, err := e.Write(context.Background(), sampleDoc(t), abs)
	require.NoError(t, err)
	assert.Equal(t, abs, out)
}

func TestArtifacts_SkipsDirectoryEntries(t *testing.T) {
	doc := sampleDoc(t)
	doc.Next["fileTree"] = []any{"app", "app/page.tsx", "lib/", "README.md", "ui-spec.json/x.ts"}
	files, err := Artifacts(doc)
	require.NoError(t, err)

	var placeholders []string
	for _, f := range files {
		if f.Placeholder {
			placeholders = append(placeholders, f.Path)
		}
	}
	assert.Equal(t, []string{"app/page.tsx", "README.md"}, placeholders)
}

func TestSafePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"app/page.tsx", "app/page.tsx", true},
		{"./app//x.ts", "app/x.ts", true},
		{`components\Card.tsx`, "components/Card.tsx", true},
		{"a/../b.ts", "b.ts", true},
		{"../x", "", false},
		{"a/../../x", "", false},
		{"/abs", "", false},
		{"dir/", "", false},
		{"  ", "", false},
		{".", "", false},
	}
	for _, tt := range tests {
		got, ok := SafePath(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNew(t *testing.T) {
	e, err := New(Config{})
	require.NoError(t, err)
	assert.IsType(t, &FileExporter{}, e)

	_, err = New(Config{Backend: "ftp"})
	assert.Error(t, err)

	_, err = New(Config{Backend: "s3"})
	assert.Error(t, err, "missing endpoint")

	e, err = New(Config{Backend: "S3", S3: S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "designs"}})
	require.NoError(t, err)
	assert.IsType(t, &S3Exporter{}, e)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "run/ui-spec.json", objectKey("run/", "/ui-spec.json"))
}
