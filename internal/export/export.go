package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"designagent/internal/designspec"
)

// Exporter persists a finished spec under dest and returns where it went.
type Exporter interface {
	Write(ctx context.Context, doc *designspec.Document, dest string) (string, error)
}

const (
	BackendFile = "file"
	BackendS3   = "s3"
)

// Config selects and configures the export backend.
type Config struct {
	Backend string
	// Root anchors relative destinations for the file backend.
	Root string
	S3   S3Config
}

// New builds the exporter named by cfg.Backend. An empty backend is "file".
func New(cfg Config) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendFile:
		return &FileExporter{Root: cfg.Root}, nil
	case BackendS3:
		return NewS3Exporter(cfg.S3)
	default:
		return nil, fmt.Errorf("export: unknown backend %q", cfg.Backend)
	}
}

// FileExporter writes the artifact set into a local directory.
type FileExporter struct {
	Root string
}

// Write creates dest (relative to Root when not absolute) and writes every
// artifact into it. It returns the absolute directory. A relative dest
// that resolves outside Root is refused; absolute paths are taken as is.
func (e *FileExporter) Write(ctx context.Context, doc *designspec.Document, dest string) (string, error) {
	files, err := Artifacts(doc)
	if err != nil {
		return "", err
	}
	dir := strings.TrimSpace(dest)
	if dir == "" {
		dir = designspec.DefaultOutDir
	}
	anchored := !filepath.IsAbs(dir) && e.Root != ""
	if anchored {
		dir = filepath.Join(e.Root, dir)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("export: resolve %q: %w", dest, err)
	}
	if anchored {
		if err := within(e.Root, abs); err != nil {
			return "", fmt.Errorf("export: %q: %w", dest, err)
		}
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("export: create %s: %w", abs, err)
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := writeFile(abs, f); err != nil && !f.Placeholder {
			return "", err
		}
	}
	return abs, nil
}

func writeFile(dir string, f File) error {
	target := filepath.Join(dir, filepath.FromSlash(f.Path))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("export: create %s: %w", filepath.Dir(target), err)
	}
	if err := os.WriteFile(target, f.Content, 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", f.Path, err)
	}
	return nil
}

// ErrOutsideRoot is returned when a relative destination climbs out of
// the exporter root.
var ErrOutsideRoot = errors.New("destination escapes export root")

func within(root, abs string) error {
	base, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ErrOutsideRoot
	}
	return nil
}
