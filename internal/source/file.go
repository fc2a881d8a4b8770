package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Benny93/prefill-go/internal/graph"
)

// FileSource reads a blueprint from a single JSON or YAML file.
type FileSource struct {
	Path string
}

// NewFileSource creates a source for the file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Load implements Source.
func (s *FileSource) Load(ctx context.Context) (*graph.Blueprint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, s.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading blueprint: %w", err)
	}

	doc, err := Decode(data, FormatOf(s.Path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return doc, nil
}
