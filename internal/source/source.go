// Package source reads blueprint graph documents from files, directories
// and the blueprint API, and reloads them when they change on disk.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Benny93/prefill-go/internal/graph"
)

// ErrNotFound is returned when a blueprint document does not exist.
var ErrNotFound = errors.New("blueprint not found")

// Source loads one blueprint document.
type Source interface {
	Load(ctx context.Context) (*graph.Blueprint, error)
}

// Document formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FormatOf returns the document format implied by a file extension.
// Anything that is not .yaml or .yml is read as JSON.
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses a blueprint document in the given format. Unknown fields
// are ignored so API responses can carry more than the model uses.
func Decode(data []byte, format string) (*graph.Blueprint, error) {
	var doc graph.Blueprint

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing yaml blueprint: %w", err)
		}
	case FormatJSON:
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, errors.New("parsing json blueprint: empty document")
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing json blueprint: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported blueprint format %q", format)
	}

	return &doc, nil
}
