package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/Benny93/prefill-go/internal/graph"
)

// Blueprint file extensions in lookup order.
var blueprintExtensions = []string{".json", ".yaml", ".yml"}

// Default patterns to ignore (in addition to .gitignore).
var defaultIgnorePatterns = []string{
	".git/",
	".prefill/",
	"node_modules/",
	".DS_Store",
	"*.swp",
	"*~",
}

// Entry is one blueprint document found under a DirSource root.
type Entry struct {
	TenantID    string `json:"tenant_id"`
	BlueprintID string `json:"blueprint_id"`

	// Path is the absolute file path.
	Path string `json:"path"`

	// RelPath is the path relative to the root.
	RelPath string `json:"rel_path"`
}

// DirSource reads blueprints laid out as {root}/{tenant}/{blueprint}.{json,yaml,yml}.
type DirSource struct {
	Root        string
	TenantID    string
	BlueprintID string
}

// NewDirSource creates a source for one blueprint under root.
func NewDirSource(root, tenantID, blueprintID string) *DirSource {
	return &DirSource{Root: root, TenantID: tenantID, BlueprintID: blueprintID}
}

// Path returns the file backing the selected blueprint, preferring JSON.
func (s *DirSource) Path() (string, error) {
	if s.TenantID == "" || s.BlueprintID == "" {
		return "", errors.New("tenant and blueprint ids are required")
	}

	base := filepath.Join(s.Root, s.TenantID, s.BlueprintID)
	for _, ext := range blueprintExtensions {
		path := base + ext
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s/%s under %s", ErrNotFound, s.TenantID, s.BlueprintID, s.Root)
}

// Load implements Source.
func (s *DirSource) Load(ctx context.Context) (*graph.Blueprint, error) {
	path, err := s.Path()
	if err != nil {
		return nil, err
	}
	return NewFileSource(path).Load(ctx)
}

// List walks the root and returns every blueprint document, skipping files
// matched by the root's .gitignore. Entries are sorted by tenant then
// blueprint id.
func (s *DirSource) List(ctx context.Context) ([]Entry, error) {
	patterns, err := loadGitignore(s.Root)
	if err != nil {
		return nil, fmt.Errorf("loading .gitignore: %w", err)
	}

	allPatterns := make([]gitignore.Pattern, 0, len(defaultIgnorePatterns)+len(patterns))
	for _, p := range defaultIgnorePatterns {
		allPatterns = append(allPatterns, gitignore.ParsePattern(p, nil))
	}
	allPatterns = append(allPatterns, patterns...)
	matcher := gitignore.NewMatcher(allPatterns)

	var entries []Entry
	seen := make(map[string]bool)

	err = filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		relPath, err := filepath.Rel(s.Root, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		if d.IsDir() {
			if d.Name() == ".git" || matcher.Match(splitPath(relPath), true) {
				return filepath.SkipDir
			}
			return nil
		}

		if !isBlueprintFile(d.Name()) || matcher.Match(splitPath(relPath), false) {
			return nil
		}

		// Only {tenant}/{blueprint}.ext is a blueprint location.
		parts := splitPath(relPath)
		if len(parts) != 2 {
			return nil
		}

		entry := Entry{
			TenantID:    parts[0],
			BlueprintID: strings.TrimSuffix(parts[1], filepath.Ext(parts[1])),
			Path:        path,
			RelPath:     relPath,
		}
		key := entry.TenantID + "/" + entry.BlueprintID
		if seen[key] {
			return nil
		}
		seen[key] = true
		entries = append(entries, entry)
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, s.Root)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TenantID != entries[j].TenantID {
			return entries[i].TenantID < entries[j].TenantID
		}
		return entries[i].BlueprintID < entries[j].BlueprintID
	})
	return entries, nil
}

// loadGitignore loads .gitignore patterns from root.
func loadGitignore(root string) ([]gitignore.Pattern, error) {
	content, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return patterns, nil
}

func isBlueprintFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range blueprintExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func splitPath(path string) []string {
	return strings.Split(filepath.ToSlash(path), "/")
}
