package markdown

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
)

// SeedBlock is one block declared in a document's front matter.
type SeedBlock struct {
	Type    string         `yaml:"type"`
	Payload map[string]any `yaml:"payload"`
}

// Document is a parsed seed file.
type Document struct {
	Path         string
	Slug         string
	Name         string
	Template     string
	Priority     int
	Publish      bool
	Blocks       []SeedBlock
	Body         []byte
	Checksum     string
	LastModified time.Time
}

type frontMatterEnvelope struct {
	Slug     string      `yaml:"slug"`
	Name     string      `yaml:"name"`
	Title    string      `yaml:"title"`
	Template string      `yaml:"template"`
	Priority int         `yaml:"priority"`
	Publish  bool        `yaml:"publish"`
	Blocks   []SeedBlock `yaml:"blocks"`
}

// ParseDocument extracts front matter and the Markdown body from source.
// Name falls back to title, slug falls back to the file name.
func ParseDocument(path string, source []byte) (*Document, error) {
	var meta frontMatterEnvelope
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return nil, fmt.Errorf("parse frontmatter %s: %w", path, err)
	}

	doc := &Document{
		Path:     path,
		Slug:     strings.TrimSpace(meta.Slug),
		Name:     strings.TrimSpace(meta.Name),
		Template: strings.TrimSpace(meta.Template),
		Priority: meta.Priority,
		Publish:  meta.Publish,
		Body:     bytes.TrimSpace(body),
	}
	if doc.Name == "" {
		doc.Name = strings.TrimSpace(meta.Title)
	}
	if doc.Slug == "" {
		doc.Slug = slugFromPath(path)
	}
	for _, block := range meta.Blocks {
		doc.Blocks = append(doc.Blocks, SeedBlock{
			Type:    strings.TrimSpace(block.Type),
			Payload: normalizeMap(block.Payload),
		})
	}
	return doc, nil
}

func slugFromPath(path string) string {
	base := path
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	return strings.TrimSuffix(base, ".md")
}

// normalizeMap converts YAML decoded maps into map[string]any all the way down.
func normalizeMap(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = normalizeValue(value)
	}
	return out
}

func normalizeValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return normalizeMap(typed)
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, child := range typed {
			out[fmt.Sprint(key)] = normalizeValue(child)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, child := range typed {
			out[i] = normalizeValue(child)
		}
		return out
	default:
		return value
	}
}
