package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-lodge-cms/internal/blocks"
)

// GetWithBlocks resolves a page by slug together with its blocks as seen
// through view. The published view omits blocks that were never published,
// numbers the remaining blocks 0..n-1 and serves each snapshot as stored, even
// when it no longer matches the current shape of its type. Editor state is
// only reported on the draft view.
func (s *service) GetWithBlocks(ctx context.Context, slugValue string, view View) (*PageView, error) {
	if view != ViewDraft && view != ViewPublished {
		return nil, ErrUnknownView
	}
	page, err := s.GetBySlug(ctx, slugValue)
	if err != nil {
		return nil, err
	}
	result := &PageView{Page: page, View: view, Blocks: []BlockView{}}
	if s.blocks == nil {
		return result, nil
	}

	records, err := s.blocks.ListPageBlocks(ctx, page.ID)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		payload := record.Payload
		if view == ViewPublished {
			if record.Published == nil {
				continue
			}
			payload = record.Published
		}
		item := BlockView{
			ID:          record.ID,
			Type:        record.Type,
			Position:    len(result.Blocks),
			Payload:     blocks.ClonePayload(payload),
			PublishedAt: record.PublishedAt,
		}
		if view == ViewDraft {
			item.Position = record.Position
			item.State = record.State()
		}
		if s.renderer != nil {
			html, err := s.renderRichText(ctx, record.Type, item.Payload)
			if err != nil {
				return nil, err
			}
			item.HTML = html
		}
		result.Blocks = append(result.Blocks, item)
	}
	return result, nil
}

func (s *service) renderRichText(ctx context.Context, blockType string, payload map[string]any) (map[string]string, error) {
	shape, err := s.blocks.Registry().SchemaFor(blockType)
	if err != nil {
		// Retired types have no shape to render from.
		return nil, nil
	}
	sources := map[string]string{}
	for _, path := range shape.FieldsOfKind(blocks.KindRichText) {
		collectAtPath(payload, strings.Split(path, "."), "", sources)
	}
	if len(sources) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(sources))
	for path, source := range sources {
		html, err := s.renderer.Render(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("pages: render %s: %w", path, err)
		}
		out[path] = html
	}
	return out, nil
}

// collectAtPath walks a field path such as entries[].answer through payload
// and records every string found, keyed by its concrete path (entries[0].answer).
func collectAtPath(value any, segments []string, prefix string, out map[string]string) {
	if len(segments) == 0 {
		if text, ok := value.(string); ok && strings.TrimSpace(text) != "" {
			out[prefix] = text
		}
		return
	}
	object, ok := value.(map[string]any)
	if !ok {
		return
	}
	segment := segments[0]
	name, isArray := strings.CutSuffix(segment, "[]")
	child, ok := object[name]
	if !ok {
		return
	}
	path := name
	if prefix != "" {
		path = prefix + "." + name
	}
	if !isArray {
		collectAtPath(child, segments[1:], path, out)
		return
	}
	switch items := child.(type) {
	case []any:
		for index, item := range items {
			collectAtPath(item, segments[1:], fmt.Sprintf("%s[%d]", path, index), out)
		}
	case []map[string]any:
		for index, item := range items {
			collectAtPath(item, segments[1:], fmt.Sprintf("%s[%d]", path, index), out)
		}
	}
}
