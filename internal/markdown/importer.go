package markdown

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/goliatone/go-lodge-cms/internal/blocks"
	"github.com/goliatone/go-lodge-cms/internal/identity"
	"github.com/goliatone/go-lodge-cms/internal/logging"
	"github.com/goliatone/go-lodge-cms/internal/pages"
	"github.com/goliatone/go-lodge-cms/pkg/interfaces"
	"github.com/google/uuid"
)

// ErrBlockTypeRequired is returned for a front matter block without a type.
var ErrBlockTypeRequired = errors.New("markdown: block type required")

// ImportResult summarises an import run.
type ImportResult struct {
	PagesCreated  []string          `json:"pages_created,omitempty"`
	PagesUpdated  []string          `json:"pages_updated,omitempty"`
	BlocksCreated int               `json:"blocks_created"`
	BlocksUpdated int               `json:"blocks_updated"`
	BlocksDeleted int               `json:"blocks_deleted"`
	Published     []string          `json:"published,omitempty"`
	Errors        map[string]string `json:"errors,omitempty"`
}

// Importer creates or refreshes pages and their blocks from seed documents.
// Ids derive from the page slug and the block's index in the document, so
// importing the same files twice converges on the same records.
type Importer struct {
	pages  pages.Service
	blocks blocks.Service
	logger interfaces.Logger
	prune  bool
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithPrune removes blocks of a seeded page that the document no longer declares.
func WithPrune(prune bool) ImporterOption {
	return func(i *Importer) {
		i.prune = prune
	}
}

// WithImportLogger sets the importer logger.
func WithImportLogger(logger interfaces.Logger) ImporterOption {
	return func(i *Importer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewImporter constructs an Importer.
func NewImporter(pageService pages.Service, blockService blocks.Service, opts ...ImporterOption) *Importer {
	i := &Importer{pages: pageService, blocks: blockService, logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(i)
		}
	}
	return i
}

// Import applies docs in order. A failing document is recorded in the result
// and does not stop the others; the returned error joins every failure.
func (i *Importer) Import(ctx context.Context, docs []*Document) (*ImportResult, error) {
	result := &ImportResult{}
	var errs []error
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := i.importDocument(ctx, doc, result); err != nil {
			if result.Errors == nil {
				result.Errors = map[string]string{}
			}
			result.Errors[doc.Path] = err.Error()
			errs = append(errs, fmt.Errorf("%s: %w", doc.Path, err))
			i.logger.Error("seed.document.failed", "path", doc.Path, "error", err)
		}
	}
	return result, errors.Join(errs...)
}

func (i *Importer) importDocument(ctx context.Context, doc *Document, result *ImportResult) error {
	page, err := i.upsertPage(ctx, doc, result)
	if err != nil {
		return err
	}
	logger := logging.WithFields(i.logger, map[string]any{"page_id": page.ID, "slug": page.Slug})

	seeded := seedBlocks(doc)
	keep := make(map[uuid.UUID]bool, len(seeded))
	for index, seed := range seeded {
		if seed.Type == "" {
			return fmt.Errorf("block %d: %w", index, ErrBlockTypeRequired)
		}
		id := identity.BlockUUID(page.ID, seed.Type, index)
		keep[id] = true
		if err := i.upsertBlock(ctx, page.ID, id, seed, result); err != nil {
			return fmt.Errorf("block %d (%s): %w", index, seed.Type, err)
		}
		if _, err := i.blocks.MoveTo(ctx, id, index); err != nil {
			return fmt.Errorf("block %d (%s): %w", index, seed.Type, err)
		}
	}

	if i.prune {
		current, err := i.blocks.ListPageBlocks(ctx, page.ID)
		if err != nil {
			return err
		}
		for _, block := range current {
			if keep[block.ID] {
				continue
			}
			if err := i.blocks.DeleteBlock(ctx, block.ID); err != nil {
				return err
			}
			result.BlocksDeleted++
		}
	}

	if doc.Publish {
		report, err := i.blocks.PublishPage(ctx, page.ID)
		if err != nil {
			return err
		}
		result.Published = append(result.Published, page.Slug)
		logger.Info("seed.page.published", "blocks", len(report.Published))
	}
	logger.Debug("seed.page.imported", "path", doc.Path, "blocks", len(seeded))
	return nil
}

func (i *Importer) upsertPage(ctx context.Context, doc *Document, result *ImportResult) (*pages.Page, error) {
	slugValue, err := pages.NormalizeSlug(doc.Slug)
	if err != nil {
		return nil, err
	}
	name := doc.Name
	if name == "" {
		name = slugValue
	}

	existing, err := i.pages.GetBySlug(ctx, slugValue)
	if err != nil {
		if !pages.IsNotFound(err) {
			return nil, err
		}
		created, err := i.pages.Create(ctx, pages.CreatePageRequest{
			ID:       identity.PageUUID(slugValue),
			Slug:     slugValue,
			Name:     name,
			Template: doc.Template,
			Priority: doc.Priority,
		})
		if err != nil {
			return nil, err
		}
		result.PagesCreated = append(result.PagesCreated, created.Slug)
		return created, nil
	}

	if existing.Name == name && existing.Template == doc.Template && existing.Priority == doc.Priority {
		return existing, nil
	}
	updated, err := i.pages.Update(ctx, pages.UpdatePageRequest{
		ID:       existing.ID,
		Name:     &name,
		Template: &doc.Template,
		Priority: &doc.Priority,
	})
	if err != nil {
		return nil, err
	}
	result.PagesUpdated = append(result.PagesUpdated, updated.Slug)
	return updated, nil
}

func (i *Importer) upsertBlock(ctx context.Context, pageID, id uuid.UUID, seed SeedBlock, result *ImportResult) error {
	existing, err := i.blocks.GetBlock(ctx, id)
	if err != nil {
		if !blocks.IsNotFound(err) {
			return err
		}
		if _, err := i.blocks.CreateBlock(ctx, blocks.CreateBlockRequest{
			ID:      id,
			PageID:  pageID,
			Type:    seed.Type,
			Payload: seed.Payload,
		}); err != nil {
			return err
		}
		result.BlocksCreated++
		return nil
	}

	if seed.Payload == nil {
		return nil
	}
	validated, err := i.blocks.Registry().Validate(existing.Type, seed.Payload)
	if err != nil {
		return err
	}
	if reflect.DeepEqual(validated, existing.Payload) {
		return nil
	}
	if _, err := i.blocks.UpdateDraft(ctx, blocks.UpdateDraftRequest{BlockID: id, Payload: seed.Payload}); err != nil {
		return err
	}
	result.BlocksUpdated++
	return nil
}

// seedBlocks returns the declared blocks followed by the body as a rich text
// block when the document has one.
func seedBlocks(doc *Document) []SeedBlock {
	out := make([]SeedBlock, 0, len(doc.Blocks)+1)
	out = append(out, doc.Blocks...)
	if body := strings.TrimSpace(string(doc.Body)); body != "" {
		out = append(out, SeedBlock{
			Type:    blocks.TypeRichText,
			Payload: map[string]any{"body": body},
		})
	}
	return out
}
