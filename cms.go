package cms

import (
	"context"

	"github.com/goliatone/go-lodge-cms/internal/blocks"
	"github.com/goliatone/go-lodge-cms/internal/di"
	"github.com/goliatone/go-lodge-cms/internal/markdown"
	"github.com/goliatone/go-lodge-cms/internal/media"
	"github.com/goliatone/go-lodge-cms/internal/pages"
	"github.com/goliatone/go-lodge-cms/pkg/interfaces"
)

// PageService exports the pages service contract.
type PageService = pages.Service

// BlockService exports the blocks service contract.
type BlockService = blocks.Service

// MediaService exports the media service contract.
type MediaService = media.Service

// Registry exports the block schema registry.
type Registry = blocks.Registry

// View selects the draft or published payloads of a page read.
type View = pages.View

const (
	ViewDraft     = pages.ViewDraft
	ViewPublished = pages.ViewPublished
)

// Module represents the top level CMS runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a CMS module using the provided configuration and optional DI overrides.
func New(ctx context.Context, cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Close releases resources the module opened.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}

// Pages returns the configured page service.
func (m *Module) Pages() PageService {
	return m.container.PageService()
}

// Blocks returns the configured block service.
func (m *Module) Blocks() BlockService {
	return m.container.BlockService()
}

// Media returns the media service.
func (m *Module) Media() MediaService {
	return m.container.MediaService()
}

// Registry returns the block schema registry.
func (m *Module) Registry() *Registry {
	return m.container.Registry()
}

// Seeder returns the Markdown seed importer.
func (m *Module) Seeder() *markdown.Seeder {
	return m.container.Seeder()
}

// ObjectStore returns the configured object store.
func (m *Module) ObjectStore() interfaces.ObjectStore {
	return m.container.ObjectStore()
}

// Page resolves a page by slug with its blocks as seen through view.
func (m *Module) Page(ctx context.Context, slug string, view View) (*pages.PageView, error) {
	return m.container.PageService().GetWithBlocks(ctx, slug, view)
}
