package markdown

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goliatone/go-lodge-cms/internal/blocks"
	"github.com/goliatone/go-lodge-cms/internal/logging"
	"github.com/goliatone/go-lodge-cms/internal/pages"
	"github.com/goliatone/go-lodge-cms/pkg/interfaces"
)

// Seeder loads a content directory and imports it.
type Seeder struct {
	importer *Importer
	logger   interfaces.Logger
	loader   []LoaderOption
}

// NewSeeder wires a seeder around the page and block services.
func NewSeeder(pageService pages.Service, blockService blocks.Service, logger interfaces.Logger, opts ...ImporterOption) *Seeder {
	if logger == nil {
		logger = logging.NoOp()
	}
	opts = append([]ImporterOption{WithImportLogger(logger)}, opts...)
	return &Seeder{
		importer: NewImporter(pageService, blockService, opts...),
		logger:   logger,
	}
}

// WithLoaderOptions sets the options used when discovering documents.
func (s *Seeder) WithLoaderOptions(opts ...LoaderOption) *Seeder {
	s.loader = append(s.loader, opts...)
	return s
}

// SeedDir imports every Markdown document below dir on the local filesystem.
func (s *Seeder) SeedDir(ctx context.Context, dir string) (*ImportResult, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("markdown seed %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("markdown seed %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("markdown seed %s: not a directory", dir)
	}
	return s.SeedFS(ctx, os.DirFS(abs))
}

// SeedFS imports every Markdown document in filesystem.
func (s *Seeder) SeedFS(ctx context.Context, filesystem fs.FS) (*ImportResult, error) {
	docs, err := NewLoader(filesystem, s.loader...).LoadDirectory(ctx, ".")
	if err != nil {
		return nil, err
	}
	result, err := s.importer.Import(ctx, docs)
	if result != nil {
		s.logger.Info("seed.completed",
			"documents", len(docs),
			"pages_created", len(result.PagesCreated),
			"pages_updated", len(result.PagesUpdated),
			"blocks_created", result.BlocksCreated,
			"blocks_updated", result.BlocksUpdated,
			"published", len(result.Published),
		)
	}
	return result, err
}
