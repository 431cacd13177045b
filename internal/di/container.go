package di

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	"github.com/goliatone/go-lodge-cms/internal/adapters/storage"
	"github.com/goliatone/go-lodge-cms/internal/blocks"
	blockscmd "github.com/goliatone/go-lodge-cms/internal/commands/blocks"
	mediacmd "github.com/goliatone/go-lodge-cms/internal/commands/media"
	"github.com/goliatone/go-lodge-cms/internal/logging"
	"github.com/goliatone/go-lodge-cms/internal/logging/gologger"
	"github.com/goliatone/go-lodge-cms/internal/markdown"
	"github.com/goliatone/go-lodge-cms/internal/media"
	"github.com/goliatone/go-lodge-cms/internal/migrations"
	"github.com/goliatone/go-lodge-cms/internal/pages"
	"github.com/goliatone/go-lodge-cms/internal/runtimeconfig"
	"github.com/goliatone/go-lodge-cms/pkg/interfaces"
	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// Container wires module dependencies from runtime configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider

	bunDB       *bun.DB
	ownsDB      bool
	autoMigrate bool

	store         interfaces.ObjectStore
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer
	registry      *blocks.Registry
	renderer      pages.RichTextRenderer

	pageRepo  pages.PageRepository
	blockRepo blocks.BlockRepository
	assetRepo media.AssetRepository

	blockSvc blocks.Service
	pageSvc  pages.Service
	mediaSvc media.Service
	pipeline *media.Pipeline
	seeder   *markdown.Seeder

	blockCommands *blockscmd.HandlerSet
	mediaCommands *mediacmd.HandlerSet
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB supplies an existing database handle. The container does not close it.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithObjectStore overrides the configured storage backend.
func WithObjectStore(store interfaces.ObjectStore) Option {
	return func(c *Container) {
		c.store = store
	}
}

// WithLoggerProvider overrides the configured logger provider.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithCache overrides the default cache service used by the page repository.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithRegistry replaces the built-in block registry.
func WithRegistry(registry *blocks.Registry) Option {
	return func(c *Container) {
		c.registry = registry
	}
}

// WithRichTextRenderer overrides the goldmark renderer used by page views.
func WithRichTextRenderer(renderer pages.RichTextRenderer) Option {
	return func(c *Container) {
		c.renderer = renderer
	}
}

// WithAutoMigrate applies pending migrations when the container opens the database.
func WithAutoMigrate(enabled bool) Option {
	return func(c *Container) {
		c.autoMigrate = enabled
	}
}

// NewContainer validates cfg and builds every service.
func NewContainer(ctx context.Context, cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	steps := []func(context.Context) error{
		c.configureLoggerProvider,
		c.configureDatabase,
		c.configureObjectStore,
		c.configureCacheDefaults,
		c.configureRepositories,
		c.configureServices,
		c.configureCommands,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return c, nil
}

func (c *Container) configureLoggerProvider(context.Context) error {
	if c.loggerProvider != nil {
		return nil
	}
	provider, err := gologger.NewProvider(c.Config.Logging)
	if err != nil {
		return err
	}
	c.loggerProvider = provider
	return nil
}

func (c *Container) configureDatabase(ctx context.Context) error {
	if c.bunDB == nil {
		db, err := OpenDB(c.Config.Database)
		if err != nil {
			return err
		}
		if db == nil {
			return nil
		}
		c.bunDB = db
		c.ownsDB = true
	}
	if c.autoMigrate {
		if err := migrations.Apply(ctx, c.bunDB); err != nil {
			return fmt.Errorf("di: apply migrations: %w", err)
		}
	}
	return nil
}

// OpenDB opens the configured database. The memory driver returns a nil handle.
func OpenDB(cfg runtimeconfig.DatabaseConfig) (*bun.DB, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case runtimeconfig.DriverMemory:
		return nil, nil
	case runtimeconfig.DriverSQLite:
		sqlDB, err := sql.Open("sqlite3", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("di: open sqlite: %w", err)
		}
		// SQLite serialises writers; one connection avoids SQLITE_BUSY under load.
		sqlDB.SetMaxOpenConns(1)
		return bun.NewDB(sqlDB, sqlitedialect.New()), nil
	case runtimeconfig.DriverPostgres:
		sqlDB, err := sql.Open("pgx", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("di: open postgres: %w", err)
		}
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("%w: %s", runtimeconfig.ErrDatabaseDriverInvalid, cfg.Driver)
	}
}

func (c *Container) configureObjectStore(ctx context.Context) error {
	if c.store != nil {
		return nil
	}
	cfg := c.Config.Storage
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case runtimeconfig.BackendMemory:
		c.store = storage.NewMemoryStore(cfg.BaseURL)
	case runtimeconfig.BackendFS:
		store, err := storage.NewFSStore(cfg.Root, cfg.BaseURL)
		if err != nil {
			return err
		}
		c.store = store
	case runtimeconfig.BackendS3:
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:        cfg.S3.Bucket,
			Region:        cfg.S3.Region,
			Endpoint:      cfg.S3.Endpoint,
			AccessKey:     cfg.S3.AccessKey,
			SecretKey:     cfg.S3.SecretKey,
			UsePathStyle:  cfg.S3.UsePathStyle,
			PublicBaseURL: cfg.S3.PublicBaseURL,
			Prefix:        cfg.S3.Prefix,
		})
		if err != nil {
			return err
		}
		c.store = store
	default:
		return fmt.Errorf("%w: %s", runtimeconfig.ErrStorageBackendInvalid, cfg.Backend)
	}
	return nil
}

func (c *Container) configureCacheDefaults(context.Context) error {
	if !c.Config.Database.Cache || c.bunDB == nil {
		return nil
	}
	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.Config.Database.CacheTTL > 0 {
			cfg.TTL = c.Config.Database.CacheTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err != nil {
			return fmt.Errorf("di: cache service: %w", err)
		}
		c.cacheService = service
	}
	if c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
	return nil
}

func (c *Container) configureRepositories(context.Context) error {
	if c.bunDB != nil {
		c.pageRepo = pages.NewBunPageRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
		c.blockRepo = blocks.NewBunBlockRepository(c.bunDB)
		c.assetRepo = media.NewBunAssetRepository(c.bunDB)
		return nil
	}
	c.pageRepo = pages.NewMemoryPageRepository()
	c.blockRepo = blocks.NewMemoryBlockRepository()
	c.assetRepo = media.NewMemoryAssetRepository()
	return nil
}

func (c *Container) configureServices(context.Context) error {
	if c.registry == nil {
		c.registry = blocks.DefaultRegistry()
	}
	planner, err := buildPlanner(c.Config.Media)
	if err != nil {
		return err
	}
	if c.renderer == nil && c.Config.Features.RenderRichText {
		c.renderer = markdown.NewGoldmarkRenderer(markdown.RenderOptions{
			Extensions: c.Config.Markdown.Extensions,
			HardWraps:  c.Config.Markdown.HardWraps,
			Unsafe:     c.Config.Markdown.Unsafe,
		})
	}

	// Blocks need page existence checks and pages need blocks for views and
	// cascades; the lookup closes over the page service assigned below.
	lookup := blocks.PageLookupFunc(func(ctx context.Context, id uuid.UUID) (bool, error) {
		return c.pageSvc.PageExists(ctx, id)
	})
	c.blockSvc = blocks.NewService(c.blockRepo, c.registry,
		blocks.WithPageLookup(lookup),
		blocks.WithLogger(logging.BlocksLogger(c.loggerProvider)),
		blocks.WithStopOnPublishFailure(c.Config.Features.StopOnPublishFailure),
	)

	pageOpts := []pages.ServiceOption{pages.WithLogger(logging.PagesLogger(c.loggerProvider))}
	if c.renderer != nil {
		pageOpts = append(pageOpts, pages.WithRichTextRenderer(c.renderer))
	}
	c.pageSvc = pages.NewService(c.pageRepo, c.blockSvc, pageOpts...)

	c.pipeline = media.NewPipeline(c.store, c.assetRepo,
		media.WithPlanner(planner),
		media.WithConcurrency(c.Config.Media.Concurrency),
		media.WithBreakpointTimeout(c.Config.Media.BreakpointTimeout),
		media.WithMaxUploadBytes(c.Config.Media.MaxUploadBytes),
		media.WithPipelineLogger(logging.PipelineLogger(c.loggerProvider)),
	)
	c.mediaSvc = media.NewService(c.assetRepo, c.store, c.pipeline,
		media.WithReferenceFinder(c.blockSvc),
		media.WithLogger(logging.MediaLogger(c.loggerProvider)),
	)

	c.seeder = markdown.NewSeeder(c.pageSvc, c.blockSvc, logging.SeedLogger(c.loggerProvider),
		markdown.WithPrune(c.Config.Markdown.Prune),
	).WithLoaderOptions(markdown.WithRecursive(c.Config.Markdown.Recursive))
	return nil
}

func (c *Container) configureCommands(context.Context) error {
	var err error
	c.blockCommands, err = blockscmd.RegisterBlockCommands(nil, c.blockSvc, c.loggerProvider)
	if err != nil {
		return err
	}
	c.mediaCommands, err = mediacmd.RegisterMediaCommands(nil, c.mediaSvc, c.loggerProvider)
	return err
}

func buildPlanner(cfg runtimeconfig.MediaConfig) (*media.Planner, error) {
	if len(cfg.Breakpoints) == 0 && cfg.Thumbnail == (runtimeconfig.BreakpointConfig{}) {
		return media.DefaultPlanner(), nil
	}
	landscape := media.DefaultBreakpoints()
	if len(cfg.Breakpoints) > 0 {
		landscape = make([]media.Breakpoint, 0, len(cfg.Breakpoints))
		for _, bp := range cfg.Breakpoints {
			landscape = append(landscape, toBreakpoint(bp))
		}
	}
	thumbnail := media.DefaultThumbnail()
	if cfg.Thumbnail != (runtimeconfig.BreakpointConfig{}) {
		thumbnail = toBreakpoint(cfg.Thumbnail)
		thumbnail.Crop = true
	}
	planner, err := media.NewPlanner(landscape, thumbnail)
	if err != nil {
		return nil, fmt.Errorf("di: media breakpoints: %w", err)
	}
	return planner, nil
}

func toBreakpoint(cfg runtimeconfig.BreakpointConfig) media.Breakpoint {
	return media.Breakpoint{
		Label:   strings.TrimSpace(cfg.Label),
		Width:   cfg.Width,
		Height:  cfg.Height,
		Quality: cfg.Quality,
		Crop:    cfg.Crop,
	}
}

// Close releases the database handle when the container opened it.
func (c *Container) Close() error {
	if c.bunDB != nil && c.ownsDB {
		return c.bunDB.Close()
	}
	return nil
}

// ResumeIncomplete resumes unfinished media older than the configured grace.
func (c *Container) ResumeIncomplete(ctx context.Context) (int, error) {
	return c.mediaSvc.ResumeIncomplete(ctx, c.Config.Media.ResumeGrace)
}

// CommandSubscription is returned by go-command's dispatcher.
type CommandSubscription interface {
	Unsubscribe()
}

// ErrNoCommands is returned when commands were requested before they were built.
var ErrNoCommands = errors.New("di: command handlers not configured")

// SubscribeCommands registers every command handler with the go-command
// dispatcher. Moves retry on position conflicts; callers unsubscribe on shutdown.
func (c *Container) SubscribeCommands(opts ...runner.Option) ([]CommandSubscription, error) {
	if c.blockCommands == nil || c.mediaCommands == nil {
		return nil, ErrNoCommands
	}
	moveOpts := append([]runner.Option{runner.WithMaxRetries(moveRetries)}, opts...)
	return []CommandSubscription{
		dispatcher.SubscribeCommand(c.blockCommands.Create, opts...),
		dispatcher.SubscribeCommand(c.blockCommands.UpdateDraft, opts...),
		dispatcher.SubscribeCommand(c.blockCommands.Move, moveOpts...),
		dispatcher.SubscribeCommand(c.blockCommands.Delete, opts...),
		dispatcher.SubscribeCommand(c.blockCommands.PublishBlock, opts...),
		dispatcher.SubscribeCommand(c.blockCommands.PublishPage, opts...),
		dispatcher.SubscribeCommand(c.mediaCommands.Ingest, opts...),
		dispatcher.SubscribeCommand(c.mediaCommands.Delete, opts...),
		dispatcher.SubscribeCommand(c.mediaCommands.Resume, opts...),
	}, nil
}

const moveRetries = 3

func (c *Container) DB() *bun.DB                               { return c.bunDB }
func (c *Container) ObjectStore() interfaces.ObjectStore       { return c.store }
func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }
func (c *Container) Registry() *blocks.Registry                { return c.registry }
func (c *Container) BlockService() blocks.Service              { return c.blockSvc }
func (c *Container) PageService() pages.Service                { return c.pageSvc }
func (c *Container) MediaService() media.Service               { return c.mediaSvc }
func (c *Container) Seeder() *markdown.Seeder                  { return c.seeder }
func (c *Container) BlockCommands() *blockscmd.HandlerSet      { return c.blockCommands }
func (c *Container) MediaCommands() *mediacmd.HandlerSet       { return c.mediaCommands }

// CacheTTL reports the read cache TTL, zero when caching is off.
func (c *Container) CacheTTL() time.Duration {
	if c.cacheService == nil {
		return 0
	}
	return c.Config.Database.CacheTTL
}
