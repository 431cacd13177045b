package pages

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-lodge-cms/internal/blocks"
	"github.com/goliatone/go-lodge-cms/internal/logging"
	"github.com/goliatone/go-lodge-cms/pkg/interfaces"
	"github.com/goliatone/go-slug"
	"github.com/google/uuid"
)

// Service manages pages and composes them with their blocks.
type Service interface {
	Create(ctx context.Context, req CreatePageRequest) (*Page, error)
	Get(ctx context.Context, id uuid.UUID) (*Page, error)
	GetBySlug(ctx context.Context, slug string) (*Page, error)
	List(ctx context.Context) ([]*Page, error)
	Update(ctx context.Context, req UpdatePageRequest) (*Page, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetWithBlocks(ctx context.Context, slug string, view View) (*PageView, error)
	// PageExists satisfies blocks.PageLookup.
	PageExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// RichTextRenderer turns rich text source into HTML.
type RichTextRenderer interface {
	Render(ctx context.Context, source string) (string, error)
}

// IDGenerator produces unique identifiers.
type IDGenerator func() uuid.UUID

// ServiceOption configures the page service.
type ServiceOption func(*service)

// WithPageIDGenerator overrides the id generator.
func WithPageIDGenerator(generator IDGenerator) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.id = generator
		}
	}
}

// WithNow overrides the clock used for timestamps.
func WithNow(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithRichTextRenderer enables HTML rendering of rich_text fields in page views.
func WithRichTextRenderer(renderer RichTextRenderer) ServiceOption {
	return func(s *service) {
		s.renderer = renderer
	}
}

// WithLogger sets the module logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type service struct {
	pages    PageRepository
	blocks   blocks.Service
	renderer RichTextRenderer
	id       IDGenerator
	now      func() time.Time
	logger   interfaces.Logger
}

// NewService wires the page service. The block service is used for cascade
// deletes and page views.
func NewService(repo PageRepository, blockService blocks.Service, opts ...ServiceOption) Service {
	s := &service{
		pages:  repo,
		blocks: blockService,
		id:     uuid.New,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormalizeSlug applies the slug rules pages are stored under.
func NormalizeSlug(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", ErrSlugRequired
	}
	normalized, err := slug.Normalize(trimmed)
	if err != nil || normalized == "" || !slug.IsValid(normalized) {
		return "", ErrSlugInvalid
	}
	return normalized, nil
}

func (s *service) Create(ctx context.Context, req CreatePageRequest) (*Page, error) {
	normalized, err := NormalizeSlug(req.Slug)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	if _, err := s.pages.GetBySlug(ctx, normalized); err == nil {
		return nil, ErrSlugExists
	} else if !IsNotFound(err) {
		return nil, storageError("page read", err)
	}

	id := req.ID
	if id == uuid.Nil {
		id = s.id()
	}
	now := s.now()
	record := &Page{
		ID:        id,
		Slug:      normalized,
		Name:      name,
		Template:  strings.TrimSpace(req.Template),
		Priority:  req.Priority,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := s.pages.Create(ctx, record)
	if err != nil {
		return nil, storageError("page write", err)
	}
	s.logger.Info("pages.create", "page_id", created.ID, "slug", created.Slug)
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Page, error) {
	if id == uuid.Nil {
		return nil, ErrPageRequired
	}
	record, err := s.pages.GetByID(ctx, id)
	if err != nil {
		return nil, storageError("page read", err)
	}
	return record, nil
}

func (s *service) GetBySlug(ctx context.Context, value string) (*Page, error) {
	normalized, err := NormalizeSlug(value)
	if err != nil {
		return nil, err
	}
	record, err := s.pages.GetBySlug(ctx, normalized)
	if err != nil {
		return nil, storageError("page read", err)
	}
	return record, nil
}

func (s *service) List(ctx context.Context) ([]*Page, error) {
	records, err := s.pages.List(ctx)
	if err != nil {
		return nil, storageError("page read", err)
	}
	sortPages(records)
	return records, nil
}

func (s *service) Update(ctx context.Context, req UpdatePageRequest) (*Page, error) {
	current, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		current.Name = name
	}
	if req.Template != nil {
		current.Template = strings.TrimSpace(*req.Template)
	}
	if req.Priority != nil {
		current.Priority = *req.Priority
	}
	current.UpdatedAt = s.now()

	updated, err := s.pages.Update(ctx, current)
	if err != nil {
		return nil, storageError("page write", err)
	}
	s.logger.Debug("pages.update", "page_id", updated.ID)
	return updated, nil
}

// Delete removes the page's blocks first, then the page itself.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	removePage := func(ctx context.Context) error {
		if err := s.pages.Delete(ctx, id); err != nil {
			return storageError("page delete", err)
		}
		return nil
	}
	if s.blocks != nil {
		if err := s.blocks.DeletePage(ctx, id, removePage); err != nil {
			return err
		}
	} else if err := removePage(ctx); err != nil {
		return err
	}
	s.logger.Info("pages.delete", "page_id", id)
	return nil
}

func (s *service) PageExists(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, err := s.pages.GetByID(ctx, id); err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
