package blocks

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-lodge-cms/internal/logging"
	"github.com/goliatone/go-lodge-cms/pkg/interfaces"
	"github.com/google/uuid"
)

// Service exposes block CRUD, ordering and publishing.
type Service interface {
	CreateBlock(ctx context.Context, req CreateBlockRequest) (*Block, error)
	UpdateDraft(ctx context.Context, req UpdateDraftRequest) (*Block, error)
	ProposeDraft(ctx context.Context, blockID uuid.UUID, payload map[string]any) (*DraftEdit, error)
	DeleteBlock(ctx context.Context, id uuid.UUID) error
	DeletePageBlocks(ctx context.Context, pageID uuid.UUID) error
	// DeletePage removes every block of a page and then calls removePage
	// while the page is still locked, so no block can be created in between.
	DeletePage(ctx context.Context, pageID uuid.UUID, removePage func(ctx context.Context) error) error
	GetBlock(ctx context.Context, id uuid.UUID) (*Block, error)
	ListPageBlocks(ctx context.Context, pageID uuid.UUID) ([]*Block, error)

	Normalize(ctx context.Context, pageID uuid.UUID) ([]*Block, error)
	MoveTo(ctx context.Context, blockID uuid.UUID, position int) ([]*Block, error)

	PublishBlock(ctx context.Context, id uuid.UUID) (*Block, error)
	PublishPage(ctx context.Context, pageID uuid.UUID) (*PublishReport, error)
	IsDirty(ctx context.Context, id uuid.UUID) (bool, error)
	PageStatus(ctx context.Context, pageID uuid.UUID) ([]BlockStatus, error)
	PublishedReferences(ctx context.Context, values ...string) ([]Reference, error)

	Registry() *Registry
}

// IDGenerator produces unique identifiers.
type IDGenerator func() uuid.UUID

// ServiceOption configures the block service.
type ServiceOption func(*service)

// WithClock overrides the clock used for timestamps.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithIDGenerator overrides the id generator.
func WithIDGenerator(generator IDGenerator) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.id = generator
		}
	}
}

// WithPageLookup makes CreateBlock reject pages that do not exist.
func WithPageLookup(lookup PageLookup) ServiceOption {
	return func(s *service) {
		s.pages = lookup
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

// WithStopOnPublishFailure makes PublishPage stop at the first failing block
// and report the rest as skipped.
func WithStopOnPublishFailure(stop bool) ServiceOption {
	return func(s *service) {
		s.stopOnPublishFailure = stop
	}
}

type service struct {
	repo                 BlockRepository
	registry             *Registry
	pages                PageLookup
	locks                *keyedMutex
	now                  func() time.Time
	id                   IDGenerator
	logger               interfaces.Logger
	stopOnPublishFailure bool
}

// NewService wires the block service. A nil registry falls back to the
// built-in lodge block set.
func NewService(repo BlockRepository, registry *Registry, opts ...ServiceOption) Service {
	if registry == nil {
		registry = DefaultRegistry()
	}
	s := &service{
		repo:     repo,
		registry: registry,
		locks:    newKeyedMutex(),
		now:      func() time.Time { return time.Now().UTC() },
		id:       uuid.New,
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Registry() *Registry { return s.registry }

// requirePage checks the page exists. Callers hold the page lock so the
// answer stays valid until their write commits.
func (s *service) requirePage(ctx context.Context, pageID uuid.UUID) error {
	if s.pages == nil {
		return nil
	}
	exists, err := s.pages.PageExists(ctx, pageID)
	if err != nil {
		return storageError("page read", err)
	}
	if !exists {
		return &NotFoundError{Resource: "page", Key: pageID.String()}
	}
	return nil
}

// withPage serialises structural mutations on a page within this process and
// then inside the repository's exclusive section.
func (s *service) withPage(ctx context.Context, pageID uuid.UUID, fn func(ctx context.Context, tx PageTx) error) error {
	unlock := s.locks.Lock(pageID)
	defer unlock()
	return s.repo.WithPageLock(ctx, pageID, fn)
}

func (s *service) CreateBlock(ctx context.Context, req CreateBlockRequest) (*Block, error) {
	if req.PageID == uuid.Nil {
		return nil, ErrPageRequired
	}
	blockType := strings.TrimSpace(req.Type)
	if blockType == "" {
		return nil, ErrTypeRequired
	}

	payload := req.Payload
	if payload == nil {
		defaults, err := s.registry.DefaultsFor(blockType)
		if err != nil {
			return nil, err
		}
		payload = defaults
	}
	validated, err := s.registry.Validate(blockType, payload)
	if err != nil {
		return nil, err
	}

	id := req.ID
	if id == uuid.Nil {
		id = s.id()
	}
	now := s.now()
	block := &Block{
		ID:        id,
		PageID:    req.PageID,
		Type:      blockType,
		Payload:   validated,
		CreatedAt: now,
		UpdatedAt: now,
	}

	unlock := s.locks.Lock(req.PageID)
	defer unlock()
	if err := s.requirePage(ctx, req.PageID); err != nil {
		return nil, err
	}
	err = s.repo.WithPageLock(ctx, req.PageID, func(ctx context.Context, tx PageTx) error {
		ordered, err := normalizeTx(ctx, tx)
		if err != nil {
			return err
		}
		block.Position = len(ordered)
		if err := tx.Insert(ctx, block); err != nil {
			return err
		}
		_, err = verifyTx(ctx, tx, req.PageID)
		return err
	})
	if err != nil {
		return nil, storageError("block write", err)
	}

	s.logger.Info("blocks.create", "block_id", block.ID, "page_id", block.PageID, "type", block.Type, "position", block.Position)
	return cloneBlock(block), nil
}

func (s *service) UpdateDraft(ctx context.Context, req UpdateDraftRequest) (*Block, error) {
	if req.BlockID == uuid.Nil {
		return nil, ErrBlockRequired
	}
	current, err := s.repo.GetByID(ctx, req.BlockID)
	if err != nil {
		return nil, storageError("block read", err)
	}
	validated, err := s.registry.Validate(current.Type, req.Payload)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.UpdateDraft(ctx, req.BlockID, validated, s.now())
	if err != nil {
		return nil, storageError("block write", err)
	}
	s.logger.Debug("blocks.update_draft", "block_id", updated.ID, "page_id", updated.PageID)
	return updated, nil
}

func (s *service) DeleteBlock(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrBlockRequired
	}
	block, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return storageError("block read", err)
	}
	err = s.withPage(ctx, block.PageID, func(ctx context.Context, tx PageTx) error {
		if err := tx.Delete(ctx, id); err != nil {
			return err
		}
		if _, err := normalizeTx(ctx, tx); err != nil {
			return err
		}
		_, err := verifyTx(ctx, tx, block.PageID)
		return err
	})
	if err != nil {
		return storageError("block delete", err)
	}
	s.logger.Info("blocks.delete", "block_id", id, "page_id", block.PageID)
	return nil
}

func (s *service) DeletePageBlocks(ctx context.Context, pageID uuid.UUID) error {
	if pageID == uuid.Nil {
		return ErrPageRequired
	}
	err := s.withPage(ctx, pageID, func(ctx context.Context, tx PageTx) error {
		return tx.DeleteAll(ctx)
	})
	return storageError("block delete", err)
}

func (s *service) DeletePage(ctx context.Context, pageID uuid.UUID, removePage func(ctx context.Context) error) error {
	if pageID == uuid.Nil {
		return ErrPageRequired
	}
	unlock := s.locks.Lock(pageID)
	defer unlock()
	err := s.repo.WithPageLock(ctx, pageID, func(ctx context.Context, tx PageTx) error {
		return tx.DeleteAll(ctx)
	})
	if err != nil {
		return storageError("block delete", err)
	}
	if removePage == nil {
		return nil
	}
	return removePage(ctx)
}

func (s *service) GetBlock(ctx context.Context, id uuid.UUID) (*Block, error) {
	if id == uuid.Nil {
		return nil, ErrBlockRequired
	}
	block, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storageError("block read", err)
	}
	return block, nil
}

func (s *service) ListPageBlocks(ctx context.Context, pageID uuid.UUID) ([]*Block, error) {
	if pageID == uuid.Nil {
		return nil, ErrPageRequired
	}
	records, err := s.repo.ListByPage(ctx, pageID)
	if err != nil {
		return nil, storageError("block read", err)
	}
	return orderBlocks(records), nil
}

// IsNotFound reports whether err signals a missing block or page.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}
