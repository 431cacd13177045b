package blocks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BlockRepository persists blocks. Single-block writes must be atomic on the
// row; structural changes to a page go through WithPageLock.
type BlockRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Block, error)
	ListByPage(ctx context.Context, pageID uuid.UUID) ([]*Block, error)
	ListPublished(ctx context.Context) ([]*Block, error)
	// UpdateDraft replaces the draft payload without touching the published snapshot.
	UpdateDraft(ctx context.Context, id uuid.UUID, payload map[string]any, at time.Time) (*Block, error)
	// Publish copies the stored draft into the published snapshot in one write.
	Publish(ctx context.Context, id uuid.UUID, at time.Time) (*Block, error)
	// WithPageLock runs fn inside an exclusive section scoped to pageID.
	WithPageLock(ctx context.Context, pageID uuid.UUID, fn func(ctx context.Context, tx PageTx) error) error
}

// PageTx exposes the structural operations permitted inside a page lock.
type PageTx interface {
	// List returns the page's blocks ordered by position, then creation time, then id.
	List(ctx context.Context) ([]*Block, error)
	Insert(ctx context.Context, block *Block) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) error
	SetPositions(ctx context.Context, positions map[uuid.UUID]int) error
}

// PageLookup confirms a page exists before blocks are attached to it.
type PageLookup interface {
	PageExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// PageLookupFunc adapts a function to PageLookup.
type PageLookupFunc func(ctx context.Context, id uuid.UUID) (bool, error)

func (f PageLookupFunc) PageExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return f(ctx, id)
}
