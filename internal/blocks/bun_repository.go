package blocks

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// NewBlockRepository creates the generic repository for Block records.
func NewBlockRepository(db *bun.DB) repository.Repository[*Block] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Block]{
		NewRecord:          func() *Block { return &Block{} },
		GetID:              func(b *Block) uuid.UUID { return b.ID },
		SetID:              func(b *Block, id uuid.UUID) { b.ID = id },
		GetIdentifier:      func() string { return "" },
		GetIdentifierValue: func(*Block) string { return "" },
	})
}

// BunBlockRepository implements BlockRepository on top of bun.
type BunBlockRepository struct {
	db    *bun.DB
	repo  repository.Repository[*Block]
	locks *keyedMutex
}

// NewBunBlockRepository creates a bun backed block repository.
func NewBunBlockRepository(db *bun.DB) *BunBlockRepository {
	return &BunBlockRepository{
		db:    db,
		repo:  NewBlockRepository(db),
		locks: newKeyedMutex(),
	}
}

var _ BlockRepository = (*BunBlockRepository)(nil)

func (r *BunBlockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Block, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "block", id.String())
	}
	return record, nil
}

func (r *BunBlockRepository) ListByPage(ctx context.Context, pageID uuid.UUID) ([]*Block, error) {
	records, _, err := r.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.page_id = ?", pageID).Order("position ASC", "created_at ASC", "id ASC")
	}))
	if err != nil {
		return nil, mapRepositoryError(err, "block", pageID.String())
	}
	return records, nil
}

func (r *BunBlockRepository) ListPublished(ctx context.Context) ([]*Block, error) {
	records, _, err := r.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.published IS NOT NULL").Order("page_id ASC", "position ASC")
	}))
	if err != nil {
		return nil, mapRepositoryError(err, "block", "")
	}
	return records, nil
}

func (r *BunBlockRepository) UpdateDraft(ctx context.Context, id uuid.UUID, payload map[string]any, at time.Time) (*Block, error) {
	record := &Block{ID: id, Payload: payload, UpdatedAt: at}
	result, err := r.db.NewUpdate().
		Model(record).
		Column("payload", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	if err := expectRow(result, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *BunBlockRepository) Publish(ctx context.Context, id uuid.UUID, at time.Time) (*Block, error) {
	result, err := r.db.NewUpdate().
		Model((*Block)(nil)).
		Set("published = payload").
		Set("published_at = ?", at).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	if err := expectRow(result, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// WithPageLock runs fn in a transaction. On Postgres the owning page row is
// locked with SELECT ... FOR UPDATE; SQLite serialises writers itself.
func (r *BunBlockRepository) WithPageLock(ctx context.Context, pageID uuid.UUID, fn func(ctx context.Context, tx PageTx) error) error {
	unlock := r.locks.Lock(pageID)
	defer unlock()

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if r.db.Dialect().Name() == dialect.PG {
			if _, err := tx.NewRaw("SELECT id FROM pages WHERE id = ? FOR UPDATE", pageID).Exec(ctx); err != nil {
				return err
			}
		}
		return fn(ctx, &bunPageTx{tx: tx, pageID: pageID})
	})
	return classifyConflict(pageID, err)
}

type bunPageTx struct {
	tx     bun.Tx
	pageID uuid.UUID
}

func (t *bunPageTx) List(ctx context.Context) ([]*Block, error) {
	var records []*Block
	err := t.tx.NewSelect().
		Model(&records).
		Where("?TableAlias.page_id = ?", t.pageID).
		Order("position ASC", "created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list page blocks: %w", err)
	}
	return records, nil
}

func (t *bunPageTx) Insert(ctx context.Context, block *Block) error {
	stored := cloneBlock(block)
	stored.PageID = t.pageID
	if _, err := t.tx.NewInsert().Model(stored).Exec(ctx); err != nil {
		return fmt.Errorf("insert block: %w", err)
	}
	return nil
}

func (t *bunPageTx) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := t.tx.NewDelete().
		Model((*Block)(nil)).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.page_id = ?", t.pageID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	return expectRow(result, id)
}

func (t *bunPageTx) DeleteAll(ctx context.Context) error {
	if _, err := t.tx.NewDelete().
		Model((*Block)(nil)).
		Where("?TableAlias.page_id = ?", t.pageID).
		Exec(ctx); err != nil {
		return fmt.Errorf("delete page blocks: %w", err)
	}
	return nil
}

func (t *bunPageTx) SetPositions(ctx context.Context, positions map[uuid.UUID]int) error {
	for id, position := range positions {
		result, err := t.tx.NewUpdate().
			Model((*Block)(nil)).
			Set("position = ?", position).
			Where("?TableAlias.id = ?", id).
			Where("?TableAlias.page_id = ?", t.pageID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update block position: %w", err)
		}
		if err := expectRow(result, id); err != nil {
			return err
		}
	}
	return nil
}

type rowsAffected interface {
	RowsAffected() (int64, error)
}

func expectRow(result rowsAffected, id uuid.UUID) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("block rows affected: %w", err)
	}
	if affected == 0 {
		return &NotFoundError{Resource: "block", Key: id.String()}
	}
	return nil
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}
