package media

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunAssetRepository implements AssetRepository on top of bun.
type BunAssetRepository struct {
	db       *bun.DB
	assets   repository.Repository[*Asset]
	variants repository.Repository[*Variant]
}

// NewBunAssetRepository creates a bun backed asset repository.
func NewBunAssetRepository(db *bun.DB) *BunAssetRepository {
	return &BunAssetRepository{
		db:       db,
		assets:   NewAssetRepository(db),
		variants: NewVariantRepository(db),
	}
}

var _ AssetRepository = (*BunAssetRepository)(nil)

func (r *BunAssetRepository) Create(ctx context.Context, record *Asset) (*Asset, error) {
	created, err := r.assets.Create(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("asset repository error: %w", err)
	}
	return cloneAsset(created), nil
}

func (r *BunAssetRepository) GetByID(ctx context.Context, id uuid.UUID) (*Asset, error) {
	record, err := r.assets.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, id.String())
	}
	if err := r.attachVariants(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (r *BunAssetRepository) List(ctx context.Context) ([]*Asset, error) {
	records, _, err := r.assets.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Order("created_at DESC", "id ASC")
	}))
	if err != nil {
		return nil, mapRepositoryError(err, "")
	}
	if err := r.attachVariants(ctx, records...); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *BunAssetRepository) ListIncomplete(ctx context.Context, before time.Time) ([]*Asset, error) {
	records, _, err := r.assets.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			Where("?TableAlias.processing_completed = ?", false).
			Where("?TableAlias.created_at < ?", before).
			Order("created_at ASC", "id ASC")
	}))
	if err != nil {
		return nil, mapRepositoryError(err, "")
	}
	if err := r.attachVariants(ctx, records...); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *BunAssetRepository) AddVariant(ctx context.Context, variant *Variant) error {
	if variant.ID == uuid.Nil {
		variant.ID = uuid.New()
	}
	_, err := r.db.NewInsert().
		Model(variant).
		On("CONFLICT (asset_id, label) DO UPDATE").
		Set("path = EXCLUDED.path").
		Set("width = EXCLUDED.width").
		Set("height = EXCLUDED.height").
		Set("size = EXCLUDED.size").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("asset variant insert: %w", err)
	}
	return nil
}

func (r *BunAssetRepository) MarkProcessed(ctx context.Context, id uuid.UUID, failures map[string]string, at time.Time) (*Asset, error) {
	if err := r.exists(ctx, id); err != nil {
		return nil, err
	}
	record := &Asset{ID: id, Failures: failures, ProcessingCompleted: true, UpdatedAt: at}
	if _, err := r.assets.Update(ctx, record,
		repository.UpdateByID(id.String()),
		repository.UpdateColumns("failures", "processing_completed", "updated_at"),
	); err != nil {
		return nil, mapRepositoryError(err, id.String())
	}
	return r.GetByID(ctx, id)
}

func (r *BunAssetRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, altText, caption string, at time.Time) (*Asset, error) {
	if err := r.exists(ctx, id); err != nil {
		return nil, err
	}
	record := &Asset{ID: id, AltText: altText, Caption: caption, UpdatedAt: at}
	if _, err := r.assets.Update(ctx, record,
		repository.UpdateByID(id.String()),
		repository.UpdateColumns("alt_text", "caption", "updated_at"),
	); err != nil {
		return nil, mapRepositoryError(err, id.String())
	}
	return r.GetByID(ctx, id)
}

// Delete removes variant rows explicitly so SQLite connections without
// foreign key enforcement do not leave orphans.
func (r *BunAssetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.exists(ctx, id); err != nil {
		return err
	}
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*Variant)(nil)).
			Where("?TableAlias.asset_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("asset variant delete: %w", err)
		}
		if _, err := tx.NewDelete().
			Model((*Asset)(nil)).
			Where("?TableAlias.id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("asset delete: %w", err)
		}
		return nil
	})
}

func (r *BunAssetRepository) exists(ctx context.Context, id uuid.UUID) error {
	if _, err := r.assets.GetByID(ctx, id.String()); err != nil {
		return mapRepositoryError(err, id.String())
	}
	return nil
}

func (r *BunAssetRepository) attachVariants(ctx context.Context, assets ...*Asset) error {
	if len(assets) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(assets))
	byID := make(map[uuid.UUID]*Asset, len(assets))
	for i, asset := range assets {
		ids[i] = asset.ID
		asset.Variants = map[string]string{}
		byID[asset.ID] = asset
	}
	rows, _, err := r.variants.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.asset_id IN (?)", bun.In(ids)).Order("label ASC")
	}))
	if err != nil {
		return mapRepositoryError(err, "")
	}
	for _, row := range rows {
		if asset, ok := byID[row.AssetID]; ok {
			asset.Variants[row.Label] = row.Path
		}
	}
	return nil
}

func mapRepositoryError(err error, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Key: key}
	}
	return fmt.Errorf("asset repository error: %w", err)
}
