package media

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AssetRepository persists assets and their variant manifest.
type AssetRepository interface {
	Create(ctx context.Context, record *Asset) (*Asset, error)
	// GetByID returns the asset with Variants populated.
	GetByID(ctx context.Context, id uuid.UUID) (*Asset, error)
	// List returns every asset, newest first.
	List(ctx context.Context) ([]*Asset, error)
	// ListIncomplete returns unfinished assets created before the cutoff,
	// oldest first.
	ListIncomplete(ctx context.Context, before time.Time) ([]*Asset, error)
	// AddVariant records a derivative. A second variant for the same label
	// replaces the first.
	AddVariant(ctx context.Context, variant *Variant) error
	MarkProcessed(ctx context.Context, id uuid.UUID, failures map[string]string, at time.Time) (*Asset, error)
	UpdateMetadata(ctx context.Context, id uuid.UUID, altText, caption string, at time.Time) (*Asset, error)
	// Delete removes the asset and its variants.
	Delete(ctx context.Context, id uuid.UUID) error
}

// NewAssetRepository creates the generic repository for Asset records.
func NewAssetRepository(db *bun.DB) repository.Repository[*Asset] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Asset]{
		NewRecord:          func() *Asset { return &Asset{} },
		GetID:              func(a *Asset) uuid.UUID { return a.ID },
		SetID:              func(a *Asset, id uuid.UUID) { a.ID = id },
		GetIdentifier:      func() string { return "checksum" },
		GetIdentifierValue: func(a *Asset) string { return a.Checksum },
	})
}

// NewVariantRepository creates the generic repository for Variant records.
func NewVariantRepository(db *bun.DB) repository.Repository[*Variant] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Variant]{
		NewRecord:          func() *Variant { return &Variant{} },
		GetID:              func(v *Variant) uuid.UUID { return v.ID },
		SetID:              func(v *Variant, id uuid.UUID) { v.ID = id },
		GetIdentifier:      func() string { return "path" },
		GetIdentifierValue: func(v *Variant) string { return v.Path },
	})
}
