package media

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryAssetRepository keeps assets in process memory.
type MemoryAssetRepository struct {
	mu     sync.RWMutex
	assets map[uuid.UUID]*Asset
}

// NewMemoryAssetRepository constructs an empty repository.
func NewMemoryAssetRepository() *MemoryAssetRepository {
	return &MemoryAssetRepository{assets: make(map[uuid.UUID]*Asset)}
}

var _ AssetRepository = (*MemoryAssetRepository)(nil)

func (m *MemoryAssetRepository) Create(_ context.Context, record *Asset) (*Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := cloneAsset(record)
	m.assets[copied.ID] = copied
	return cloneAsset(copied), nil
}

func (m *MemoryAssetRepository) GetByID(_ context.Context, id uuid.UUID) (*Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	asset, ok := m.assets[id]
	if !ok {
		return nil, &NotFoundError{Key: id.String()}
	}
	return cloneAsset(asset), nil
}

func (m *MemoryAssetRepository) List(_ context.Context) ([]*Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Asset, 0, len(m.assets))
	for _, asset := range m.assets {
		out = append(out, cloneAsset(asset))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (m *MemoryAssetRepository) ListIncomplete(_ context.Context, before time.Time) ([]*Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Asset
	for _, asset := range m.assets {
		if asset.ProcessingCompleted || !asset.CreatedAt.Before(before) {
			continue
		}
		out = append(out, cloneAsset(asset))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryAssetRepository) AddVariant(_ context.Context, variant *Variant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	asset, ok := m.assets[variant.AssetID]
	if !ok {
		return &NotFoundError{Key: variant.AssetID.String()}
	}
	if asset.Variants == nil {
		asset.Variants = map[string]string{}
	}
	asset.Variants[variant.Label] = variant.Path
	return nil
}

func (m *MemoryAssetRepository) MarkProcessed(_ context.Context, id uuid.UUID, failures map[string]string, at time.Time) (*Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	asset, ok := m.assets[id]
	if !ok {
		return nil, &NotFoundError{Key: id.String()}
	}
	asset.Failures = maps.Clone(failures)
	asset.ProcessingCompleted = true
	asset.UpdatedAt = at
	return cloneAsset(asset), nil
}

func (m *MemoryAssetRepository) UpdateMetadata(_ context.Context, id uuid.UUID, altText, caption string, at time.Time) (*Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	asset, ok := m.assets[id]
	if !ok {
		return nil, &NotFoundError{Key: id.String()}
	}
	asset.AltText = altText
	asset.Caption = caption
	asset.UpdatedAt = at
	return cloneAsset(asset), nil
}

func (m *MemoryAssetRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.assets[id]; !ok {
		return &NotFoundError{Key: id.String()}
	}
	delete(m.assets, id)
	return nil
}
