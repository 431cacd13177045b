package blocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NewMemoryBlockRepository constructs an in-memory block repository.
func NewMemoryBlockRepository() BlockRepository {
	return &memoryBlockRepository{
		byID:  make(map[uuid.UUID]*Block),
		pages: newKeyedMutex(),
	}
}

type memoryBlockRepository struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*Block
	pages *keyedMutex
}

func (m *memoryBlockRepository) GetByID(_ context.Context, id uuid.UUID) (*Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.byID[id]
	if !ok {
		return nil, &NotFoundError{Resource: "block", Key: id.String()}
	}
	return cloneBlock(record), nil
}

func (m *memoryBlockRepository) ListByPage(_ context.Context, pageID uuid.UUID) ([]*Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneBlocks(m.pageBlocksLocked(pageID)), nil
}

func (m *memoryBlockRepository) ListPublished(_ context.Context) ([]*Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Block
	for _, record := range m.byID {
		if record.Published != nil {
			out = append(out, cloneBlock(record))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PageID != out[j].PageID {
			return out[i].PageID.String() < out[j].PageID.String()
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

func (m *memoryBlockRepository) UpdateDraft(_ context.Context, id uuid.UUID, payload map[string]any, at time.Time) (*Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.byID[id]
	if !ok {
		return nil, &NotFoundError{Resource: "block", Key: id.String()}
	}
	updated := cloneBlock(record)
	updated.Payload = ClonePayload(payload)
	updated.UpdatedAt = at
	m.byID[id] = updated
	return cloneBlock(updated), nil
}

func (m *memoryBlockRepository) Publish(_ context.Context, id uuid.UUID, at time.Time) (*Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.byID[id]
	if !ok {
		return nil, &NotFoundError{Resource: "block", Key: id.String()}
	}
	updated := cloneBlock(record)
	updated.Published = ClonePayload(record.Payload)
	publishedAt := at
	updated.PublishedAt = &publishedAt
	m.byID[id] = updated
	return cloneBlock(updated), nil
}

func (m *memoryBlockRepository) WithPageLock(ctx context.Context, pageID uuid.UUID, fn func(ctx context.Context, tx PageTx) error) error {
	unlock := m.pages.Lock(pageID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, &memoryPageTx{repo: m, pageID: pageID})
}

func (m *memoryBlockRepository) pageBlocksLocked(pageID uuid.UUID) []*Block {
	var out []*Block
	for _, record := range m.byID {
		if record.PageID == pageID {
			out = append(out, record)
		}
	}
	return orderBlocks(out)
}

type memoryPageTx struct {
	repo   *memoryBlockRepository
	pageID uuid.UUID
}

func (tx *memoryPageTx) List(_ context.Context) ([]*Block, error) {
	tx.repo.mu.RLock()
	defer tx.repo.mu.RUnlock()
	return cloneBlocks(tx.repo.pageBlocksLocked(tx.pageID)), nil
}

func (tx *memoryPageTx) Insert(_ context.Context, block *Block) error {
	tx.repo.mu.Lock()
	defer tx.repo.mu.Unlock()

	stored := cloneBlock(block)
	stored.PageID = tx.pageID
	tx.repo.byID[stored.ID] = stored
	return nil
}

func (tx *memoryPageTx) Delete(_ context.Context, id uuid.UUID) error {
	tx.repo.mu.Lock()
	defer tx.repo.mu.Unlock()

	record, ok := tx.repo.byID[id]
	if !ok || record.PageID != tx.pageID {
		return &NotFoundError{Resource: "block", Key: id.String()}
	}
	delete(tx.repo.byID, id)
	return nil
}

func (tx *memoryPageTx) DeleteAll(_ context.Context) error {
	tx.repo.mu.Lock()
	defer tx.repo.mu.Unlock()

	for id, record := range tx.repo.byID {
		if record.PageID == tx.pageID {
			delete(tx.repo.byID, id)
		}
	}
	return nil
}

func (tx *memoryPageTx) SetPositions(_ context.Context, positions map[uuid.UUID]int) error {
	tx.repo.mu.Lock()
	defer tx.repo.mu.Unlock()

	for id := range positions {
		record, ok := tx.repo.byID[id]
		if !ok || record.PageID != tx.pageID {
			return &NotFoundError{Resource: "block", Key: id.String()}
		}
	}
	for id, position := range positions {
		updated := cloneBlock(tx.repo.byID[id])
		updated.Position = position
		tx.repo.byID[id] = updated
	}
	return nil
}
