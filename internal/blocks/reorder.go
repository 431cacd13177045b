package blocks

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// orderBlocks returns blocks sorted by position. Blocks sharing a position keep
// creation order, then id order, so the block that was there first wins the
// lower slot.
func orderBlocks(in []*Block) []*Block {
	out := append([]*Block(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return out
}

// renumber assigns 0..n-1 following the slice order and returns only the
// positions that changed.
func renumber(ordered []*Block) map[uuid.UUID]int {
	changed := make(map[uuid.UUID]int)
	for index, block := range ordered {
		if block.Position != index {
			changed[block.ID] = index
		}
		block.Position = index
	}
	return changed
}

// moveWithin removes id from ordered and re-inserts it at target, clamped to
// the valid range.
func moveWithin(ordered []*Block, id uuid.UUID, target int) ([]*Block, error) {
	from := -1
	for index, block := range ordered {
		if block.ID == id {
			from = index
			break
		}
	}
	if from < 0 {
		return nil, &NotFoundError{Resource: "block", Key: id.String()}
	}
	target = clamp(target, 0, len(ordered)-1)

	moving := ordered[from]
	rest := make([]*Block, 0, len(ordered))
	rest = append(rest, ordered[:from]...)
	rest = append(rest, ordered[from+1:]...)

	out := make([]*Block, 0, len(ordered))
	out = append(out, rest[:target]...)
	out = append(out, moving)
	out = append(out, rest[target:]...)
	return out, nil
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

func checkDense(pageID uuid.UUID, blocks []*Block) error {
	for index, block := range blocks {
		if block.Position != index {
			return &PositionConflictError{
				PageID: pageID,
				Err:    fmt.Errorf("block %s at position %d, expected %d", block.ID, block.Position, index),
			}
		}
	}
	return nil
}

// normalizeTx closes gaps and resolves duplicate positions inside a page lock.
func normalizeTx(ctx context.Context, tx PageTx) ([]*Block, error) {
	current, err := tx.List(ctx)
	if err != nil {
		return nil, err
	}
	ordered := orderBlocks(current)
	if changed := renumber(ordered); len(changed) > 0 {
		if err := tx.SetPositions(ctx, changed); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

func moveTx(ctx context.Context, tx PageTx, blockID uuid.UUID, target int) ([]*Block, error) {
	current, err := tx.List(ctx)
	if err != nil {
		return nil, err
	}
	moved, err := moveWithin(orderBlocks(current), blockID, target)
	if err != nil {
		return nil, err
	}
	if changed := renumber(moved); len(changed) > 0 {
		if err := tx.SetPositions(ctx, changed); err != nil {
			return nil, err
		}
	}
	return moved, nil
}

// verifyTx re-reads the page and confirms the positions are dense.
func verifyTx(ctx context.Context, tx PageTx, pageID uuid.UUID) ([]*Block, error) {
	stored, err := tx.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkDense(pageID, stored); err != nil {
		return nil, err
	}
	return stored, nil
}

// Normalize renumbers a page's blocks as a dense sequence in their current
// relative order.
func (s *service) Normalize(ctx context.Context, pageID uuid.UUID) ([]*Block, error) {
	if pageID == uuid.Nil {
		return nil, ErrPageRequired
	}
	var result []*Block
	err := s.withPage(ctx, pageID, func(ctx context.Context, tx PageTx) error {
		if _, err := normalizeTx(ctx, tx); err != nil {
			return err
		}
		stored, err := verifyTx(ctx, tx, pageID)
		result = stored
		return err
	})
	if err != nil {
		return nil, storageError("block reorder", err)
	}
	return result, nil
}

// MoveTo moves a block to position (clamped to the page bounds) and shifts
// every block in between.
func (s *service) MoveTo(ctx context.Context, blockID uuid.UUID, position int) ([]*Block, error) {
	if blockID == uuid.Nil {
		return nil, ErrBlockRequired
	}
	block, err := s.repo.GetByID(ctx, blockID)
	if err != nil {
		return nil, storageError("block read", err)
	}

	var result []*Block
	err = s.withPage(ctx, block.PageID, func(ctx context.Context, tx PageTx) error {
		if _, err := moveTx(ctx, tx, blockID, position); err != nil {
			return err
		}
		stored, err := verifyTx(ctx, tx, block.PageID)
		result = stored
		return err
	})
	if err != nil {
		return nil, storageError("block reorder", err)
	}

	s.logger.Debug("blocks.move", "block_id", blockID, "page_id", block.PageID, "position", position)
	return result, nil
}
