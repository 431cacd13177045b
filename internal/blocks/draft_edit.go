package blocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// DraftEdit is a two-phase draft update. The proposed payload is validated and
// applied to a local preview straight away; Commit performs the authoritative
// write and either reconciles the preview with the stored row or rolls it back
// to the draft that was current when the edit started.
type DraftEdit struct {
	mu       sync.Mutex
	service  *service
	original *Block
	preview  *Block
	settled  bool
	err      error
}

// ProposeDraft validates payload against the block's type and returns an edit
// whose preview already reflects it. Nothing is written until Commit.
func (s *service) ProposeDraft(ctx context.Context, blockID uuid.UUID, payload map[string]any) (*DraftEdit, error) {
	current, err := s.GetBlock(ctx, blockID)
	if err != nil {
		return nil, err
	}
	validated, err := s.registry.Validate(current.Type, payload)
	if err != nil {
		return nil, err
	}
	preview := cloneBlock(current)
	preview.Payload = validated
	return &DraftEdit{service: s, original: current, preview: preview}, nil
}

// Preview returns the block as the editor should currently display it.
func (e *DraftEdit) Preview() *Block {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneBlock(e.preview)
}

// Commit writes the proposed payload. On failure the preview reverts to the
// original draft and the write error is returned.
func (e *DraftEdit) Commit(ctx context.Context) (*Block, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.settled {
		return nil, ErrEditSettled
	}
	e.settled = true

	stored, err := e.service.UpdateDraft(ctx, UpdateDraftRequest{
		BlockID: e.original.ID,
		Payload: e.preview.Payload,
	})
	if err != nil {
		e.err = err
		e.preview = cloneBlock(e.original)
		e.service.logger.Warn("blocks.draft_edit.rolled_back", "block_id", e.original.ID, "error", err)
		return nil, err
	}
	e.preview = cloneBlock(stored)
	return stored, nil
}

// Discard abandons the edit and restores the original preview.
func (e *DraftEdit) Discard() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.settled {
		return
	}
	e.settled = true
	e.preview = cloneBlock(e.original)
}

// RolledBack reports whether Commit failed and the preview was restored.
func (e *DraftEdit) RolledBack() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err != nil
}

// Err returns the error from a failed Commit.
func (e *DraftEdit) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}
