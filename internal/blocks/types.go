package blocks

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Block is a typed unit of page content carrying a draft payload and the last
// published snapshot. Published is nil until the block is first published.
type Block struct {
	bun.BaseModel `bun:"table:blocks,alias:b"`

	ID          uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	PageID      uuid.UUID      `bun:"page_id,notnull,type:uuid" json:"page_id"`
	Type        string         `bun:"type,notnull" json:"type"`
	Position    int            `bun:"position,notnull" json:"position"`
	Payload     map[string]any `bun:"payload,type:jsonb,notnull" json:"payload"`
	Published   map[string]any `bun:"published,type:jsonb,nullzero" json:"published,omitempty"`
	PublishedAt *time.Time     `bun:"published_at,nullzero" json:"published_at,omitempty"`
	CreatedAt   time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// State reports where the block sits in the publish lifecycle.
func (b *Block) State() PublishState {
	if b == nil || b.Published == nil {
		return StateUnpublished
	}
	if EqualPayloads(b.Payload, b.Published) {
		return StateClean
	}
	return StateDirty
}

// PublishState enumerates the publish lifecycle of a block.
type PublishState string

const (
	StateUnpublished PublishState = "unpublished"
	StateClean       PublishState = "clean"
	StateDirty       PublishState = "dirty"
)

// BlockStatus summarises the publish state of a block on a page.
type BlockStatus struct {
	BlockID  uuid.UUID    `json:"block_id"`
	Type     string       `json:"type"`
	Position int          `json:"position"`
	State    PublishState `json:"state"`
	// Stale is set when the published snapshot no longer matches the current
	// shape of its type. Stale snapshots are still served as-is.
	Stale bool `json:"stale,omitempty"`
}

// CreateBlockRequest appends a block to the end of a page. A nil payload
// starts the block from the registry defaults.
type CreateBlockRequest struct {
	// ID is optional; the service generator is used when it is uuid.Nil.
	ID      uuid.UUID
	PageID  uuid.UUID
	Type    string
	Payload map[string]any
}

// UpdateDraftRequest replaces the draft payload of a block.
type UpdateDraftRequest struct {
	BlockID uuid.UUID
	Payload map[string]any
}

// PublishReport lists the blocks promoted by a page publish.
type PublishReport struct {
	PageID    uuid.UUID   `json:"page_id"`
	Published []uuid.UUID `json:"published"`
}

// Reference identifies a published block whose snapshot points at a value,
// e.g. a media asset id or storage path.
type Reference struct {
	BlockID uuid.UUID `json:"block_id"`
	PageID  uuid.UUID `json:"page_id"`
	Path    string    `json:"path"`
}

func cloneBlock(b *Block) *Block {
	if b == nil {
		return nil
	}
	out := *b
	out.Payload = ClonePayload(b.Payload)
	out.Published = ClonePayload(b.Published)
	if b.PublishedAt != nil {
		at := *b.PublishedAt
		out.PublishedAt = &at
	}
	return &out
}

func cloneBlocks(in []*Block) []*Block {
	out := make([]*Block, len(in))
	for i, b := range in {
		out[i] = cloneBlock(b)
	}
	return out
}
