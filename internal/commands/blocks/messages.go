package blockscmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

const (
	createBlockMessageType      = "cms.blocks.create"
	updateBlockDraftMessageType = "cms.blocks.update_draft"
	moveBlockMessageType        = "cms.blocks.move"
	deleteBlockMessageType      = "cms.blocks.delete"
	publishBlockMessageType     = "cms.blocks.publish"
	publishPageMessageType      = "cms.blocks.publish_page"
)

// CreateBlockCommand appends a block to a page. A nil Payload creates the
// block with its type defaults.
type CreateBlockCommand struct {
	PageID  uuid.UUID      `json:"page_id"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Type implements command.Message.
func (CreateBlockCommand) Type() string { return createBlockMessageType }

// Validate ensures the page and block type are present.
func (m CreateBlockCommand) Validate() error {
	errs := validation.Errors{}
	if m.PageID == uuid.Nil {
		errs["page_id"] = validation.NewError("cms.blocks.create.page_id_required", "page_id is required")
	}
	if strings.TrimSpace(m.Type) == "" {
		errs["type"] = validation.NewError("cms.blocks.create.type_required", "type is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UpdateBlockDraftCommand replaces a block's draft payload.
type UpdateBlockDraftCommand struct {
	BlockID uuid.UUID      `json:"block_id"`
	Payload map[string]any `json:"payload"`
}

// Type implements command.Message.
func (UpdateBlockDraftCommand) Type() string { return updateBlockDraftMessageType }

// Validate ensures a block id and payload were supplied.
func (m UpdateBlockDraftCommand) Validate() error {
	errs := validation.Errors{}
	if m.BlockID == uuid.Nil {
		errs["block_id"] = validation.NewError("cms.blocks.update_draft.block_id_required", "block_id is required")
	}
	if m.Payload == nil {
		errs["payload"] = validation.NewError("cms.blocks.update_draft.payload_required", "payload is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// MoveBlockCommand moves a block to Position within its page. Positions past
// the end are clamped.
type MoveBlockCommand struct {
	BlockID  uuid.UUID `json:"block_id"`
	Position int       `json:"position"`
}

// Type implements command.Message.
func (MoveBlockCommand) Type() string { return moveBlockMessageType }

// Validate ensures the target is addressable.
func (m MoveBlockCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.BlockID, validation.By(requireID("cms.blocks.move.block_id_required", "block_id is required"))),
		validation.Field(&m.Position, validation.Min(0).ErrorObject(
			validation.NewError("cms.blocks.move.position_invalid", "position must be zero or positive"),
		)),
	)
}

// DeleteBlockCommand removes a block and closes the gap it leaves.
type DeleteBlockCommand struct {
	BlockID uuid.UUID `json:"block_id"`
}

// Type implements command.Message.
func (DeleteBlockCommand) Type() string { return deleteBlockMessageType }

// Validate ensures a block id was supplied.
func (m DeleteBlockCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.BlockID, validation.By(requireID("cms.blocks.delete.block_id_required", "block_id is required"))),
	)
}

// PublishBlockCommand promotes one block's draft.
type PublishBlockCommand struct {
	BlockID uuid.UUID `json:"block_id"`
}

// Type implements command.Message.
func (PublishBlockCommand) Type() string { return publishBlockMessageType }

// Validate ensures a block id was supplied.
func (m PublishBlockCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.BlockID, validation.By(requireID("cms.blocks.publish.block_id_required", "block_id is required"))),
	)
}

// PublishPageCommand promotes every block of a page in position order.
type PublishPageCommand struct {
	PageID uuid.UUID `json:"page_id"`
}

// Type implements command.Message.
func (PublishPageCommand) Type() string { return publishPageMessageType }

// Validate ensures a page id was supplied.
func (m PublishPageCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.PageID, validation.By(requireID("cms.blocks.publish_page.page_id_required", "page_id is required"))),
	)
}

func requireID(code, message string) validation.RuleFunc {
	return func(value any) error {
		if id, ok := value.(uuid.UUID); !ok || id == uuid.Nil {
			return validation.NewError(code, message)
		}
		return nil
	}
}
