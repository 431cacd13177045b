package blockscmd

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-lodge-cms/internal/blocks"
	"github.com/goliatone/go-lodge-cms/internal/commands"
	"github.com/goliatone/go-lodge-cms/pkg/interfaces"
)

// CommandRegistry is the registration contract of go-command registries.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// HandlerSet groups the block command handlers.
type HandlerSet struct {
	Create       *commands.Handler[CreateBlockCommand]
	UpdateDraft  *commands.Handler[UpdateBlockDraftCommand]
	Move         *commands.Handler[MoveBlockCommand]
	Delete       *commands.Handler[DeleteBlockCommand]
	PublishBlock *commands.Handler[PublishBlockCommand]
	PublishPage  *commands.Handler[PublishPageCommand]
}

// Option customises handler wiring.
type Option func(*options)

type options struct {
	onBlock  func(*blocks.Block)
	onOrder  func([]*blocks.Block)
	onReport func(*blocks.PublishReport)
}

// OnBlock receives the block written by create, update and publish commands.
func OnBlock(fn func(*blocks.Block)) Option {
	return func(o *options) { o.onBlock = fn }
}

// OnOrder receives the page order after a move.
func OnOrder(fn func([]*blocks.Block)) Option {
	return func(o *options) { o.onOrder = fn }
}

// OnReport receives the publish report of a page publish, including partial runs.
func OnReport(fn func(*blocks.PublishReport)) Option {
	return func(o *options) { o.onReport = fn }
}

// NewHandlers builds the block command handlers around service.
func NewHandlers(service blocks.Service, logger interfaces.Logger, opts ...Option) *HandlerSet {
	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	logger = commands.EnsureLogger(logger)

	return &HandlerSet{
		Create: newHandler(logger, "blocks.create", func(ctx context.Context, msg CreateBlockCommand) error {
			block, err := service.CreateBlock(ctx, blocks.CreateBlockRequest{PageID: msg.PageID, Type: msg.Type, Payload: msg.Payload})
			if err == nil {
				cfg.block(block)
			}
			return err
		}, func(msg CreateBlockCommand) map[string]any {
			return map[string]any{"page_id": msg.PageID, "block_type": msg.Type}
		}),
		UpdateDraft: newHandler(logger, "blocks.update_draft", func(ctx context.Context, msg UpdateBlockDraftCommand) error {
			block, err := service.UpdateDraft(ctx, blocks.UpdateDraftRequest{BlockID: msg.BlockID, Payload: msg.Payload})
			if err == nil {
				cfg.block(block)
			}
			return err
		}, func(msg UpdateBlockDraftCommand) map[string]any {
			return map[string]any{"block_id": msg.BlockID}
		}),
		Move: newHandler(logger, "blocks.move", func(ctx context.Context, msg MoveBlockCommand) error {
			ordered, err := service.MoveTo(ctx, msg.BlockID, msg.Position)
			if err == nil && cfg.onOrder != nil {
				cfg.onOrder(ordered)
			}
			return err
		}, func(msg MoveBlockCommand) map[string]any {
			return map[string]any{"block_id": msg.BlockID, "position": msg.Position}
		}),
		Delete: newHandler(logger, "blocks.delete", func(ctx context.Context, msg DeleteBlockCommand) error {
			return service.DeleteBlock(ctx, msg.BlockID)
		}, func(msg DeleteBlockCommand) map[string]any {
			return map[string]any{"block_id": msg.BlockID}
		}),
		PublishBlock: newHandler(logger, "blocks.publish", func(ctx context.Context, msg PublishBlockCommand) error {
			block, err := service.PublishBlock(ctx, msg.BlockID)
			if err == nil {
				cfg.block(block)
			}
			return err
		}, func(msg PublishBlockCommand) map[string]any {
			return map[string]any{"block_id": msg.BlockID}
		}),
		PublishPage: newHandler(logger, "blocks.publish_page", func(ctx context.Context, msg PublishPageCommand) error {
			report, err := service.PublishPage(ctx, msg.PageID)
			if report != nil && cfg.onReport != nil {
				cfg.onReport(report)
			}
			return err
		}, func(msg PublishPageCommand) map[string]any {
			return map[string]any{"page_id": msg.PageID}
		}),
	}
}

// RegisterBlockCommands builds the handlers and registers each with reg.
func RegisterBlockCommands(reg CommandRegistry, service blocks.Service, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	if service == nil {
		return nil, errors.New("block command registration: service is nil")
	}
	set := NewHandlers(service, commands.CommandLogger(provider, "blocks"), opts...)
	if reg != nil {
		for _, handler := range []any{set.Create, set.UpdateDraft, set.Move, set.Delete, set.PublishBlock, set.PublishPage} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}

func (o options) block(block *blocks.Block) {
	if o.onBlock != nil && block != nil {
		o.onBlock(block)
	}
}

func newHandler[T command.Message](logger interfaces.Logger, operation string, fn command.CommandFunc[T], fields func(T) map[string]any) *commands.Handler[T] {
	return commands.NewHandler(fn,
		commands.WithLogger[T](logger),
		commands.WithOperation[T](operation),
		commands.WithMessageFields(fields),
		commands.WithErrorClassifier[T](classify),
	)
}

// classify maps block service errors onto command error categories and codes.
func classify(err error) error {
	var (
		fieldErr    *blocks.FieldValidationError
		unknownType *blocks.UnknownBlockTypeError
		notFound    *blocks.NotFoundError
		conflict    *blocks.PositionConflictError
		partial     *blocks.PartialPublishFailureError
	)
	switch {
	case errors.As(err, &fieldErr):
		return commands.InvalidInput(err, "BLOCKS_PAYLOAD_INVALID", "block payload failed validation")
	case errors.As(err, &unknownType):
		return commands.InvalidInput(err, "BLOCKS_UNKNOWN_TYPE", "unknown block type")
	case errors.Is(err, blocks.ErrPageRequired), errors.Is(err, blocks.ErrBlockRequired), errors.Is(err, blocks.ErrTypeRequired):
		return commands.InvalidInput(err, "BLOCKS_INPUT_INVALID", "block command input invalid")
	case errors.As(err, &notFound):
		return commands.Failed(err, "BLOCKS_NOT_FOUND", "block or page not found")
	case errors.As(err, &conflict):
		return commands.Failed(err, "BLOCKS_POSITION_CONFLICT", "concurrent reorder, retry")
	case errors.As(err, &partial):
		return commands.Failed(err, "BLOCKS_PARTIAL_PUBLISH", "page publish incomplete")
	default:
		return err
	}
}
