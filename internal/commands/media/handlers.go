package mediacmd

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-lodge-cms/internal/commands"
	"github.com/goliatone/go-lodge-cms/internal/media"
	"github.com/goliatone/go-lodge-cms/pkg/interfaces"
)

// CommandRegistry is the registration contract of go-command registries.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// HandlerSet groups the media command handlers.
type HandlerSet struct {
	Ingest *commands.Handler[IngestMediaCommand]
	Delete *commands.Handler[DeleteAssetCommand]
	Resume *commands.Handler[ResumeIncompleteCommand]
}

// Option customises handler wiring.
type Option func(*options)

type options struct {
	onIngested func(*media.Ingestion)
	onResult   func(*media.IngestResult)
	onResumed  func(int)
}

// OnIngested receives the ingestion handle as soon as the asset is registered.
func OnIngested(fn func(*media.Ingestion)) Option {
	return func(o *options) { o.onIngested = fn }
}

// OnResult receives the final result of an ingest run with Wait set.
func OnResult(fn func(*media.IngestResult)) Option {
	return func(o *options) { o.onResult = fn }
}

// OnResumed receives how many assets a resume sweep completed.
func OnResumed(fn func(int)) Option {
	return func(o *options) { o.onResumed = fn }
}

// NewHandlers builds the media command handlers around service.
func NewHandlers(service media.Service, logger interfaces.Logger, opts ...Option) *HandlerSet {
	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	logger = commands.EnsureLogger(logger)

	ingest := func(ctx context.Context, msg IngestMediaCommand) error {
		ingestion, err := service.Ingest(ctx, media.IngestRequest{
			Data:      msg.Data,
			Filename:  msg.Filename,
			AltText:   msg.AltText,
			Caption:   msg.Caption,
			Thumbnail: msg.Thumbnail,
		})
		if err != nil {
			return err
		}
		if cfg.onIngested != nil {
			cfg.onIngested(ingestion)
		}
		if !msg.Wait {
			return nil
		}
		result, err := ingestion.Wait(ctx)
		if err != nil {
			return err
		}
		if cfg.onResult != nil {
			cfg.onResult(result)
		}
		return nil
	}
	remove := func(ctx context.Context, msg DeleteAssetCommand) error {
		return service.Delete(ctx, media.DeleteAssetRequest{ID: msg.AssetID, Force: msg.Force})
	}
	resume := func(ctx context.Context, msg ResumeIncompleteCommand) error {
		resumed, err := service.ResumeIncomplete(ctx, msg.Grace)
		if cfg.onResumed != nil {
			cfg.onResumed(resumed)
		}
		return err
	}

	return &HandlerSet{
		Ingest: newHandler(logger, "media.ingest", ingest, func(msg IngestMediaCommand) map[string]any {
			return map[string]any{"filename": msg.Filename, "size": len(msg.Data), "thumbnail": msg.Thumbnail}
		}),
		Delete: newHandler(logger, "media.delete", remove, func(msg DeleteAssetCommand) map[string]any {
			return map[string]any{"asset_id": msg.AssetID, "force": msg.Force}
		}),
		Resume: newHandler(logger, "media.resume_incomplete", resume, func(msg ResumeIncompleteCommand) map[string]any {
			return map[string]any{"grace": msg.Grace.String()}
		}),
	}
}

// RegisterMediaCommands builds the handlers and registers each with reg.
func RegisterMediaCommands(reg CommandRegistry, service media.Service, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	if service == nil {
		return nil, errors.New("media command registration: service is nil")
	}
	set := NewHandlers(service, commands.CommandLogger(provider, "media"), opts...)
	if reg != nil {
		for _, handler := range []any{set.Ingest, set.Delete, set.Resume} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}

func newHandler[T command.Message](logger interfaces.Logger, operation string, fn command.CommandFunc[T], fields func(T) map[string]any) *commands.Handler[T] {
	return commands.NewHandler(fn,
		commands.WithLogger[T](logger),
		commands.WithOperation[T](operation),
		commands.WithMessageFields(fields),
		commands.WithErrorClassifier[T](classify),
	)
}

// classify maps media service errors onto command error categories and codes.
func classify(err error) error {
	var (
		unsupported *media.UnsupportedMediaTypeError
		upload      *media.UploadError
		inUse       *media.AssetInUseError
	)
	switch {
	case errors.As(err, &unsupported):
		return commands.InvalidInput(err, "MEDIA_UNSUPPORTED_TYPE", "unsupported media type")
	case errors.Is(err, media.ErrImageDecode), errors.Is(err, media.ErrEmptyUpload), errors.Is(err, media.ErrUploadTooLarge):
		return commands.InvalidInput(err, "MEDIA_UPLOAD_INVALID", "upload rejected")
	case errors.As(err, &upload):
		return commands.Failed(err, "MEDIA_UPLOAD_FAILED", "object upload failed")
	case errors.As(err, &inUse):
		return commands.Failed(err, "MEDIA_ASSET_IN_USE", "asset referenced by published content")
	case media.IsNotFound(err):
		return commands.Failed(err, "MEDIA_NOT_FOUND", "asset not found")
	default:
		return err
	}
}
