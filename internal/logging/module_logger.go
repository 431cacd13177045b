package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-lodge-cms/pkg/interfaces"
)

const (
	rootModule     = "cms"
	blocksModule   = "cms.blocks"
	pagesModule    = "cms.pages"
	mediaModule    = "cms.media"
	pipelineModule = "cms.media.pipeline"
	seedModule     = "cms.seed"
)

const (
	fieldAssetID    = "asset_id"
	fieldBreakpoint = "breakpoint"
	fieldSeedPath   = "seed_path"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module name is attached as
// a structured field.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	module = strings.TrimSpace(module)
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}
	return WithFields(logger, map[string]any{"module": module})
}

// BlocksLogger returns the logger for the block store, reorder and publish code.
func BlocksLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, blocksModule)
}

// PagesLogger returns the logger for page services.
func PagesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, pagesModule)
}

// MediaLogger returns the logger for the media service.
func MediaLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, mediaModule)
}

// PipelineLogger returns the logger for derivative generation.
func PipelineLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, pipelineModule)
}

// SeedLogger returns the logger for markdown seeding.
func SeedLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, seedModule)
}

// WithBreakpoint tags a logger with the asset and breakpoint being processed.
func WithBreakpoint(logger interfaces.Logger, assetID, breakpoint string) interfaces.Logger {
	fields := map[string]any{}
	if assetID != "" {
		fields[fieldAssetID] = assetID
	}
	if breakpoint != "" {
		fields[fieldBreakpoint] = breakpoint
	}
	return WithFields(logger, fields)
}

// WithSeedPath tags a logger with the markdown file being imported.
func WithSeedPath(logger interfaces.Logger, path string) interfaces.Logger {
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		return WithFields(logger, map[string]any{fieldSeedPath: trimmed})
	}
	return logger
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
