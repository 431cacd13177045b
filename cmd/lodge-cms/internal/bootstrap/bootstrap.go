package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-lodge-cms"
	"github.com/goliatone/go-lodge-cms/internal/di"
	"github.com/goliatone/go-lodge-cms/pkg/interfaces"
	"github.com/google/uuid"
)

// Options captures configuration for CLI bootstraps.
type Options struct {
	ConfigPath     string
	AutoMigrate    bool
	LoggerProvider interfaces.LoggerProvider
}

// BuildModule loads configuration from file and LODGE_* environment variables
// and constructs the CMS module.
func BuildModule(ctx context.Context, opts Options) (*cms.Module, error) {
	cfg, err := cms.LoadConfig(strings.TrimSpace(opts.ConfigPath))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	diOpts := []di.Option{di.WithAutoMigrate(opts.AutoMigrate)}
	if opts.LoggerProvider != nil {
		diOpts = append(diOpts, di.WithLoggerProvider(opts.LoggerProvider))
	}

	module, err := cms.New(ctx, cfg, diOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise cms module: %w", err)
	}
	return module, nil
}

// ParseUUID converts the supplied string into a UUID, rejecting empty input.
func ParseUUID(value string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return uuid.Nil, fmt.Errorf("id is required")
	}
	return uuid.Parse(trimmed)
}
