package commands

import (
	"context"
	"errors"
	"strings"

	mediacmd "github.com/goliatone/go-lodge-cms/internal/commands/media"
	"github.com/goliatone/go-lodge-cms/internal/di"
	"github.com/goliatone/go-lodge-cms/internal/logging"
)

// CommandRegistry records command handlers so hosts can expose them via CLI or cron.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CommandSubscription allows hosts to tear down dispatcher subscriptions.
type CommandSubscription = di.CommandSubscription

// CronRegistrar schedules job under a cron expression, e.g. robfig/cron's AddFunc.
type CronRegistrar func(expression string, job func()) error

// RegistrationOptions configures how handlers are registered.
type RegistrationOptions struct {
	Registry CommandRegistry
	// Subscribe registers every handler with the go-command dispatcher.
	Subscribe     bool
	CronRegistrar CronRegistrar
	// ResumeCron overrides media.resume_schedule for the resume sweep.
	ResumeCron string
}

// RegistrationResult captures the constructed command handlers and any dispatcher subscriptions.
type RegistrationResult struct {
	Handlers      []any
	Subscriptions []CommandSubscription
	// ResumeSchedule is the expression the resume sweep was scheduled under.
	ResumeSchedule string
}

// RegisterContainerCommands exposes the container's command handlers to the
// supplied registry, dispatcher and cron integrations.
func RegisterContainerCommands(container *di.Container, opts RegistrationOptions) (*RegistrationResult, error) {
	if container == nil {
		return &RegistrationResult{}, nil
	}
	blocksSet, mediaSet := container.BlockCommands(), container.MediaCommands()
	if blocksSet == nil || mediaSet == nil {
		return &RegistrationResult{}, di.ErrNoCommands
	}

	result := &RegistrationResult{
		Handlers: []any{
			blocksSet.Create,
			blocksSet.UpdateDraft,
			blocksSet.Move,
			blocksSet.Delete,
			blocksSet.PublishBlock,
			blocksSet.PublishPage,
			mediaSet.Ingest,
			mediaSet.Delete,
			mediaSet.Resume,
		},
	}

	var errs error
	if opts.Registry != nil {
		for _, handler := range result.Handlers {
			if err := opts.Registry.RegisterCommand(handler); err != nil {
				errs = errors.Join(errs, err)
			}
		}
	}

	if opts.Subscribe {
		subs, err := container.SubscribeCommands()
		if err != nil {
			errs = errors.Join(errs, err)
		}
		result.Subscriptions = append(result.Subscriptions, subs...)
	}

	if opts.CronRegistrar != nil {
		expression := strings.TrimSpace(opts.ResumeCron)
		if expression == "" {
			expression = strings.TrimSpace(container.Config.Media.ResumeSchedule)
		}
		if expression != "" {
			logger := logging.MediaLogger(container.LoggerProvider())
			grace := container.Config.Media.ResumeGrace
			job := func() {
				msg := mediacmd.ResumeIncompleteCommand{Grace: grace}
				if err := mediaSet.Resume.Execute(context.Background(), msg); err != nil {
					logger.Error("media.resume.sweep_failed", "error", err)
				}
			}
			if err := opts.CronRegistrar(expression, job); err != nil {
				errs = errors.Join(errs, err)
			} else {
				result.ResumeSchedule = expression
			}
		}
	}

	return result, errs
}
