package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/goliatone/go-lodge-cms"
	"github.com/goliatone/go-lodge-cms/cmd/lodge-cms/internal/bootstrap"
	"github.com/goliatone/go-lodge-cms/commands"
	blockscmd "github.com/goliatone/go-lodge-cms/internal/commands/blocks"
	"github.com/goliatone/go-lodge-cms/internal/media"
	"github.com/goliatone/go-lodge-cms/internal/migrations"
	"github.com/robfig/cron/v3"
)

const usage = `usage: lodge-cms [-config file] [-migrate] <command> [args]

commands:
  migrate [up|down|status]   manage the database schema
  seed [dir]                 import markdown pages and blocks
  ingest [-alt text] [-caption text] [-thumb] <file>
                             store an image and build its derivatives
  move <block-id> <position> reorder a block within its page
  publish <slug>             publish every block of a page
  show [-view draft|published] <slug>
                             print a page with its blocks as JSON
  worker                     run the scheduled media resume sweep`

var (
	moduleBuilder           = bootstrap.BuildModule
	stdout        io.Writer = os.Stdout
)

var errUsage = errors.New(usage)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:]); err != nil {
		log.Fatalf("lodge-cms: %v", err)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("lodge-cms", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to a YAML/JSON/TOML config file (LODGE_* env vars override it)")
	autoMigrate := fs.Bool("migrate", false, "Apply pending migrations before running the command")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return errUsage
	}

	module, err := moduleBuilder(ctx, bootstrap.Options{ConfigPath: *configPath, AutoMigrate: *autoMigrate})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Close()

	name, cmdArgs := rest[0], rest[1:]
	switch name {
	case "migrate":
		return runMigrate(ctx, module, cmdArgs)
	case "seed":
		return runSeed(ctx, module, cmdArgs)
	case "ingest":
		return runIngest(ctx, module, cmdArgs)
	case "move":
		return runMove(ctx, module, cmdArgs)
	case "publish":
		return runPublish(ctx, module, cmdArgs)
	case "show":
		return runShow(ctx, module, cmdArgs)
	case "worker":
		return runWorker(ctx, module)
	default:
		return fmt.Errorf("unknown command %q\n%w", name, errUsage)
	}
}

func runMigrate(ctx context.Context, module *cms.Module, args []string) error {
	db := module.Container().DB()
	if db == nil {
		return fmt.Errorf("migrate: the memory driver has no schema")
	}
	runner, err := migrations.NewRunner(db)
	if err != nil {
		return err
	}
	action := "up"
	if len(args) > 0 {
		action = args[0]
	}
	switch action {
	case "up":
		applied, err := runner.Migrate(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "applied %d migration(s)\n", len(applied))
	case "down":
		rolled, err := runner.Rollback(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "rolled back %d migration(s)\n", len(rolled))
	case "status":
		statuses, err := runner.Status(ctx)
		if err != nil {
			return err
		}
		for _, status := range statuses {
			state := "pending"
			if status.Applied {
				state = "applied"
			}
			fmt.Fprintf(stdout, "%-8s %s\n", state, status.Name)
		}
	default:
		return fmt.Errorf("migrate: unknown action %q", action)
	}
	return nil
}

func runSeed(ctx context.Context, module *cms.Module, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	dir := fs.String("dir", module.Container().Config.Markdown.ContentDir, "Directory holding markdown page files")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		*dir = fs.Arg(0)
	}
	result, err := module.Seeder().SeedDir(ctx, *dir)
	if result != nil {
		fmt.Fprintf(stdout, "pages: %d created, %d updated; blocks: %d created, %d updated, %d deleted; published: %d\n",
			len(result.PagesCreated), len(result.PagesUpdated),
			result.BlocksCreated, result.BlocksUpdated, result.BlocksDeleted, len(result.Published))
		for path, message := range result.Errors {
			fmt.Fprintf(stdout, "error %s: %s\n", path, message)
		}
	}
	return err
}

func runIngest(ctx context.Context, module *cms.Module, args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	alt := fs.String("alt", "", "Alternative text")
	caption := fs.String("caption", "", "Caption")
	thumb := fs.Bool("thumb", false, "Also produce the square thumbnail")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("ingest: exactly one file is required")
	}
	path := fs.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	ingestion, err := module.Media().Ingest(ctx, media.IngestRequest{
		Data:      data,
		Filename:  filepath.Base(path),
		AltText:   *alt,
		Caption:   *caption,
		Thumbnail: *thumb,
	})
	if err != nil {
		return err
	}
	result, err := ingestion.Wait(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "asset %s: %d variant(s)\n", result.Asset.ID, len(result.Asset.Variants))
	for _, failure := range result.Failures {
		fmt.Fprintf(stdout, "breakpoint %s failed: %v\n", failure.Breakpoint, failure.Err)
	}
	return nil
}

func runMove(ctx context.Context, module *cms.Module, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("move: block id and position are required")
	}
	blockID, err := bootstrap.ParseUUID(args[0])
	if err != nil {
		return fmt.Errorf("move: %w", err)
	}
	position, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("move: position: %w", err)
	}
	return module.Container().BlockCommands().Move.Execute(ctx, blockscmd.MoveBlockCommand{
		BlockID:  blockID,
		Position: position,
	})
}

func runPublish(ctx context.Context, module *cms.Module, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("publish: a page slug is required")
	}
	page, err := module.Pages().GetBySlug(ctx, args[0])
	if err != nil {
		return err
	}
	if err := module.Container().BlockCommands().PublishPage.Execute(ctx, blockscmd.PublishPageCommand{PageID: page.ID}); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "published %s\n", page.Slug)
	return nil
}

func runShow(ctx context.Context, module *cms.Module, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	view := fs.String("view", string(cms.ViewPublished), "draft or published")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("show: a page slug is required")
	}
	page, err := module.Page(ctx, fs.Arg(0), cms.View(*view))
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(page)
}

func runWorker(ctx context.Context, module *cms.Module) error {
	scheduler := cron.New()
	result, err := commands.RegisterContainerCommands(module.Container(), commands.RegistrationOptions{
		CronRegistrar: func(expression string, job func()) error {
			_, err := scheduler.AddFunc(expression, job)
			return err
		},
	})
	if err != nil {
		return err
	}

	// Pick up anything interrupted before this process started.
	if _, err := module.Container().ResumeIncomplete(ctx); err != nil {
		return err
	}

	scheduler.Start()
	fmt.Fprintf(stdout, "worker started, resume schedule %q\n", result.ResumeSchedule)
	<-ctx.Done()
	<-scheduler.Stop().Done()
	return nil
}
