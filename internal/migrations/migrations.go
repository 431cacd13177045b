package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed sql/*.sql
var sqlFS embed.FS

// Table names used by the bun migrator bookkeeping.
const (
	TableName      = "lodge_migrations"
	LocksTableName = "lodge_migration_locks"
)

// FS returns the embedded migration files.
func FS() fs.FS {
	sub, err := fs.Sub(sqlFS, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}

// Status describes a migration and whether it has been applied.
type Status struct {
	Name    string
	Comment string
	GroupID int64
	Applied bool
}

// Runner applies the embedded schema migrations through bun/migrate.
type Runner struct {
	migrator *migrate.Migrator
}

// NewRunner discovers the embedded migrations and binds them to db.
func NewRunner(db *bun.DB) (*Runner, error) {
	set := migrate.NewMigrations()
	if err := set.Discover(FS()); err != nil {
		return nil, fmt.Errorf("discover migrations: %w", err)
	}
	migrator := migrate.NewMigrator(db, set,
		migrate.WithTableName(TableName),
		migrate.WithLocksTableName(LocksTableName),
	)
	return &Runner{migrator: migrator}, nil
}

// Migrate creates the bookkeeping tables when needed and applies every
// pending migration. It returns the names applied in this run.
func (r *Runner) Migrate(ctx context.Context) ([]string, error) {
	if err := r.migrator.Init(ctx); err != nil {
		return nil, fmt.Errorf("init migrations: %w", err)
	}
	if err := r.migrator.Lock(ctx); err != nil {
		return nil, fmt.Errorf("lock migrations: %w", err)
	}
	defer r.migrator.Unlock(ctx) //nolint:errcheck

	group, err := r.migrator.Migrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return groupNames(group), nil
}

// Rollback reverts the most recently applied group.
func (r *Runner) Rollback(ctx context.Context) ([]string, error) {
	if err := r.migrator.Init(ctx); err != nil {
		return nil, fmt.Errorf("init migrations: %w", err)
	}
	if err := r.migrator.Lock(ctx); err != nil {
		return nil, fmt.Errorf("lock migrations: %w", err)
	}
	defer r.migrator.Unlock(ctx) //nolint:errcheck

	group, err := r.migrator.Rollback(ctx)
	if err != nil {
		return nil, fmt.Errorf("rollback migrations: %w", err)
	}
	return groupNames(group), nil
}

// Status lists every known migration in order.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	if err := r.migrator.Init(ctx); err != nil {
		return nil, fmt.Errorf("init migrations: %w", err)
	}
	known, err := r.migrator.MigrationsWithStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}
	out := make([]Status, 0, len(known))
	for _, m := range known {
		out = append(out, Status{
			Name:    m.Name,
			Comment: m.Comment,
			GroupID: m.GroupID,
			Applied: m.GroupID > 0,
		})
	}
	return out, nil
}

// Apply is a convenience wrapper used by tests and the DI container.
func Apply(ctx context.Context, db *bun.DB) error {
	runner, err := NewRunner(db)
	if err != nil {
		return err
	}
	_, err = runner.Migrate(ctx)
	return err
}

func groupNames(group *migrate.MigrationGroup) []string {
	if group == nil || group.IsZero() {
		return nil
	}
	names := make([]string, 0, len(group.Migrations))
	for _, m := range group.Migrations {
		names = append(names, m.Name)
	}
	return names
}
