package cms

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-lodge-cms/internal/migrations"
	"github.com/uptrace/bun"
)

// GetMigrationsFS returns the embedded migration files for hosts that run
// their own migrator.
func GetMigrationsFS() fs.FS {
	return migrations.FS()
}

// Migrate applies every pending migration to db.
func Migrate(ctx context.Context, db *bun.DB) error {
	return migrations.Apply(ctx, db)
}
