package migration

import (
	"context"
	"log/slog"

	"github.com/jackc/pgconn"
)

// Execer is satisfied by *pgxpool.Pool.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// Migration represents a database migration
type Migration struct {
	Name string
	SQL  string
}

// Migrations are applied in order; each statement is idempotent.
var Migrations = []Migration{
	{
		Name: "create_shared_cvs",
		SQL: `
		CREATE TABLE IF NOT EXISTS shared_cvs (
			id UUID PRIMARY KEY,
			template TEXT NOT NULL DEFAULT 'modern',
			document JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`,
	},
	{
		Name: "index_shared_cvs_created_at",
		SQL: `
		CREATE INDEX IF NOT EXISTS idx_shared_cvs_created_at ON shared_cvs (created_at);
	`,
	},
}

// RunMigrations executes all necessary database migrations on startup
func RunMigrations(ctx context.Context, db Execer) error {
	slog.Info("Starting database migrations")

	for _, m := range Migrations {
		if _, err := db.Exec(ctx, m.SQL); err != nil {
			slog.Error("Migration failed", "name", m.Name, "error", err)
			return err
		}
		slog.Info("Migration completed", "name", m.Name)
	}

	slog.Info("All migrations completed successfully")
	return nil
}
