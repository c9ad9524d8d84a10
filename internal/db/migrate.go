package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	tern "github.com/jackc/tern/v2/migrate"
)

// Schema migrations travel inside the binary so deployments never depend on
// a checkout being present.
//
//go:embed migrations/*.sql
var migrationFS embed.FS

// migrationVersionTable records the applied schema version.
const migrationVersionTable = "schema_version"

// newMigrator connects a single direct connection (migrations do not need a
// pool) and returns a tern migrator loaded with the embedded migrations.
// The caller owns closing the returned connection.
func newMigrator(ctx context.Context, dsn string) (*pgx.Conn, *tern.Migrator, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting for migration: %w", err)
	}

	m, err := tern.NewMigrator(ctx, conn, migrationVersionTable)
	if err != nil {
		conn.Close(ctx)
		return nil, nil, fmt.Errorf("constructing migrator: %w", err)
	}

	subtree, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		conn.Close(ctx)
		return nil, nil, fmt.Errorf("reading embedded migrations: %w", err)
	}
	if err := m.LoadMigrations(subtree); err != nil {
		conn.Close(ctx)
		return nil, nil, fmt.Errorf("loading migrations: %w", err)
	}

	return conn, m, nil
}

// Migrate applies all pending schema migrations and returns the versions it
// moved between (from == to means the schema was already current).
func Migrate(ctx context.Context, dsn string) (from, to int32, err error) {
	conn, m, err := newMigrator(ctx, dsn)
	if err != nil {
		return 0, 0, err
	}
	defer conn.Close(ctx)

	from, err = m.GetCurrentVersion(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("reading current schema version: %w", err)
	}

	if err := m.Migrate(ctx); err != nil {
		return 0, 0, fmt.Errorf("applying migrations: %w", err)
	}

	return from, int32(len(m.Migrations)), nil
}

// MigrationVersion reports the currently applied schema version without
// changing anything.
func MigrationVersion(ctx context.Context, dsn string) (int32, error) {
	conn, m, err := newMigrator(ctx, dsn)
	if err != nil {
		return 0, err
	}
	defer conn.Close(ctx)

	version, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading current schema version: %w", err)
	}
	return version, nil
}
