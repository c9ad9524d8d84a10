package db

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles_Embedded(t *testing.T) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries, "no migration files embedded")

	for _, entry := range entries {
		assert.False(t, entry.IsDir())
		assert.True(t, strings.HasSuffix(entry.Name(), ".sql"), entry.Name())
	}
}

// Migrations are applied by filename order, so the numeric prefixes must be
// sequential from 001.
func TestMigrationFiles_SequentialPrefixes(t *testing.T) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	require.NoError(t, err)

	for i, entry := range entries {
		wantPrefix := fmt.Sprintf("%03d_", i+1)
		assert.True(t, strings.HasPrefix(entry.Name(), wantPrefix),
			"migration %q should start with %q", entry.Name(), wantPrefix)
	}
}

func TestMigrationFiles_HaveDownSections(t *testing.T) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	require.NoError(t, err)

	for _, entry := range entries {
		content, err := fs.ReadFile(migrationFS, "migrations/"+entry.Name())
		require.NoError(t, err)
		assert.Contains(t, string(content), "---- create above / drop below ----",
			"migration %q has no down section", entry.Name())
	}
}

func TestMigrationFiles_CoreTables(t *testing.T) {
	content, err := fs.ReadFile(migrationFS, "migrations/001_create_core_tables.sql")
	require.NoError(t, err)
	sql := string(content)

	for _, table := range []string{"users", "properties", "reservations", "property_reviews"} {
		assert.Contains(t, sql, "CREATE TABLE "+table, "missing table %q", table)
	}

	// Signups rely on the database, not the application, to reject duplicate
	// addresses regardless of casing.
	assert.Contains(t, sql, "UNIQUE INDEX")
	assert.Contains(t, sql, "LOWER(email)")
}

func TestMigrate_InvalidDSN(t *testing.T) {
	_, _, err := Migrate(context.Background(), "not a valid dsn")
	require.Error(t, err)
}

func TestMigrationVersion_InvalidDSN(t *testing.T) {
	_, err := MigrationVersion(context.Background(), "not a valid dsn")
	require.Error(t, err)
}
