// Package seed loads datasets into the database: the embedded demo set,
// operator-supplied SQL scripts, and generated fake records for load testing.
package seed

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"lodgebook/internal/db"
)

// The demo dataset travels inside the binary so a fresh environment can be
// populated without a checkout being present.
//
//go:embed seeds/*.sql
var demoFS embed.FS

// Apply executes a SQL script against the database. The script is sent as a
// single parameterless Exec, which pgx runs over the simple protocol, so it
// may contain any number of statements.
func Apply(ctx context.Context, dbtx db.DBTX, r io.Reader) error {
	script, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading seed script: %w", err)
	}
	if strings.TrimSpace(string(script)) == "" {
		return fmt.Errorf("seed script is empty")
	}
	if _, err := dbtx.Exec(ctx, string(script)); err != nil {
		return fmt.Errorf("executing seed script: %w", err)
	}
	return nil
}

// ApplyFile executes the SQL script at path. Files ending in .gz are
// decompressed transparently.
func ApplyFile(ctx context.Context, dbtx db.DBTX, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.EqualFold(filepath.Ext(path), ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("decompressing %s: %w", filepath.Base(path), err)
		}
		defer gz.Close()
		r = gz
	}

	if err := Apply(ctx, dbtx, r); err != nil {
		return fmt.Errorf("applying %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Demo loads the embedded demo dataset, replacing any existing rows. Scripts
// run in filename order. It returns the number of scripts applied.
func Demo(ctx context.Context, dbtx db.DBTX) (int, error) {
	entries, err := fs.ReadDir(demoFS, "seeds")
	if err != nil {
		return 0, fmt.Errorf("reading embedded seeds: %w", err)
	}

	applied := 0
	for _, entry := range entries {
		script, err := demoFS.ReadFile("seeds/" + entry.Name())
		if err != nil {
			return applied, fmt.Errorf("reading embedded seed %s: %w", entry.Name(), err)
		}
		if err := Apply(ctx, dbtx, bytes.NewReader(script)); err != nil {
			return applied, fmt.Errorf("applying %s: %w", entry.Name(), err)
		}
		applied++
	}
	return applied, nil
}
