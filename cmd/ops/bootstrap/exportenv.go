package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ssmToEnvMapping maps each bootstrap SSM category/key to the environment
// variable name the config loader reads. Every step in BuildInventory must
// have an entry here so --export-env produces a complete .env file.
var ssmToEnvMapping = map[string]string{
	"database/url": "DATABASE_URL",
	"log/level":    "LOG_LEVEL",
	"service/name": "SERVICE_NAME",
}

// localDevDefaults are the env vars the config loader reads that are NOT
// sourced from SSM. They are appended to the exported .env file when
// IncludeLocalDefaults is set, with values suitable for local development.
// Keys here must not collide with ssmToEnvMapping values or the exported
// file would define the same variable twice.
var localDevDefaults = map[string]string{
	"APP_ENV":                "local",
	"AWS_REGION":             "us-east-1",
	"DB_MAX_CONNS":           "10",
	"DB_MIN_CONNS":           "2",
	"DB_MAX_CONN_LIFETIME":   "30m",
	"DB_CONNECT_TIMEOUT":     "5s",
	"DB_HEALTH_CHECK_PERIOD": "1m",
}

// ExportEnvConfig holds the inputs for ExportEnvFile.
type ExportEnvConfig struct {
	// OutputPath is where the .env file is written.
	OutputPath string

	// Environment is the SSM environment the values are read from.
	Environment string

	// SSM reads parameters back from Parameter Store.
	SSM *SSMManager

	// Stderr receives progress and warning messages.
	Stderr io.Writer

	// IncludeLocalDefaults appends local development values for the env
	// vars that are not sourced from SSM.
	IncludeLocalDefaults bool
}

// ExportEnvFile reads the bootstrapped parameters back from SSM and writes
// them to a .env file. It bridges bootstrap to local development: after
// populating Parameter Store, the operator gets a ready-to-use env file
// without copying secrets by hand.
//
// Parameters missing from SSM are skipped with a warning so a partially
// bootstrapped environment still exports. If nothing could be read at all,
// an error is returned and no file is written. The file is created with
// 0600 permissions because it contains live credentials.
func ExportEnvFile(ctx context.Context, cfg ExportEnvConfig) error {
	// Sort for deterministic file content across runs.
	keys := make([]string, 0, len(ssmToEnvMapping))
	for k := range ssmToEnvMapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var lines []string
	written := 0
	for _, ssmKey := range keys {
		envVar := ssmToEnvMapping[ssmKey]
		path := cfg.SSM.SSMPath(ssmKey)

		// Always request decryption: SecureString values need it and it
		// is a no-op for String parameters.
		value, err := cfg.SSM.GetParameterValue(ctx, path, true)
		if err != nil {
			fmt.Fprintf(cfg.Stderr, "  WARNING: skipping %s: %v\n", envVar, err)
			continue
		}

		lines = append(lines, formatEnvLine(envVar, value))
		written++
	}

	if written == 0 {
		return fmt.Errorf("no parameters could be read from SSM prefix /%s/lodgebook/", cfg.Environment)
	}

	var b strings.Builder
	b.WriteString("# Auto-generated by bootstrap --export-env\n")
	fmt.Fprintf(&b, "# Environment: %s\n", cfg.Environment)
	b.WriteString("#\n")
	b.WriteString("# SECURITY WARNING: this file contains live credentials.\n")
	b.WriteString("# Do not commit it to version control.\n")
	b.WriteString("\n")

	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if cfg.IncludeLocalDefaults {
		defaults := make([]string, 0, len(localDevDefaults))
		for k := range localDevDefaults {
			defaults = append(defaults, k)
		}
		sort.Strings(defaults)

		b.WriteString("\n")
		b.WriteString("# Local Development Defaults\n")
		for _, k := range defaults {
			b.WriteString(formatEnvLine(k, localDevDefaults[k]))
			b.WriteString("\n")
		}
	}

	if dir := filepath.Dir(cfg.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(cfg.OutputPath, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.OutputPath, err)
	}

	fmt.Fprintf(cfg.Stderr, "\nEnvironment file exported: %s\n", cfg.OutputPath)
	fmt.Fprintf(cfg.Stderr, "  Parameters written: %d\n", written)
	fmt.Fprintf(cfg.Stderr, "  File permissions:   0600 (owner read/write only)\n")

	return nil
}

// formatEnvLine renders a single KEY=value line for the .env file. Values
// containing whitespace, shell-significant characters, or nothing at all are
// wrapped in double quotes with backslash escapes so dotenv parsers read
// them back verbatim.
func formatEnvLine(key, value string) string {
	if value != "" && !strings.ContainsAny(value, " \t\"#$'{}\\\n") {
		return key + "=" + value
	}

	escaped := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
	).Replace(value)

	return key + `="` + escaped + `"`
}
