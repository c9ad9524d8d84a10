// Package main implements the dbtool CLI for operating a Lodgebook database:
// applying schema migrations, loading seed data, and running operator reports.
//
// Usage:
//
//	go run ./cmd/dbtool --task=migrate
//	go run ./cmd/dbtool --task=seed_demo
//	go run ./cmd/dbtool --task=seed_file --file=dumps/extra_listings.sql.gz
//	go run ./cmd/dbtool --task=seed_fake --users=50
//	go run ./cmd/dbtool --task=report_trips --guest-id=3
//	go run ./cmd/dbtool --list
//
// Configuration follows the standard resolution chain (environment variables,
// .env file, SSM Parameter Store in non-local environments); DATABASE_URL is
// the only required value. Reports print JSON to stdout; logs go to stderr so
// report output stays pipeable.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/google/uuid"

	"lodgebook/internal/config"
	"lodgebook/internal/db"
	"lodgebook/internal/seed"
)

// taskType names one dbtool operation.
type taskType string

const (
	taskMigrate       taskType = "migrate"
	taskMigrateStatus taskType = "migrate_status"
	taskSeedDemo      taskType = "seed_demo"
	taskSeedFile      taskType = "seed_file"
	taskSeedFake      taskType = "seed_fake"
	taskReportCities  taskType = "report_cities"
	taskReportStay    taskType = "report_stay_length"
	taskReportTrips   taskType = "report_trips"
)

// validTasks is the exhaustive set of tasks dbtool supports, with the
// descriptions shown by --list.
var validTasks = map[taskType]string{
	taskMigrate:       "Apply pending schema migrations",
	taskMigrateStatus: "Print the applied schema version without changing anything",
	taskSeedDemo:      "Load the embedded demo dataset (replaces existing rows)",
	taskSeedFile:      "Apply the SQL script named by --file (.gz files are decompressed)",
	taskSeedFake:      "Insert generated fake users, properties, reservations, and reviews",
	taskReportCities:  "Count reservations per city, most visited first",
	taskReportStay:    "Average reservation length in nights",
	taskReportTrips:   "Upcoming and past stays for --guest-id",
}

// taskOptions carries the per-task flag values into the dispatch.
type taskOptions struct {
	file    string
	users   int
	seedVal int64
	guestID int64
	limit   int
}

func main() {
	taskFlag := flag.String("task", "", "Task to execute (e.g., migrate, seed_demo, report_cities)")
	fileFlag := flag.String("file", "", "SQL script for seed_file; .gz files are decompressed")
	usersFlag := flag.Int("users", 10, "Number of fake users for seed_fake")
	seedFlag := flag.Int64("seed", 0, "Random seed for seed_fake (0 derives one from the clock)")
	guestFlag := flag.Int64("guest-id", 0, "Guest id for report_trips")
	limitFlag := flag.Int("limit", 0, "Row limit for report_trips (0 uses the default of 10)")
	listFlag := flag.Bool("list", false, "List all available tasks and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: dbtool [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Operate a Lodgebook database: migrations, seed data, and reports.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nUse --list to see all available tasks.\n")
	}

	flag.Parse()

	if *listFlag {
		printAvailableTasks()
		return
	}

	if *taskFlag == "" {
		fmt.Fprintf(os.Stderr, "error: --task is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	task := taskType(*taskFlag)
	if _, ok := validTasks[task]; !ok {
		fmt.Fprintf(os.Stderr, "error: unknown task %q\n\n", *taskFlag)
		printAvailableTasks()
		os.Exit(1)
	}

	// Per-task flag requirements, checked before touching the database.
	switch task {
	case taskSeedFile:
		if *fileFlag == "" {
			fmt.Fprintf(os.Stderr, "error: --file is required for %s\n", task)
			os.Exit(1)
		}
	case taskSeedFake:
		if *usersFlag <= 0 {
			fmt.Fprintf(os.Stderr, "error: --users must be positive for %s\n", task)
			os.Exit(1)
		}
	case taskReportTrips:
		if *guestFlag <= 0 {
			fmt.Fprintf(os.Stderr, "error: --guest-id is required for %s\n", task)
			os.Exit(1)
		}
	}

	opts := taskOptions{
		file:    *fileFlag,
		users:   *usersFlag,
		seedVal: *seedFlag,
		guestID: *guestFlag,
		limit:   *limitFlag,
	}
	if opts.seedVal == 0 {
		opts.seedVal = time.Now().UnixNano()
	}

	// SSM is only consulted outside local; deployed environments set APP_ENV
	// directly rather than through .env.
	var provider config.SecretProvider
	if env := os.Getenv("APP_ENV"); env != "" && env != "local" {
		provider = config.NewSSMProvider(os.Getenv("AWS_REGION"))
	}

	cfg, err := config.LoadConfig(provider)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading configuration: %v\n", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})).With(
		"task", string(task),
		"run_id", uuid.NewString()[:8],
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, err := executeTask(ctx, task, opts, cfg, logger)
	if err != nil {
		logger.Error("task execution failed", "error", err)
		os.Exit(1)
	}

	logger.Info("task execution succeeded", "result", result)
}

// executeTask connects to the database and dispatches the task. Migration
// tasks use their own single direct connection; everything else shares a pool.
func executeTask(ctx context.Context, task taskType, opts taskOptions, cfg *config.Config, logger *slog.Logger) (string, error) {
	switch task {
	case taskMigrate:
		from, to, err := db.Migrate(ctx, cfg.Database.URL.Unmask())
		if err != nil {
			return "", err
		}
		if from == to {
			return fmt.Sprintf("schema already at version %d", to), nil
		}
		return fmt.Sprintf("schema migrated from version %d to %d", from, to), nil

	case taskMigrateStatus:
		version, err := db.MigrationVersion(ctx, cfg.Database.URL.Unmask())
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("schema at version %d", version), nil
	}

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return "", fmt.Errorf("creating database pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return "", fmt.Errorf("pinging database: %w", err)
	}
	logger.Info("database connection established")

	switch task {
	case taskSeedDemo:
		applied, err := seed.Demo(ctx, pool)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("applied %d demo script(s)", applied), nil

	case taskSeedFile:
		if err := seed.ApplyFile(ctx, pool, opts.file); err != nil {
			return "", err
		}
		return fmt.Sprintf("applied %s", opts.file), nil

	case taskSeedFake:
		gen, err := seed.NewGenerator(pool, opts.seedVal)
		if err != nil {
			return "", err
		}
		logger.Info("generating fake records", "users", opts.users, "seed", opts.seedVal)
		stats, err := gen.Generate(ctx, opts.users)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("generated %d users, %d properties, %d reservations, %d reviews",
			stats.Users, stats.Properties, stats.Reservations, stats.Reviews), nil

	case taskReportCities:
		cities, err := db.NewReportDB(pool).MostVisitedCities(ctx)
		if err != nil {
			return "", err
		}
		if err := printJSON(cities); err != nil {
			return "", err
		}
		return fmt.Sprintf("%d cities with reservations", len(cities)), nil

	case taskReportStay:
		nights, err := db.NewReportDB(pool).AverageReservationDuration(ctx)
		if err != nil {
			return "", err
		}
		if err := printJSON(map[string]float64{"average_nights": nights}); err != nil {
			return "", err
		}
		return fmt.Sprintf("average stay %.2f nights", nights), nil

	case taskReportTrips:
		history, err := db.NewReportDB(pool).GuestTripHistory(ctx, opts.guestID, opts.limit)
		if err != nil {
			return "", err
		}
		if err := printJSON(history); err != nil {
			return "", err
		}
		return fmt.Sprintf("%d upcoming, %d past", len(history.Upcoming), len(history.Past)), nil
	}

	// Unknown tasks are rejected in main before reaching here.
	return "", fmt.Errorf("task %q cannot be dispatched", task)
}

// printAvailableTasks prints all valid tasks and their descriptions to
// stderr, sorted alphabetically by task name.
func printAvailableTasks() {
	fmt.Fprintf(os.Stderr, "Available tasks:\n\n")

	tasks := make([]taskType, 0, len(validTasks))
	for t := range validTasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool {
		return string(tasks[i]) < string(tasks[j])
	})

	maxLen := 0
	for _, t := range tasks {
		if len(string(t)) > maxLen {
			maxLen = len(string(t))
		}
	}

	for _, t := range tasks {
		fmt.Fprintf(os.Stderr, "  %-*s  %s\n", maxLen, string(t), validTasks[t])
	}
	fmt.Fprintln(os.Stderr)
}

// printJSON pretty-prints a report payload to stdout for inspection or piping.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
