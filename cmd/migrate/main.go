package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/sellout/backend/internal/infrastructure/config"
	"github.com/sellout/backend/internal/infrastructure/logger"
	"github.com/sellout/backend/internal/infrastructure/migration"
	"github.com/sellout/backend/migrations"
	"go.uber.org/zap"
)

func main() {
	var (
		migrationsPath string
		configPath     string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "Migrations directory (default: migrations embedded in the binary)")
	flag.StringVar(&configPath, "config", "", "Config file (default: search ./config.toml)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(args, migrationsPath, configPath, log); err != nil {
		log.Error("Migration command failed", zap.String("command", args[0]), zap.Error(err))
		os.Exit(1)
	}
}

func run(args []string, migrationsPath, configPath string, log *zap.Logger) error {
	command := args[0]

	// create and list work on files only
	switch command {
	case "create":
		if len(args) < 2 {
			return errors.New("usage: migrate create <name> [description]")
		}
		dir := migrationsPath
		if dir == "" {
			dir = "migrations"
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		mf, err := migration.CreateMigration(dir, args[1], description)
		if err != nil {
			return err
		}
		log.Info("Migration created",
			zap.String("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return nil
	case "list":
		var (
			names []string
			err   error
		)
		if migrationsPath == "" {
			names, err = migration.ListMigrations(migrations.FS)
		} else {
			names, err = migration.ListMigrations(os.DirFS(migrationsPath))
		}
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Println("  -", n)
		}
		return nil
	}

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return err
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	var m *migration.Migrator
	if migrationsPath == "" {
		m, err = migration.NewEmbedded(db, migrations.FS, log)
	} else {
		m, err = migration.New(db, migrationsPath, log)
	}
	if err != nil {
		return err
	}
	defer m.Close()

	switch command {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "step":
		n, err := intArg(args, "step <n>")
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "goto":
		v, err := intArg(args, "goto <version>")
		if err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("version must not be negative: %d", v)
		}
		return m.GoTo(uint(v))
	case "force":
		v, err := intArg(args, "force <version>")
		if err != nil {
			return err
		}
		return m.Force(v)
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func intArg(args []string, usage string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("usage: migrate %s", usage)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", args[1])
	}
	return n, nil
}

func printUsage() {
	fmt.Println(`Sell-out database migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  goto <version>        Migrate to a specific version
  version               Show current migration version
  force <version>       Set the version without migrating (clears a dirty state)
  create <name> [desc]  Create a new migration file pair
  list                  List available migrations

Flags:
  -path string          Migrations directory (default: embedded migrations)
  -config string        Config file (default: ./config.toml)
  -log-level string     Log level: debug, info, warn, error (default: info)

Database settings come from the config file or SELLOUT_DATABASE_* variables.`)
}
