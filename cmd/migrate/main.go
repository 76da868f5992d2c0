// Command migrate manages the database schema of the cash register backend.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/ech/backend/internal/infrastructure/config"
	"github.com/ech/backend/internal/infrastructure/logger"
	"github.com/ech/backend/internal/infrastructure/migration"
	"github.com/ech/backend/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const usage = `Usage: migrate [-path dir] [-log-level level] <command> [args]

Schema commands:
  up                    apply every pending migration
  down                  roll every migration back
  step <n>              apply n migrations, roll back when n < 0
  goto <version>        migrate up or down to version
  version               print the applied version
  force <version>       mark version as applied and clean
  drop -confirm         drop every table, the ledger included

File commands:
  create <name> [desc]  add an up/down pair to the -path directory
  list                  list the migrations

Without -path the migrations embedded in the binary are used and create
writes to ./migrations. The database is configured like the server
(config.toml, ECH_DATABASE_* variables).
`

// schemaCommands run against the database
var schemaCommands = map[string]func(m *migration.Migrator, args []string, log *zap.Logger) error{
	"up":   func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Up() },
	"down": func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Down() },
	"step": func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		n, err := intArg(args, "step count")
		if err != nil {
			return err
		}
		return m.Steps(n)
	},
	"goto": func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		v, err := intArg(args, "version")
		if err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("version must not be negative")
		}
		return m.GoTo(uint(v))
	},
	"version": func(m *migration.Migrator, _ []string, log *zap.Logger) error {
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info("Current schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return nil
	},
	"force": func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		v, err := intArg(args, "version")
		if err != nil {
			return err
		}
		return m.Force(v)
	},
	"drop": func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		if len(args) == 0 || (args[0] != "-confirm" && args[0] != "--confirm") {
			return errors.New("drop destroys the ledger, run 'migrate drop -confirm'")
		}
		return m.Drop()
	},
}

func main() {
	path := flag.String("path", "", "migrations directory (default: embedded)")
	level := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	command, args := flag.Arg(0), flag.Args()[1:]

	log, err := logger.New(&logger.Config{Level: *level, Format: "console", Output: "stderr", TimeFormat: "15:04:05"})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	if err := run(command, args, *path, log); err != nil {
		log.Error("Migration command failed", zap.String("command", command), zap.Error(err))
		_ = logger.Sync(log)
		os.Exit(1)
	}
}

func run(command string, args []string, path string, log *zap.Logger) error {
	switch command {
	case "create":
		if len(args) == 0 {
			return errors.New("migration name required")
		}
		dir := path
		if dir == "" {
			dir = "migrations"
		}
		desc := ""
		if len(args) > 1 {
			desc = args[1]
		}
		mf, err := migration.CreateMigration(dir, args[0], desc)
		if err != nil {
			return err
		}
		log.Info("Migration created", zap.String("up", mf.UpPath), zap.String("down", mf.DownPath))
		return nil
	case "list":
		var src fs.FS = migrations.FS
		if path != "" {
			src = os.DirFS(path)
		}
		names, err := migration.ListMigrations(src)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	}

	fn, ok := schemaCommands[command]
	if !ok {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("connect to %s:%d: %w", cfg.Database.Host, cfg.Database.Port, err)
	}

	var m *migration.Migrator
	if path == "" {
		m, err = migration.NewEmbedded(db, log)
	} else {
		m, err = migration.New(db, path, log)
	}
	if err != nil {
		_ = db.Close()
		return err
	}
	defer func() { _ = m.Close() }()
	return fn(m, args, log)
}

func intArg(args []string, what string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%s required", what)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, args[0])
	}
	return n, nil
}
