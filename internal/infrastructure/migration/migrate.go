// Package migration applies the versioned SQL schema with golang-migrate and
// scaffolds new migration files.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ech/backend/migrations"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Migrator moves the schema of one database between versions
type Migrator struct {
	m   *migrate.Migrate
	log *zap.Logger
}

// NewEmbedded reads the migrations compiled into the binary
func NewEmbedded(db *sql.DB, log *zap.Logger) (*Migrator, error) {
	return NewFromFS(db, migrations.FS, ".", log)
}

// New reads the migrations of a directory on disk
func New(db *sql.DB, dir string, log *zap.Logger) (*Migrator, error) {
	return NewFromFS(db, os.DirFS(dir), ".", log)
}

// NewFromFS reads the migrations found in dir of fsys
func NewFromFS(db *sql.DB, fsys fs.FS, dir string, log *zap.Logger) (*Migrator, error) {
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("create postgres driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	m.Log = migrateLogger{log.Named("migrate").Sugar()}
	return &Migrator{m: m, log: log}, nil
}

// ApplyEmbedded brings the database at dsn to the latest embedded version on
// a connection of its own. The server calls it when database.auto_migrate
// is set.
func ApplyEmbedded(dsn string, log *zap.Logger) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	m, err := NewEmbedded(db, log)
	if err != nil {
		_ = db.Close()
		return err
	}
	// closes db too
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()
	return m.Up()
}

func (m *Migrator) Up() error { return m.apply("up", m.m.Up) }

// Down rolls every migration back
func (m *Migrator) Down() error { return m.apply("down", m.m.Down) }

// Steps applies n migrations, rolling back when n is negative
func (m *Migrator) Steps(n int) error {
	return m.apply(fmt.Sprintf("steps %+d", n), func() error { return m.m.Steps(n) })
}

// GoTo migrates up or down to version
func (m *Migrator) GoTo(version uint) error {
	return m.apply(fmt.Sprintf("goto %d", version), func() error { return m.m.Migrate(version) })
}

// apply runs fn and logs the resulting version. Having nothing to do is
// not an error.
func (m *Migrator) apply(action string, fn func() error) error {
	m.log.Info("Running migrations", zap.String("action", action))
	if err := fn(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.log.Info("Schema already up to date", zap.String("action", action))
			return nil
		}
		return fmt.Errorf("migrate %s: %w", action, err)
	}
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.log.Info("Migrations applied",
		zap.String("action", action),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// Version returns the applied version, 0 on an empty database. A dirty
// version failed halfway and needs Force.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return version, dirty, nil
}

// Force records version as applied and clean without running anything
func (m *Migrator) Force(version int) error {
	m.log.Warn("Forcing migration version", zap.Int("version", version))
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Drop removes every table of the database, the ledger included
func (m *Migrator) Drop() error {
	m.log.Warn("Dropping all database objects")
	if err := m.m.Drop(); err != nil {
		return fmt.Errorf("drop database: %w", err)
	}
	return nil
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}

type migrateLogger struct{ *zap.SugaredLogger }

func (l migrateLogger) Printf(format string, v ...any) { l.Debugf(format, v...) }

func (l migrateLogger) Verbose() bool { return false }
