// Package integration runs the cash register against a real PostgreSQL
// started with testcontainers.
package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ech/backend/internal/infrastructure/config"
	"github.com/ech/backend/internal/infrastructure/logger"
	"github.com/ech/backend/internal/infrastructure/migration"
	"github.com/ech/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	gormlogger "gorm.io/gorm/logger"
)

// TestDB is a migrated database in a container of its own
type TestDB struct {
	*persistence.Database
	Config config.DatabaseConfig
}

// NewTestDB starts PostgreSQL, connects the way the server does and applies
// the embedded migrations. Set TEST_DB_DEBUG to log every statement.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	cfg := config.DatabaseConfig{
		User:     "postgres",
		Password: "admin123",
		DBName:   "ech_test",
		SSLMode:  "disable",
		// row lock contention needs more than a handful of connections
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5,
		ConnMaxIdleTime: 1,
	}
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase(cfg.DBName),
		tcpostgres.WithUsername(cfg.User),
		tcpostgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	cfg.Host, err = container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	cfg.Port = port.Int()

	level := gormlogger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = gormlogger.Info
	}
	db, err := persistence.OpenDatabase(&cfg, logger.NewGormLogger(zaptest.NewLogger(t), level,
		logger.WithConflictClassifier(persistence.IsRetryable)))
	require.NoError(t, err, "connect to database")
	t.Cleanup(func() { _ = db.Close() })

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	m, err := migration.NewEmbedded(sqlDB, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up(), "apply migrations")

	return &TestDB{Database: db, Config: cfg}
}
