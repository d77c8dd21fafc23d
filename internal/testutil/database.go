//go:build integration

// Package testutil starts a throwaway Postgres for integration tests.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scorecast/platform/internal/infra"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// TestDatabase is a migrated Postgres container plus a pool connected to it.
type TestDatabase struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	URL       string
}

// SetupTestDatabase starts postgres:16-alpine, applies every migration and
// registers cleanup on t.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("scorecast_test"),
		postgres.WithUsername("scorecast"),
		postgres.WithPassword("scorecast"),
		postgres.BasicWaitStrategies(),
		testcontainers.WithLabels(map[string]string{
			"test":      "scorecast",
			"test-name": t.Name(),
		}),
	)
	require.NoError(t, err)

	tdb := &TestDatabase{Container: ctr}
	t.Cleanup(func() { tdb.cleanup(t) })

	tdb.URL, err = ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, infra.RunMigrations(tdb.URL, Logger()))

	poolCfg, err := pgxpool.ParseConfig(tdb.URL)
	require.NoError(t, err)
	poolCfg.MaxConns = 10
	tdb.Pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
	require.NoError(t, err)
	require.NoError(t, tdb.Pool.Ping(ctx))

	return tdb
}

// Truncate empties every table, keeping the schema.
func (td *TestDatabase) Truncate(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := td.Pool.Exec(ctx, `TRUNCATE predictions, matches, accounts, event_outbox RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

func (td *TestDatabase) cleanup(t *testing.T) {
	if td.Pool != nil {
		td.Pool.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := td.Container.Terminate(ctx); err != nil {
		t.Logf("terminate test container: %v", err)
	}
}

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
