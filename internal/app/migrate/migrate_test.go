package migrate_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splax/fintrack/internal/app/migrate"
	"github.com/splax/fintrack/internal/repository/sqlite"
)

func TestEnsureVersionAndDown(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	runner, err := migrate.New(db, "sqlite", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	require.NoError(t, runner.Ensure(ctx))
	require.NoError(t, runner.Ensure(ctx), "second run must be a no-op")

	version, err := runner.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	var tables int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('accounts', 'transactions')`).Scan(&tables))
	assert.Equal(t, 2, tables)

	require.NoError(t, runner.Status(ctx))
	require.NoError(t, runner.Down(ctx, 0))

	version, err = runner.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('accounts', 'transactions')`).Scan(&tables))
	assert.Equal(t, 0, tables)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = migrate.New(db, "oracle", nil)
	assert.Error(t, err)
	_, err = migrate.New(nil, "sqlite", nil)
	assert.Error(t, err)
}
