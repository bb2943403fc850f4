package seed_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splax/fintrack/internal/app/migrate"
	"github.com/splax/fintrack/internal/app/seed"
	"github.com/splax/fintrack/internal/repository/sqlite"
	"github.com/splax/fintrack/internal/service/account"
	"github.com/splax/fintrack/internal/service/ledger"
)

func TestDemoDataIsIdempotent(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	runner, err := migrate.New(db, "sqlite", logger)
	require.NoError(t, err)
	require.NoError(t, runner.Ensure(ctx))

	repo := sqlite.New(db)
	accounts, err := account.New(repo, logger)
	require.NoError(t, err)
	ledgerSvc := ledger.New(accounts, repo, logger)

	require.NoError(t, seed.DemoData(ctx, accounts, ledgerSvc, logger))
	require.NoError(t, seed.DemoData(ctx, accounts, ledgerSvc, logger))

	demo, err := accounts.Authenticate(ctx, seed.DemoEmail, seed.DemoPassword)
	require.NoError(t, err)
	txns, err := ledgerSvc.List(ctx, demo.ID)
	require.NoError(t, err)
	require.Len(t, txns, 5)

	var descriptions []string
	for _, txn := range txns {
		descriptions = append(descriptions, txn.Description)
	}
	assert.Equal(t, []string{"Groceries", "Coffee", "Salary", "Gas Bill", "Freelance"}, descriptions)
}
