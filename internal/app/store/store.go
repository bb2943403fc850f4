package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/splax/fintrack/internal/repository"
	"github.com/splax/fintrack/internal/repository/postgres"
	"github.com/splax/fintrack/internal/repository/sqlite"
	"github.com/splax/fintrack/pkg/config"
)

// Store bundles the repositories for the configured database driver.
type Store struct {
	Driver       string
	Accounts     repository.AccountRepository
	Transactions repository.TransactionRepository
	// DB is a database/sql handle onto the same database, used by migrations.
	DB *sql.DB

	pool *pgxpool.Pool
}

// Open connects to the database selected by cfg.DatabaseDriver.
func Open(ctx context.Context, cfg config.APIConfig) (*Store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		repo := postgres.New(pool)
		return &Store{
			Driver:       config.DriverPostgres,
			Accounts:     repo,
			Transactions: repo,
			DB:           stdlib.OpenDBFromPool(pool),
			pool:         pool,
		}, nil
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		return FromSQLite(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}

// FromSQLite wraps an already opened SQLite handle.
func FromSQLite(db *sql.DB) *Store {
	repo := sqlite.New(db)
	return &Store{
		Driver:       config.DriverSQLite,
		Accounts:     repo,
		Transactions: repo,
		DB:           db,
	}
}

// Ping ensures the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if s.pool != nil {
		if err := s.pool.Ping(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		return nil
	}
	if err := s.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Close releases underlying connections.
func (s *Store) Close() {
	if s.DB != nil {
		_ = s.DB.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}
