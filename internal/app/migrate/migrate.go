package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/splax/fintrack/db/migrations"
	"github.com/splax/fintrack/pkg/config"
)

// Runner wraps database migration capabilities.
type Runner struct {
	provider *goose.Provider
	driver   string
	log      *slog.Logger
}

// New returns a migration runner backed by goose and the embedded schema for driver.
func New(db *sql.DB, driver string, log *slog.Logger) (Runner, error) {
	if db == nil {
		return Runner{}, errors.New("nil database provided")
	}
	var dialect goose.Dialect
	switch driver {
	case config.DriverPostgres:
		dialect = goose.DialectPostgres
	case config.DriverSQLite:
		dialect = goose.DialectSQLite3
	default:
		return Runner{}, fmt.Errorf("unsupported database driver %q", driver)
	}
	fsys, err := migrations.For(driver)
	if err != nil {
		return Runner{}, err
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return Runner{}, fmt.Errorf("configure goose: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return Runner{provider: provider, driver: driver, log: log}, nil
}

// Ensure applies pending migrations.
func (r Runner) Ensure(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	r.log.Info("applying migrations", "driver", r.driver)
	results, err := r.provider.Up(runCtx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, res := range results {
		r.log.Info("migration applied", "version", res.Source.Version, "duration_ms", res.Duration.Milliseconds())
	}
	r.log.Info("migrations applied", "count", len(results))
	return nil
}

// Status reports applied and pending migrations.
func (r Runner) Status(ctx context.Context) error {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	for _, st := range statuses {
		fields := []any{"version", st.Source.Version, "path", st.Source.Path, "state", string(st.State)}
		if st.State == goose.StateApplied {
			fields = append(fields, "applied_at", st.AppliedAt.UTC().Format(time.RFC3339))
		}
		r.log.Info("migration status", fields...)
	}
	return nil
}

// Version returns the currently applied schema version.
func (r Runner) Version(ctx context.Context) (int64, error) {
	version, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("schema version: %w", err)
	}
	return version, nil
}

// Down rolls back migrations either to the previous version or a specific target version.
func (r Runner) Down(ctx context.Context, targetVersion int64) error {
	runCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	if targetVersion > 0 {
		r.log.Info("rolling back migrations", "target", targetVersion)
		if _, err := r.provider.DownTo(runCtx, targetVersion); err != nil {
			return fmt.Errorf("rollback to version %d: %w", targetVersion, err)
		}
	} else {
		r.log.Info("rolling back latest migration")
		if _, err := r.provider.Down(runCtx); err != nil {
			return fmt.Errorf("rollback latest migration: %w", err)
		}
	}

	r.log.Info("rollback complete")
	return nil
}
