package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/splax/fintrack/internal/domain"
	"github.com/splax/fintrack/internal/repository"
)

// Open opens a SQLite database file (or ":memory:") with foreign keys enforced.
func Open(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("empty sqlite path")
	}
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// A single connection serialises writers and keeps ":memory:" databases shared.
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return conn, nil
}

// Repository implements persistence interfaces on SQLite.
type Repository struct {
	db *sql.DB
}

// New constructs a Repository.
func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

var (
	_ repository.AccountRepository     = (*Repository)(nil)
	_ repository.TransactionRepository = (*Repository)(nil)
)

// CreateAccount inserts an account.
func (r *Repository) CreateAccount(ctx context.Context, account *domain.Account) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO accounts (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)",
			account.ID, account.Name, account.Email, account.PasswordHash, account.CreatedAt,
		)
		return translate(err)
	})
}

// GetAccountByEmail fetches an account by its normalised email.
func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, created_at FROM accounts WHERE email = ?",
		email,
	)
	return scanAccount(row)
}

// GetAccountByID retrieves an account by identifier.
func (r *Repository) GetAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, created_at FROM accounts WHERE id = ?",
		id,
	)
	return scanAccount(row)
}

// CreateTransaction inserts a ledger entry.
func (r *Repository) CreateTransaction(ctx context.Context, txn *domain.Transaction) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (id, owner_id, description, amount, kind, category, occurred_on, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			txn.ID, txn.OwnerID, txn.Description, txn.Amount, string(txn.Kind), txn.Category,
			txn.OccurredOn.Format(domain.DateLayout), txn.CreatedAt,
		)
		return translate(err)
	})
}

// ListTransactionsByOwner returns an owner's ledger, newest date first.
func (r *Repository) ListTransactionsByOwner(ctx context.Context, ownerID string) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, description, amount, kind, category, occurred_on, created_at
		FROM transactions WHERE owner_id = ? ORDER BY occurred_on DESC, rowid ASC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txns := make([]domain.Transaction, 0)
	for rows.Next() {
		var (
			t          domain.Transaction
			kind, date string
		)
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Description, &t.Amount, &kind, &t.Category, &date, &t.CreatedAt); err != nil {
			return nil, err
		}
		occurred, err := time.Parse(domain.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: parse occurred_on: %w", t.ID, err)
		}
		t.Kind = domain.TransactionKind(kind)
		t.OccurredOn = occurred
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// DeleteTransaction removes one entry matching both id and owner.
func (r *Repository) DeleteTransaction(ctx context.Context, ownerID, transactionID string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM transactions WHERE id = ? AND owner_id = ?",
			transactionID, ownerID,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

func (r *Repository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func scanAccount(row *sql.Row) (*domain.Account, error) {
	var a domain.Account
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return repository.ErrConflict
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return repository.ErrNotFound
		}
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return repository.ErrConflict
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return repository.ErrNotFound
	}
	return err
}
