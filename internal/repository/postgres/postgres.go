package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/splax/fintrack/internal/domain"
	"github.com/splax/fintrack/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.AccountRepository     = (*Repository)(nil)
	_ repository.TransactionRepository = (*Repository)(nil)
)

const accountColumns = `id, name, email, password_hash, created_at`

// CreateAccount inserts an account.
func (r *Repository) CreateAccount(ctx context.Context, account *domain.Account) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const query = `INSERT INTO accounts (id, name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.Exec(ctx, query, account.ID, account.Name, account.Email, account.PasswordHash, account.CreatedAt); err != nil {
		return translate(err)
	}
	return tx.Commit(ctx)
}

// GetAccountByEmail fetches an account by its normalised email.
func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return scanAccount(r.pool.QueryRow(ctx, query, email))
}

// GetAccountByID retrieves an account by identifier.
func (r *Repository) GetAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.pool.QueryRow(ctx, query, id))
}

// CreateTransaction inserts a ledger entry.
func (r *Repository) CreateTransaction(ctx context.Context, txn *domain.Transaction) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const query = `INSERT INTO transactions (id, owner_id, description, amount, kind, category, occurred_on, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := tx.Exec(ctx, query,
		txn.ID,
		txn.OwnerID,
		txn.Description,
		txn.Amount,
		string(txn.Kind),
		txn.Category,
		txn.OccurredOn,
		txn.CreatedAt,
	); err != nil {
		return translate(err)
	}
	return tx.Commit(ctx)
}

// ListTransactionsByOwner returns an owner's ledger, newest date first.
func (r *Repository) ListTransactionsByOwner(ctx context.Context, ownerID string) ([]domain.Transaction, error) {
	const query = `SELECT id, owner_id, description, amount, kind, category, occurred_on, created_at
		FROM transactions
		WHERE owner_id = $1
		ORDER BY occurred_on DESC, created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txns := make([]domain.Transaction, 0)
	for rows.Next() {
		var (
			t    domain.Transaction
			kind string
		)
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Description, &t.Amount, &kind, &t.Category, &t.OccurredOn, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Kind = domain.TransactionKind(kind)
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// DeleteTransaction removes one entry matching both id and owner.
func (r *Repository) DeleteTransaction(ctx context.Context, ownerID, transactionID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const query = `DELETE FROM transactions WHERE id = $1 AND owner_id = $2`
	tag, err := tx.Exec(ctx, query, transactionID, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return tx.Commit(ctx)
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return repository.ErrConflict
		case "23503":
			return repository.ErrNotFound
		}
	}
	return err
}
