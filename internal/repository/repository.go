package repository

import (
	"context"

	"github.com/splax/fintrack/internal/domain"
)

// AccountRepository persists accounts.
type AccountRepository interface {
	// CreateAccount returns ErrConflict when the email is already taken.
	CreateAccount(ctx context.Context, account *domain.Account) error
	GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetAccountByID(ctx context.Context, id string) (*domain.Account, error)
}

// TransactionRepository persists ledger entries.
type TransactionRepository interface {
	// CreateTransaction returns ErrNotFound when the owner does not exist.
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	// ListTransactionsByOwner orders by occurred_on descending, then insertion order.
	ListTransactionsByOwner(ctx context.Context, ownerID string) ([]domain.Transaction, error)
	// DeleteTransaction returns ErrNotFound unless a row matched both id and owner.
	DeleteTransaction(ctx context.Context, ownerID, transactionID string) error
}
