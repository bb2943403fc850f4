package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/splax/fintrack/internal/domain"
	"github.com/splax/fintrack/internal/repository"
)

// OwnerResolver confirms that an account exists.
type OwnerResolver interface {
	Lookup(ctx context.Context, id string) (*domain.PublicAccount, error)
}

// Service manages per-account transaction ledgers.
type Service struct {
	owners       OwnerResolver
	transactions repository.TransactionRepository
	logger       *slog.Logger
	now          func() time.Time
}

// New constructs a Service.
func New(owners OwnerResolver, transactions repository.TransactionRepository, logger *slog.Logger) Service {
	return Service{
		owners:       owners,
		transactions: transactions,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

var (
	errUnknownTransaction = domain.NotFound("Transaction not found")
	errMissingID          = domain.Invalid("Transaction ID required")
)

// List returns the owner's transactions, most recent date first.
func (s Service) List(ctx context.Context, ownerID string) ([]domain.Transaction, error) {
	owner, err := s.owners.Lookup(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	txns, err := s.transactions.ListTransactionsByOwner(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("list transactions for %s: %w", owner.ID, err)
	}
	return txns, nil
}

// Append validates and stores a new transaction for the owner.
func (s Service) Append(ctx context.Context, ownerID string, in AppendInput) (*domain.Transaction, error) {
	owner, err := s.owners.Lookup(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	entry, err := in.validate()
	if err != nil {
		recordOutcome("append", "invalid")
		return nil, err
	}

	txn := &domain.Transaction{
		ID:          uuid.NewString(),
		OwnerID:     owner.ID,
		Description: entry.description,
		Amount:      entry.amount,
		Kind:        entry.kind,
		Category:    entry.category,
		OccurredOn:  entry.occurredOn,
		CreatedAt:   s.now(),
	}
	if err := s.transactions.CreateTransaction(ctx, txn); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("User not found")
		}
		return nil, fmt.Errorf("create transaction for %s: %w", owner.ID, err)
	}
	recordOutcome("append", "ok")
	s.logger.Info("transaction created", "account_id", owner.ID, "transaction_id", txn.ID, "kind", string(txn.Kind))
	return txn, nil
}

// Remove deletes one of the owner's transactions.
func (s Service) Remove(ctx context.Context, ownerID, transactionID string) error {
	owner, err := s.owners.Lookup(ctx, ownerID)
	if err != nil {
		return err
	}
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return errMissingID
	}
	if err := s.transactions.DeleteTransaction(ctx, owner.ID, transactionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			recordOutcome("remove", "not_found")
			return errUnknownTransaction
		}
		return fmt.Errorf("delete transaction %s: %w", transactionID, err)
	}
	recordOutcome("remove", "ok")
	s.logger.Info("transaction deleted", "account_id", owner.ID, "transaction_id", transactionID)
	return nil
}
