package sqlite_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/splax/fintrack/internal/app/migrate"
	"github.com/splax/fintrack/internal/domain"
	"github.com/splax/fintrack/internal/repository"
	"github.com/splax/fintrack/internal/repository/sqlite"
)

// RepositoryTestSuite exercises the SQLite repository against a migrated in-memory database.
type RepositoryTestSuite struct {
	suite.Suite
	db   *sql.DB
	repo *sqlite.Repository
	ctx  context.Context
}

func (s *RepositoryTestSuite) SetupTest() {
	db, err := sqlite.Open(":memory:")
	require.NoError(s.T(), err, "failed to open test database")
	runner, err := migrate.New(db, "sqlite", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(s.T(), err)
	require.NoError(s.T(), runner.Ensure(context.Background()))
	s.db = db
	s.repo = sqlite.New(db)
	s.ctx = context.Background()
}

func (s *RepositoryTestSuite) TearDownTest() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *RepositoryTestSuite) newAccount(email string) *domain.Account {
	account := &domain.Account{
		ID:           uuid.NewString(),
		Name:         "Ann",
		Email:        email,
		PasswordHash: []byte("hash"),
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(s.T(), s.repo.CreateAccount(s.ctx, account))
	return account
}

func (s *RepositoryTestSuite) newTransaction(ownerID, description, date string) *domain.Transaction {
	occurred, err := time.Parse(domain.DateLayout, date)
	require.NoError(s.T(), err)
	txn := &domain.Transaction{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Description: description,
		Amount:      10.5,
		Kind:        domain.KindExpense,
		Category:    "Food",
		OccurredOn:  occurred,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(s.T(), s.repo.CreateTransaction(s.ctx, txn), "failed to create %s", description)
	return txn
}

func (s *RepositoryTestSuite) TestAccountRoundTrip() {
	created := s.newAccount("ann@x.com")

	byEmail, err := s.repo.GetAccountByEmail(s.ctx, "ann@x.com")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), created.ID, byEmail.ID)
	assert.Equal(s.T(), "Ann", byEmail.Name)
	assert.Equal(s.T(), []byte("hash"), byEmail.PasswordHash)

	byID, err := s.repo.GetAccountByID(s.ctx, created.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "ann@x.com", byID.Email)
	assert.False(s.T(), byID.CreatedAt.IsZero())
}

func (s *RepositoryTestSuite) TestMissingAccountIsNotFound() {
	_, err := s.repo.GetAccountByID(s.ctx, "nope")
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)

	_, err = s.repo.GetAccountByEmail(s.ctx, "nobody@x.com")
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
}

func (s *RepositoryTestSuite) TestDuplicateEmailIsConflict() {
	s.newAccount("dup@x.com")
	err := s.repo.CreateAccount(s.ctx, &domain.Account{
		ID:           uuid.NewString(),
		Name:         "Other",
		Email:        "dup@x.com",
		PasswordHash: []byte("hash"),
		CreatedAt:    time.Now().UTC(),
	})
	assert.ErrorIs(s.T(), err, repository.ErrConflict)
}

func (s *RepositoryTestSuite) TestTransactionForUnknownOwnerIsNotFound() {
	err := s.repo.CreateTransaction(s.ctx, &domain.Transaction{
		ID:          uuid.NewString(),
		OwnerID:     "ghost",
		Description: "Rent",
		Amount:      1200,
		Kind:        domain.KindExpense,
		Category:    "Housing",
		OccurredOn:  time.Date(2025, time.September, 5, 0, 0, 0, 0, time.UTC),
		CreatedAt:   time.Now().UTC(),
	})
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
}

func (s *RepositoryTestSuite) TestListOrdersByDateDescending() {
	owner := s.newAccount("order@x.com")
	s.newTransaction(owner.ID, "Salary", "2025-09-01")
	s.newTransaction(owner.ID, "Groceries", "2025-09-02")
	s.newTransaction(owner.ID, "Coffee", "2025-09-02")
	s.newTransaction(owner.ID, "Freelance", "2025-08-30")

	result, err := s.repo.ListTransactionsByOwner(s.ctx, owner.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), result, 4)

	got := make([]string, 0, len(result))
	for _, t := range result {
		got = append(got, t.Description)
	}
	// Same-day entries keep insertion order.
	assert.Equal(s.T(), []string{"Groceries", "Coffee", "Salary", "Freelance"}, got)
	assert.Equal(s.T(), "2025-09-02", result[0].OccurredOn.Format(domain.DateLayout))
	assert.Equal(s.T(), domain.KindExpense, result[0].Kind)
	assert.Equal(s.T(), 10.5, result[0].Amount)
}

func (s *RepositoryTestSuite) TestListEmptyLedger() {
	owner := s.newAccount("empty@x.com")
	result, err := s.repo.ListTransactionsByOwner(s.ctx, owner.ID)
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), result)
	assert.Empty(s.T(), result)
}

func (s *RepositoryTestSuite) TestDeleteRequiresMatchingOwner() {
	ann := s.newAccount("ann@x.com")
	bob := s.newAccount("bob@x.com")
	txn := s.newTransaction(ann.ID, "Rent", "2025-09-05")

	assert.ErrorIs(s.T(), s.repo.DeleteTransaction(s.ctx, bob.ID, txn.ID), repository.ErrNotFound)

	require.NoError(s.T(), s.repo.DeleteTransaction(s.ctx, ann.ID, txn.ID))
	assert.ErrorIs(s.T(), s.repo.DeleteTransaction(s.ctx, ann.ID, txn.ID), repository.ErrNotFound)

	result, err := s.repo.ListTransactionsByOwner(s.ctx, ann.ID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), result)
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
