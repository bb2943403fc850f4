package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"log/slog"

	"github.com/google/uuid"

	"github.com/splax/fintrack/internal/domain"
	"github.com/splax/fintrack/internal/repository"
	"github.com/splax/fintrack/pkg/crypto"
)

const minPasswordLength = 6

// Service owns account registration and credential checks.
type Service struct {
	accounts  repository.AccountRepository
	logger    *slog.Logger
	dummyHash []byte
}

// New constructs a Service.
func New(accounts repository.AccountRepository, logger *slog.Logger) (Service, error) {
	// Compared against when an email is unknown so both failure paths pay for bcrypt.
	dummy, err := crypto.HashPassword(uuid.NewString())
	if err != nil {
		return Service{}, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return Service{accounts: accounts, logger: logger, dummyHash: dummy}, nil
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

var (
	errInvalidCredentials = domain.Unauthorized("Invalid credentials")
	errEmailTaken         = domain.Conflict("Email already registered")
	errUnknownAccount     = domain.NotFound("User not found")
)

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register validates the input and creates a new account.
func (s Service) Register(ctx context.Context, in RegisterInput) (*domain.PublicAccount, error) {
	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if in.Password == "" {
		missing = append(missing, "password")
	}
	if in.ConfirmPassword == "" {
		missing = append(missing, "confirmPassword")
	}
	if len(missing) > 0 {
		return nil, domain.Invalid("Missing fields: %s", strings.Join(missing, ", "))
	}
	if !strings.Contains(email, "@") {
		return nil, domain.Invalid("Valid email required")
	}
	if in.Password != in.ConfirmPassword {
		return nil, domain.Invalid("Passwords do not match")
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		return nil, domain.Invalid("Password must be at least %d characters", minPasswordLength)
	}
	if len(in.Password) > crypto.MaxPasswordBytes {
		return nil, domain.Invalid("Password must be at most %d bytes", crypto.MaxPasswordBytes)
	}

	if _, err := s.accounts.GetAccountByEmail(ctx, email); err == nil {
		return nil, errEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	account := &domain.Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// lost the race against a concurrent registration
			return nil, errEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	s.logger.Info("account registered", "account_id", account.ID)
	public := account.Public()
	return &public, nil
}

// Authenticate checks credentials and returns the matching account.
func (s Service) Authenticate(ctx context.Context, email, password string) (*domain.PublicAccount, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.Invalid("Email and password required")
	}

	account, err := s.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("lookup account: %w", err)
		}
		_ = crypto.ComparePassword(s.dummyHash, password)
		s.logger.Info("login rejected", "reason", "unknown_email")
		return nil, errInvalidCredentials
	}
	if err := crypto.ComparePassword(account.PasswordHash, password); err != nil {
		if !errors.Is(err, crypto.ErrMismatch) {
			s.logger.Error("password hash unreadable", "account_id", account.ID, "error", err)
		}
		s.logger.Info("login rejected", "reason", "bad_password", "account_id", account.ID)
		return nil, errInvalidCredentials
	}
	s.logger.Info("account logged in", "account_id", account.ID)
	public := account.Public()
	return &public, nil
}

// Lookup resolves an account id, returning a not-found error for unknown ids.
func (s Service) Lookup(ctx context.Context, id string) (*domain.PublicAccount, error) {
	account, err := s.accounts.GetAccountByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errUnknownAccount
		}
		return nil, fmt.Errorf("lookup account %s: %w", id, err)
	}
	public := account.Public()
	return &public, nil
}
