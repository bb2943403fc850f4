package account

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/splax/fintrack/internal/domain"
	"github.com/splax/fintrack/internal/repository"
)

type stubAccountRepository struct {
	mu       sync.Mutex
	byEmail  map[string]domain.Account
	createFn func(*domain.Account) error
	lookups  int
}

func newStubRepo() *stubAccountRepository {
	return &stubAccountRepository{byEmail: make(map[string]domain.Account)}
}

func (s *stubAccountRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createFn != nil {
		if err := s.createFn(account); err != nil {
			return err
		}
	}
	if _, ok := s.byEmail[account.Email]; ok {
		return repository.ErrConflict
	}
	s.byEmail[account.Email] = *account
	return nil
}

func (s *stubAccountRepository) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if account, ok := s.byEmail[email]; ok {
		return &account, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubAccountRepository) GetAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.byEmail {
		if account.ID == id {
			return &account, nil
		}
	}
	return nil, repository.ErrNotFound
}

func newService(t *testing.T, repo repository.AccountRepository) Service {
	t.Helper()
	svc, err := New(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return svc
}

func validInput() RegisterInput {
	return RegisterInput{Name: "Ann", Email: "A@X.com", Password: "secret1", ConfirmPassword: "secret1"}
}

func TestRegisterNormalisesEmailAndHidesHash(t *testing.T) {
	repo := newStubRepo()
	svc := newService(t, repo)

	in := validInput()
	in.Email = "  A@X.com "
	account, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if account.Email != "a@x.com" {
		t.Fatalf("expected normalised email, got %q", account.Email)
	}
	if account.ID == "" || account.Name != "Ann" {
		t.Fatalf("unexpected account %+v", account)
	}
	stored, ok := repo.byEmail["a@x.com"]
	if !ok {
		t.Fatalf("account not persisted under normalised email")
	}
	if string(stored.PasswordHash) == "secret1" || len(stored.PasswordHash) == 0 {
		t.Fatalf("password stored without hashing")
	}
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RegisterInput)
		want   string
	}{
		{"all missing", func(in *RegisterInput) { *in = RegisterInput{} }, "Missing fields: name, email, password, confirmPassword"},
		{"blank name", func(in *RegisterInput) { in.Name = "   " }, "Missing fields: name"},
		{"no at sign", func(in *RegisterInput) { in.Email = "ann.example.com" }, "Valid email required"},
		{"mismatch", func(in *RegisterInput) { in.ConfirmPassword = "secret2" }, "Passwords do not match"},
		{"short", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "abc12", "abc12" }, "Password must be at least 6 characters"},
		{"too long", func(in *RegisterInput) {
			long := strings.Repeat("p", 73)
			in.Password, in.ConfirmPassword = long, long
		}, "Password must be at most 72 bytes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newStubRepo()
			svc := newService(t, repo)
			in := validInput()
			tc.mutate(&in)
			_, err := svc.Register(context.Background(), in)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if err.Error() != tc.want {
				t.Fatalf("unexpected message %q, want %q", err.Error(), tc.want)
			}
			if len(repo.byEmail) != 0 {
				t.Fatalf("nothing should be stored on validation failure")
			}
		})
	}
}

func TestRegisterRejectsCaseInsensitiveDuplicate(t *testing.T) {
	svc := newService(t, newStubRepo())
	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("first Register returned error: %v", err)
	}
	again := validInput()
	again.Email = " a@x.COM"
	_, err := svc.Register(context.Background(), again)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err.Error() != "Email already registered" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestRegisterMapsStorageConflict(t *testing.T) {
	repo := newStubRepo()
	repo.createFn = func(*domain.Account) error { return repository.ErrConflict }
	svc := newService(t, repo)

	_, err := svc.Register(context.Background(), validInput())
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict from unique constraint, got %v", err)
	}
}

func TestRegisterWrapsUnexpectedStoreErrors(t *testing.T) {
	repo := newStubRepo()
	boom := errors.New("disk full")
	repo.createFn = func(*domain.Account) error { return boom }
	svc := newService(t, repo)

	_, err := svc.Register(context.Background(), validInput())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		t.Fatalf("store failures must not be reported as domain errors")
	}
}

func TestAuthenticate(t *testing.T) {
	svc := newService(t, newStubRepo())
	registered, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	account, err := svc.Authenticate(context.Background(), " A@x.com ", "secret1")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if account.ID != registered.ID {
		t.Fatalf("authenticated wrong account %+v", account)
	}

	_, wrongPassword := svc.Authenticate(context.Background(), "a@x.com", "wrong")
	_, unknownEmail := svc.Authenticate(context.Background(), "nobody@x.com", "secret1")
	for _, err := range []error{wrongPassword, unknownEmail} {
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected unauthorized, got %v", err)
		}
		if err.Error() != "Invalid credentials" {
			t.Fatalf("unexpected message %q", err.Error())
		}
	}
}

func TestAuthenticateRequiresBothFields(t *testing.T) {
	repo := newStubRepo()
	svc := newService(t, repo)
	_, err := svc.Authenticate(context.Background(), "a@x.com", "")
	if !errors.Is(err, domain.ErrValidation) || err.Error() != "Email and password required" {
		t.Fatalf("unexpected error %v", err)
	}
	if repo.lookups != 0 {
		t.Fatalf("store should not be queried for incomplete credentials")
	}
}

func TestLookup(t *testing.T) {
	svc := newService(t, newStubRepo())
	registered, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	found, err := svc.Lookup(context.Background(), registered.ID)
	if err != nil || found.Email != "a@x.com" {
		t.Fatalf("Lookup returned %+v, %v", found, err)
	}
	_, err = svc.Lookup(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) || err.Error() != "User not found" {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAuthenticateOverlongPasswordIsPlainMismatch(t *testing.T) {
	var logs strings.Builder
	svc, err := New(newStubRepo(), slog.New(slog.NewTextHandler(&logs, nil)))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	_, err = svc.Authenticate(context.Background(), "a@x.com", strings.Repeat("x", 100))
	if !errors.Is(err, domain.ErrUnauthorized) || err.Error() != "Invalid credentials" {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if strings.Contains(logs.String(), "level=ERROR") {
		t.Fatalf("overlong password must not log an error:\n%s", logs.String())
	}
}
