package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/splax/fintrack/internal/domain"
	"github.com/splax/fintrack/internal/service/account"
	"github.com/splax/fintrack/internal/service/ledger"
)

const (
	DemoName     = "Demo User"
	DemoEmail    = "demo@financetracker.com"
	DemoPassword = "demo123"
)

var demoTransactions = []ledger.AppendInput{
	{Description: "Salary", Amount: "5000", Type: "income", Category: "Salary", Date: "2025-09-01"},
	{Description: "Groceries", Amount: "150", Type: "expense", Category: "Food", Date: "2025-09-02"},
	{Description: "Gas Bill", Amount: "80", Type: "expense", Category: "Utilities", Date: "2025-09-01"},
	{Description: "Coffee", Amount: "25", Type: "expense", Category: "Food", Date: "2025-09-02"},
	{Description: "Freelance", Amount: "800", Type: "income", Category: "Freelance", Date: "2025-08-30"},
}

// DemoData creates the demo account and its sample ledger on first start.
// An existing demo account is left untouched.
func DemoData(ctx context.Context, accounts account.Service, ledgerSvc ledger.Service, logger *slog.Logger) error {
	acct, err := accounts.Register(ctx, account.RegisterInput{
		Name:            DemoName,
		Email:           DemoEmail,
		Password:        DemoPassword,
		ConfirmPassword: DemoPassword,
	})
	if errors.Is(err, domain.ErrConflict) {
		logger.Debug("demo account already present", "email", DemoEmail)
		return nil
	}
	if err != nil {
		return fmt.Errorf("register demo account: %w", err)
	}
	for _, in := range demoTransactions {
		if _, err := ledgerSvc.Append(ctx, acct.ID, in); err != nil {
			return fmt.Errorf("seed %q: %w", in.Description, err)
		}
	}
	logger.Info("demo data seeded", "account_id", acct.ID, "transactions", len(demoTransactions))
	return nil
}
