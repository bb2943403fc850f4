package domain

import "time"

// DateLayout is the calendar date format used for occurred_on.
const DateLayout = "2006-01-02"

// TransactionKind distinguishes money in from money out.
type TransactionKind string

const (
	KindIncome  TransactionKind = "income"
	KindExpense TransactionKind = "expense"
)

// Valid reports whether k is a known kind.
func (k TransactionKind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Transaction is a single dated ledger entry owned by one account.
type Transaction struct {
	ID          string
	OwnerID     string
	Description string
	Amount      float64
	Kind        TransactionKind
	Category    string
	OccurredOn  time.Time
	CreatedAt   time.Time
}
