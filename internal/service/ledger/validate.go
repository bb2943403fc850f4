package ledger

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/splax/fintrack/internal/domain"
)

const (
	maxDescriptionLength = 200
	maxCategoryLength    = 50
)

// AppendInput is the raw transaction form. Amount holds the literal text of the
// submitted number so that both JSON numbers and numeric strings are accepted.
type AppendInput struct {
	Description string
	Amount      string
	Type        string
	Category    string
	Date        string
}

type validEntry struct {
	description string
	amount      float64
	kind        domain.TransactionKind
	category    string
	occurredOn  time.Time
}

func (in AppendInput) validate() (validEntry, error) {
	description := strings.TrimSpace(in.Description)
	amountText := strings.TrimSpace(in.Amount)
	kind := domain.TransactionKind(in.Type)
	category := strings.TrimSpace(in.Category)
	date := strings.TrimSpace(in.Date)

	var missing []string
	if description == "" {
		missing = append(missing, "description")
	}
	if amountText == "" {
		missing = append(missing, "amount")
	}
	if kind == "" {
		missing = append(missing, "type")
	}
	if category == "" {
		missing = append(missing, "category")
	}
	if date == "" {
		missing = append(missing, "date")
	}
	if len(missing) > 0 {
		return validEntry{}, domain.Invalid("Missing: %s", strings.Join(missing, ", "))
	}

	amount, err := parseAmount(amountText)
	if err != nil {
		return validEntry{}, err
	}
	if !kind.Valid() {
		return validEntry{}, domain.Invalid("Type must be income or expense")
	}
	occurredOn, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return validEntry{}, domain.Invalid("Invalid date format")
	}
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return validEntry{}, domain.Invalid("Description must be at most %d characters", maxDescriptionLength)
	}
	if utf8.RuneCountInString(category) > maxCategoryLength {
		return validEntry{}, domain.Invalid("Category must be at most %d characters", maxCategoryLength)
	}

	return validEntry{
		description: description,
		amount:      amount,
		kind:        kind,
		category:    category,
		occurredOn:  occurredOn,
	}, nil
}

// parseAmount accepts decimal literals that fit a finite float64.
func parseAmount(text string) (float64, error) {
	value, err := decimal.NewFromString(text)
	if err != nil {
		return 0, domain.Invalid("Invalid amount")
	}
	if !value.IsPositive() {
		return 0, domain.Invalid("Amount must be positive")
	}
	amount := value.InexactFloat64()
	if math.IsInf(amount, 0) {
		return 0, domain.Invalid("Invalid amount")
	}
	if amount <= 0 {
		// positive but below float64 resolution
		return 0, domain.Invalid("Amount must be positive")
	}
	return amount, nil
}
