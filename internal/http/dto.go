package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/splax/fintrack/internal/domain"
	"github.com/splax/fintrack/internal/service/account"
	"github.com/splax/fintrack/internal/service/ledger"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("empty request body")

type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (p registerRequest) input() account.RegisterInput {
	return account.RegisterInput{
		Name:            p.Name,
		Email:           p.Email,
		Password:        p.Password,
		ConfirmPassword: p.ConfirmPassword,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type transactionRequest struct {
	Description string      `json:"description"`
	Amount      amountField `json:"amount"`
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	Date        string      `json:"date"`
}

func (p transactionRequest) input() ledger.AppendInput {
	return ledger.AppendInput{
		Description: p.Description,
		Amount:      string(p.Amount),
		Type:        p.Type,
		Category:    p.Category,
		Date:        p.Date,
	}
}

// amountField keeps the literal text of a JSON number or string so the
// ledger decides what counts as a valid amount.
type amountField string

func (a *amountField) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*a = ""
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*a = amountField(s)
	default:
		*a = amountField(trimmed)
	}
	return nil
}

type accountView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type transactionView struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
	Timestamp   string  `json:"timestamp"`
}

func newTransactionView(t domain.Transaction) transactionView {
	return transactionView{
		ID:          t.ID,
		UserID:      t.OwnerID,
		Description: t.Description,
		Amount:      t.Amount,
		Type:        string(t.Kind),
		Category:    t.Category,
		Date:        t.OccurredOn.Format(domain.DateLayout),
		Timestamp:   t.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func transactionViews(txns []domain.Transaction) []transactionView {
	views := make([]transactionView, 0, len(txns))
	for _, t := range txns {
		views = append(views, newTransactionView(t))
	}
	return views
}

// decodeBody reads a bounded JSON body into v.
func decodeBody(w http.ResponseWriter, req *http.Request, v any) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return errEmptyBody
	}
	return json.Unmarshal(data, v)
}

func (r *Router) badBody(w http.ResponseWriter, err error, emptyMsg string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, errEmptyBody):
		writeError(w, http.StatusBadRequest, emptyMsg)
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
	default:
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
	}
}

// serviceError maps domain failures onto status codes; anything else is a 500
// whose detail stays in the log.
func (r *Router) serviceError(w http.ResponseWriter, req *http.Request, op string, err error, fields ...any) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		attrs := append([]any{"op", op, "path", req.URL.Path, "error", err}, fields...)
		r.logger.Error("request failed", attrs...)
		writeError(w, status, "Internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
