package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is where a locally started API listens.
const DefaultBaseURL = "http://127.0.0.1:5000"

// Client provides typed access to the fintrack API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// APIError is a non-2xx response carrying the server's error message.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func (c *Client) do(ctx context.Context, method, path string, body any, v any) error {
	if c == nil {
		return errors.New("client is nil")
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return APIError{Status: resp.StatusCode, Message: extractError(resp.Body)}
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func extractError(body io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return ""
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	return strings.TrimSpace(payload.Error)
}

// Account is the public view of a registered account.
type Account struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RegisterInput mirrors the registration form.
type RegisterInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Register creates an account. The API does not return it; log in afterwards.
func (c *Client) Register(ctx context.Context, input RegisterInput) error {
	return c.do(ctx, http.MethodPost, "/register", input, nil)
}

// Login checks credentials and returns the account.
func (c *Client) Login(ctx context.Context, email, password string) (Account, error) {
	body := map[string]string{"email": email, "password": password}
	var acct Account
	if err := c.do(ctx, http.MethodPost, "/login", body, &acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}

// Health is the /health payload.
type Health struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error,omitempty"`
}

// Health reports server and database liveness. A degraded server still
// returns its payload alongside the APIError.
func (c *Client) Health(ctx context.Context) (Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return Health{}, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Health{}, fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()
	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return Health{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return h, APIError{Status: resp.StatusCode, Message: h.Message}
	}
	return h, nil
}

// Transaction is a ledger entry as returned by the API.
type Transaction struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
	Timestamp   string  `json:"timestamp"`
}

// TransactionInput is the payload for a new ledger entry. Amount is sent as
// text so the server parses it exactly.
type TransactionInput struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Date        string `json:"date"`
}

func transactionsPath(ownerID string) string {
	return "/transactions/" + url.PathEscape(ownerID)
}

// ListTransactions returns the owner's ledger, most recent first.
func (c *Client) ListTransactions(ctx context.Context, ownerID string) ([]Transaction, error) {
	var txns []Transaction
	if err := c.do(ctx, http.MethodGet, transactionsPath(ownerID), nil, &txns); err != nil {
		return nil, err
	}
	return txns, nil
}

// CreateTransaction appends an entry to the owner's ledger.
func (c *Client) CreateTransaction(ctx context.Context, ownerID string, input TransactionInput) (Transaction, error) {
	var txn Transaction
	if err := c.do(ctx, http.MethodPost, transactionsPath(ownerID), input, &txn); err != nil {
		return Transaction{}, err
	}
	return txn, nil
}

// DeleteTransaction removes one of the owner's entries.
func (c *Client) DeleteTransaction(ctx context.Context, ownerID, transactionID string) error {
	path := transactionsPath(ownerID) + "?id=" + url.QueryEscape(transactionID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}
