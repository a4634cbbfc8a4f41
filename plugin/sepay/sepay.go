// Package sepay reads bank transactions from the SePay user API.
package sepay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
)

// DefaultBaseURL is the SePay user API root.
const DefaultBaseURL = "https://my.sepay.vn/userapi"

// DefaultLimit is the page size requested per call.
const DefaultLimit = 1000

var (
	// ErrNoToken is returned when no API token is configured.
	ErrNoToken = errors.New("sepay: API token is required")
	// ErrMissingAccount is returned when no account number is given.
	ErrMissingAccount = errors.New("sepay: account number is required")
)

// Transaction is one bank movement. Amounts arrive as decimal strings.
type Transaction struct {
	ID                 string `json:"id"`
	BankBrandName      string `json:"bank_brand_name"`
	AccountNumber      string `json:"account_number"`
	TransactionDate    string `json:"transaction_date"`
	AmountIn           string `json:"amount_in"`
	AmountOut          string `json:"amount_out"`
	Accumulated        string `json:"accumulated"`
	TransactionContent string `json:"transaction_content"`
	ReferenceNumber    string `json:"reference_number"`
}

// AccumulatedAmount parses the running balance after the transaction.
func (t *Transaction) AccumulatedAmount() (float64, error) {
	return parseAmount(t.Accumulated)
}

func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

type listResponse struct {
	Status       int           `json:"status"`
	Error        any           `json:"error"`
	Transactions []Transaction `json:"transactions"`
}

// ListParams filters a transaction listing. Dates are inclusive days.
type ListParams struct {
	AccountNumber string
	DateMin       time.Time
	DateMax       time.Time
	Limit         int
}

// Budget is the balance derived from the latest transaction of a period.
type Budget struct {
	AccountNumber string  `json:"account_number"`
	Accumulated   float64 `json:"accumulated"`
	Currency      string  `json:"currency"`
	AsOf          string  `json:"as_of,omitempty"`
	Transactions  int     `json:"transactions"`
}

// BudgetReader is what the budget handler needs.
type BudgetReader interface {
	Budget(ctx context.Context, accountNumber string) (*Budget, error)
}

// BudgetFunc adapts a function to BudgetReader.
type BudgetFunc func(ctx context.Context, accountNumber string) (*Budget, error)

func (f BudgetFunc) Budget(ctx context.Context, accountNumber string) (*Budget, error) {
	return f(ctx, accountNumber)
}

// Client calls the SePay API with a bearer token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	loc        *time.Location
	now        func() time.Time
}

var _ BudgetReader = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithLocation sets the timezone used to compute month boundaries.
func WithLocation(loc *time.Location) Option {
	return func(cl *Client) {
		if loc != nil {
			cl.loc = loc
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(cl *Client) {
		cl.now = now
	}
}

// NewClient creates a SePay client.
func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		loc:        time.Local,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListTransactions returns transactions newest first, as the API orders them.
func (c *Client) ListTransactions(ctx context.Context, p ListParams) ([]Transaction, error) {
	params := url.Values{}
	if p.AccountNumber != "" {
		params.Set("account_number", p.AccountNumber)
	}
	if !p.DateMin.IsZero() {
		params.Set("transaction_date_min", p.DateMin.Format(time.DateOnly))
	}
	if !p.DateMax.IsZero() {
		params.Set("transaction_date_max", p.DateMax.Format(time.DateOnly))
	}
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transactions/list?"+params.Encode(), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "sepay request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, pkgerrors.Errorf("API error: %d - %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out listResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to decode sepay response")
	}
	return out.Transactions, nil
}

// Budget reports the accumulated balance of the latest transaction in the
// current month. An account with no transactions this month reports 0.
func (c *Client) Budget(ctx context.Context, accountNumber string) (*Budget, error) {
	accountNumber = strings.TrimSpace(accountNumber)
	if accountNumber == "" {
		return nil, ErrMissingAccount
	}

	now := c.now().In(c.loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, c.loc)
	monthEnd := monthStart.AddDate(0, 1, -1)

	txs, err := c.ListTransactions(ctx, ListParams{
		AccountNumber: accountNumber,
		DateMin:       monthStart,
		DateMax:       monthEnd,
	})
	if err != nil {
		return nil, err
	}

	b := &Budget{AccountNumber: accountNumber, Currency: "VND", Transactions: len(txs)}
	if len(txs) == 0 {
		return b, nil
	}
	latest := txs[0]
	amount, err := latest.AccumulatedAmount()
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "invalid accumulated amount %q", latest.Accumulated)
	}
	b.Accumulated = amount
	b.AsOf = latest.TransactionDate
	return b, nil
}
