package autoinvest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/PaesslerAG/jsonpath"
)

// brokerCredentialsFilename under the credentials directory.
const brokerCredentialsFilename = "rh-credentials.json"

// Brokerage endpoints. The account API and the aggregate account view live
// on different hosts.
const (
	brokerBaseURL    = "https://api.robinhood.com"
	brokerPhoenixURL = "https://phoenix.robinhood.com"
)

// BrokerageClient is the execution venue: session, buying power, fractional
// buys, ACH deposits and position snapshots.
type BrokerageClient struct {
	Username string
	Password string

	// AchRelationship is the venue-side URL identifying the linked bank
	// account, the target of Deposit transfers.
	AchRelationship string

	// BaseURL and PhoenixURL override the venue endpoints; tests point them
	// at a local server.
	BaseURL    string
	PhoenixURL string

	Client *http.Client

	token string
}

// NewBrokerageClientFromFile loads venue credentials from the given
// directory.
func NewBrokerageClientFromFile(dir string) (*BrokerageClient, error) {
	path := filepath.Join(dir, brokerCredentialsFilename)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading venue credentials: %w", err)
	}
	var creds struct {
		Username        string `json:"username"`
		Password        string `json:"password"`
		AchRelationship string `json:"achRelationship"`
	}
	if err := json.Unmarshal(content, &creds); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &BrokerageClient{
		Username:        creds.Username,
		Password:        creds.Password,
		AchRelationship: creds.AchRelationship,
	}, nil
}

func (b *BrokerageClient) client() *http.Client {
	if b.Client == nil {
		return http.DefaultClient
	}
	return b.Client
}

func (b *BrokerageClient) base() string {
	if b.BaseURL == "" {
		return brokerBaseURL
	}
	return b.BaseURL
}

func (b *BrokerageClient) phoenix() string {
	if b.PhoenixURL == "" {
		return brokerPhoenixURL
	}
	return b.PhoenixURL
}

// Login opens a 24h session and keeps the access token for subsequent calls.
func (b *BrokerageClient) Login(ctx context.Context) error {
	addr := b.base() + "/oauth2/token/"
	body := map[string]any{
		"grant_type": "password",
		"username":   b.Username,
		"password":   b.Password,
		"expires_in": 86400,
		"scope":      "internal",
	}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := jwpost(ctx, b.client(), addr, "", body, &resp); err != nil {
		return fmt.Errorf("venue login: %w", err)
	}
	if resp.AccessToken == "" {
		return errors.New("venue login: no access token in response")
	}
	b.token = resp.AccessToken
	return nil
}

// Logout revokes the session token. Safe to call without a session.
func (b *BrokerageClient) Logout(ctx context.Context) error {
	if b.token == "" {
		return nil
	}
	addr := b.base() + "/oauth2/revoke_token/"
	err := jwpost(ctx, b.client(), addr, b.token, map[string]string{"token": b.token}, nil)
	b.token = ""
	if err != nil {
		return fmt.Errorf("venue logout: %w", err)
	}
	return nil
}

// BuyingPower reads the cash available for orders from the aggregate account
// view.
func (b *BrokerageClient) BuyingPower(ctx context.Context) (Money, error) {
	addr := b.phoenix() + "/accounts/unified"
	var jobj any
	if err := jwget(ctx, b.client(), addr, b.token, &jobj); err != nil {
		return Money{}, fmt.Errorf("fetching buying power: %w", err)
	}
	path := "$.account_buying_power.amount"
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return Money{}, fmt.Errorf("parsing buying power: %q %w", path, err)
	}
	// The venue returns the amount as a string, sometimes as a number.
	switch v := jval.(type) {
	case float64:
		return USD(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Money{}, fmt.Errorf("parsing buying power %q: %w", v, err)
		}
		return USD(f), nil
	default:
		return Money{}, fmt.Errorf("parsing buying power: %q not a number: %v", path, jval)
	}
}

// BuyFractional places one market buy for a dollar amount of the symbol.
//
// A 4xx answer is the venue rejecting the order (unknown symbol, market
// closed, amount below minimum); it is reported in the Execution, not as an
// error.
func (b *BrokerageClient) BuyFractional(ctx context.Context, symbol string, amount Money) (Execution, error) {
	addr := b.base() + "/orders/"
	body := map[string]any{
		"symbol":              symbol,
		"side":                "buy",
		"type":                "market",
		"time_in_force":       "gfd",
		"dollar_based_amount": amount.StringFixed(),
	}
	var resp struct {
		ID string `json:"id"`
	}
	err := jwpost(ctx, b.client(), addr, b.token, body, &resp)
	if err != nil {
		var status *httpStatusError
		if errors.As(err, &status) && status.StatusCode >= 400 && status.StatusCode < 500 {
			return Execution{
				Symbol: symbol,
				Amount: amount,
				Status: ExecRejected,
				Reason: rejectionReason(status.Body),
			}, nil
		}
		return Execution{}, fmt.Errorf("placing order for %s: %w", symbol, err)
	}
	return Execution{Symbol: symbol, Amount: amount, Status: ExecFilled, OrderID: resp.ID}, nil
}

// rejectionReason extracts the venue's explanation from a rejection body,
// falling back to the raw body.
func rejectionReason(body []byte) string {
	var jobj any
	if err := json.Unmarshal(body, &jobj); err == nil {
		if jval, err := jsonpath.Get("$.detail", jobj); err == nil {
			if s, ok := jval.(string); ok && s != "" {
				return s
			}
		}
	}
	return string(body)
}

// Deposit initiates an ACH transfer from the linked bank account into the
// venue account.
func (b *BrokerageClient) Deposit(ctx context.Context, amount Money) error {
	if b.AchRelationship == "" {
		return errors.New("no ach relationship configured")
	}
	addr := b.base() + "/ach/transfers/"
	body := map[string]any{
		"ach_relationship": b.AchRelationship,
		"amount":           amount.StringFixed(),
		"direction":        "deposit",
	}
	if err := jwpost(ctx, b.client(), addr, b.token, body, nil); err != nil {
		return fmt.Errorf("depositing %s: %w", amount, err)
	}
	return nil
}

// Positions returns all nonzero holdings, valued at the latest quote.
func (b *BrokerageClient) Positions(ctx context.Context) (PositionSummary, error) {
	addr := b.base() + "/positions/?nonzero=true"
	var resp struct {
		Results []struct {
			Instrument string `json:"instrument"`
			Quantity   string `json:"quantity"`
		} `json:"results"`
	}
	if err := jwget(ctx, b.client(), addr, b.token, &resp); err != nil {
		return PositionSummary{}, fmt.Errorf("fetching positions: %w", err)
	}

	summary := PositionSummary{TotalEquity: USD(0)}
	for _, r := range resp.Results {
		symbol, err := b.symbolOf(ctx, r.Instrument)
		if err != nil {
			return PositionSummary{}, err
		}
		quantity, err := ParseQuantity(r.Quantity)
		if err != nil {
			return PositionSummary{}, fmt.Errorf("position %s: %w", symbol, err)
		}
		price, err := b.quote(ctx, symbol)
		if err != nil {
			return PositionSummary{}, err
		}
		equity := price.Mul(quantity)
		summary.Positions = append(summary.Positions, Position{
			Symbol:   symbol,
			Quantity: quantity,
			Price:    price,
			Equity:   equity,
		})
		summary.TotalEquity = summary.TotalEquity.Add(equity)
	}
	return summary, nil
}

// symbolOf resolves an instrument URL to its ticker symbol.
func (b *BrokerageClient) symbolOf(ctx context.Context, instrument string) (string, error) {
	var resp struct {
		Symbol string `json:"symbol"`
	}
	if err := jwget(ctx, b.client(), instrument, b.token, &resp); err != nil {
		return "", fmt.Errorf("resolving instrument %s: %w", instrument, err)
	}
	return resp.Symbol, nil
}

// quote returns the most recent price for a symbol, preferring the extended
// hours trade when the market is closed.
func (b *BrokerageClient) quote(ctx context.Context, symbol string) (Money, error) {
	addr := b.base() + "/quotes/" + symbol + "/"
	var resp struct {
		LastExtendedHoursTradePrice string `json:"last_extended_hours_trade_price"`
		LastTradePrice              string `json:"last_trade_price"`
	}
	if err := jwget(ctx, b.client(), addr, b.token, &resp); err != nil {
		return Money{}, fmt.Errorf("quoting %s: %w", symbol, err)
	}
	price := resp.LastExtendedHoursTradePrice
	if price == "" {
		price = resp.LastTradePrice
	}
	if price == "" {
		return Money{}, fmt.Errorf("quoting %s: no price in response", symbol)
	}
	return ParseMoney(price, "USD")
}
