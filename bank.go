package autoinvest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/PaesslerAG/jsonpath"
)

// plaidCredentialsFilename under the credentials directory. The file keeps
// the shape Plaid's quickstart produces so an existing setup works unchanged.
const plaidCredentialsFilename = "plaid-credentials.json"

// PlaidClient reads the linked bank account balance through Plaid's REST API.
type PlaidClient struct {
	ClientID    string
	Secret      string
	AccessToken string

	// BaseURL is the Plaid environment endpoint, e.g.
	// "https://production.plaid.com". Tests point it at a local server.
	BaseURL string

	Client *http.Client
}

// NewPlaidClientFromFile loads Plaid credentials from the given directory.
func NewPlaidClientFromFile(dir string) (*PlaidClient, error) {
	path := filepath.Join(dir, plaidCredentialsFilename)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plaid credentials: %w", err)
	}
	var creds struct {
		ClientID     string `json:"PLAID_CLIENT_ID"`
		Secret       string `json:"PLAID_SECRET"`
		Env          string `json:"PLAID_ENV"`
		AccessTokens []struct {
			ItemAccessToken string `json:"itemAccessToken"`
		} `json:"accessTokens"`
	}
	if err := json.Unmarshal(content, &creds); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(creds.AccessTokens) == 0 {
		return nil, fmt.Errorf("%s has no access tokens", path)
	}
	env := creds.Env
	if env == "" {
		env = "production"
	}
	// The first access token is the main linked account.
	return &PlaidClient{
		ClientID:    creds.ClientID,
		Secret:      creds.Secret,
		AccessToken: creds.AccessTokens[0].ItemAccessToken,
		BaseURL:     fmt.Sprintf("https://%s.plaid.com", env),
	}, nil
}

func (p *PlaidClient) client() *http.Client {
	if p.Client == nil {
		return http.DefaultClient
	}
	return p.Client
}

// AvailableBalance returns the available balance of the main linked account.
func (p *PlaidClient) AvailableBalance(ctx context.Context) (Money, error) {
	addr := p.BaseURL + "/accounts/balance/get"
	body := map[string]string{
		"client_id":    p.ClientID,
		"secret":       p.Secret,
		"access_token": p.AccessToken,
	}
	var jobj any
	if err := jwpost(ctx, p.client(), addr, "", body, &jobj); err != nil {
		return Money{}, fmt.Errorf("fetching bank balance: %w", err)
	}
	// The main account is first in the response.
	path := "$.accounts[0].balances.available"
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return Money{}, fmt.Errorf("parsing bank balance: %q %w", path, err)
	}
	val, ok := jval.(float64)
	if !ok {
		return Money{}, fmt.Errorf("parsing bank balance: %q not a number: %v", path, jval)
	}
	return USD(val), nil
}

// LinkedBank is the funding source of the workflow: balance checks go
// through the bank's API, while the transfer itself is an ACH pull initiated
// at the venue.
type LinkedBank struct {
	Balance  *PlaidClient
	Transfer *BrokerageClient
}

func (b *LinkedBank) AvailableBalance(ctx context.Context) (Money, error) {
	return b.Balance.AvailableBalance(ctx)
}

func (b *LinkedBank) Deposit(ctx context.Context, amount Money) error {
	return b.Transfer.Deposit(ctx, amount)
}
