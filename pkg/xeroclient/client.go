// xeroclient/client.go
package xeroclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is a stateless Xero API client. Tokens are passed per call so
// the same client serves every user and tenant.
type Client struct {
	baseURL        string
	connectionsURL string
	httpClient     *http.Client
}

// NewClient creates a new Xero API client.
func NewClient(baseURL, connectionsURL string) *Client {
	return &Client{
		baseURL:        baseURL,
		connectionsURL: connectionsURL,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Account is a single entry from the Xero chart of accounts.
type Account struct {
	AccountID string `json:"AccountID"`
	Name      string `json:"Name"`
	Type      string `json:"Type"`
}

// Connection describes an organisation the user has authorised.
type Connection struct {
	TenantID    string `json:"tenantId"`
	AuthEventID string `json:"authEventId"`
	TenantType  string `json:"tenantType"`
	TenantName  string `json:"tenantName"`
}

type accountsResponse struct {
	Accounts []Account `json:"Accounts"`
}

type trialBalanceResponse struct {
	Reports []struct {
		Rows []reportRow `json:"Rows"`
	} `json:"Reports"`
}

// reportRow models Xero's nested tabular report format. Leaf account
// rows carry Cells inside a nested Rows entry; section and summary rows
// do not.
type reportRow struct {
	RowType string       `json:"RowType"`
	Rows    []reportRow  `json:"Rows"`
	Cells   []reportCell `json:"Cells"`
}

type reportCell struct {
	Value      string `json:"Value"`
	Attributes []struct {
		Value string `json:"Value"`
		ID    string `json:"Id"`
	} `json:"Attributes"`
}

// GetAccounts fetches the chart of accounts filtered to one account type.
func (c *Client) GetAccounts(ctx context.Context, tenantID, accountType, accessToken string) ([]Account, error) {
	endpoint := c.baseURL + "/Accounts?where=" + url.QueryEscape(fmt.Sprintf(`Type=="%s"`, accountType))

	body, err := c.get(ctx, endpoint, tenantID, accessToken)
	if err != nil {
		return nil, err
	}

	var parsed accountsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &UpstreamError{Err: fmt.Errorf("failed to parse accounts response: %w", err)}
	}

	return parsed.Accounts, nil
}

// GetTrialBalance fetches the trial balance as of the given date and
// reduces it to a map from account ID to a signed year-to-date balance,
// computed as debit minus credit.
func (c *Client) GetTrialBalance(ctx context.Context, tenantID string, asOf time.Time, accessToken string) (map[string]float64, error) {
	endpoint := c.baseURL + "/Reports/TrialBalance?date=" + asOf.Format("2006-01-02")

	body, err := c.get(ctx, endpoint, tenantID, accessToken)
	if err != nil {
		return nil, err
	}

	var parsed trialBalanceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &UpstreamError{Err: fmt.Errorf("failed to parse trial balance response: %w", err)}
	}
	if len(parsed.Reports) == 0 {
		return nil, &UpstreamError{Err: fmt.Errorf("trial balance response contained no reports")}
	}

	balances := make(map[string]float64)

	rows := parsed.Reports[0].Rows
	if len(rows) < 2 {
		// Header only, no account rows.
		return balances, nil
	}

	for _, row := range rows[1:] {
		// The outer list mixes leaf account rows with section markers and
		// totals. Anything without a nested account row is skipped.
		if len(row.Rows) == 0 {
			continue
		}
		inner := row.Rows[0]
		if inner.RowType != "" && inner.RowType != "Row" {
			continue
		}
		if len(inner.Cells) < 5 {
			continue
		}

		first := inner.Cells[0]
		if len(first.Attributes) == 0 || first.Attributes[0].Value == "" {
			continue
		}
		accountID := first.Attributes[0].Value

		debit, err := parseAmount(inner.Cells[3].Value)
		if err != nil {
			return nil, &UpstreamError{Err: fmt.Errorf("bad debit cell for account %s: %w", accountID, err)}
		}
		credit, err := parseAmount(inner.Cells[4].Value)
		if err != nil {
			return nil, &UpstreamError{Err: fmt.Errorf("bad credit cell for account %s: %w", accountID, err)}
		}

		balances[accountID] = debit - credit
	}

	return balances, nil
}

// GetConnections lists the organisations the access token is connected to.
func (c *Client) GetConnections(ctx context.Context, accessToken string) ([]Connection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.connectionsURL, nil)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var connections []Connection
	if err := json.Unmarshal(body, &connections); err != nil {
		return nil, &UpstreamError{Err: fmt.Errorf("failed to parse connections response: %w", err)}
	}

	return connections, nil
}

// get performs an authenticated tenant-scoped GET. A 401 maps to
// ErrTokenExpired, every other failure to UpstreamError.
func (c *Client) get(ctx context.Context, endpoint, tenantID, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Xero-tenant-id", tenantID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrTokenExpired
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

func parseAmount(value string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.ParseFloat(value, 64)
}
