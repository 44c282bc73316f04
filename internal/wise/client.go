// Package wise talks to the Wise payment platform: it verifies inbound
// webhook signatures and exposes a small read-only API client for account
// details and recent transfers.  Outbound transfer initiation is
// intentionally absent.
package wise

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "time"
)

// ErrNoUSDAccount is returned when the profile has no USD balance account.
var ErrNoUSDAccount = errors.New("wise: no USD account on profile")

// Client is a minimal Wise API client.  It is read-only: the booking API
// only ever fetches account details (for payment instructions) and recent
// transfers (for the staff dashboard).
type Client struct {
    baseURL   string
    apiKey    string
    profileID string
    http      *http.Client
}

// NewClient builds a Client.  An empty apiKey is allowed; calls will then
// fail with 401 from the API and callers treat the data as unavailable.
func NewClient(baseURL, apiKey, profileID string) *Client {
    return &Client{
        baseURL:   baseURL,
        apiKey:    apiKey,
        profileID: profileID,
        http:      &http.Client{Timeout: 10 * time.Second},
    }
}

// get performs an authenticated GET and returns the raw response body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
    if err != nil {
        return nil, err
    }
    req.Header.Set("Authorization", "Bearer "+c.apiKey)
    resp, err := c.http.Do(req)
    if err != nil {
        return nil, err
    }
    defer resp.Body.Close()
    body, err := io.ReadAll(resp.Body)
    if err != nil {
        return nil, err
    }
    if resp.StatusCode != http.StatusOK {
        return nil, fmt.Errorf("wise: %s returned %d", path, resp.StatusCode)
    }
    return body, nil
}

// USDAccountDetails returns the bank details of the profile's USD account as
// raw JSON, suitable for embedding verbatim in payment instructions.
func (c *Client) USDAccountDetails(ctx context.Context) (json.RawMessage, error) {
    body, err := c.get(ctx, "/v1/accounts?profileId="+url.QueryEscape(c.profileID))
    if err != nil {
        return nil, err
    }
    var accounts []struct {
        ID       int64  `json:"id"`
        Currency string `json:"currency"`
    }
    if err := json.Unmarshal(body, &accounts); err != nil {
        return nil, fmt.Errorf("wise: decode accounts: %w", err)
    }
    for _, a := range accounts {
        if a.Currency == "USD" {
            return c.get(ctx, fmt.Sprintf("/v1/accounts/%d/account-details", a.ID))
        }
    }
    return nil, ErrNoUSDAccount
}

// RecentTransfers lists transfers created in the last `days` days as raw
// JSON.  days defaults to 7 when non-positive.
func (c *Client) RecentTransfers(ctx context.Context, days int) (json.RawMessage, error) {
    if days <= 0 {
        days = 7
    }
    start := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)
    path := "/v1/transfers?profileId=" + url.QueryEscape(c.profileID) +
        "&createdDateStart=" + url.QueryEscape(start)
    return c.get(ctx, path)
}
