package yoomoney

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned when a call needs a bearer token and none is stored.
// Callers must not hit the remote API without one.
var ErrNoToken = errors.New("yoomoney: access token not set")

// APIError carries a non-200 gateway response so operators can see the
// upstream payload verbatim.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yoomoney: api status %d: %s", e.StatusCode, e.Body)
}

// TokenStore is the session object holding the single process-wide OAuth
// bearer token. A second exchange simply overwrites the first.
type TokenStore interface {
	Get() (string, error)
	Set(token string) error
}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	BaseURL      string // override for tests; defaults to https://yoomoney.ru
}

// Client talks to the YooMoney OAuth and REST endpoints.
type Client struct {
	cfg    Config
	tokens TokenStore
	client *http.Client
}

func NewClient(cfg Config, tokens TokenStore) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://yoomoney.ru"
	}
	return &Client{
		cfg:    cfg,
		tokens: tokens,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		RedirectURL:  c.cfg.RedirectURI,
		Scopes:       []string{"account-info", "operation-history"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.cfg.BaseURL + "/oauth/authorize",
			TokenURL:  c.cfg.BaseURL + "/oauth/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AuthCodeURL is the gateway consent URL the browser gets redirected to.
func (c *Client) AuthCodeURL() string {
	return c.oauthConfig().AuthCodeURL("")
}

// Exchange trades an authorization code for a bearer token and stores it.
func (c *Client) Exchange(ctx context.Context, code string) (string, error) {
	tok, err := c.oauthConfig().Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return "", fmt.Errorf("yoomoney: token exchange: %s", strings.TrimSpace(string(re.Body)))
		}
		return "", fmt.Errorf("yoomoney: token exchange: %w", err)
	}
	if err := c.tokens.Set(tok.AccessToken); err != nil {
		return "", fmt.Errorf("yoomoney: store token: %w", err)
	}
	return tok.AccessToken, nil
}

// postForm performs an authorized form POST against the REST API.
func (c *Client) postForm(ctx context.Context, path string, form url.Values) ([]byte, error) {
	token, err := c.tokens.Get()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNoToken
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrNoToken
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// FindInbound looks for a completed inbound operation labeled with orderID.
// Returns nil when the payment has not landed yet.
func (c *Client) FindInbound(ctx context.Context, orderID string) (*Operation, error) {
	form := url.Values{}
	form.Set("type", "deposition")
	form.Set("label", orderID)
	form.Set("records", "10")
	body, err := c.postForm(ctx, "/api/operation-history", form)
	if err != nil {
		return nil, err
	}
	var out operationHistoryResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("yoomoney: decode operation history: %w", err)
	}
	if out.Error != "" {
		return nil, &APIError{StatusCode: http.StatusOK, Body: out.Error}
	}
	for i := range out.Operations {
		op := &out.Operations[i]
		if op.Status == OperationStatusSuccess && op.Direction == DirectionIn {
			return op, nil
		}
	}
	return nil, nil
}

// OperationHistory returns the raw history payload for diagnostic passthrough.
func (c *Client) OperationHistory(ctx context.Context, records int) (json.RawMessage, error) {
	form := url.Values{}
	form.Set("records", strconv.Itoa(records))
	body, err := c.postForm(ctx, "/api/operation-history", form)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// AccountInfo returns the wallet number and balance behind the stored token.
func (c *Client) AccountInfo(ctx context.Context) (*AccountInfo, error) {
	body, err := c.postForm(ctx, "/api/account-info", url.Values{})
	if err != nil {
		return nil, err
	}
	var info AccountInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("yoomoney: decode account info: %w", err)
	}
	return &info, nil
}
