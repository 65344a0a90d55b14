// File: internal/infra/catalog/client.go
package catalog

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
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"telegram-storefront/internal/config"
	"telegram-storefront/internal/domain"
	"telegram-storefront/internal/domain/ports/adapter"
	"telegram-storefront/internal/infra/logging"
	"telegram-storefront/internal/infra/metrics"
)

var (
	_ adapter.CatalogClient = (*Client)(nil)
	_ adapter.CatalogAdmin  = (*Client)(nil)
	_ adapter.FlowStore     = (*Client)(nil)
)

const (
	grantClientCredentials = "client_credentials"
	grantImplicit          = "implicit"
)

// APIError is a non-2xx answer of the backend. A 404 matches domain.ErrNotFound.
type APIError struct {
	Op     string
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("catalog %s: http %d", e.Op, e.Status)
	}
	return fmt.Sprintf("catalog %s: http %d: %s", e.Op, e.Status, e.Detail)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return nil
}

type token struct {
	access  string
	expires time.Time
}

// Client talks to a Moltin-compatible commerce API. The access token is
// cached per client and refreshed lazily; concurrent callers that find it
// expired may each refresh it.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	http         *http.Client
	now          func() time.Time
	log          *zerolog.Logger

	mu  sync.Mutex
	tok token
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

func NewClient(cfg config.CatalogConfig, logger *zerolog.Logger, opts ...Option) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("catalog client id empty")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid catalog base url: %w", err)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		http:         &http.Client{Timeout: timeout},
		now:          time.Now,
		log:          logging.Component(logger, "catalog"),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Client) grantType() string {
	if c.clientSecret != "" {
		return grantClientCredentials
	}
	return grantImplicit
}

// accessToken returns the cached token, fetching a new one when it is
// missing or past its expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	tok := c.tok
	c.mu.Unlock()
	if tok.access != "" && c.now().Before(tok.expires) {
		return tok.access, nil
	}

	grant := c.grantType()
	form := url.Values{"client_id": {c.clientID}, "grant_type": {grant}}
	if grant == grantClientCredentials {
		form.Set("client_secret", c.clientSecret)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.send(req, "access_token")
	if err != nil {
		metrics.IncTokenRefresh(grant, false)
		return "", err
	}

	res := gjson.ParseBytes(body)
	access := res.Get("access_token").String()
	if access == "" {
		metrics.IncTokenRefresh(grant, false)
		return "", errors.New("catalog access_token: empty token in response")
	}
	expires := time.Unix(res.Get("expires").Int(), 0)
	if !res.Get("expires").Exists() {
		expires = c.now().Add(time.Duration(res.Get("expires_in").Int()) * time.Second)
	}

	c.mu.Lock()
	c.tok = token{access: access, expires: expires}
	c.mu.Unlock()
	metrics.IncTokenRefresh(grant, true)
	c.log.Debug().Str("grant", grant).Time("expires", expires).Msg("access token refreshed")
	return access, nil
}

// send executes req and returns the body of a 2xx response.
func (c *Client) send(req *http.Request, op string) ([]byte, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveBackendCall("catalog", op, 0, time.Since(start).Milliseconds())
		return nil, fmt.Errorf("catalog %s: %w", op, err)
	}
	defer resp.Body.Close()
	metrics.ObserveBackendCall("catalog", op, resp.StatusCode, time.Since(start).Milliseconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: read body: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Op: op, Status: resp.StatusCode, Detail: errorDetail(body)}
	}
	return body, nil
}

func errorDetail(body []byte) string {
	if !gjson.ValidBytes(body) {
		return strings.TrimSpace(string(body))
	}
	res := gjson.ParseBytes(body)
	if d := res.Get("errors.0.detail").String(); d != "" {
		return d
	}
	return res.Get("errors.0.title").String()
}

// do sends an authorized request. A non-nil in is wrapped as {"data": in}.
func (c *Client) do(ctx context.Context, op, method, path string, in any) ([]byte, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(map[string]any{"data": in})
		if err != nil {
			return nil, fmt.Errorf("catalog %s: encode: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, op)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	access, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+access)
	return req, nil
}

// decodeData unmarshals the "data" member of a response.
func decodeData(op string, body []byte, out any) error {
	raw := gjson.GetBytes(body, "data")
	if !raw.Exists() {
		return fmt.Errorf("catalog %s: response without data", op)
	}
	if err := json.Unmarshal([]byte(raw.Raw), out); err != nil {
		return fmt.Errorf("catalog %s: decode: %w", op, err)
	}
	return nil
}
