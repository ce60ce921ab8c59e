// Package bridge is the HTTP client for the trading-platform bridge, the
// engine's only window onto live equity and the only way to disable a login
// or force-close its positions.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sharkfunded/risk-engine/internal/engineerr"
)

// InfoOnlySentinel is the min_equity_limit value for pure informational
// reads: no floor the bridge could ever enforce server-side.
const InfoOnlySentinel = -999999999

// Check statuses returned by the bridge per login.
const (
	StatusSafe   = "SAFE"
	StatusFailed = "FAILED"
)

// CheckRequest is one login's entry in a bulk equity check.
type CheckRequest struct {
	Login          int64   `json:"login"`
	MinEquityLimit float64 `json:"min_equity_limit"`
	DisableAccount bool    `json:"disable_account"`
	ClosePositions bool    `json:"close_positions"`
}

// CheckResult is the bridge's answer for one login.
type CheckResult struct {
	Login   int64    `json:"login"`
	Status  string   `json:"status"`
	Equity  float64  `json:"equity"`
	Balance float64  `json:"balance"`
	Actions []string `json:"actions,omitempty"`
}

// StopOutResult reports what the bridge did when stopping out a login.
type StopOutResult struct {
	Status          string `json:"status"`
	PositionsClosed int    `json:"positions_closed"`
	OrdersClosed    int    `json:"orders_closed"`
	AccountDisabled bool   `json:"account_disabled"`
}

// HealthStatus is the bridge's own health report.
type HealthStatus struct {
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
	Server    string `json:"server"`
	Timestamp string `json:"timestamp"`
}

// Client talks to the bridge over HTTP with an API key header, a short
// per-call timeout and a client-side rate limit so bulk sweeps cannot
// overrun the bridge.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (used in tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit overrides the default request rate limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// NewClient creates a bridge client for the given base URL and API key.
func NewClient(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(25), 30),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckBulk performs one bulk equity check. Plain reads pass
// disable_account=false with the InfoOnlySentinel limit; enforcement-capable
// entries carry the real floor and the disable/close flags.
func (c *Client) CheckBulk(ctx context.Context, reqs []CheckRequest) ([]CheckResult, error) {
	var results []CheckResult
	if err := c.post(ctx, "/check-bulk", reqs, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// CheckEquity is a convenience wrapper for a single informational read.
func (c *Client) CheckEquity(ctx context.Context, login int64) (*CheckResult, error) {
	results, err := c.CheckBulk(ctx, []CheckRequest{{
		Login:          login,
		MinEquityLimit: InfoOnlySentinel,
	}})
	if err != nil {
		return nil, err
	}
	for i := range results {
		if results[i].Login == login {
			return &results[i], nil
		}
	}
	return nil, engineerr.New(engineerr.CategoryBridge, "bridge", "check_equity",
		fmt.Sprintf("login %d missing from bridge response", login))
}

// DisableAccount disables trading for a login. A bridge answer saying the
// login is already disabled is success: the external action the engine
// needs is in effect.
func (c *Client) DisableAccount(ctx context.Context, login int64) error {
	var resp struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	err := c.post(ctx, "/disable-account", map[string]int64{"login": login}, &resp)
	if err != nil {
		if isAlreadyDisabled(err) {
			return nil
		}
		return err
	}
	return nil
}

// StopOutAccount force-closes all open positions and pending orders for a
// login. Idempotent on the bridge side; an already-flat, already-disabled
// login reports zero closures and is success.
func (c *Client) StopOutAccount(ctx context.Context, login int64) (*StopOutResult, error) {
	var resp StopOutResult
	err := c.post(ctx, "/stop-out-account", map[string]int64{"login": login}, &resp)
	if err != nil {
		if isAlreadyDisabled(err) {
			return &StopOutResult{Status: "ok", AccountDisabled: true}, nil
		}
		return nil, err
	}
	return &resp, nil
}

// Health queries the bridge's own health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var resp HealthStatus
	if err := c.get(ctx, "/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return engineerr.Wrap(err, engineerr.CategoryBridge, "bridge", endpoint)
	}
	return c.do(ctx, http.MethodPost, endpoint, bytes.NewReader(body), out)
}

func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	return c.do(ctx, http.MethodGet, endpoint, nil, out)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return engineerr.Wrap(err, engineerr.CategoryRateLimit, "bridge", endpoint)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return engineerr.Wrap(err, engineerr.CategoryBridge, "bridge", endpoint)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return engineerr.Categorize(err, "bridge", endpoint)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return engineerr.Wrap(err, engineerr.CategoryNetwork, "bridge", endpoint)
	}

	if resp.StatusCode != http.StatusOK {
		var detail struct {
			Detail string `json:"detail"`
		}
		_ = json.Unmarshal(raw, &detail)
		msg := detail.Detail
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		e := engineerr.New(engineerr.CategoryBridge, "bridge", endpoint,
			fmt.Sprintf("HTTP %d: %s", resp.StatusCode, msg))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return e.WithRetryable(true)
		}
		return e.WithRetryable(false)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return engineerr.Wrap(err, engineerr.CategoryBridge, "bridge", endpoint)
		}
	}
	return nil
}

func isAlreadyDisabled(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "already disabled")
}
