package jamf

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

	"change-monitor/core/fetch"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	classicRoot = "JSSResource"
	proRoot     = "api"

	tokenPath      = "api/v1/auth/token"
	keepAlivePath  = "api/v1/auth/keep-alive"
	invalidatePath = "api/v1/auth/invalidate-token"

	// tokenSlack renews tokens this long before they expire.
	tokenSlack = time.Minute
	// defaultTokenLifetime applies when the server omits the expiry.
	defaultTokenLifetime = 20 * time.Minute

	maxErrorBody = 4 << 10
)

// RequestObserver is told about every completed request. status is 0 when no response arrived.
type RequestObserver interface {
	ObserveRequest(api string, status int, d time.Duration)
}

// Client talks to one Jamf Pro server.
type Client struct {
	base     *url.URL
	username string
	password string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	logger   *zap.Logger
	observer RequestObserver

	mu      sync.Mutex
	token   string
	expires time.Time
	sf      singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithObserver reports request outcomes to o.
func WithObserver(o RequestObserver) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient creates a client for cfg.
func NewClient(cfg Config, logger *zap.Logger, opts ...Option) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("jamf url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid jamf url: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 240
	}
	failures := cfg.BreakerFailures
	if failures <= 0 {
		failures = 5
	}
	cooldown := cfg.BreakerCooldownSeconds
	if cooldown <= 0 {
		cooldown = 30
	}

	c := &Client{
		base:     base,
		username: cfg.Username,
		password: cfg.Password,
		http:     &http.Client{Timeout: time.Duration(timeout) * time.Second},
		logger:   logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "jamf",
		MaxRequests: 1,
		Timeout:     time.Duration(cooldown) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get implements fetch.Capability.
func (c *Client) Get(ctx context.Context, req fetch.Request) (any, error) {
	switch req.API {
	case fetch.Classic, "":
		return c.classic(ctx, req)
	case fetch.Pro:
		return c.pro(ctx, req)
	default:
		return nil, fmt.Errorf("unknown api %q", req.API)
	}
}

func (c *Client) classic(ctx context.Context, req fetch.Request) (any, error) {
	u := c.resolve(classicRoot+"/"+strings.TrimLeft(req.Path, "/"), req.Params)
	var body any
	err := c.do(ctx, string(fetch.Classic), http.MethodGet, u, func(r *http.Request) {
		r.SetBasicAuth(c.username, c.password)
	}, &body)
	return body, err
}

func (c *Client) pro(ctx context.Context, req fetch.Request) (any, error) {
	u := c.resolve(proRoot+"/"+strings.TrimLeft(req.Path, "/"), req.Params)

	for attempt := 0; ; attempt++ {
		token, err := c.Token(ctx)
		if err != nil {
			return nil, err
		}

		var body any
		err = c.do(ctx, string(fetch.Pro), http.MethodGet, u, bearer(token), &body)
		var apiErr *APIError
		if attempt == 0 && errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			c.logger.Debug("Token rejected, renewing")
			c.dropToken(token)
			continue
		}
		return body, err
	}
}

type tokenResponse struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Token returns a valid bearer token. A token close to expiry is renewed
// through keep-alive; a missing or expired one is requested again.
// Concurrent callers share a single request.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && time.Now().Add(tokenSlack).Before(c.expires) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	v, err, _ := c.sf.Do("token", func() (any, error) {
		c.mu.Lock()
		current, expires := c.token, c.expires
		c.mu.Unlock()

		if current != "" && time.Now().Before(expires) {
			resp, err := c.keepAlive(ctx, current)
			if err == nil {
				return resp.Token, c.storeToken(resp)
			}
			c.logger.Debug("Keep-alive failed, requesting a new token", zap.Error(err))
		}

		var resp tokenResponse
		err := c.do(ctx, string(fetch.Pro), http.MethodPost, c.resolve(tokenPath, nil), func(r *http.Request) {
			r.SetBasicAuth(c.username, c.password)
		}, &resp)
		if err != nil {
			return "", fmt.Errorf("request token: %w", err)
		}
		return resp.Token, c.storeToken(resp)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// keepAlive exchanges token for a fresh one.
func (c *Client) keepAlive(ctx context.Context, token string) (tokenResponse, error) {
	var resp tokenResponse
	if err := c.do(ctx, string(fetch.Pro), http.MethodPost, c.resolve(keepAlivePath, nil), bearer(token), &resp); err != nil {
		return resp, fmt.Errorf("keep token alive: %w", err)
	}
	if resp.Token == "" {
		return resp, ErrNoToken
	}
	return resp, nil
}

// Close invalidates the current token, if any.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	c.token, c.expires = "", time.Time{}
	c.mu.Unlock()

	if token == "" {
		return nil
	}
	if err := c.do(ctx, string(fetch.Pro), http.MethodPost, c.resolve(invalidatePath, nil), bearer(token), nil); err != nil {
		return fmt.Errorf("invalidate token: %w", err)
	}
	return nil
}

func (c *Client) storeToken(resp tokenResponse) error {
	if resp.Token == "" {
		return ErrNoToken
	}
	if resp.Expires.IsZero() {
		resp.Expires = time.Now().Add(defaultTokenLifetime)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token, c.expires = resp.Token, resp.Expires
	return nil
}

// dropToken forgets token unless it was already replaced.
func (c *Client) dropToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == token {
		c.token, c.expires = "", time.Time{}
	}
}

// resolve joins an escaped path onto the base URL without escaping it again.
func (c *Client) resolve(path string, params url.Values) string {
	ref := &url.URL{Path: path}
	if unescaped, err := url.PathUnescape(path); err == nil {
		ref = &url.URL{Path: unescaped, RawPath: path}
	}
	u := c.base.ResolveReference(ref)
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u.String()
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

// do performs one request through the breaker and decodes the body into out.
func (c *Client) do(ctx context.Context, api, method, u string, auth func(*http.Request), out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		start := time.Now()
		status, err := c.roundTrip(ctx, method, u, auth, out)
		if c.observer != nil {
			c.observer.ObserveRequest(api, status, time.Since(start))
		}
		return nil, err
	})
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, u string, auth func(*http.Request), out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if auth != nil {
		auth(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, &APIError{Method: method, URL: u, Status: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return resp.StatusCode, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s: %w", u, err)
	}
	return resp.StatusCode, nil
}
