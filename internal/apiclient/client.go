// Package apiclient is the single HTTP client every service talks to the
// backend through. It attaches the stored bearer token to each request and
// refreshes it once when the backend rejects it.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"banas-client/internal/config"
	"banas-client/internal/logging"
	"banas-client/internal/metrics"
	"banas-client/internal/securestore"
)

// Secure storage keys shared with the auth service
const (
	AccessTokenKey  = "banas_access_token"
	RefreshTokenKey = "banas_refresh_token"
)

const (
	DefaultTimeout = 15 * time.Second
	refreshPath    = "/token/refresh/"
)

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// RefreshOnUnauthorized enables the refresh-and-replay path
	RefreshOnUnauthorized bool
}

// ConfigFrom picks the client settings out of the application config
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		BaseURL:               cfg.API.BaseURL,
		Timeout:               cfg.Timeout(),
		UserAgent:             cfg.API.UserAgent,
		RefreshOnUnauthorized: cfg.API.RefreshOnUnauthorized,
	}
}

type Client struct {
	cfg    Config
	http   *http.Client
	tokens securestore.Store
	log    *logrus.Entry
	now    func() time.Time

	// refreshMu serialises refreshes so concurrent 401s trigger one refresh
	refreshMu sync.Mutex
}

type Option func(*Client)

// WithHTTPClient uses a copy of h as the underlying http.Client. The copy's
// Timeout is set from Config.Timeout; h itself is not modified.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		hc := *h
		c.http = &hc
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(c *Client) { c.log = log }
}

// WithClock overrides the clock used for token expiry checks
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func New(cfg Config, tokens securestore.Store, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{},
		tokens: tokens,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.Timeout = cfg.Timeout
	c.log = logging.Or(c.log, "apiclient")
	return c
}

func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

func (c *Client) Post(ctx context.Context, path string, body any) ([]byte, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

func (c *Client) Put(ctx context.Context, path string, body any) ([]byte, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

func (c *Client) Delete(ctx context.Context, path string) ([]byte, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// Do sends one JSON request and returns the raw response body. A non-2xx
// response is returned as *APIError.
func (c *Client) Do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}

	token := c.accessToken(ctx)
	if token != "" && c.cfg.RefreshOnUnauthorized && c.expired(token) {
		if refreshed, err := c.refresh(ctx, token); err == nil {
			token = refreshed
		} else {
			c.log.WithError(err).Debug("proactive refresh failed")
		}
	}

	status, respBody, err := c.send(ctx, method, path, payload, token)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized && token != "" && c.cfg.RefreshOnUnauthorized {
		refreshed, rerr := c.refresh(ctx, token)
		if rerr != nil {
			c.log.WithError(rerr).Warn("token refresh failed")
			return nil, newAPIError(method, path, status, respBody)
		}
		status, respBody, err = c.send(ctx, method, path, payload, refreshed)
		if err != nil {
			return nil, err
		}
	}

	if status < 200 || status >= 300 {
		return nil, newAPIError(method, path, status, respBody)
	}
	return respBody, nil
}

// send performs exactly one round trip
func (c *Client) send(ctx context.Context, method, path string, payload []byte, token string) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveClientRequest(method, path, 0, time.Since(start))
		c.log.WithFields(logrus.Fields{
			"method":     method,
			"path":       path,
			"request_id": requestID,
		}).WithError(err).Debug("request failed")
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	metrics.ObserveClientRequest(method, path, resp.StatusCode, elapsed)
	if err != nil {
		return 0, nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}

	c.log.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"status":     resp.StatusCode,
		"request_id": requestID,
		"elapsed_ms": elapsed.Milliseconds(),
	}).Debug("request")
	return resp.StatusCode, respBody, nil
}

// accessToken reads the token from storage right before each request.
// Storage errors are treated as "no token".
func (c *Client) accessToken(ctx context.Context) string {
	token, err := c.tokens.Get(ctx, AccessTokenKey)
	if err != nil {
		if !errors.Is(err, securestore.ErrNotFound) {
			c.log.WithError(err).Warn("read access token")
		}
		return ""
	}
	return token
}
