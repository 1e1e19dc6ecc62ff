// Package client implements the session-aware request client all HMIS API
// consumers go through: it builds URLs and headers, attaches credentials,
// refreshes an expired session exactly once per request, and normalizes
// error responses.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/medisur/hmis-go/internal/session"
	"github.com/medisur/hmis-go/internal/util"
)

const (
	HeaderTenant    = "X-Tenant-ID"
	HeaderRequestID = "X-Request-ID"

	refreshEndpoint = "/auth/refresh"
)

// ErrSessionExpired is returned when a 401 survives the refresh-and-retry
// path. Local session state has already been cleared when callers see it.
var ErrSessionExpired = errors.New("session expired")

var errNoRefreshCredential = errors.New("no refresh credential available")

// Variant selects how credentials travel with each request.
type Variant int

const (
	// VariantBearer sends the access credential as an Authorization header.
	VariantBearer Variant = iota
	// VariantCookie relies on the gateway's HttpOnly session cookie; no
	// Authorization header is ever set.
	VariantCookie
)

// Params holds query parameters. Nil and empty-string values are omitted
// from the query string entirely.
type Params map[string]interface{}

type Client struct {
	httpClient *http.Client
	baseURL    string
	variant    Variant
	store      session.Store
	log        *zap.SugaredLogger

	refreshGroup singleflight.Group

	onSessionExpired func()
}

type Option func(*Client)

// WithHTTPClient replaces the underlying transport, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithCookieVariant switches the client to the cookie transport: a cookie
// jar carries the credentials and the refresh call sends no body.
func WithCookieVariant() Option {
	return func(c *Client) {
		jar, err := cookiejar.New(nil)
		if err != nil {
			panic(fmt.Sprintf("cookiejar: %v", err))
		}
		c.httpClient.Jar = jar
		c.variant = VariantCookie
	}
}

// WithSessionExpiredHook registers a callback fired after a terminal
// authentication failure has cleared the session store. The CLI prints a
// re-login hint here; a browser shell would navigate to the login page.
func WithSessionExpiredHook(fn func()) Option {
	return func(c *Client) { c.onSessionExpired = fn }
}

func New(cfg *util.ClientConfig, store session.Store, log *zap.SugaredLogger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		variant:    VariantBearer,
		store:      store,
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Get(ctx context.Context, endpoint string, params Params, out interface{}) error {
	return c.Do(ctx, http.MethodGet, endpoint, nil, params, nil, out)
}

func (c *Client) Post(ctx context.Context, endpoint string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, endpoint, body, nil, nil, out)
}

func (c *Client) Put(ctx context.Context, endpoint string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPut, endpoint, body, nil, nil, out)
}

func (c *Client) Patch(ctx context.Context, endpoint string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPatch, endpoint, body, nil, nil, out)
}

func (c *Client) Delete(ctx context.Context, endpoint string, params Params) error {
	return c.Do(ctx, http.MethodDelete, endpoint, nil, params, nil, nil)
}

// Do issues one logical request. An access credential about to expire is
// refreshed up front so the attempt does not burn a round trip on a
// predictable 401. On a 401 it refreshes the session (one refresh
// process-wide, however many requests fail at once), rebuilds the headers so
// a rotated credential is picked up, and retries the request exactly once. A
// 401 that survives the retry, or a 401 with no refresh path, clears the
// session store and returns ErrSessionExpired.
func (c *Client) Do(ctx context.Context, method, endpoint string, body interface{}, params Params, headers http.Header, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	if c.variant == VariantBearer {
		if access, refreshToken := c.store.Credentials(); refreshToken != "" && session.AccessExpiresSoon(access, util.JWTLeeWay) {
			// Best effort: a failed proactive refresh falls through to the
			// normal 401 path instead of failing the request here.
			if err := c.refresh(ctx); err != nil {
				c.log.Debugw("proactive refresh failed", "endpoint", endpoint, "error", err)
			}
		}
	}

	reqURL := c.BuildURL(endpoint, params)

	resp, err := c.send(ctx, method, reqURL, payload, headers)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)

		if err := c.refresh(ctx); err != nil {
			c.log.Debugw("session refresh failed", "endpoint", endpoint, "error", err)
			return c.expireSession()
		}

		resp, err = c.send(ctx, method, reqURL, payload, headers)
		if err != nil {
			return fmt.Errorf("%s %s (retry): %w", method, endpoint, err)
		}
		if resp.StatusCode == http.StatusUnauthorized {
			drain(resp)
			return c.expireSession()
		}
	}

	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

// send rebuilds headers on every call so a retry after refresh carries the
// rotated credential.
func (c *Client) send(ctx context.Context, method, reqURL string, payload []byte, extra http.Header) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header = c.buildHeaders(extra)

	return c.httpClient.Do(req)
}

func (c *Client) expireSession() error {
	if err := c.store.Clear(); err != nil {
		c.log.Errorw("failed to clear session store", "error", err)
	}
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
	return ErrSessionExpired
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
