// Package client is the single point of outbound HTTP to the TaskFlow API.
//
// It exposes one method per (entity, verb) pair and funnels every request
// through the transport pipeline, which attaches the bearer token and
// reports unauthorized responses. Non-2xx responses come back as the typed
// errors in errors.go; nothing is retried.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"taskflow/internal/transport"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	baseURL string
	tokens  transport.TokenSource
	http    *http.Client
	// noRedirect shares the transport of http but stops at 3xx responses.
	noRedirect *http.Client
	logger     *slog.Logger

	timeout        time.Duration
	base           http.RoundTripper
	onUnauthorized transport.UnauthorizedFunc
	extra          []transport.Middleware
}

type Option func(*Client)

// WithTimeout bounds every request. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithBaseTransport replaces the innermost RoundTripper (tests, proxies).
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.base = rt }
}

// WithUnauthorizedHandler installs the global 401 hook, normally the
// session's Expire method.
func WithUnauthorizedHandler(fn transport.UnauthorizedFunc) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithMiddleware appends stages after the built-in ones.
func WithMiddleware(mws ...transport.Middleware) Option {
	return func(c *Client) { c.extra = append(c.extra, mws...) }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New builds a client for the API rooted at baseURL. tokens supplies the
// bearer token for every request.
func New(baseURL string, tokens transport.TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		timeout: defaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	mws := []transport.Middleware{
		transport.RequestID(),
		transport.Logging(c.logger),
		transport.BearerAuth(tokens),
		transport.Unauthorized(c.onUnauthorized),
	}
	rt := transport.Chain(c.base, append(mws, c.extra...)...)
	c.http = &http.Client{Transport: rt, Timeout: c.timeout}
	c.noRedirect = &http.Client{
		Transport: rt,
		Timeout:   c.timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	// auth marks calls that must not be sent without a token.
	auth bool
	// public calls are sent without the token even when one is held.
	public bool
	// noRedirect returns 3xx responses to the caller instead of following them.
	noRedirect bool
}

func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return bytes.NewReader(b), nil
}

// send performs r and returns the response for any status below 400. The
// caller owns the response body.
func (c *Client) send(ctx context.Context, r request) (*http.Response, error) {
	if r.auth && (c.tokens == nil || c.tokens.Token() == "") {
		return nil, &AuthError{Message: "no session token", Err: ErrNotAuthenticated}
	}

	if r.public {
		ctx = transport.Public(ctx)
	}

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", r.method, r.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	hc := c.http
	if r.noRedirect {
		hc = c.noRedirect
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, &NetworkError{Method: r.method, URL: u, Err: err}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		apiErr := errorFromResponse(resp)
		c.logger.Debug("[api][err]", "method", r.method, "path", r.path, "status", resp.StatusCode, "error", apiErr)
		return nil, apiErr
	}
	return resp, nil
}

// do performs r and decodes a JSON body into out when out is non-nil.
func (c *Client) do(ctx context.Context, r request, out any) error {
	resp, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := decodeJSON(resp.Body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", r.method, r.path, err)
	}
	return nil
}

// decodeJSON treats an empty body as no value.
func decodeJSON(r io.Reader, out any) error {
	if err := json.NewDecoder(r).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
