// Package client talks to the pagecraft API on behalf of an operator. It
// keeps the operator's session, attaches it to every request and refreshes
// it once when the server answers 401.
package client

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

	"github.com/mx-space/pagecraft/internal/pkg/apperr"
	"go.uber.org/zap"
)

// ErrUnauthorized is returned when the session is missing or could not be
// refreshed. The local session is cleared by then.
var ErrUnauthorized = apperr.ErrUnauthorized

// APIError is a non 2xx answer. It unwraps to the matching apperr kind so
// callers can use errors.Is(err, apperr.ErrNotFound) and friends.
type APIError struct {
	Status  int
	Message string
	kind    error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("pagecraft: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("pagecraft: %d %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.kind }

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithStore persists the session after every sign in, refresh and sign out.
func WithStore(store SessionStore) Option {
	return func(c *Client) { c.store = store }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

type Client struct {
	baseURL string
	http    *http.Client
	session *Session
	store   SessionStore
	logger  *zap.Logger

	refreshMu sync.Mutex
}

// New builds a client for the API rooted at baseURL, e.g.
// "http://localhost:2333/api". A saved session is restored from the store.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		session: NewSession(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store != nil {
		state, err := c.store.Load()
		if err != nil {
			return nil, fmt.Errorf("load session: %w", err)
		}
		if state != nil {
			c.session.replace(*state)
		}
	}
	return c, nil
}

func (c *Client) Session() *Session { return c.session }

func (c *Client) Pages() *Pages           { return &Pages{c: c} }
func (c *Client) Blocks() *Blocks         { return &Blocks{c: c} }
func (c *Client) Settings() *SiteSettings { return &SiteSettings{c: c} }

type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	// noRetry marks calls that must not trigger a refresh, such as the
	// refresh call itself.
	noRetry bool
	anon    bool
}

func jsonRequest(method, path string, payload interface{}) (*request, error) {
	req := &request{method: method, path: path}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		req.body = body
		req.contentType = "application/json"
	}
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	req, err := jsonRequest(method, path, payload)
	if err != nil {
		return err
	}
	return c.do(ctx, req, out)
}

// do sends req and decodes a 2xx body into out. A 401 on an authenticated
// request triggers one refresh and one retry; if either fails the session
// is cleared and ErrUnauthorized returned.
func (c *Client) do(ctx context.Context, req *request, out interface{}) error {
	sentToken := c.session.accessToken()
	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusUnauthorized || req.noRetry || req.anon || sentToken == "" {
		return decode(resp, out)
	}
	drain(resp)

	if err := c.refreshAfter(ctx, sentToken); err != nil {
		c.logger.Debug("refresh failed", zap.Error(err))
		c.clearSession()
		return fmt.Errorf("%s %s: %w", req.method, req.path, ErrUnauthorized)
	}
	resp, err = c.send(ctx, req)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		c.clearSession()
		return fmt.Errorf("%s %s: %w", req.method, req.path, ErrUnauthorized)
	}
	return decode(resp, out)
}

func (c *Client) send(ctx context.Context, req *request) (*http.Response, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if !req.anon {
		if token := c.session.accessToken(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	return resp, nil
}

type errorEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func decode(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var env errorEnvelope
		_ = json.Unmarshal(raw, &env)
		if env.Message == "" {
			env.Message = strings.TrimSpace(string(raw))
		}
		return &APIError{Status: resp.StatusCode, Message: env.Message, kind: apperr.FromStatus(resp.StatusCode)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

// listEnvelope matches the {data: [...]} shape list endpoints answer with.
type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

func (c *Client) persist(state SessionState) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(state); err != nil {
		c.logger.Warn("save session failed", zap.Error(err))
	}
}

func (c *Client) clearSession() {
	c.session.Clear()
	if c.store == nil {
		return
	}
	if err := c.store.Clear(); err != nil {
		c.logger.Warn("clear session failed", zap.Error(err))
	}
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool { return errors.Is(err, apperr.ErrNotFound) }
