// Package client is a Go client for the Recipen API with transparent re-authentication.
//
// The refresh token lives in a cookie jar; the access token is held in memory and sent as a
// bearer token. When a call fails because the access token expired, the client refreshes once
// and replays the call once. A failed refresh ends the session with ErrSessionExpired.
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
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ExpiredMessage is the server message that marks an expired access token.
const ExpiredMessage = "Access token expired"

// ErrSessionExpired reports that the refresh token was rejected; log in again.
var ErrSessionExpired = errors.New("session expired")

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Client talks to one API base URL. Safe for concurrent use.
type Client struct {
	base *url.URL
	hc   *http.Client
	log  *zap.Logger

	mu    sync.Mutex
	token string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Jar is replaced when nil.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }

// WithLogger sets the logger for session events.
func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.log = l } }

// WithToken seeds the access token, e.g. one persisted by a previous run.
func WithToken(tok string) Option { return func(c *Client) { c.token = tok } }

// New constructs a Client for baseURL (e.g. "https://api.example.com/api").
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	c := &Client{base: u, hc: &http.Client{Timeout: 30 * time.Second}, log: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}
	if c.hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.hc.Jar = jar
	}
	return c, nil
}

// Token returns the access token currently held ("" when logged out).
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) setToken(tok string) {
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
}

// RefreshCookie returns the refresh token held in the jar, or "".
func (c *Client) RefreshCookie() string {
	for _, ck := range c.hc.Jar.Cookies(c.base) {
		if ck.Name == "jwt" {
			return ck.Value
		}
	}
	return ""
}

// SetRefreshCookie seeds the jar, e.g. from a persisted session.
func (c *Client) SetRefreshCookie(v string) {
	c.hc.Jar.SetCookies(c.base, []*http.Cookie{{Name: "jwt", Value: v, Path: "/"}})
}

type tokenBody struct {
	AccessToken string `json:"accessToken"`
}

// Login opens a session; the refresh cookie is kept in the jar.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var out tokenBody
	body := map[string]string{"email": email, "password": password}
	if err := c.send(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return err
	}
	c.setToken(out.AccessToken)
	return nil
}

// Logout ends the session on the server and forgets the access token.
func (c *Client) Logout(ctx context.Context) error {
	err := c.send(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.setToken("")
	return err
}

// Refresh trades the refresh cookie for a new access token.
// Any non-200 answer clears the held token and returns ErrSessionExpired.
func (c *Client) Refresh(ctx context.Context) error {
	var out tokenBody
	if err := c.send(ctx, http.MethodGet, "/auth/refresh", nil, &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			c.setToken("")
			c.log.Info("session expired", zap.Int("status", apiErr.Status))
			return ErrSessionExpired
		}
		return err
	}
	c.setToken(out.AccessToken)
	return nil
}

// Do performs an authenticated call. body (if non-nil) is sent as JSON; out (if non-nil)
// receives the decoded response. An expired access token triggers exactly one refresh and
// one replay; a second failure is returned as is.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	err := c.send(ctx, method, path, body, out)
	if !isExpired(err) {
		return err
	}
	c.log.Debug("access token expired, refreshing", zap.String("path", path))
	if err := c.Refresh(ctx); err != nil {
		return err
	}
	return c.send(ctx, method, path, body, out)
}

func isExpired(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusForbidden && apiErr.Message == ExpiredMessage
}

// send performs a single request. The body is marshaled per call so a replay resends it intact.
func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var eb struct {
			Message string `json:"message"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&eb) == nil {
			apiErr.Message = eb.Message
		}
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
