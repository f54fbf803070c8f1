// Package authclient is a Go client for the gateway that makes the access
// token lifecycle invisible to callers. It attaches the current access token
// to every request, and on a 401 performs a single-flight refresh: exactly
// one refresh call runs no matter how many requests fail at once, the rest
// queue behind it, and every queued request retries once with the new token.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response from the gateway.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway: %d %s", e.Status, e.Message)
}

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	Timestamp time.Time       `json:"timestamp"`
}

// User mirrors the gateway's public identity payload.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

type Option func(*Client)

// WithHTTPClient replaces the transport. The supplied client should carry a
// cookie jar, or refreshes will have no cookie to send.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithSessionExpiredHandler installs the terminal-logout hook, called once
// per failed refresh cycle after local tokens are cleared.
func WithSessionExpiredHandler(fn func(error)) Option {
	return func(c *Client) { c.onSessionExpired = fn }
}

type Client struct {
	baseURL          string
	http             *http.Client
	onSessionExpired func(error)

	// mu guards the three fields below. The access token is written only by
	// the refresh routine and the login/logout calls, never by request code.
	mu          sync.Mutex
	accessToken string
	refreshing  bool
	waiters     []chan error // FIFO; released after the new token is stored
}

func New(baseURL string, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: defaultTimeout,
			Jar:     jar,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Token returns the access token currently held in memory.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

// SetToken seeds the in-memory access token, for callers that obtained one
// out of band.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

// Do issues one JSON request. On a 401 it transparently refreshes the access
// token (joining an in-flight refresh if one is running) and retries exactly
// once. Auth endpoints themselves are excluded from the retry cycle.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	used := c.Token()
	resp, err := c.send(ctx, method, path, payload, used)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusUnauthorized || isAuthPath(path) {
		return decode(resp, out)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if err := c.refreshAccess(ctx, used); err != nil {
		return fmt.Errorf("session expired: %w", err)
	}

	resp, err = c.send(ctx, method, path, payload, c.Token())
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, token string) (*http.Response, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

// refreshAccess is the single-flight gate. The first caller becomes the
// initiator; everyone else parks on a channel and is released only after the
// initiator has stored the new token (or the shared failure).
func (c *Client) refreshAccess(ctx context.Context, usedToken string) error {
	c.mu.Lock()
	if c.accessToken != "" && c.accessToken != usedToken {
		// Another request already completed a refresh since this one
		// failed; retry with what it stored instead of refreshing again.
		c.mu.Unlock()
		return nil
	}
	if c.refreshing {
		ch := make(chan error, 1)
		c.waiters = append(c.waiters, ch)
		c.mu.Unlock()
		select {
		case err := <-ch:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.refreshing = true
	c.mu.Unlock()

	token, err := c.doRefresh(ctx)

	c.mu.Lock()
	if err == nil {
		c.accessToken = token
	} else {
		c.accessToken = ""
	}
	c.refreshing = false
	waiters := c.waiters
	c.waiters = nil
	c.mu.Unlock()

	for _, ch := range waiters {
		ch <- err
	}
	if err != nil && c.onSessionExpired != nil {
		c.onSessionExpired(err)
	}
	return err
}

func (c *Client) doRefresh(ctx context.Context) (string, error) {
	resp, err := c.send(ctx, http.MethodPost, "/auth/refresh", nil, "")
	if err != nil {
		return "", err
	}
	var data struct {
		AccessToken string `json:"accessToken"`
	}
	if err := decode(resp, &data); err != nil {
		return "", err
	}
	if data.AccessToken == "" {
		return "", fmt.Errorf("refresh returned no access token")
	}
	return data.AccessToken, nil
}

// Register creates an account. Per the gateway's contract this does not log
// the client in; call Login afterwards.
func (c *Client) Register(ctx context.Context, username, email, password, role string) (*User, error) {
	var data struct {
		User User `json:"user"`
	}
	err := c.Do(ctx, http.MethodPost, "/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
		"role":     role,
	}, &data)
	if err != nil {
		return nil, err
	}
	return &data.User, nil
}

// Login authenticates and stores the returned access token; the refresh
// cookie lands in the jar.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var data struct {
		User        User   `json:"user"`
		AccessToken string `json:"accessToken"`
	}
	err := c.Do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &data)
	if err != nil {
		return nil, err
	}
	c.SetToken(data.AccessToken)
	return &data.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.Do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.SetToken("")
	return err
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.Do(ctx, http.MethodGet, "/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// isAuthPath marks the endpoints that must never trigger a refresh cycle,
// breaking the 401 -> refresh -> 401 loop.
func isAuthPath(path string) bool {
	switch path {
	case "/auth/login", "/auth/register", "/auth/refresh":
		return true
	}
	return false
}

func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode, Message: resp.Status}
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 400 {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
