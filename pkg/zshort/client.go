package zshort

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/zshort-go/pkg/httpclient"
)

const (
	// DefaultHost is the public ZShort instance.
	DefaultHost = "https://zs.zevs.me"

	apiPrefix = "/api/v1"
)

// Client is a ZShort API client. It is safe for concurrent use.
type Client struct {
	host      string
	baseURL   string
	transport httpclient.Client
	timeout   time.Duration
	log       Logger

	mu     sync.RWMutex
	token  string
	closed bool
}

// Option configures a Client.
type Option func(*Client)

// WithHost points the client at another ZShort instance.
func WithHost(host string) Option {
	return func(c *Client) {
		c.host = strings.TrimSuffix(strings.TrimSpace(host), "/")
	}
}

// WithToken starts the client with an existing access token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithTransport replaces the default resty transport.
func WithTransport(transport httpclient.Client) Option {
	return func(c *Client) {
		c.transport = transport
	}
}

// WithTimeout bounds each request made by the default transport.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a client. The transport is opened here and released by Close.
func New(opts ...Option) *Client {
	c := &Client{host: DefaultHost}
	for _, opt := range opts {
		opt(c)
	}
	if c.host == "" {
		c.host = DefaultHost
	}
	if c.transport == nil {
		c.transport = httpclient.NewRestyClient(c.timeout)
	}
	c.log = ensureLogger(c.log)
	c.baseURL = c.host + apiPrefix
	return c
}

// Host returns the service host links are built from.
func (c *Client) Host() string { return c.host }

// BaseURL returns host + "/api/v1".
func (c *Client) BaseURL() string { return c.baseURL }

// Token returns the current access token, or "" when not authenticated.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Authenticated reports whether a token is set.
func (c *Client) Authenticated() bool { return c.Token() != "" }

// Close releases the underlying connections. Later calls fail with ErrClientClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if closer, ok := c.transport.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Login exchanges credentials for an access token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, username, password string) error {
	payload := map[string]string{
		"username": username,
		"password": password,
	}
	return c.authenticate(ctx, "/auth/token", payload)
}

// Register creates an account using an invite token from an existing user,
// then keeps the returned access token.
func (c *Client) Register(ctx context.Context, username, password, invite string) error {
	payload := map[string]string{
		"username": username,
		"password": password,
		"invite":   invite,
	}
	return c.authenticate(ctx, "/auth/register", payload)
}

func (c *Client) authenticate(ctx context.Context, path string, payload any) error {
	resp, err := c.send(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	data, err := Interpret(resp)
	if err != nil {
		return err
	}

	var token string
	raw, ok := data["access_token"]
	if !ok || isAbsent(raw) {
		return &ValidationError{Field: "access_token", Reason: "field required"}
	}
	if err := json.Unmarshal(raw, &token); err != nil {
		return &ValidationError{Field: "access_token", Reason: "expected a string"}
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	c.log.DebugObj("zshort token updated", "zshort_auth", map[string]any{
		"host": c.host,
		"path": path,
	})
	return nil
}

// Get fetches the short URL for slug.
func (c *Client) Get(ctx context.Context, slug string) (*ShortURL, error) {
	resp, err := c.send(ctx, http.MethodGet, "/short/"+url.PathEscape(slug), nil)
	if err != nil {
		return nil, err
	}
	data, err := Interpret(resp)
	if err != nil {
		return nil, err
	}
	return c.build(data, slug)
}

// CreateOptions holds the optional fields of Create. Empty strings and a zero
// ExpiresAt are sent as null.
type CreateOptions struct {
	Slug      string
	Title     string
	ExpiresAt time.Time
}

// Create shortens longURL. If the slug is already taken the service answers
// 409 with the existing record, which is returned without error.
func (c *Client) Create(ctx context.Context, longURL string, opts CreateOptions) (*ShortURL, error) {
	if !c.Authenticated() {
		return nil, ErrNotAuthenticated
	}

	body := shortRequest{
		URL:       &longURL,
		Slug:      optional(opts.Slug),
		Title:     optional(opts.Title),
		ExpiresAt: optionalInstant(opts.ExpiresAt),
	}
	resp, err := c.send(ctx, http.MethodPost, "/short/", body)
	if err != nil {
		return nil, err
	}
	data, err := interpretShort(resp)
	if err != nil {
		return nil, err
	}

	slug := opts.Slug
	if slug == "" {
		// The service picked the slug; use the one it reported.
		slug, _ = stringField(data, "slug")
	}
	return c.build(data, slug)
}

// EditOptions holds the fields to change. Empty strings and a zero ExpiresAt
// are sent as null.
type EditOptions struct {
	URL       string
	NewSlug   string
	Title     string
	ExpiresAt time.Time
}

// Edit updates the short URL at slug. Like Create, a 409 returns the existing
// record. The returned URL is built from slug, not from NewSlug.
func (c *Client) Edit(ctx context.Context, slug string, opts EditOptions) (*ShortURL, error) {
	if !c.Authenticated() {
		return nil, ErrNotAuthenticated
	}

	body := shortRequest{
		URL:       optional(opts.URL),
		Slug:      optional(opts.NewSlug),
		Title:     optional(opts.Title),
		ExpiresAt: optionalInstant(opts.ExpiresAt),
	}
	resp, err := c.send(ctx, http.MethodPatch, "/short/"+url.PathEscape(slug), body)
	if err != nil {
		return nil, err
	}
	data, err := interpretShort(resp)
	if err != nil {
		return nil, err
	}
	return c.build(data, slug)
}

// Delete removes the short URL at slug.
func (c *Client) Delete(ctx context.Context, slug string) error {
	if !c.Authenticated() {
		return ErrNotAuthenticated
	}

	resp, err := c.send(ctx, http.MethodDelete, "/short/"+url.PathEscape(slug), nil)
	if err != nil {
		return err
	}
	_, err = Interpret(resp)
	return err
}

// shortRequest is the body of create and edit calls; nil fields encode as null.
type shortRequest struct {
	URL       *string    `json:"url"`
	Slug      *string    `json:"slug"`
	Title     *string    `json:"title"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// interpretShort handles the duplicate-slug answer of create and edit: a 409
// carries the existing record under "short" and is not an error.
func interpretShort(resp httpclient.Response) (map[string]json.RawMessage, error) {
	if resp.StatusCode() != http.StatusConflict {
		return Interpret(resp)
	}

	body, err := decodeObject(resp.Body())
	if err != nil {
		return nil, &ValidationError{Field: "body", Reason: err.Error()}
	}
	raw, ok := body["short"]
	if !ok || isAbsent(raw) {
		return nil, &ValidationError{Field: "short", Reason: "field required"}
	}
	var short map[string]json.RawMessage
	if err := json.Unmarshal(raw, &short); err != nil {
		return nil, &ValidationError{Field: "short", Reason: "expected an object"}
	}
	return short, nil
}

// build injects the client-side link and decodes the record.
func (c *Client) build(data map[string]json.RawMessage, slug string) (*ShortURL, error) {
	link, err := json.Marshal(c.host + "/" + slug)
	if err != nil {
		return nil, fmt.Errorf("encode link: %w", err)
	}
	data["url"] = link
	return ParseShortURL(data)
}

// send builds and executes a request. The Authorization header reflects the
// token at the moment the request is built.
func (c *Client) send(ctx context.Context, method, path string, payload any) (httpclient.Response, error) {
	c.mu.RLock()
	token, closed := c.token, c.closed
	c.mu.RUnlock()
	if closed {
		return nil, ErrClientClosed
	}

	req := httpclient.Request{
		Method:  method,
		URL:     c.baseURL + path,
		Headers: map[string]string{"Accept": "application/json"},
	}
	if token != "" {
		req.Headers["Authorization"] = "Bearer " + token
	}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		req.Body = body
		req.Headers["Content-Type"] = "application/json"
	}

	start := time.Now()
	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		c.log.WarnObj("zshort request failed", "zshort_request_error", map[string]any{
			"method": method,
			"url":    req.URL,
			"error":  err.Error(),
		})
		return nil, &TransportError{Method: method, URL: req.URL, Err: err}
	}
	c.log.DebugObj("zshort request completed", "zshort_request", map[string]any{
		"method":     method,
		"url":        req.URL,
		"status":     resp.StatusCode(),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return resp, nil
}

func stringField(data map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := data[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalInstant(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
