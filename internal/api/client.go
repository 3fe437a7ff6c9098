package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"studynotes-dashboard/internal/models"
)

const maxResponseBytes = 32 << 20

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	// Store persists identity between runs. Defaults to an in-memory store.
	Store TokenStore
}

// Client talks to the note generation backend. One Client is constructed
// at start-up and handed to everything that needs it; the bearer token is
// state on the Client, changed only through SetToken and ClearToken.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      TokenStore

	mu       sync.RWMutex
	identity Identity
}

func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("backend base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid backend base URL: %w", err)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	store := opts.Store
	if store == nil {
		store = &MemoryStore{}
	}

	c := &Client{baseURL: baseURL, httpClient: hc, store: store}

	identity, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load stored token: %w", err)
	}
	c.identity = identity

	return c, nil
}

// WithToken returns a client sharing the transport but carrying its own
// in-memory token. The dashboard server builds one per request from the
// session cookie.
func (c *Client) WithToken(token string) *Client {
	return &Client{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		store:      &MemoryStore{},
		identity:   Identity{AccessToken: token},
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) SetToken(tokens models.AuthTokens) error {
	c.mu.Lock()
	c.identity = Identity{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         tokens.User,
	}
	identity := c.identity
	c.mu.Unlock()

	return c.store.Save(identity)
}

func (c *Client) ClearToken() {
	c.mu.Lock()
	c.identity = Identity{}
	c.mu.Unlock()

	if err := c.store.Clear(); err != nil {
		log.Printf("failed to clear stored token: %v", err)
	}
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity.AccessToken
}

func (c *Client) Identity() Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

func (c *Client) IsAuthenticated() bool {
	return c.Token() != ""
}

func (c *Client) rememberUser(u *models.User) {
	c.mu.Lock()
	if c.identity.AccessToken == "" {
		c.mu.Unlock()
		return
	}
	c.identity.User = u
	identity := c.identity
	c.mu.Unlock()

	if err := c.store.Save(identity); err != nil {
		log.Printf("failed to persist user data: %v", err)
	}
}

// do sends a JSON request and decodes a JSON response into out when out is
// non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	raw, _, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) ([]byte, http.Header, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseError(resp.StatusCode, raw)
		apiErr.RequestID = req.Header.Get("X-Request-ID")
		if apiErr.IsAuth() {
			c.ClearToken()
		}
		return nil, nil, apiErr
	}

	return raw, resp.Header, nil
}

// unmarshalList accepts either a bare JSON array or an object wrapping the
// array under key.
func unmarshalList(raw []byte, key string, out any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return err
	}
	inner, ok := wrapper[key]
	if !ok {
		for _, alt := range []string{"items", "data", "results"} {
			if inner, ok = wrapper[alt]; ok {
				break
			}
		}
	}
	if !ok || bytes.Equal(bytes.TrimSpace(inner), []byte("null")) {
		return nil
	}
	return json.Unmarshal(inner, out)
}

func escape(id string) string {
	return url.PathEscape(id)
}
