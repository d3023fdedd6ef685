package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/feedr/feedr/internal/clientconfig"
)

// TokenStore persists the opaque session token between runs. The on-disk
// format belongs to clientconfig; the gateway only reads and writes it.
type TokenStore interface {
	Load() (*clientconfig.AuthCredentials, error)
	Save(*clientconfig.AuthCredentials) error
	Clear() error
}

// Client is the HTTP client for the feedr backend. It is the single point
// through which the app reads and writes remote records, authenticates, and
// opens change subscriptions.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	tokens TokenStore

	mu        sync.Mutex
	token     string
	nextObsID int
	observers map[int]AuthChangeFunc
}

// New creates a new gateway client backed by the given token store.
func New(baseURL string, tokens TokenStore) *Client {
	c := &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
	}
	return c
}

// Token returns the current session token ("" when logged out).
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

// --- HTTP helpers ---

// do executes an authenticated HTTP request.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	return c.doRequest(ctx, method, path, body, result, true)
}

// doNoAuth executes an unauthenticated HTTP request.
func (c *Client) doNoAuth(ctx context.Context, method, path string, body, result any) error {
	return c.doRequest(ctx, method, path, body, result, false)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, result any, auth bool) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		if tok := c.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var envelope struct {
			Error apiError `json:"error"`
		}
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Error.Code != "" {
			switch resp.StatusCode {
			case http.StatusUnauthorized:
				return fmt.Errorf("%w: %s", ErrUnauthorized, envelope.Error.Message)
			case http.StatusForbidden:
				return fmt.Errorf("%w: %s", ErrForbidden, envelope.Error.Message)
			case http.StatusNotFound:
				return fmt.Errorf("%w: %s", ErrNotFound, envelope.Error.Message)
			default:
				return &envelope.Error
			}
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}
