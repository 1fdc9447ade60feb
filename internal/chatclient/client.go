package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// StatusError is a non-2xx reply from the chat server.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if body := strings.TrimSpace(e.Body); body != "" {
		return body
	}
	return fmt.Sprintf("server error (status %d)", e.StatusCode)
}

type Reply struct {
	Reply               string `json:"reply"`
	IncludedCompany     bool   `json:"includedCompany"`
	Attempts            int    `json:"attempts"`
	UsedMaxOutputTokens int    `json:"usedMaxOutputTokens"`
}

type ReloadResult struct {
	OK     bool    `json:"ok"`
	Loaded bool    `json:"loaded"`
	Name   *string `json:"name"`
}

// Client talks to the chat server's HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("chatclient: base URL must not be empty")
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Send posts one message to /api/chat.
func (c *Client) Send(ctx context.Context, message string) (Reply, error) {
	var out Reply
	if err := c.post(ctx, "/api/chat", map[string]string{"message": message}, &out); err != nil {
		return Reply{}, err
	}
	return out, nil
}

// ReloadCompany asks the server to re-read its company profile.
func (c *Client) ReloadCompany(ctx context.Context) (ReloadResult, error) {
	var out ReloadResult
	if err := c.post(ctx, "/api/reload-company", nil, &out); err != nil {
		return ReloadResult{}, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("chatclient: marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("chatclient: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chatclient: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("chatclient: read response body: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &StatusError{StatusCode: res.StatusCode, Body: string(raw)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("chatclient: decode response: %w", err)
	}
	return nil
}
