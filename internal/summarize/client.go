package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Client calls a gateway's POST /api/summarize endpoint over HTTP.
type Client struct {
	url    string
	token  string
	client *http.Client
}

// NewClient creates a client for the gateway at baseURL (e.g. http://localhost:8080).
// token, when non-empty, is sent as a bearer token.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		url:    strings.TrimRight(baseURL, "/") + "/api/summarize",
		token:  token,
		client: httpClient,
	}
}

// Summarize sends content to the gateway and returns its summary.
// Gateway-reported failures are returned with the gateway's error message.
func (c *Client) Summarize(ctx context.Context, content string) (string, error) {
	body, err := json.Marshal(Request{Content: content})
	if err != nil {
		return "", fmt.Errorf("summarize client: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("summarize client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("summarize client: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = resp.Status
		}
		return "", fmt.Errorf("summarize client: gateway returned %d: %s", resp.StatusCode, e.Error)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("summarize client: decode response: %w", err)
	}
	return out.Summary, nil
}
