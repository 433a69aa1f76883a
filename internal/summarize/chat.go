package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/starford/notely/internal/apperr"
)

// Defaults for the OpenAI-compatible chat-completion provider.
const (
	DefaultChatEndpoint = "https://api.groq.com/openai/v1/chat/completions"
	DefaultChatModel    = "gemma2-9b-it"
)

const (
	unknownAPIError   = "Unknown API error"
	communicationFail = "failed to communicate with summary service"
	maxErrorBody      = 64 << 10
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ChatProvider talks to an OpenAI-compatible /chat/completions endpoint.
type ChatProvider struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

// NewChatProvider creates a chat-completion provider. Empty endpoint and model
// fall back to the defaults; a nil client uses http.DefaultClient.
func NewChatProvider(endpoint, model, apiKey string, client *http.Client) *ChatProvider {
	if endpoint == "" {
		endpoint = DefaultChatEndpoint
	}
	if model == "" {
		model = DefaultChatModel
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &ChatProvider{endpoint: endpoint, model: model, apiKey: apiKey, client: client}
}

// Name implements Provider.
func (p *ChatProvider) Name() string { return "chat" }

// Complete implements Provider with a single POST; there is no retry.
func (p *ChatProvider) Complete(ctx context.Context, pr Prompt) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: pr.System},
			{Role: "user", Content: pr.User},
		},
		Temperature: pr.Temperature,
		MaxTokens:   pr.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("chat: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &UpstreamError{Message: communicationFail, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &UpstreamError{
			Message: upstreamMessage(resp.Body),
			Err:     fmt.Errorf("status %d", resp.StatusCode),
		}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrUpstreamMalformed, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", apperr.ErrUpstreamMalformed)
	}
	return out.Choices[0].Message.Content, nil
}

// upstreamMessage extracts error.message from a failed response, never the raw body.
func upstreamMessage(body io.Reader) string {
	var e chatErrorResponse
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&e); err != nil || e.Error.Message == "" {
		return unknownAPIError
	}
	return e.Error.Message
}
