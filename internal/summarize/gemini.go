package summarize

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/starford/notely/internal/apperr"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider generates summaries through the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini provider. baseURL may be empty.
func NewGeminiProvider(ctx context.Context, apiKey, model, baseURL string, httpClient *http.Client) (*GeminiProvider, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiProvider{client: client, model: model}, nil
}

// Name implements Provider.
func (p *GeminiProvider) Name() string { return "gemini" }

// Complete implements Provider.
func (p *GeminiProvider) Complete(ctx context.Context, pr Prompt) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(pr.User), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(pr.System, genai.RoleUser),
		Temperature:       genai.Ptr(float32(pr.Temperature)),
		MaxOutputTokens:   int32(pr.MaxTokens),
	})
	if err != nil {
		return "", &UpstreamError{Message: geminiMessage(err), Err: err}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no candidates", apperr.ErrUpstreamMalformed)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}

// geminiMessage returns only the message field of an API error. Status and
// details stay in the wrapped error for logs.
func geminiMessage(err error) string {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErrorMessage(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrorMessage(*apiErrPtr)
	}
	return communicationFail
}

func apiErrorMessage(e genai.APIError) string {
	if e.Message == "" {
		return unknownAPIError
	}
	return e.Message
}
