// Package summarize implements the summarization gateway: it validates a
// text payload, forwards it to a chat-completion provider with the secret API
// key and normalises the outcome for callers.
package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/notely/internal/apperr"
	"github.com/starford/notely/internal/metrics"
)

const (
	systemPrompt    = "You are a helpful assistant that creates concise, accurate summaries of text."
	userPromptLead  = "Please provide a concise summary (3-5 sentences) of the following text:\n\n"
	temperature     = 0.3
	maxOutputTokens = 200
)

// Prompt is one chat-completion request.
type Prompt struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Provider sends a prompt to a language model and returns the generated text.
type Provider interface {
	Name() string
	Complete(ctx context.Context, p Prompt) (string, error)
}

// UpstreamError is a provider failure whose message is safe to show to callers.
type UpstreamError struct {
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream: %s: %v", e.Message, e.Err)
	}
	return "upstream: " + e.Message
}

// Unwrap lets errors.Is match apperr.ErrUpstream and the transport cause.
func (e *UpstreamError) Unwrap() []error {
	if e.Err != nil {
		return []error{apperr.ErrUpstream, e.Err}
	}
	return []error{apperr.ErrUpstream}
}

// Gateway turns note content into a short summary.
type Gateway struct {
	apiKey   string
	provider Provider
	logger   *slog.Logger
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithLogger sets the gateway logger.
func WithLogger(l *slog.Logger) GatewayOption {
	return func(g *Gateway) { g.logger = l }
}

// NewGateway creates a gateway. An empty apiKey is accepted so the process can
// start; every call then fails with apperr.ErrConfiguration.
func NewGateway(apiKey string, provider Provider, opts ...GatewayOption) *Gateway {
	g := &Gateway{apiKey: apiKey, provider: provider, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Summarize returns a trimmed summary of content.
func (g *Gateway) Summarize(ctx context.Context, content string) (string, error) {
	if content == "" {
		return "", fmt.Errorf("%w: content is required", apperr.ErrInvalidInput)
	}
	if g.apiKey == "" || g.provider == nil {
		g.logger.Error("summarizer API key is not configured")
		return "", fmt.Errorf("%w: summarizer API key is missing", apperr.ErrConfiguration)
	}

	start := time.Now()
	out, err := g.provider.Complete(ctx, Prompt{
		System:      systemPrompt,
		User:        userPromptLead + content,
		Temperature: temperature,
		MaxTokens:   maxOutputTokens,
	})
	metrics.RecordUpstreamCall(g.provider.Name(), time.Since(start).Seconds())
	if err != nil {
		g.logger.Error("summarization failed",
			slog.String("provider", g.provider.Name()),
			slog.String("error", err.Error()))
		return "", err
	}
	return strings.TrimSpace(out), nil
}
