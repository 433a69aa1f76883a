package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/starford/notely/internal/apperr"
	"github.com/starford/notely/internal/auth"
	"github.com/starford/notely/internal/metrics"
)

// Error messages returned by the gateway endpoint.
const (
	MsgInvalidContent  = "Content is required and must be a string"
	MsgConfiguration   = "API configuration error"
	MsgUpstreamPrefix  = "Failed to generate summary: "
	MsgInternal        = "Internal server error"
	MsgTooManyRequests = "Too many requests"
)

const maxRequestBody = 1 << 20

// Summarizer is the gateway contract the handler serves.
type Summarizer interface {
	Summarize(ctx context.Context, content string) (string, error)
}

// Request is the body of POST /api/summarize.
type Request struct {
	Content string `json:"content"`
}

// Response is the success body of POST /api/summarize.
type Response struct {
	Summary string `json:"summary"`
}

// ErrorResponse is the failure body of POST /api/summarize.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler serves POST /api/summarize.
type Handler struct {
	gw      Summarizer
	limiter *keyedLimiter
}

// NewHandler creates the endpoint handler. A zero limit disables rate limiting.
func NewHandler(gw Summarizer, limit rate.Limit, burst int) *Handler {
	h := &Handler{gw: gw}
	if limit > 0 {
		h.limiter = newKeyedLimiter(limit, burst)
	}
	return h
}

// ServeHTTP handles one summarization request.
//
//	@Summary	Summarize text
//	@Tags		summarize
//	@Accept		json
//	@Produce	json
//	@Param		body	body		Request	true	"Text to summarize"
//	@Success	200		{object}	Response
//	@Failure	400		{object}	ErrorResponse
//	@Failure	429		{object}	ErrorResponse
//	@Failure	500		{object}	ErrorResponse
//	@Router		/summarize [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil && !h.limiter.allow(callerKey(r)) {
		metrics.RecordSummarize(metrics.OutcomeRateLimited)
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: MsgTooManyRequests})
		return
	}

	content, ok := decodeContent(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if !ok {
		metrics.RecordSummarize(metrics.OutcomeInvalid)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: MsgInvalidContent})
		return
	}

	summary, err := h.gw.Summarize(r.Context(), content)
	if err != nil {
		status, msg, outcome := classify(err)
		metrics.RecordSummarize(outcome)
		writeJSON(w, status, ErrorResponse{Error: msg})
		return
	}
	metrics.RecordSummarize(metrics.OutcomeOK)
	writeJSON(w, http.StatusOK, Response{Summary: summary})
}

// decodeContent accepts only an object whose content field is a non-empty string.
func decodeContent(body io.Reader) (string, bool) {
	var raw struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return "", false
	}
	trimmed := bytes.TrimSpace(raw.Content)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var content string
	if err := json.Unmarshal(trimmed, &content); err != nil || content == "" {
		return "", false
	}
	return content, true
}

func classify(err error) (status int, msg, outcome string) {
	var upstream *UpstreamError
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest, MsgInvalidContent, metrics.OutcomeInvalid
	case errors.Is(err, apperr.ErrConfiguration):
		return http.StatusInternalServerError, MsgConfiguration, metrics.OutcomeConfig
	case errors.As(err, &upstream):
		return http.StatusInternalServerError, MsgUpstreamPrefix + upstream.Message, metrics.OutcomeUpstream
	default:
		return http.StatusInternalServerError, MsgInternal, metrics.OutcomeInternal
	}
}

func callerKey(r *http.Request) string {
	if id, ok := auth.UserIDFromContext(r.Context()); ok {
		return "user:" + id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

const limiterIdleTTL = 10 * time.Minute

type keyedEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// keyedLimiter holds one token bucket per caller. Idle buckets are swept on access.
type keyedLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*keyedEntry
	rate      rate.Limit
	burst     int
	lastSweep time.Time
}

func newKeyedLimiter(r rate.Limit, burst int) *keyedLimiter {
	if burst < 1 {
		burst = 1
	}
	return &keyedLimiter{
		limiters:  make(map[string]*keyedEntry),
		rate:      r,
		burst:     burst,
		lastSweep: time.Now(),
	}
}

func (l *keyedLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for k, e := range l.limiters {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(l.limiters, k)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.limiters[key]
	if !ok {
		e = &keyedEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter.Allow()
}
