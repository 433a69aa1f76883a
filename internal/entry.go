// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/starford/notely/internal/api"
	"github.com/starford/notely/internal/auth"
	"github.com/starford/notely/internal/mcpserver"
	"github.com/starford/notely/internal/notecache"
	"github.com/starford/notely/internal/notes"
	"github.com/starford/notely/internal/sse"
	"github.com/starford/notely/internal/store"
	"github.com/starford/notely/internal/store/postgres"
	"github.com/starford/notely/internal/store/sqlite"
	"github.com/starford/notely/internal/summarize"
)

const (
	sseHeartbeat    = 15 * time.Second
	readyTimeout    = 2 * time.Second
	shutdownTimeout = 10 * time.Second
)

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logger == nil {
		app.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
	}
	slog.SetDefault(app.logger)
	return app, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg, logger := app.config, app.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_driver", cfg.Store.Driver),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("summarizer_provider", cfg.Summarizer.Provider),
		slog.Bool("summarizer_remote", cfg.Summarizer.GatewayURL != ""),
		slog.Int("cache_size", cfg.Cache.Size),
		slog.Duration("cache_ttl", cfg.Cache.TTL),
		slog.String("log_level", cfg.App.LogLevel.String()))

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	gateway, err := newGateway(ctx, cfg.Summarizer, logger)
	if err != nil {
		return err
	}

	// SSE broker.
	broker := sse.NewBroker(sseHeartbeat)
	defer broker.Close()

	svc := newNoteService(cfg, st, gateway, logger, broker)

	summarizeHandler := summarize.NewHandler(gateway, rate.Limit(cfg.Summarizer.RateLimit), cfg.Summarizer.RateBurst)
	apiRouter := api.NewRouter(svc, cfg.Auth.Options(), summarizeHandler, auth.RequireUser(broker))

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		w.Header().Set("Content-Type", "application/json")
		if err := svc.Ping(pingCtx); err != nil {
			logger.Warn("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the note tools over stdio, acting as auth.dev_user_id.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg, logger := app.config, app.logger

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	gateway, err := newGateway(ctx, cfg.Summarizer, logger)
	if err != nil {
		return err
	}
	svc := newNoteService(cfg, st, gateway, logger)

	if cfg.Auth.DevUserID == "" {
		logger.Warn("auth.dev_user_id is empty; note tools will run anonymously")
	}
	logger.Info("Starting MCP server on stdio", slog.String("user_id", cfg.Auth.DevUserID))
	return mcpserver.New(svc, cfg.Auth.DevUserID).ServeStdio()
}

func openStore(ctx context.Context, cfg StoreConfig) (store.NoteStore, error) {
	switch cfg.Driver {
	case StoreDriverPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres.DSN, postgres.Options{
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
			AutoMigrate:  cfg.Postgres.AutoMigrate,
		})
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		return db, nil
	default:
		db, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("init sqlite store: %w", err)
		}
		return db, nil
	}
}

func newGateway(ctx context.Context, cfg SummarizerConfig, logger *slog.Logger) (*summarize.Gateway, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	var provider summarize.Provider
	switch cfg.Provider {
	case ProviderGemini:
		if cfg.APIKey != "" {
			p, err := summarize.NewGeminiProvider(ctx, cfg.APIKey, cfg.Model, cfg.Endpoint, httpClient)
			if err != nil {
				return nil, fmt.Errorf("init gemini provider: %w", err)
			}
			provider = p
		}
	default:
		provider = summarize.NewChatProvider(cfg.Endpoint, cfg.Model, cfg.APIKey, httpClient)
	}
	if cfg.APIKey == "" {
		logger.Warn("summarizer api_key is empty; summarization requests will fail with a configuration error")
	}
	return summarize.NewGateway(cfg.APIKey, provider, summarize.WithLogger(logger)), nil
}

// newNoteService wires the data-access layer. The note cache, when enabled,
// is registered as the first invalidator.
func newNoteService(cfg *Config, st store.NoteStore, gateway *summarize.Gateway, logger *slog.Logger, invalidators ...notes.Invalidator) *notes.Service {
	var summarizer notes.Summarizer = gateway
	if cfg.Summarizer.GatewayURL != "" {
		summarizer = summarize.NewClient(cfg.Summarizer.GatewayURL, cfg.Auth.Token, &http.Client{Timeout: cfg.Summarizer.Timeout})
	}

	opts := []notes.Option{notes.WithLogger(logger)}
	if cfg.Cache.Size > 0 {
		cached := notecache.New(st, cfg.Cache.Size, cfg.Cache.TTL)
		st = cached
		opts = append(opts, notes.WithInvalidator(cached))
	}
	for _, inv := range invalidators {
		opts = append(opts, notes.WithInvalidator(inv))
	}
	return notes.NewService(st, summarizer, opts...)
}
